package command

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-palace/internal/commands"
	"github.com/pixil98/go-palace/internal/imagegen"
)

// TokenEnv is read when api_token is not set in the configuration.
const TokenEnv = "REPLICATE_API_TOKEN"

type ImageConfig struct {
	BaseURL      string `json:"base_url,omitempty"`
	APIToken     string `json:"api_token,omitempty"`
	ModelVersion string `json:"model_version"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	StyleSuffix  string `json:"style_suffix,omitempty"`
	PollInterval string `json:"poll_interval,omitempty"`
	MaxAttempts  int    `json:"max_attempts,omitempty"`
	// await or background
	Mode    string `json:"mode,omitempty"`
	Timeout string `json:"timeout,omitempty"`

	BreakerFailures uint32 `json:"breaker_failures,omitempty"`
	BreakerCooldown string `json:"breaker_cooldown,omitempty"`
}

func (c *ImageConfig) validate() error {
	el := errors.NewErrorList()

	for name, v := range map[string]string{
		"poll_interval":    c.PollInterval,
		"timeout":          c.Timeout,
		"breaker_cooldown": c.BreakerCooldown,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			el.Add(fmt.Errorf("image_generation: parsing %s: %w", name, err))
		}
	}

	switch commands.ImageMode(c.Mode) {
	case "", commands.ImageModeAwait, commands.ImageModeBackground:
	default:
		el.Add(fmt.Errorf("image_generation: unknown mode %q", c.Mode))
	}

	if c.Width < 0 || c.Height < 0 {
		el.Add(fmt.Errorf("image_generation: width and height cannot be negative"))
	}
	if c.MaxAttempts < 0 {
		el.Add(fmt.Errorf("image_generation: max_attempts cannot be negative"))
	}

	return el.Err()
}

func (c *ImageConfig) token() string {
	if c.APIToken != "" {
		return c.APIToken
	}
	return os.Getenv(TokenEnv)
}

// ExecutorOpts wires the image provider into the executor. Without a token
// and model version rooms are created without images.
func (c *ImageConfig) ExecutorOpts() ([]commands.ExecutorOpt, error) {
	var clientOpts []imagegen.ClientOpt
	if c.BaseURL != "" {
		clientOpts = append(clientOpts, imagegen.WithBaseURL(c.BaseURL))
	}
	if c.PollInterval != "" {
		d, err := time.ParseDuration(c.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing poll_interval: %w", err)
		}
		clientOpts = append(clientOpts, imagegen.WithPollInterval(d))
	}
	if c.MaxAttempts > 0 {
		clientOpts = append(clientOpts, imagegen.WithMaxAttempts(c.MaxAttempts))
	}
	if c.BreakerFailures > 0 {
		cooldown := time.Minute
		if c.BreakerCooldown != "" {
			d, err := time.ParseDuration(c.BreakerCooldown)
			if err != nil {
				return nil, fmt.Errorf("parsing breaker_cooldown: %w", err)
			}
			cooldown = d
		}
		clientOpts = append(clientOpts, imagegen.WithBreaker(c.BreakerFailures, cooldown))
	}

	client := imagegen.NewClient(c.token(), c.ModelVersion, clientOpts...)
	if !client.Configured() {
		slog.Info("image generation disabled, no api token or model version configured")
		return nil, nil
	}

	size := imagegen.Size{Width: imagegen.DefaultWidth, Height: imagegen.DefaultHeight}
	if c.Width > 0 {
		size.Width = c.Width
	}
	if c.Height > 0 {
		size.Height = c.Height
	}

	opts := []commands.ExecutorOpt{
		commands.WithImageGenerator(client),
		commands.WithImageSize(size),
		commands.WithStyleSuffix(c.StyleSuffix),
	}
	if c.Mode != "" {
		opts = append(opts, commands.WithImageMode(commands.ImageMode(c.Mode)))
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parsing timeout: %w", err)
		}
		opts = append(opts, commands.WithImageTimeout(d))
	}

	return opts, nil
}
