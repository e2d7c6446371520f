package command

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"

	goerrors "github.com/pixil98/go-errors"
	"github.com/pixil98/go-palace/internal/listener"
	"github.com/pixil98/go-service"
	"golang.org/x/crypto/ssh"
)

type ListenerProtocol string

const (
	ListenerProtocolTelnet ListenerProtocol = "telnet"
	ListenerProtocolSSH    ListenerProtocol = "ssh"
)

// ListenerConfig is one text surface onto the palace.
type ListenerConfig struct {
	Protocol ListenerProtocol `json:"protocol"`
	Host     string           `json:"host,omitempty"`
	Port     uint16           `json:"port"`

	// HostKeyPath is the ssh host key. A missing file is generated and
	// written there so clients see the same key across restarts.
	HostKeyPath string `json:"host_key_path,omitempty"`
}

func (cl *ListenerConfig) validate() error {
	el := goerrors.NewErrorList()

	switch cl.Protocol {
	case ListenerProtocolTelnet:
		if cl.HostKeyPath != "" {
			el.Add(fmt.Errorf("host_key_path only applies to ssh listeners"))
		}
	case ListenerProtocolSSH:
	default:
		el.Add(fmt.Errorf("protocol must be %q or %q, got %q", ListenerProtocolTelnet, ListenerProtocolSSH, cl.Protocol))
	}

	if cl.Port == 0 {
		el.Add(fmt.Errorf("port must be set to a positive integer"))
	}

	return el.Err()
}

func (cl *ListenerConfig) addr() string {
	return net.JoinHostPort(cl.Host, strconv.Itoa(int(cl.Port)))
}

func (cl *ListenerConfig) BuildListener(cm *listener.ConnectionManager) (service.Worker, error) {
	switch cl.Protocol {
	case ListenerProtocolTelnet:
		return listener.NewTelnetListener(cl.addr(), cm), nil
	case ListenerProtocolSSH:
		hostKey, err := cl.hostKey()
		if err != nil {
			return nil, fmt.Errorf("setting up ssh host key: %w", err)
		}
		return listener.NewSSHListener(cl.addr(), cm, hostKey), nil
	default:
		return nil, fmt.Errorf("unknown listener protocol %q", cl.Protocol)
	}
}

// hostKey loads the configured key, generating it on first use. Without a
// path the key only lives as long as the process.
func (cl *ListenerConfig) hostKey() (ssh.Signer, error) {
	if cl.HostKeyPath != "" {
		keyBytes, err := os.ReadFile(cl.HostKeyPath)
		if err == nil {
			signer, err := ssh.ParsePrivateKey(keyBytes)
			if err != nil {
				return nil, fmt.Errorf("parsing host key %q: %w", cl.HostKeyPath, err)
			}
			return signer, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading host key %q: %w", cl.HostKeyPath, err)
		}
	}

	_, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating host key: %w", err)
	}

	if cl.HostKeyPath == "" {
		slog.Warn("no host_key_path configured for ssh listener, using an ephemeral key")
	} else {
		block, err := ssh.MarshalPrivateKey(privKey, "go-palace host key")
		if err != nil {
			return nil, fmt.Errorf("encoding host key: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(cl.HostKeyPath), 0o700); err != nil {
			return nil, fmt.Errorf("creating host key directory: %w", err)
		}
		if err := os.WriteFile(cl.HostKeyPath, pem.EncodeToMemory(block), 0o600); err != nil {
			return nil, fmt.Errorf("writing host key %q: %w", cl.HostKeyPath, err)
		}
		slog.Info("generated ssh host key", "path", cl.HostKeyPath)
	}

	signer, err := ssh.NewSignerFromKey(privKey)
	if err != nil {
		return nil, fmt.Errorf("creating signer from host key: %w", err)
	}
	return signer, nil
}
