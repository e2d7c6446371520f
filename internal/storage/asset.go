package storage

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pixil98/go-errors"
)

const assetVersion = 1

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

type ValidatingSpec interface {
	Validate() error
}

// Asset is the envelope every persisted record is written in.
type Asset[T ValidatingSpec] struct {
	Version    uint   `json:"version"`
	Identifier string `json:"id"`
	Spec       T      `json:"spec"`
}

func newAsset[T ValidatingSpec](id string, spec T) *Asset[T] {
	return &Asset[T]{
		Version:    assetVersion,
		Identifier: id,
		Spec:       spec,
	}
}

func encodeAsset[T ValidatingSpec](id string, spec T) ([]byte, error) {
	data, err := json.Marshal(newAsset(id, spec))
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", id, err)
	}
	return data, nil
}

// decodeAsset unmarshals and validates one persisted record.
func decodeAsset[T ValidatingSpec](data []byte) (*Asset[T], error) {
	asset := &Asset[T]{}
	if err := json.Unmarshal(data, asset); err != nil {
		return nil, fmt.Errorf("unmarshalling asset: %w", err)
	}
	if err := asset.Validate(); err != nil {
		return nil, fmt.Errorf("validating asset: %w", err)
	}
	return asset, nil
}

func (a *Asset[T]) Id() string {
	return a.Identifier
}

func (a *Asset[T]) Validate() error {
	el := errors.NewErrorList()

	switch {
	case a.Version == 0:
		el.Add(fmt.Errorf("version must be set"))
	case a.Version > assetVersion:
		el.Add(fmt.Errorf("version %d is newer than supported version %d", a.Version, assetVersion))
	}

	if a.Identifier == "" {
		el.Add(fmt.Errorf("id must be set"))
	} else if !ValidIdentifier(a.Identifier) {
		el.Add(fmt.Errorf("id must be alphanumeric"))
	}

	el.Add(a.Spec.Validate())

	return el.Err()
}

// ValidIdentifier reports whether id is safe to use as a file name and a
// key-value key.
func ValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}
