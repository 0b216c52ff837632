package encryption

import (
	"errors"
	"fmt"

	"pet-tracker/internal/config"
)

// ErrNotConfigured is returned when sealing before Setup has created a key.
var ErrNotConfigured = errors.New("encryption key not configured")

// Sealer protects secrets stored in the local key-value store.
type Sealer interface {
	Setup() error
	IsConfigured() bool
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

var (
	_ Sealer = (*AgeSealer)(nil)
	_ Sealer = (*TestSealer)(nil)
)

// NewSealerFromConfig creates a Sealer based on the configuration type.
func NewSealerFromConfig(cfg config.EncryptionConfig) (Sealer, error) {
	switch cfg.Type {
	case "age", "":
		if cfg.IdentityPath == "" {
			return nil, fmt.Errorf("age encryption requires identity_path to be set")
		}
		return NewAgeSealer(cfg.IdentityPath), nil
	case "test":
		return NewTestSealer(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
