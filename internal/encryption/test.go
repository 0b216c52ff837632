package encryption

import (
	"fmt"
	"strings"
)

// testHeader marks values sealed by TestSealer.
const testHeader = "PETSEAL:"

// TestSealer is a deterministic, reversible sealer for tests. It prepends a
// fixed header so sealed output differs from plaintext without any crypto.
type TestSealer struct {
	setupCalled bool
}

func NewTestSealer() *TestSealer {
	return &TestSealer{}
}

func (s *TestSealer) Setup() error {
	s.setupCalled = true
	return nil
}

func (s *TestSealer) IsConfigured() bool {
	return true
}

func (s *TestSealer) Seal(plaintext string) (string, error) {
	return testHeader + plaintext, nil
}

func (s *TestSealer) Open(sealed string) (string, error) {
	plain, ok := strings.CutPrefix(sealed, testHeader)
	if !ok {
		return "", fmt.Errorf("invalid test seal header")
	}
	return plain, nil
}
