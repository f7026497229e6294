// Package security provides secret masking for CLI output.
package security

import (
	"io"
	"strings"
	"sync"
)

// minSecretLength guards against masking trivial values: a 1-character
// "secret" would shred unrelated output.
const minSecretLength = 6

// Masker replaces known secret values with a placeholder in output. It is
// used to keep bearer and subject tokens out of logs, in particular in CI
// where log lines are retained.
type Masker struct {
	mu      sync.RWMutex
	secrets []string
}

// NewMasker creates a masker for the given secret values. Empty and very
// short values are ignored.
func NewMasker(secrets ...string) *Masker {
	m := &Masker{}
	m.Add(secrets...)
	return m
}

// Add registers additional secret values.
func (m *Masker) Add(secrets ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range secrets {
		if len(s) >= minSecretLength {
			m.secrets = append(m.secrets, s)
		}
	}
}

// Mask returns s with every registered secret replaced by "***".
func (m *Masker) Mask(s string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, secret := range m.secrets {
		s = strings.ReplaceAll(s, secret, "***")
	}
	return s
}

// Writer wraps w so that everything written through it is masked.
// Masking is applied per Write call; the logger emits one record per call,
// so secrets never straddle a chunk boundary.
func (m *Masker) Writer(w io.Writer) io.Writer {
	return &maskingWriter{masker: m, w: w}
}

type maskingWriter struct {
	masker *Masker
	w      io.Writer
}

func (mw *maskingWriter) Write(p []byte) (int, error) {
	masked := mw.masker.Mask(string(p))
	if _, err := mw.w.Write([]byte(masked)); err != nil {
		return 0, err
	}
	// Report the original length: callers account for what they passed in,
	// not for the substituted text.
	return len(p), nil
}
