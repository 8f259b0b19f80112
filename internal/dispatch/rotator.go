package dispatch

import (
	"strings"
	"sync/atomic"

	"github.com/KillerHyena/Inquiro/internal/domain"
)

// Credential is one API key together with its position in the rotation.
type Credential struct {
	Index int
	Key   string
}

// Redacted returns a log-safe form of the key.
func (c Credential) Redacted() string {
	if len(c.Key) <= 8 {
		return "****"
	}
	return c.Key[:3] + "..." + c.Key[len(c.Key)-4:]
}

// Rotator hands out credentials round-robin. A failing key stays in the
// rotation.
type Rotator struct {
	creds []Credential
	next  atomic.Uint64
}

// NewRotator trims keys, drops blanks and fails with
// domain.ErrNoCredentials when nothing is left.
func NewRotator(keys []string) (*Rotator, error) {
	creds := make([]Credential, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		creds = append(creds, Credential{Index: len(creds), Key: key})
	}
	if len(creds) == 0 {
		return nil, domain.ErrNoCredentials
	}
	return &Rotator{creds: creds}, nil
}

// Next returns the current credential and advances the rotation.
func (r *Rotator) Next() Credential {
	n := r.next.Add(1) - 1
	return r.creds[n%uint64(len(r.creds))]
}

// Len reports the number of credentials in rotation.
func (r *Rotator) Len() int {
	return len(r.creds)
}
