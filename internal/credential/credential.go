// Package credential carries the caller's session token to the todo backend
// without ever interpreting, logging or persisting it.
package credential

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

const redacted = "[REDACTED]"

var (
	ErrMissing = errors.New("session token is required")
	ErrNotText = errors.New("session token must be a string")
	// ErrMalformed reports a token that cannot be sent as a header value.
	ErrMalformed = errors.New("session token contains control characters")
)

// Credential is an opaque per-request session token. The zero value means
// "no credential".
type Credential struct {
	token string
}

// FromString wraps raw unchanged. Blank or whitespace-only input is rejected,
// as is input carrying control bytes.
func FromString(raw string) (Credential, error) {
	if strings.TrimSpace(raw) == "" {
		return Credential{}, ErrMissing
	}
	if strings.IndexFunc(raw, isControl) >= 0 {
		return Credential{}, ErrMalformed
	}
	return Credential{token: raw}, nil
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// FromValue accepts a decoded JSON value. Anything other than a non-blank
// string is rejected.
func FromValue(v any) (Credential, error) {
	switch raw := v.(type) {
	case nil:
		return Credential{}, ErrMissing
	case string:
		return FromString(raw)
	default:
		return Credential{}, ErrNotText
	}
}

func (c Credential) IsZero() bool {
	return c.token == ""
}

// Bearer returns the Authorization header value for outbound calls.
func (c Credential) Bearer() string {
	return "Bearer " + c.token
}

func (c Credential) String() string {
	if c.IsZero() {
		return ""
	}
	return redacted
}

func (c Credential) GoString() string {
	return "credential.Credential{" + c.String() + "}"
}

func (c Credential) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c Credential) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Field reports only whether a credential is present.
func Field(c Credential) zap.Field {
	return zap.Bool("credential_present", !c.IsZero())
}
