package uuid

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// UUID is 16 bytes
type UUID [16]byte

// New returns a new random UUID v4.
func New() UUID {
	var u UUID
	// crypto/rand.Read never returns an error
	rand.Read(u[:])
	// version (4)
	u[6] = (u[6] & 0x0f) | 0x40
	// variant (RFC 4122)
	u[8] = (u[8] & 0x3f) | 0x80
	return u
}

// NewString returns a new UUID v4 in the canonical text form.
func NewString() string {
	return New().String()
}

// String formats the UUID as XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX
func (u UUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}

// Parse parses the canonical text form into a UUID
func Parse(s string) (UUID, error) {
	var u UUID
	s = strings.ToLower(s)

	parts := strings.Split(s, "-")
	if len(parts) != 5 {
		return UUID{}, errors.New("invalid uuid format")
	}
	joined := strings.Join(parts, "")
	if len(joined) != 32 {
		return UUID{}, errors.New("invalid uuid length")
	}

	b, err := hex.DecodeString(joined)
	if err != nil {
		return UUID{}, err
	}
	copy(u[:], b)
	return u, nil
}

// MarshalJSON serializes the UUID as a string
func (u UUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON parses a UUID from a JSON string
func (u *UUID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
