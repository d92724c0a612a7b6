// Package nonce issues and redeems the single-use nonces embedded in SIWE
// authentication messages. A nonce must have been issued by this service and
// is consumed atomically on the first verification attempt, which makes
// replayed messages fail.
package nonce

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTTL is how long an issued nonce stays redeemable.
	DefaultTTL = 10 * time.Minute
)

// Store tracks issued nonces.
type Store interface {
	// Issue records a freshly generated nonce as redeemable.
	Issue(ctx context.Context, nonce string) error

	// Consume redeems a nonce exactly once. Returns ErrNonceUnknown when the
	// nonce was never issued, already consumed, or expired.
	Consume(ctx context.Context, nonce string) error
}

// ErrNonceUnknown means the nonce was never issued, expired, or was already
// consumed.
var ErrNonceUnknown = errors.New("nonce unknown or already used")

// Generate produces a fresh alphanumeric nonce. UUID hex without dashes
// gives 32 characters, comfortably above the 8-character SIWE minimum.
func Generate() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
