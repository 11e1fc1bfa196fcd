// Package ledger wraps the external allow-list registry that anchors every
// access-control decision for stored reports. The registry is append-only and
// keyed by content identifier; each entry records the owning address and the
// set of addresses the owner has granted. The application database only
// mirrors this state; the ledger answer is authoritative.
package ledger

import (
	"context"
	"errors"
)

var (
	// ErrUnauthorized is returned when the acting address is not the
	// recorded owner of the content identifier.
	ErrUnauthorized = errors.New("ledger: caller is not the owner")
	// ErrNotGranted is returned by Revoke when the address was never granted.
	ErrNotGranted = errors.New("ledger: address was not granted")
	// ErrTimeout is returned when a transaction does not reach finality
	// within the configured deadline.
	ErrTimeout = errors.New("ledger: transaction timed out")
	// ErrUnavailable is returned on transport failure.
	ErrUnavailable = errors.New("ledger: gateway unavailable")
	// ErrRejected is returned when the gateway rejects a transaction for a
	// reason other than ownership (malformed id, duplicate registration by
	// another owner, chain-level revert).
	ErrRejected = errors.New("ledger: transaction rejected")
)

// Client issues calls against the permission registry. State-changing calls
// block until transaction finality; the caller address is explicit on every
// mutating call so the ledger can enforce ownership itself.
type Client interface {
	// Register records owner as the owning address of contentID.
	Register(ctx context.Context, contentID, owner string) error
	// Grant adds grantee to the allow-list for contentID. Owner-only.
	Grant(ctx context.Context, contentID, caller, grantee string) error
	// Revoke removes grantee from the allow-list for contentID. Owner-only;
	// fails with ErrNotGranted if grantee was never granted.
	Revoke(ctx context.Context, contentID, caller, grantee string) error
	// CanAccess reports whether addr is the owner of contentID or present
	// in its allow-list. Read-only.
	CanAccess(ctx context.Context, contentID, addr string) (bool, error)
	// AllowList returns the full granted set for contentID (owner excluded).
	// Used by the mirror reconciliation job, never for authorization.
	AllowList(ctx context.Context, contentID string) ([]string, error)
}
