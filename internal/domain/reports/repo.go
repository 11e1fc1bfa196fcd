package reports

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the off-chain registry: report rows plus the mirrored
// permission set and the sync-debt queue the reconciler drains.
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*Report, int, error)

	// AddPermission is idempotent: adding an address already present
	// succeeds without duplicating it.
	AddPermission(ctx context.Context, reportID uuid.UUID, grantee string) error
	RemovePermission(ctx context.Context, reportID uuid.UUID, grantee string) error
	// ReplacePermissions overwrites the mirrored set with the ledger's
	// authoritative allow-list.
	ReplacePermissions(ctx context.Context, reportID uuid.UUID, addrs []string) error

	AddSyncDebt(ctx context.Context, reportID uuid.UUID) error
	ListSyncDebt(ctx context.Context, limit int) ([]SyncDebt, error)
	ClearSyncDebt(ctx context.Context, reportID uuid.UUID) error
}
