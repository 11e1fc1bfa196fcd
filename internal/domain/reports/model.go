package reports

import (
	"time"

	"github.com/google/uuid"
)

// Report maps to the report table. Owner and content identifier are fixed at
// creation; re-uploading a file produces a new Report. Permissions mirrors
// the ledger allow-list for display and listing; it is never consulted to
// decide access.
type Report struct {
	ID           uuid.UUID `db:"id" json:"id"`
	OwnerAddress string    `db:"owner_address" json:"owner_address"`
	ContentID    string    `db:"content_id" json:"content_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	Permissions  []string  `json:"permissions"` // populated from report_permission
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// HasPermission reports whether addr is in the mirrored permission set.
// Display-only; the ledger answer is authoritative for access decisions.
func (r *Report) HasPermission(addr string) bool {
	for _, p := range r.Permissions {
		if p == addr {
			return true
		}
	}
	return false
}

// Download is the result of a successful download request.
type Download struct {
	ContentID string `json:"content_id"`
	FileName  string `json:"file_name"`
	Data      []byte `json:"-"`
}

// SyncDebt marks a report whose mirrored permission set is known to lag the
// ledger after a registry write failed post-commit. The reconciler drains it.
type SyncDebt struct {
	ReportID   uuid.UUID `db:"report_id" json:"report_id"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
