// Package audit persists provenance events for every report lifecycle
// operation. Events are written best-effort: a failed audit write is logged
// and never fails the operation that produced it.
package audit

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionUpload   = "upload"
	ActionGrant    = "grant"
	ActionRevoke   = "revoke"
	ActionDownload = "download"
)

const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeFailed  = "failed"
)

// Event is one provenance record.
type Event struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Action        string    `db:"action" json:"action"`
	Outcome       string    `db:"outcome" json:"outcome"`
	ActorAddress  string    `db:"actor_address" json:"actor_address"`
	ReportID      uuid.UUID `db:"report_id" json:"report_id"`
	ContentID     string    `db:"content_id" json:"content_id,omitempty"`
	TargetAddress *string   `db:"target_address" json:"target_address,omitempty"`
	Detail        *string   `db:"detail" json:"detail,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
