// Package reports orchestrates the three stores a medical report lives in:
// the content-addressed file store holding the bytes, the ledger holding the
// authoritative allow-list, and the registry mirroring both for queries.
//
// Write ordering is ledger-first. The registry is only updated after the
// ledger commits, so a registry row can lag the ledger but never lead it.
// Stale mirror entries are repaired by the reconciler; access decisions
// always consult the ledger directly.
package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medledger/medledger/internal/domain/audit"
	"github.com/medledger/medledger/internal/platform/contentstore"
	"github.com/medledger/medledger/internal/platform/ledger"
)

type Service struct {
	repo    Repository
	store   contentstore.Store
	ledger  ledger.Client
	auditor audit.Recorder
	log     zerolog.Logger
}

func NewService(repo Repository, store contentstore.Store, lc ledger.Client, log zerolog.Logger) *Service {
	return &Service{repo: repo, store: store, ledger: lc, log: log}
}

// SetAuditor attaches a provenance recorder. Without one, operations still
// run; they just leave no audit trail.
func (s *Service) SetAuditor(a audit.Recorder) { s.auditor = a }

func (s *Service) record(ctx context.Context, e *audit.Event) {
	if s.auditor != nil {
		s.auditor.Record(ctx, e)
	}
}

// Upload stores the file bytes, registers the resulting content id on the
// ledger under the owner, then creates the registry row. Each step runs only
// after the previous one succeeded. A ledger failure after the blob is
// stored leaves an orphaned blob; content-addressing makes that harmless,
// since a retry of the same bytes reuses the same id.
func (s *Service) Upload(ctx context.Context, owner, fileName string, description *string, data []byte) (*Report, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner address is required", ErrValidation)
	}
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrValidation)
	}

	contentID, err := s.store.Put(ctx, fileName, data)
	if err != nil {
		return nil, fmt.Errorf("store report content: %w", err)
	}

	if err := s.ledger.Register(ctx, contentID, owner); err != nil {
		s.log.Warn().
			Str("content_id", contentID).
			Str("owner", owner).
			Err(err).
			Msg("content stored but ledger registration failed, blob orphaned")
		return nil, fmt.Errorf("register content on ledger: %w", err)
	}

	rp := &Report{
		OwnerAddress: owner,
		ContentID:    contentID,
		FileName:     fileName,
		Description:  description,
	}
	if err := s.repo.Create(ctx, rp); err != nil {
		// The ledger already committed: it now holds an entry the
		// registry cannot name. Logged so operators can re-create the
		// row; the content remains reachable through the ledger.
		s.log.Error().
			Str("content_id", contentID).
			Str("owner", owner).
			Err(err).
			Msg("ledger registered but registry create failed")
		return nil, fmt.Errorf("create registry record: %w", err)
	}

	s.record(ctx, &audit.Event{
		Action:       audit.ActionUpload,
		Outcome:      audit.OutcomeSuccess,
		ActorAddress: owner,
		ReportID:     rp.ID,
		ContentID:    contentID,
	})
	return rp, nil
}

// Grant adds grantee to the report's allow-list. Only the owner may grant,
// and that is checked twice: locally against the registry row for a fast,
// cheap rejection, and again by the ledger, which is the enforcement that
// counts. The mirror is updated only after the ledger commits; if the mirror
// write fails the grant stands and the report is queued for reconciliation.
func (s *Service) Grant(ctx context.Context, caller string, reportID uuid.UUID, grantee string) (*Report, error) {
	if grantee == "" {
		return nil, fmt.Errorf("%w: grantee address is required", ErrValidation)
	}

	rp, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rp.OwnerAddress != caller {
		return nil, ErrNotOwner
	}
	if grantee == rp.OwnerAddress {
		return nil, fmt.Errorf("%w: owner access is implicit", ErrValidation)
	}

	if err := s.ledger.Grant(ctx, rp.ContentID, caller, grantee); err != nil {
		s.record(ctx, &audit.Event{
			Action:        audit.ActionGrant,
			Outcome:       audit.OutcomeFailed,
			ActorAddress:  caller,
			ReportID:      rp.ID,
			ContentID:     rp.ContentID,
			TargetAddress: &grantee,
		})
		return nil, fmt.Errorf("grant on ledger: %w", err)
	}

	if err := s.repo.AddPermission(ctx, rp.ID, grantee); err != nil {
		s.mirrorLagged(ctx, rp.ID, "grant", err)
	}
	if !rp.HasPermission(grantee) {
		rp.Permissions = append(rp.Permissions, grantee)
	}

	s.record(ctx, &audit.Event{
		Action:        audit.ActionGrant,
		Outcome:       audit.OutcomeSuccess,
		ActorAddress:  caller,
		ReportID:      rp.ID,
		ContentID:     rp.ContentID,
		TargetAddress: &grantee,
	})
	return rp, nil
}

// Revoke removes grantee from the allow-list. Revoking an address that was
// never granted is an error the ledger reports as ledger.ErrNotGranted.
func (s *Service) Revoke(ctx context.Context, caller string, reportID uuid.UUID, grantee string) (*Report, error) {
	if grantee == "" {
		return nil, fmt.Errorf("%w: grantee address is required", ErrValidation)
	}

	rp, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rp.OwnerAddress != caller {
		return nil, ErrNotOwner
	}

	if err := s.ledger.Revoke(ctx, rp.ContentID, caller, grantee); err != nil {
		return nil, fmt.Errorf("revoke on ledger: %w", err)
	}

	if err := s.repo.RemovePermission(ctx, rp.ID, grantee); err != nil {
		s.mirrorLagged(ctx, rp.ID, "revoke", err)
	}
	kept := rp.Permissions[:0]
	for _, p := range rp.Permissions {
		if p != grantee {
			kept = append(kept, p)
		}
	}
	rp.Permissions = kept

	s.record(ctx, &audit.Event{
		Action:        audit.ActionRevoke,
		Outcome:       audit.OutcomeSuccess,
		ActorAddress:  caller,
		ReportID:      rp.ID,
		ContentID:     rp.ContentID,
		TargetAddress: &grantee,
	})
	return rp, nil
}

// mirrorLagged records that the registry's permission mirror fell behind the
// ledger. The operation itself already succeeded on the ledger, so the
// caller is not failed; the reconciler repairs the mirror later.
func (s *Service) mirrorLagged(ctx context.Context, reportID uuid.UUID, op string, cause error) {
	s.log.Error().
		Str("report_id", reportID.String()).
		Str("op", op).
		Err(cause).
		Msg("permission mirror update failed, queueing reconciliation")
	if err := s.repo.AddSyncDebt(ctx, reportID); err != nil {
		s.log.Error().
			Str("report_id", reportID.String()).
			Err(err).
			Msg("sync debt record failed, mirror will lag until next full sweep")
	}
}

// Download returns the file bytes for requester. The decision is made by a
// live ledger query on every call; the mirrored permission set is never
// consulted here, so a stale mirror can delay listing but never widen
// access.
func (s *Service) Download(ctx context.Context, requester string, reportID uuid.UUID) (*Download, error) {
	rp, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.ledger.CanAccess(ctx, rp.ContentID, requester)
	if err != nil {
		return nil, fmt.Errorf("check access on ledger: %w", err)
	}
	if !allowed {
		s.record(ctx, &audit.Event{
			Action:       audit.ActionDownload,
			Outcome:      audit.OutcomeDenied,
			ActorAddress: requester,
			ReportID:     rp.ID,
			ContentID:    rp.ContentID,
		})
		return nil, ErrAccessDenied
	}

	data, err := s.store.Get(ctx, rp.ContentID)
	if err != nil {
		return nil, fmt.Errorf("fetch report content: %w", err)
	}

	s.record(ctx, &audit.Event{
		Action:       audit.ActionDownload,
		Outcome:      audit.OutcomeSuccess,
		ActorAddress: requester,
		ReportID:     rp.ID,
		ContentID:    rp.ContentID,
	})
	return &Download{ContentID: rp.ContentID, FileName: rp.FileName, Data: data}, nil
}

// Get returns report metadata. Owners always see their reports; grantees see
// them once the mirror reflects the grant. This is a display path, so the
// mirror is acceptable here.
func (s *Service) Get(ctx context.Context, requester string, reportID uuid.UUID) (*Report, error) {
	rp, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rp.OwnerAddress != requester && !rp.HasPermission(requester) {
		return nil, ErrAccessDenied
	}
	return rp, nil
}

func (s *Service) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*Report, int, error) {
	return s.repo.ListByOwner(ctx, owner, limit, offset)
}

// IsOwner reports whether addr owns the report. Used by collaborating
// handlers that gate owner-only views.
func (s *Service) IsOwner(ctx context.Context, reportID uuid.UUID, addr string) (bool, error) {
	rp, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return false, err
	}
	return rp.OwnerAddress == addr, nil
}
