package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Record persists the event. Failures are logged with the full event context
// so the trail can be reconstructed, but they never propagate to the caller.
func (s *Service) Record(ctx context.Context, e *Event) {
	if err := s.repo.Create(ctx, e); err != nil {
		s.log.Error().Err(err).
			Str("action", e.Action).
			Str("outcome", e.Outcome).
			Str("actor", e.ActorAddress).
			Str("report_id", e.ReportID.String()).
			Msg("audit event write failed")
	}
}

func (s *Service) ListByReport(ctx context.Context, reportID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	return s.repo.ListByReport(ctx, reportID, limit, offset)
}

func (s *Service) ListByActor(ctx context.Context, actor string, limit, offset int) ([]*Event, int, error) {
	return s.repo.ListByActor(ctx, actor, limit, offset)
}
