package audit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Event) error
	ListByReport(ctx context.Context, reportID uuid.UUID, limit, offset int) ([]*Event, int, error)
	ListByActor(ctx context.Context, actor string, limit, offset int) ([]*Event, int, error)
}

// Recorder is the write-side surface other domains depend on.
type Recorder interface {
	Record(ctx context.Context, e *Event)
}
