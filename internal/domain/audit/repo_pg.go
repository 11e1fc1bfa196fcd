package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const eventCols = `id, action, outcome, actor_address, report_id, content_id, target_address, detail, created_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Action, &e.Outcome, &e.ActorAddress, &e.ReportID,
		&e.ContentID, &e.TargetAddress, &e.Detail, &e.CreatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Event) error {
	e.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO audit_event (id, action, outcome, actor_address, report_id, content_id, target_address, detail)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		e.ID, e.Action, e.Outcome, e.ActorAddress, e.ReportID, e.ContentID, e.TargetAddress, e.Detail).Scan(&e.CreatedAt)
}

func (r *repoPG) list(ctx context.Context, where string, arg interface{}, limit, offset int) ([]*Event, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_event WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+eventCols+` FROM audit_event WHERE `+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`, arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByReport(ctx context.Context, reportID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	return r.list(ctx, `report_id = $1`, reportID, limit, offset)
}

func (r *repoPG) ListByActor(ctx context.Context, actor string, limit, offset int) ([]*Event, int, error) {
	return r.list(ctx, `actor_address = $1`, actor, limit, offset)
}
