package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medledger/medledger/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reportCols = `id, owner_address, content_id, file_name, description, created_at`

func (r *repoPG) scanReport(row pgx.Row) (*Report, error) {
	var rp Report
	err := row.Scan(&rp.ID, &rp.OwnerAddress, &rp.ContentID, &rp.FileName, &rp.Description, &rp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &rp, err
}

func (r *repoPG) Create(ctx context.Context, rp *Report) error {
	if rp.OwnerAddress == "" || rp.ContentID == "" {
		return fmt.Errorf("%w: owner address and content id are required", ErrValidation)
	}
	rp.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO report (id, owner_address, content_id, file_name, description)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		rp.ID, rp.OwnerAddress, rp.ContentID, rp.FileName, rp.Description).Scan(&rp.CreatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	rp, err := r.scanReport(r.conn(ctx).QueryRow(ctx, `SELECT `+reportCols+` FROM report WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadPermissions(ctx, rp); err != nil {
		return nil, err
	}
	return rp, nil
}

func (r *repoPG) loadPermissions(ctx context.Context, rp *Report) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT grantee_address FROM report_permission
		WHERE report_id = $1 ORDER BY grantee_address`, rp.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return err
		}
		rp.Permissions = append(rp.Permissions, addr)
	}
	return rows.Err()
}

func (r *repoPG) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM report WHERE owner_address = $1`, owner).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reportCols+` FROM report WHERE owner_address = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, owner, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Report
	for rows.Next() {
		rp, err := r.scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, rp := range items {
		if err := r.loadPermissions(ctx, rp); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *repoPG) AddPermission(ctx context.Context, reportID uuid.UUID, grantee string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO report_permission (report_id, grantee_address)
		VALUES ($1,$2) ON CONFLICT DO NOTHING`, reportID, grantee)
	return err
}

func (r *repoPG) RemovePermission(ctx context.Context, reportID uuid.UUID, grantee string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM report_permission WHERE report_id = $1 AND grantee_address = $2`, reportID, grantee)
	return err
}

func (r *repoPG) ReplacePermissions(ctx context.Context, reportID uuid.UUID, addrs []string) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		c := r.conn(ctx)
		if _, err := c.Exec(ctx, `DELETE FROM report_permission WHERE report_id = $1`, reportID); err != nil {
			return err
		}
		for _, addr := range addrs {
			if _, err := c.Exec(ctx, `
				INSERT INTO report_permission (report_id, grantee_address)
				VALUES ($1,$2) ON CONFLICT DO NOTHING`, reportID, addr); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repoPG) AddSyncDebt(ctx context.Context, reportID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO report_sync_debt (report_id)
		VALUES ($1) ON CONFLICT DO NOTHING`, reportID)
	return err
}

func (r *repoPG) ListSyncDebt(ctx context.Context, limit int) ([]SyncDebt, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT report_id, recorded_at FROM report_sync_debt
		ORDER BY recorded_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SyncDebt
	for rows.Next() {
		var d SyncDebt
		if err := rows.Scan(&d.ReportID, &d.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) ClearSyncDebt(ctx context.Context, reportID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM report_sync_debt WHERE report_id = $1`, reportID)
	return err
}
