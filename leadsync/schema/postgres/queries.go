package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries holds the statements used by the lead sync tool.
type Queries struct{}

func NewQueries() *Queries {
	return &Queries{}
}

type SyncRun struct {
	ID         uuid.UUID
	Status     string
	TotalItems int32
	BatchSize  int32
	StartedAt  time.Time
}

type CreateSyncRunParams struct {
	ID         uuid.UUID
	TotalItems int32
	BatchSize  int32
	Metadata   []byte
}

const createSyncRun = `
INSERT INTO lead_sync_runs (id, status, total_items, batch_size, metadata)
VALUES ($1, 'running', $2, $3, $4)
RETURNING id, status, total_items, batch_size, started_at`

func (q *Queries) CreateSyncRun(ctx context.Context, db DBTX, arg CreateSyncRunParams) (SyncRun, error) {
	row := db.QueryRow(ctx, createSyncRun, arg.ID, arg.TotalItems, arg.BatchSize, arg.Metadata)
	var r SyncRun
	err := row.Scan(&r.ID, &r.Status, &r.TotalItems, &r.BatchSize, &r.StartedAt)
	return r, err
}

type SaveSyncStatusParams struct {
	RunID      uuid.UUID
	BatchIndex int32
	LeadID     pgtype.Text
	Email      pgtype.Text
	Status     string
	Error      pgtype.Text
}

const saveSyncStatus = `
INSERT INTO lead_sync_statuses (run_id, batch_index, lead_id, email, status, error)
VALUES ($1, $2, $3, $4, $5, $6)`

func (q *Queries) SaveSyncStatus(ctx context.Context, db DBTX, arg SaveSyncStatusParams) error {
	_, err := db.Exec(ctx, saveSyncStatus, arg.RunID, arg.BatchIndex, arg.LeadID, arg.Email, arg.Status, arg.Error)
	return err
}

type CompleteSyncRunParams struct {
	ID             uuid.UUID
	Status         string
	SucceededItems int32
	FailedItems    int32
	DurationMs     pgtype.Int4
}

const completeSyncRun = `
UPDATE lead_sync_runs
SET status = $2, succeeded_items = $3, failed_items = $4, duration_ms = $5, completed_at = now()
WHERE id = $1`

func (q *Queries) CompleteSyncRun(ctx context.Context, db DBTX, arg CompleteSyncRunParams) error {
	_, err := db.Exec(ctx, completeSyncRun, arg.ID, arg.Status, arg.SucceededItems, arg.FailedItems, arg.DurationMs)
	return err
}

type SaveLeadParams struct {
	LeadID     string
	Email      pgtype.Text
	Attributes []byte
}

const saveLead = `
INSERT INTO leads (lead_id, email, attributes, synced_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (lead_id) DO UPDATE
SET email = EXCLUDED.email, attributes = EXCLUDED.attributes, synced_at = now()`

func (q *Queries) SaveLead(ctx context.Context, db DBTX, arg SaveLeadParams) error {
	_, err := db.Exec(ctx, saveLead, arg.LeadID, arg.Email, arg.Attributes)
	return err
}
