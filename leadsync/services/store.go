package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/natserract/mkto/leadsync/schema/postgres"
	"github.com/natserract/mkto/pkg/marketo"
)

// Store persists sync runs, per-lead outcomes and lead snapshots.
type Store interface {
	CreateSyncRun(ctx context.Context, total, batchSize int) (uuid.UUID, error)
	SaveSyncStatus(ctx context.Context, runID uuid.UUID, batch int, email string, status marketo.SyncStatus) error
	CompleteSyncRun(ctx context.Context, runID uuid.UUID, metrics *SyncMetrics, duration time.Duration) error
	SaveLead(ctx context.Context, leadID string, rec *marketo.LeadRecord) error
}

// PostgresStore is the Store backed by the lead sync tables.
type PostgresStore struct {
	queries *postgres.Queries
	db      *postgres.DB
	logger  *zap.Logger
}

// NewPostgresStore creates a store on db.
func NewPostgresStore(db *postgres.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		queries: postgres.NewQueries(),
		db:      db,
		logger:  logger,
	}
}

func (s *PostgresStore) CreateSyncRun(ctx context.Context, total, batchSize int) (uuid.UUID, error) {
	metadata, _ := json.Marshal(map[string]interface{}{
		"operation": "sync_multiple_leads",
	})
	run, err := s.queries.CreateSyncRun(ctx, s.db.Pool(), postgres.CreateSyncRunParams{
		ID:         uuid.New(),
		TotalItems: int32(total),
		BatchSize:  int32(batchSize),
		Metadata:   metadata,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create sync run: %w", err)
	}
	return run.ID, nil
}

func (s *PostgresStore) SaveSyncStatus(ctx context.Context, runID uuid.UUID, batch int, email string, status marketo.SyncStatus) error {
	err := s.queries.SaveSyncStatus(ctx, s.db.Pool(), postgres.SaveSyncStatusParams{
		RunID:      runID,
		BatchIndex: int32(batch),
		LeadID:     pgtype.Text{String: status.LeadID, Valid: status.LeadID != ""},
		Email:      pgtype.Text{String: email, Valid: email != ""},
		Status:     status.Status,
		Error:      pgtype.Text{String: status.Error, Valid: status.Error != ""},
	})
	if err != nil {
		return fmt.Errorf("failed to save sync status for lead %s: %w", status.LeadID, err)
	}
	return nil
}

func (s *PostgresStore) CompleteSyncRun(ctx context.Context, runID uuid.UUID, metrics *SyncMetrics, duration time.Duration) error {
	status := "completed"
	if metrics.Failed() > 0 {
		status = "completed_with_errors"
	}
	err := s.queries.CompleteSyncRun(ctx, s.db.Pool(), postgres.CompleteSyncRunParams{
		ID:             runID,
		Status:         status,
		SucceededItems: int32(metrics.Succeeded()),
		FailedItems:    int32(metrics.Failed()),
		DurationMs:     pgtype.Int4{Int32: int32(duration.Milliseconds()), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to complete sync run %s: %w", runID, err)
	}
	return nil
}

func (s *PostgresStore) SaveLead(ctx context.Context, leadID string, rec *marketo.LeadRecord) error {
	attributes, err := json.Marshal(AttributeMap(rec))
	if err != nil {
		return fmt.Errorf("failed to marshal attributes for lead %s: %w", leadID, err)
	}
	err = s.queries.SaveLead(ctx, s.db.Pool(), postgres.SaveLeadParams{
		LeadID:     leadID,
		Email:      pgtype.Text{String: rec.Email, Valid: rec.Email != ""},
		Attributes: attributes,
	})
	if err != nil {
		return fmt.Errorf("failed to save lead %s: %w", leadID, err)
	}
	s.logger.Debug("Saved lead snapshot", zap.String("lead_id", leadID))
	return nil
}

// AttributeMap flattens a record's attributes to name/value pairs.
func AttributeMap(rec *marketo.LeadRecord) map[string]string {
	out := make(map[string]string, rec.Attributes().Len())
	for a := range rec.Attributes().All() {
		out[a.Name] = a.Value
	}
	return out
}
