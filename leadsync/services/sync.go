package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/natserract/mkto/pkg/marketo"
)

const (
	DefaultBatchSize = 100
	// MaxBatchSize is the service limit for one syncMultipleLeads call.
	MaxBatchSize   = 300
	DefaultWorkers = 4
)

// LeadSyncer is the part of the Marketo client the sync service needs.
type LeadSyncer interface {
	SyncLeadRecords(ctx context.Context, records []*marketo.LeadRecord) []marketo.SyncStatus
}

// ClientFactory returns the client used for one batch.
type ClientFactory func() LeadSyncer

// SyncMetrics tracks the overall sync operation metrics
type SyncMetrics struct {
	succeeded     int
	failed        int
	batches       int
	failedBatches int
	mu            sync.Mutex
}

func (m *SyncMetrics) addBatch(succeeded, failed int, batchFailed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.succeeded += succeeded
	m.failed += failed
	m.batches++
	if batchFailed {
		m.failedBatches++
	}
}

// Succeeded returns the number of leads created or updated.
func (m *SyncMetrics) Succeeded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.succeeded
}

// Failed returns the number of leads that were rejected or never synced.
func (m *SyncMetrics) Failed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed
}

// Batches returns the number of batches processed.
func (m *SyncMetrics) Batches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

// FailedBatches returns the number of batches whose request failed outright.
func (m *SyncMetrics) FailedBatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failedBatches
}

// SyncService upserts leads in batches and records every outcome.
type SyncService struct {
	newClient ClientFactory
	store     Store
	logger    *zap.Logger
	batchSize int
	workers   int
}

// SyncOption configures a SyncService.
type SyncOption func(*SyncService)

// WithBatchSize sets the number of leads per request, capped at MaxBatchSize.
func WithBatchSize(n int) SyncOption {
	return func(s *SyncService) {
		if n > 0 {
			s.batchSize = min(n, MaxBatchSize)
		}
	}
}

// WithWorkers sets how many batches run concurrently.
func WithWorkers(n int) SyncOption {
	return func(s *SyncService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewSyncService creates a new sync service
func NewSyncService(newClient ClientFactory, store Store, logger *zap.Logger, opts ...SyncOption) *SyncService {
	s := &SyncService{
		newClient: newClient,
		store:     store,
		logger:    logger,
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncAll upserts every lead and returns the aggregated metrics. Failed
// batches are counted, not returned; the error is non-nil only when ctx
// is cancelled.
func (s *SyncService) SyncAll(ctx context.Context, leads []LeadInput) (*SyncMetrics, error) {
	startTime := time.Now()
	metrics := &SyncMetrics{}
	if len(leads) == 0 {
		s.logger.Info("No leads to sync")
		return metrics, nil
	}

	s.logger.Info("Starting lead sync",
		zap.Int("total_leads", len(leads)),
		zap.Int("batch_size", s.batchSize),
		zap.Int("workers", s.workers))

	runID, err := s.store.CreateSyncRun(ctx, len(leads), s.batchSize)
	if err != nil {
		s.logger.Warn("Failed to create sync run, outcomes will not be persisted", zap.Error(err))
		runID = uuid.Nil
	} else {
		s.logger.Info("Created sync run", zap.String("run_id", runID.String()))
	}

	batchPool := pool.New().WithMaxGoroutines(s.workers).WithErrors()
	for idx, batch := range chunk(leads, s.batchSize) {
		batchPool.Go(func() error {
			return s.syncBatch(ctx, runID, idx, batch, metrics)
		})
	}
	if err := batchPool.Wait(); err != nil {
		s.logger.Warn("Some batches failed", zap.Error(err))
	}

	duration := time.Since(startTime)
	if runID != uuid.Nil {
		if err := s.store.CompleteSyncRun(ctx, runID, metrics, duration); err != nil {
			s.logger.Warn("Failed to complete sync run",
				zap.String("run_id", runID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Completed lead sync",
		zap.Duration("duration", duration),
		zap.Int("batches", metrics.Batches()),
		zap.Int("failed_batches", metrics.FailedBatches()),
		zap.Int("succeeded", metrics.Succeeded()),
		zap.Int("failed", metrics.Failed()))

	return metrics, ctx.Err()
}

func (s *SyncService) syncBatch(ctx context.Context, runID uuid.UUID, idx int, batch []LeadInput, metrics *SyncMetrics) error {
	if err := ctx.Err(); err != nil {
		metrics.addBatch(0, len(batch), true)
		return err
	}

	records := make([]*marketo.LeadRecord, len(batch))
	for i, in := range batch {
		records[i] = in.Record()
	}

	statuses := s.newClient().SyncLeadRecords(ctx, records)
	if statuses == nil {
		metrics.addBatch(0, len(batch), true)
		s.logger.Error("Batch sync failed",
			zap.Int("batch", idx),
			zap.Int("size", len(batch)))
		return fmt.Errorf("batch %d failed", idx)
	}

	succeeded, failed := 0, 0
	for i, st := range statuses {
		var rec *marketo.LeadRecord
		if i < len(records) {
			rec = records[i]
		}

		email := ""
		if rec != nil {
			email = rec.Email
		}
		if runID != uuid.Nil {
			if err := s.store.SaveSyncStatus(ctx, runID, idx, email, st); err != nil {
				s.logger.Warn("Failed to save sync status",
					zap.String("lead_id", st.LeadID),
					zap.Error(err))
			}
		}

		if !st.Succeeded() {
			failed++
			s.logger.Warn("Lead rejected",
				zap.String("lead_id", st.LeadID),
				zap.String("email", email),
				zap.String("status", st.Status),
				zap.String("error", st.Error))
			continue
		}
		succeeded++

		if rec != nil && st.LeadID != "" {
			if err := s.store.SaveLead(ctx, st.LeadID, rec); err != nil {
				s.logger.Warn("Failed to save lead snapshot",
					zap.String("lead_id", st.LeadID),
					zap.Error(err))
			}
		}
	}

	// Leads the service did not report on
	if missing := len(records) - len(statuses); missing > 0 {
		failed += missing
	}

	metrics.addBatch(succeeded, failed, false)
	s.logger.Info("Synced batch",
		zap.Int("batch", idx),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed))
	return nil
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
