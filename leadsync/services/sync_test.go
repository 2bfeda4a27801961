package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/natserract/mkto/pkg/marketo"
)

type fakeStore struct {
	mu        sync.Mutex
	runID     uuid.UUID
	createErr error
	statuses  []marketo.SyncStatus
	leads     map[string]*marketo.LeadRecord
	completed bool
	final     [2]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{runID: uuid.New(), leads: map[string]*marketo.LeadRecord{}}
}

func (f *fakeStore) CreateSyncRun(ctx context.Context, total, batchSize int) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	return f.runID, nil
}

func (f *fakeStore) SaveSyncStatus(ctx context.Context, runID uuid.UUID, batch int, email string, status marketo.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeStore) CompleteSyncRun(ctx context.Context, runID uuid.UUID, metrics *SyncMetrics, duration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = true
	f.final = [2]int{metrics.Succeeded(), metrics.Failed()}
	return nil
}

func (f *fakeStore) SaveLead(ctx context.Context, leadID string, rec *marketo.LeadRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads[leadID] = rec
	return nil
}

type syncerFunc func(ctx context.Context, records []*marketo.LeadRecord) []marketo.SyncStatus

func (f syncerFunc) SyncLeadRecords(ctx context.Context, records []*marketo.LeadRecord) []marketo.SyncStatus {
	return f(ctx, records)
}

// createAll reports every record as created, using the email as lead id.
func createAll(calls *int32) ClientFactory {
	return func() LeadSyncer {
		atomic.AddInt32(calls, 1)
		return syncerFunc(func(ctx context.Context, records []*marketo.LeadRecord) []marketo.SyncStatus {
			out := make([]marketo.SyncStatus, len(records))
			for i, r := range records {
				out[i] = marketo.SyncStatus{LeadID: r.Email, Status: "CREATED"}
			}
			return out
		})
	}
}

func makeLeads(n int) []LeadInput {
	leads := make([]LeadInput, n)
	for i := range leads {
		leads[i] = LeadInput{
			Email:      fmt.Sprintf("lead%d@x.com", i),
			Attributes: map[string]any{"FirstName": fmt.Sprintf("Lead %d", i)},
		}
	}
	return leads
}

func TestSyncService_SyncAll_Batches(t *testing.T) {
	var calls int32
	store := newFakeStore()
	svc := NewSyncService(createAll(&calls), store, zap.NewNop())

	metrics, err := svc.SyncAll(context.Background(), makeLeads(250))

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 3, metrics.Batches())
	assert.Equal(t, 250, metrics.Succeeded())
	assert.Equal(t, 0, metrics.Failed())
	assert.Len(t, store.statuses, 250)
	assert.Len(t, store.leads, 250)
	assert.True(t, store.completed)
	assert.Equal(t, [2]int{250, 0}, store.final)

	rec := store.leads["lead7@x.com"]
	require.NotNil(t, rec)
	assert.Equal(t, "Lead 7", rec.String("FirstName"))
}

func TestSyncService_SyncAll_FailedBatch(t *testing.T) {
	store := newFakeStore()
	factory := func() LeadSyncer {
		return syncerFunc(func(ctx context.Context, records []*marketo.LeadRecord) []marketo.SyncStatus {
			if strings.HasPrefix(records[0].Email, "lead0@") {
				return nil
			}
			out := make([]marketo.SyncStatus, len(records))
			for i, r := range records {
				out[i] = marketo.SyncStatus{LeadID: r.Email, Status: "UPDATED"}
			}
			return out
		})
	}
	svc := NewSyncService(factory, store, zap.NewNop(), WithBatchSize(10), WithWorkers(2))

	metrics, err := svc.SyncAll(context.Background(), makeLeads(25))

	require.NoError(t, err)
	assert.Equal(t, 3, metrics.Batches())
	assert.Equal(t, 1, metrics.FailedBatches())
	assert.Equal(t, 15, metrics.Succeeded())
	assert.Equal(t, 10, metrics.Failed())
	assert.Len(t, store.leads, 15)
}

func TestSyncService_SyncAll_RejectedAndMissingStatuses(t *testing.T) {
	store := newFakeStore()
	factory := func() LeadSyncer {
		return syncerFunc(func(ctx context.Context, records []*marketo.LeadRecord) []marketo.SyncStatus {
			return []marketo.SyncStatus{
				{LeadID: "1", Status: "CREATED"},
				{LeadID: "", Status: "FAILED", Error: "invalid email"},
			}
		})
	}
	svc := NewSyncService(factory, store, zap.NewNop())

	metrics, err := svc.SyncAll(context.Background(), makeLeads(3))

	require.NoError(t, err)
	assert.Equal(t, 1, metrics.Succeeded())
	assert.Equal(t, 2, metrics.Failed())
	assert.Len(t, store.statuses, 2)
	assert.Len(t, store.leads, 1)
	assert.Equal(t, "lead0@x.com", store.leads["1"].Email)
}

func TestSyncService_SyncAll_WithoutRun(t *testing.T) {
	var calls int32
	store := newFakeStore()
	store.createErr = errors.New("database unavailable")
	svc := NewSyncService(createAll(&calls), store, zap.NewNop())

	metrics, err := svc.SyncAll(context.Background(), makeLeads(5))

	require.NoError(t, err)
	assert.Equal(t, 5, metrics.Succeeded())
	assert.Empty(t, store.statuses)
	assert.False(t, store.completed)
}

func TestSyncService_SyncAll_Empty(t *testing.T) {
	var calls int32
	svc := NewSyncService(createAll(&calls), newFakeStore(), zap.NewNop())

	metrics, err := svc.SyncAll(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, metrics.Batches())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSyncService_SyncAll_Cancelled(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewSyncService(createAll(&calls), newFakeStore(), zap.NewNop())

	metrics, err := svc.SyncAll(ctx, makeLeads(3))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, metrics.Failed())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWithBatchSize_Capped(t *testing.T) {
	svc := NewSyncService(nil, nil, zap.NewNop(), WithBatchSize(1000))
	assert.Equal(t, MaxBatchSize, svc.batchSize)
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Nil(t, chunk([]int{}, 2))
}

func TestReadLeads(t *testing.T) {
	leads, err := ReadLeads(strings.NewReader(`[
		{"email": "a@x.com", "attributes": {"LastName": "Lovelace", "FirstName": "Ada", "LeadScore": 12}},
		{"email": "b@x.com", "id": "42"}
	]`))
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "42", leads[1].ID)

	rec := leads[0].Record()
	assert.Equal(t, "a@x.com", rec.Email)
	var names []string
	for a := range rec.Attributes().All() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"FirstName", "LastName", "LeadScore"}, names)
	assert.Equal(t, "12", rec.String("LeadScore"))
	score, ok := rec.Attributes().Get("LeadScore")
	require.True(t, ok)
	assert.Equal(t, marketo.TypeInteger, score.Type)

	leads, err = ReadLeads(strings.NewReader(`[{"email": "c@x.com", "attributes": {"AnnualRevenue": 1.5}}]`))
	require.NoError(t, err)
	revenue, ok := leads[0].Record().Attributes().Get("AnnualRevenue")
	require.True(t, ok)
	assert.Equal(t, marketo.TypeFloat, revenue.Type)
	assert.Equal(t, "1.5", revenue.Value)

	_, err = ReadLeads(strings.NewReader(`[{"id": "1"}]`))
	assert.Error(t, err)

	_, err = ReadLeads(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestAttributeMap(t *testing.T) {
	rec := marketo.NewLeadRecord("a@x.com")
	rec.Set("FirstName", "Ada")
	rec.Set("Unsubscribed", false)

	assert.Equal(t, map[string]string{"FirstName": "Ada", "Unsubscribed": "false"}, AttributeMap(rec))
}
