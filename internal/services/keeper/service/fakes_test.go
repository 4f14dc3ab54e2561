package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/investigator"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/storage"
)

type fakeStore struct {
	mu        sync.Mutex
	records   map[string]investigator.Investigator
	logs      []auditlog.Entry
	nextID    int64
	appendErr error
	listErr   error
	batches   int
}

func newFakeStore(recs ...investigator.Investigator) *fakeStore {
	store := &fakeStore{records: map[string]investigator.Investigator{}}
	for _, rec := range recs {
		store.records[rec.ID] = rec
	}
	return store
}

func (f *fakeStore) GetInvestigator(_ context.Context, id string) (investigator.Investigator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return investigator.Investigator{}, storage.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) ListTeam(_ context.Context, team string) ([]investigator.Investigator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []investigator.Investigator{}
	for _, rec := range f.records {
		if rec.TeamName == team {
			out = append(out, rec)
		}
	}
	sortRoster(out)
	return out, nil
}

func (f *fakeStore) ListInvestigators(context.Context) ([]investigator.Investigator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]investigator.Investigator, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec)
	}
	sortRoster(out)
	return out, nil
}

func sortRoster(recs []investigator.Investigator) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].TeamName != recs[j].TeamName {
			return recs[i].TeamName < recs[j].TeamName
		}
		if recs[i].DEX != recs[j].DEX {
			return recs[i].DEX > recs[j].DEX
		}
		return recs[i].ID < recs[j].ID
	})
}

func (f *fakeStore) PutInvestigator(_ context.Context, rec investigator.Investigator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeStore) AdjustField(_ context.Context, id string, field investigator.Field, delta int, describe storage.DescribeFunc) (investigator.Investigator, auditlog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return investigator.Investigator{}, auditlog.Entry{}, storage.ErrNotFound
	}
	if f.appendErr != nil {
		return investigator.Investigator{}, auditlog.Entry{}, f.appendErr
	}
	field.Set(&rec, field.Get(rec)+delta)
	f.records[id] = rec
	entry := f.appendLocked(describe(rec))
	return rec, entry, nil
}

func (f *fakeStore) appendLocked(entry auditlog.Entry) auditlog.Entry {
	f.nextID++
	entry.ID = f.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	}
	f.logs = append(f.logs, entry)
	return entry
}

func (f *fakeStore) AppendLog(_ context.Context, entry auditlog.Entry) (auditlog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return auditlog.Entry{}, f.appendErr
	}
	return f.appendLocked(entry), nil
}

func (f *fakeStore) AppendLogBatch(_ context.Context, entries []auditlog.Entry) ([]auditlog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.batches++
	out := make([]auditlog.Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, f.appendLocked(entry))
	}
	return out, nil
}

func (f *fakeStore) LatestLogs(_ context.Context, limit int, _ string) ([]auditlog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []auditlog.Entry{}
	for i := len(f.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.logs[i])
	}
	return out, nil
}

func (f *fakeStore) AllLogs(ctx context.Context, filter string) ([]auditlog.Entry, error) {
	return f.LatestLogs(ctx, len(f.logs), filter)
}

func (f *fakeStore) logCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

type recordingFeed struct {
	mu      sync.Mutex
	entries []auditlog.Entry
}

func (r *recordingFeed) Publish(entries ...auditlog.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
}

func (r *recordingFeed) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

var (
	_ storage.InvestigatorStore = (*fakeStore)(nil)
	_ storage.LogStore          = (*fakeStore)(nil)
)
