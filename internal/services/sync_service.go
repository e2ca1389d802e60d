package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"keuanganku/internal/core"
	"keuanganku/internal/remote"
	"keuanganku/internal/storage"
)

const (
	SyncStateIdle      SyncState = "idle"
	SyncStatePreparing SyncState = "preparing"
	SyncStatePushing   SyncState = "pushing"
	SyncStatePulling   SyncState = "pulling"
	SyncStateDone      SyncState = "done"
)

// SyncState tracks where the reconciler is within one sync invocation.
type SyncState string

// ErrPartialSync reports that at least one record failed to sync. It names no
// specific record; callers re-query GetUnsynced to find the leftovers.
var ErrPartialSync = errors.New("some transactions failed to sync")

// PushResult summarizes one push invocation.
type PushResult struct {
	Total  int
	Synced int
}

// PullResult summarizes one pull invocation.
type PullResult struct {
	Fetched  int
	Inserted int
}

// SyncService reconciles the local store with the remote backend. Pushes are
// per-record with an immediate local commit per remote accept; pulls are
// additive-only, never overwriting a local row. At most one sync operation
// runs at a time; a second invocation is rejected with core.ErrSyncInFlight.
type SyncService struct {
	storage *storage.SQLiteRepository
	remote  RemoteStore

	opMu    sync.Mutex // held for the whole push or pull
	stateMu sync.RWMutex
	state   SyncState
}

func NewSyncService(storage *storage.SQLiteRepository, remote RemoteStore) *SyncService {
	return &SyncService{
		storage: storage,
		remote:  remote,
		state:   SyncStateIdle,
	}
}

// State returns the reconciler's current position.
func (s *SyncService) State() SyncState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *SyncService) setState(state SyncState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

// Push sends every unsynced record to the remote store, marking each one
// synced immediately after its remote accept. A connectivity error aborts the
// remaining records and surfaces as the terminal error; a remote rejection
// skips the record and degrades the result to partial failure. There is no
// retry or backoff here; retries are the caller's responsibility.
func (s *SyncService) Push(ctx context.Context) (PushResult, error) {
	if !s.opMu.TryLock() {
		return PushResult{}, core.ErrSyncInFlight
	}
	defer s.opMu.Unlock()
	defer s.setState(SyncStateDone)

	s.setState(SyncStatePreparing)

	records, err := s.storage.GetUnsynced(ctx)
	if err != nil {
		return PushResult{}, fmt.Errorf("load unsynced transactions: %w", err)
	}

	s.setState(SyncStatePushing)

	result := PushResult{Total: len(records)}
	for _, t := range records {
		if err := s.remote.CreateTransaction(ctx, t); err != nil {
			var connErr *remote.ConnectionError
			if errors.As(err, &connErr) {
				return result, fmt.Errorf("push transaction %s: %w", t.ID, err)
			}

			slog.WarnContext(ctx, "Remote rejected transaction",
				"id", t.ID, "error", err)
			continue
		}

		if err := s.storage.MarkSynced(ctx, t.ID); err != nil {
			// The remote accepted it; the next push will retry the flag
			slog.ErrorContext(ctx, "Failed to mark transaction synced",
				"id", t.ID, "error", err)
			continue
		}
		result.Synced++
	}

	if result.Synced < result.Total {
		return result, ErrPartialSync
	}

	slog.InfoContext(ctx, "Push completed", "synced", result.Synced)
	return result, nil
}

// Pull fetches remote records in the interval and inserts the ones whose ids
// are not present locally. Existing local rows are never overwritten: local
// edits always win, pulls only add.
func (s *SyncService) Pull(ctx context.Context, start, end time.Time) (PullResult, error) {
	if !s.opMu.TryLock() {
		return PullResult{}, core.ErrSyncInFlight
	}
	defer s.opMu.Unlock()
	defer s.setState(SyncStateDone)

	s.setState(SyncStatePreparing)

	remoteRecords, err := s.remote.ListTransactions(ctx, start, end)
	if err != nil {
		return PullResult{}, fmt.Errorf("fetch remote transactions: %w", err)
	}

	s.setState(SyncStatePulling)

	result := PullResult{Fetched: len(remoteRecords)}
	for _, t := range remoteRecords {
		_, err := s.storage.GetByID(ctx, t.ID)
		if err == nil {
			continue // known id, local copy wins
		}
		if !errors.Is(err, core.ErrNotFound) {
			return result, fmt.Errorf("check local transaction %s: %w", t.ID, err)
		}

		t.Synced = true
		if err := s.storage.Insert(ctx, t); err != nil {
			return result, fmt.Errorf("insert pulled transaction %s: %w", t.ID, err)
		}
		result.Inserted++
	}

	slog.InfoContext(ctx, "Pull completed",
		"fetched", result.Fetched,
		"inserted", result.Inserted)

	return result, nil
}
