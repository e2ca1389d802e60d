package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"keuanganku/internal/amqp"
	"keuanganku/internal/core"
	"keuanganku/internal/services"
	"keuanganku/internal/storage"
)

// SyncWorker pushes transactions from SQLite to the remote backend. Single
// records arrive over AMQP as they are created; the reconciler sweep covers
// anything a lost message left behind.
type SyncWorker struct {
	storage    *storage.SQLiteRepository
	remote     services.RemoteStore
	reconciler *services.SyncService
}

func NewSyncWorker(storage *storage.SQLiteRepository, remote services.RemoteStore, reconciler *services.SyncService) *SyncWorker {
	return &SyncWorker{
		storage:    storage,
		remote:     remote,
		reconciler: reconciler,
	}
}

// HandleSyncMessage pushes the one transaction named by an AMQP message.
// A record that has since been deleted or already synced is not an error.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	t, err := w.storage.GetByID(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction gone before sync, dropping message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if t.Synced {
		slog.DebugContext(ctx, "Transaction already synced", "id", msg.ID)
		return nil
	}

	if err := w.remote.CreateTransaction(ctx, t); err != nil {
		return fmt.Errorf("push transaction to remote: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, t.ID); err != nil {
		// The remote accepted it; don't requeue, the sweep fixes the flag
		slog.ErrorContext(ctx, "Failed to mark transaction synced",
			"id", t.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Transaction synced",
		"id", t.ID,
		"title", t.Title,
		"amount", t.Amount.String())

	return nil
}

// ProcessPending runs a full reconciler push. Overlap with an in-flight sync
// is expected under frequent ticks and is skipped quietly.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	result, err := w.reconciler.Push(ctx)
	if errors.Is(err, core.ErrSyncInFlight) {
		slog.DebugContext(ctx, "Sync already running, skipping sweep")
		return nil
	}
	if errors.Is(err, services.ErrPartialSync) {
		slog.WarnContext(ctx, "Sweep left unsynced transactions",
			"total", result.Total,
			"synced", result.Synced)
		return nil
	}
	if err != nil {
		return fmt.Errorf("sweep unsynced transactions: %w", err)
	}

	if result.Total > 0 {
		slog.InfoContext(ctx, "Sweep completed", "synced", result.Synced)
	}
	return nil
}

// StartupSyncCheck pushes any backlog accumulated while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetUnsynced(ctx)
	if err != nil {
		return fmt.Errorf("get unsynced transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	return w.ProcessPending(ctx)
}
