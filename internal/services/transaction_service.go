package services

import (
	"context"
	"fmt"
	"log/slog"

	"keuanganku/internal/amqp"
	"keuanganku/internal/core"
	"keuanganku/internal/storage"
)

// TransactionService orchestrates record mutations across SQLite and AMQP.
// The AMQP client is optional; without it records stay local until the next
// explicit sync.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Create validates and saves a transaction locally, then publishes an async
// sync message. A publish failure never fails the request; the record is
// already durable and the periodic sync will pick it up.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.storage.Insert(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishSyncMessage(ctx, t.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", t.ID, "error", err)
	}

	return t, nil
}

// Update replaces an existing record. Edits reset nothing: id, createdAt and
// the synced flag travel with the caller's copy.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.storage.Update(ctx, t)
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	return s.storage.Delete(ctx, id)
}

func (s *TransactionService) DeleteAll(ctx context.Context) error {
	return s.storage.DeleteAll(ctx)
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.storage.GetByID(ctx, id)
}

func (s *TransactionService) publishSyncMessage(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishTransactionSync(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
