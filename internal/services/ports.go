package services

import (
	"context"
	"time"

	"keuanganku/internal/core"
)

// Ports for outbound adapters.
type (
	// RemoteStore mirrors transactions to the hosted backend.
	RemoteStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		ListTransactions(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
	}

	// ReportSink stores a generated report and returns its download URL.
	ReportSink interface {
		Upload(ctx context.Context, name string, data []byte, contentType string) (url string, err error)
	}
)
