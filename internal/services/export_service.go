package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"keuanganku/internal/core"
	"keuanganku/internal/export"
	"keuanganku/internal/storage"
)

const (
	ExportStateIdle      ExportState = "idle"
	ExportStatePreparing ExportState = "preparing"
	ExportStateUploading ExportState = "uploading"
	ExportStateSuccess   ExportState = "success"
	ExportStateError     ExportState = "error"
)

type ExportState string

// ExportStatus is the last observed state of the exporter, for callers that
// poll progress.
type ExportStatus struct {
	State       ExportState `json:"state"`
	Message     string      `json:"message,omitempty"`
	DownloadURL string      `json:"download_url,omitempty"`
}

// Report describes a completed export.
type Report struct {
	Filename    string `json:"filename"`
	Count       int    `json:"count"`
	Bytes       int    `json:"bytes"`
	DownloadURL string `json:"download_url"`
}

// UploadError marks a failure in the upload step, as opposed to report
// generation: the CSV was built fine but never reached the sink.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload report %s: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ExportService builds CSV reports from the store and hands them to the sink.
type ExportService struct {
	storage *storage.SQLiteRepository
	sink    ReportSink

	mu     sync.RWMutex
	status ExportStatus
}

func NewExportService(storage *storage.SQLiteRepository, sink ReportSink) *ExportService {
	return &ExportService{
		storage: storage,
		sink:    sink,
		status:  ExportStatus{State: ExportStateIdle},
	}
}

// Status returns the exporter's last observed state.
func (s *ExportService) Status() ExportStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *ExportService) setStatus(status ExportStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Export serializes the interval's transactions into a CSV report and uploads
// it. Generation failures (including an empty interval) and upload failures
// surface as distinct error kinds; only the latter wrap in UploadError.
func (s *ExportService) Export(ctx context.Context, start, end time.Time) (Report, error) {
	s.setStatus(ExportStatus{State: ExportStatePreparing, Message: "Mempersiapkan data..."})

	records, err := s.storage.GetByDateRange(ctx, start, end)
	if err != nil {
		s.setStatus(ExportStatus{State: ExportStateError, Message: err.Error()})
		return Report{}, fmt.Errorf("load transactions for export: %w", err)
	}
	if len(records) == 0 {
		s.setStatus(ExportStatus{State: ExportStateError, Message: "Tidak ada data untuk diekspor"})
		return Report{}, core.ErrEmptyExport
	}

	totalIncome, err := s.storage.SumByKind(ctx, core.KindIncome, start, end)
	if err != nil {
		s.setStatus(ExportStatus{State: ExportStateError, Message: err.Error()})
		return Report{}, fmt.Errorf("sum income for export: %w", err)
	}
	totalExpense, err := s.storage.SumByKind(ctx, core.KindExpense, start, end)
	if err != nil {
		s.setStatus(ExportStatus{State: ExportStateError, Message: err.Error()})
		return Report{}, fmt.Errorf("sum expense for export: %w", err)
	}

	filename := export.Filename(start, end, len(records), totalIncome, totalExpense)

	doc, err := export.Document(records, time.Now())
	if err != nil {
		s.setStatus(ExportStatus{State: ExportStateError, Message: err.Error()})
		return Report{}, fmt.Errorf("generate report: %w", err)
	}

	s.setStatus(ExportStatus{State: ExportStateUploading, Message: "Mengupload file: " + filename})

	url, err := s.sink.Upload(ctx, filename, doc, "text/csv")
	if err != nil {
		s.setStatus(ExportStatus{State: ExportStateError, Message: err.Error()})
		return Report{}, &UploadError{Filename: filename, Err: err}
	}

	s.setStatus(ExportStatus{
		State:       ExportStateSuccess,
		Message:     "Ekspor berhasil: " + filename,
		DownloadURL: url,
	})

	slog.InfoContext(ctx, "Export completed",
		"filename", filename,
		"count", len(records),
		"bytes", len(doc),
		"url", url)

	return Report{
		Filename:    filename,
		Count:       len(records),
		Bytes:       len(doc),
		DownloadURL: url,
	}, nil
}
