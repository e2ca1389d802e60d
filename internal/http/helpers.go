package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"keuanganku/internal/core"
	"keuanganku/internal/remote"
	"keuanganku/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses and a uniform JSON shape.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var (
		connErr     *remote.ConnectionError
		rejectedErr *remote.RejectedError
		uploadErr   *services.UploadError
	)

	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateID):
		status = http.StatusConflict
	case errors.Is(err, core.ErrSyncInFlight):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidPeriod):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrEmptyExport):
		status = http.StatusUnprocessableEntity
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrPartialSync):
		status = http.StatusBadGateway
	case errors.As(err, &uploadErr), errors.As(err, &connErr), errors.As(err, &rejectedErr):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrEmptyTitle) ||
		errors.Is(err, core.ErrEmptyCategory) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidKind) ||
		errors.Is(err, core.ErrZeroOccurredAt)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// parseTime accepts RFC 3339 or a bare date.
func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", value, time.Local)
}

// resolveRange reads either a period token or an explicit start/end pair from
// the query, defaulting to "this month".
func resolveRange(r *http.Request) (start, end time.Time, err error) {
	q := r.URL.Query()

	if rawStart := strings.TrimSpace(q.Get("start")); rawStart != "" {
		start, err = parseTime(rawStart)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = time.Now()
		if rawEnd := strings.TrimSpace(q.Get("end")); rawEnd != "" {
			end, err = parseTime(rawEnd)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
		}
		return start, end, nil
	}

	token := strings.TrimSpace(q.Get("period"))
	if token == "" {
		token = string(core.PeriodThisMonth)
	}
	period, err := core.ParsePeriod(token)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return period.Resolve(time.Now())
}
