package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"keuanganku/internal/core"
)

type transactionJSON struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	CreatedAt   string `json:"created_at"`
	Synced      bool   `json:"synced"`
}

func toJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Amount:      t.Amount.String(),
		Type:        string(t.Kind),
		Category:    t.Category,
		Date:        t.OccurredAt.Format(time.RFC3339),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		Synced:      t.Synced,
	}
}

func toJSONList(ts []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(ts))
	for _, t := range ts {
		out = append(out, toJSON(t))
	}
	return out
}

type createTransactionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

func (req createTransactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return core.Transaction{}, core.ErrInvalidAmount
	}

	occurredAt := time.Now()
	if strings.TrimSpace(req.Date) != "" {
		occurredAt, err = parseTime(req.Date)
		if err != nil {
			return core.Transaction{}, core.ErrZeroOccurredAt
		}
	}

	t := core.NewTransaction(
		strings.TrimSpace(req.Title),
		amount,
		core.Kind(strings.TrimSpace(req.Type)),
		strings.TrimSpace(req.Category),
		occurredAt,
	)
	t.Description = strings.TrimSpace(req.Description)
	return t, nil
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	case http.MethodDelete:
		// Clear-all, the settings-screen reset
		if err := s.transactions.DeleteAll(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		s.invalidateSummaries()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, "GET", "POST", "DELETE")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if query := strings.TrimSpace(q.Get("q")); query != "" {
		records, err := s.store.Search(ctx, query)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toJSONList(records))
		return
	}

	if kind := strings.TrimSpace(q.Get("type")); kind != "" {
		k := core.Kind(kind)
		if !k.Valid() {
			writeError(w, r, core.ErrInvalidKind)
			return
		}
		records, err := s.store.GetByKind(ctx, k)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toJSONList(records))
		return
	}

	if q.Get("period") == "" && q.Get("start") == "" {
		records, err := s.store.GetAll(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toJSONList(records))
		return
	}

	start, end, err := resolveRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, err := s.store.GetByDateRange(ctx, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJSONList(records))
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	t, err := req.toTransaction()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, toJSON(created))
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/transactions/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		t, err := s.transactions.Get(ctx, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toJSON(t))

	case http.MethodPut:
		existing, err := s.transactions.Get(ctx, id)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req createTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		updated, err := req.toTransaction()
		if err != nil {
			writeError(w, r, err)
			return
		}
		// id, creation time and sync state stay with the stored record
		updated.ID = existing.ID
		updated.UserID = existing.UserID
		updated.CreatedAt = existing.CreatedAt
		updated.Synced = existing.Synced

		if err := s.transactions.Update(ctx, updated); err != nil {
			writeError(w, r, err)
			return
		}
		s.invalidateSummaries()
		writeJSON(w, http.StatusOK, toJSON(updated))

	case http.MethodDelete:
		if err := s.transactions.Delete(ctx, id); err != nil {
			writeError(w, r, err)
			return
		}
		s.invalidateSummaries()
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET", "PUT", "DELETE")
	}
}

type summaryJSON struct {
	Period        string            `json:"period"`
	Start         string            `json:"start"`
	End           string            `json:"end"`
	Income        string            `json:"income"`
	Expense       string            `json:"expense"`
	Balance       string            `json:"balance"`
	AveragePerDay string            `json:"average_per_day"`
	ByCategory    map[string]string `json:"by_category"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("period"))
	if token == "" {
		token = string(core.PeriodThisMonth)
	}
	period, err := core.ParsePeriod(token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, ok := s.summaryCache.Get(string(period))
	if !ok {
		summary, err = s.summaries.SummarizeForPeriod(r.Context(), period, time.Now())
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.summaryCache.Set(string(period), summary)
	}

	byCategory := make(map[string]string, len(summary.ByCategory))
	for category, amount := range summary.ByCategory {
		byCategory[category] = amount.String()
	}

	writeJSON(w, http.StatusOK, summaryJSON{
		Period:        string(summary.Period),
		Start:         summary.Start.Format(time.RFC3339),
		End:           summary.End.Format(time.RFC3339),
		Income:        summary.Income.String(),
		Expense:       summary.Expense.String(),
		Balance:       summary.Balance.String(),
		AveragePerDay: summary.AveragePerDay.String(),
		ByCategory:    byCategory,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"income":  core.IncomeCategories(),
		"expense": core.ExpenseCategories(),
	})
}

func (s *Server) handleSyncPush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if s.sync == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no remote backend configured"})
		return
	}

	result, err := s.sync.Push(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]int{
		"total":  result.Total,
		"synced": result.Synced,
	})
}

func (s *Server) handleSyncPull(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if s.sync == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no remote backend configured"})
		return
	}

	start, end, err := resolveRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.sync.Pull(r.Context(), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]int{
		"fetched":  result.Fetched,
		"inserted": result.Inserted,
	})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if s.sync == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no remote backend configured"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(s.sync.State())})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if s.exporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no remote backend configured"})
		return
	}

	start, end, err := resolveRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.exporter.Export(r.Context(), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if s.exporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no remote backend configured"})
		return
	}
	writeJSON(w, http.StatusOK, s.exporter.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "remote unreachable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
