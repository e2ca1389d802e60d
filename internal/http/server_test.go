package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"keuanganku/internal/services"
	"keuanganku/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	srv := NewServer(":0", Deps{
		Store:        repo,
		Transactions: services.NewTransactionService(repo, nil),
		Summaries:    services.NewSummaryService(repo),
	})

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postTransaction(t *testing.T, ts *httptest.Server, payload map[string]any) transactionJSON {
	t.Helper()

	body, _ := json.Marshal(payload)
	resp, err := http.Post(ts.URL+"/transactions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created transactionJSON
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	return created
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestCreateAndGetTransaction(t *testing.T) {
	ts := newTestServer(t)

	created := postTransaction(t, ts, map[string]any{
		"title":    "Makan siang",
		"amount":   "15000",
		"type":     "expense",
		"category": "Makanan",
		"date":     "2024-03-15",
	})

	if created.ID == "" {
		t.Fatal("expected a generated id")
	}
	if created.Amount != "15000" || created.Type != "expense" {
		t.Errorf("unexpected body: %+v", created)
	}
	if created.Synced {
		t.Error("new records must start unsynced")
	}

	resp, err := http.Get(ts.URL + "/transactions/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}

	var got transactionJSON
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID != created.ID || got.Title != "Makan siang" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		payload map[string]any
		status  int
	}{
		{
			name:    "empty title",
			payload: map[string]any{"title": " ", "amount": "100", "type": "expense", "category": "Makanan"},
			status:  http.StatusUnprocessableEntity,
		},
		{
			name:    "bad amount",
			payload: map[string]any{"title": "x", "amount": "abc", "type": "expense", "category": "Makanan"},
			status:  http.StatusUnprocessableEntity,
		},
		{
			name:    "negative amount",
			payload: map[string]any{"title": "x", "amount": "-5", "type": "expense", "category": "Makanan"},
			status:  http.StatusUnprocessableEntity,
		},
		{
			name:    "bad kind",
			payload: map[string]any{"title": "x", "amount": "100", "type": "transfer", "category": "Makanan"},
			status:  http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.payload)
			resp, err := http.Post(ts.URL+"/transactions", "application/json", bytes.NewReader(body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/transactions/missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestUpdateTransaction(t *testing.T) {
	ts := newTestServer(t)

	created := postTransaction(t, ts, map[string]any{
		"title": "Kopi", "amount": "20000", "type": "expense", "category": "Makanan", "date": "2024-03-15",
	})

	payload, _ := json.Marshal(map[string]any{
		"title": "Kopi susu", "amount": "25000", "type": "expense", "category": "Makanan", "date": "2024-03-15",
	})
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/transactions/"+created.ID, bytes.NewReader(payload))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}

	var updated transactionJSON
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatal(err)
	}
	if updated.ID != created.ID {
		t.Error("update must not change the id")
	}
	if updated.Title != "Kopi susu" || updated.Amount != "25000" {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Error("update must keep the creation timestamp")
	}
}

func TestUpdateTransactionNotFound(t *testing.T) {
	ts := newTestServer(t)

	payload, _ := json.Marshal(map[string]any{
		"title": "x", "amount": "100", "type": "expense", "category": "Makanan", "date": "2024-03-15",
	})
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/transactions/missing", bytes.NewReader(payload))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestDeleteTransaction(t *testing.T) {
	ts := newTestServer(t)

	created := postTransaction(t, ts, map[string]any{
		"title": "Kopi", "amount": "20000", "type": "expense", "category": "Makanan", "date": "2024-03-15",
	})

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/transactions/"+created.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	check, err := http.Get(ts.URL + "/transactions/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	check.Body.Close()
	if check.StatusCode != http.StatusNotFound {
		t.Fatalf("status after delete = %d", check.StatusCode)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	ts := newTestServer(t)

	postTransaction(t, ts, map[string]any{
		"title": "Gaji", "amount": "5000000", "type": "income", "category": "Gaji", "date": "2024-03-01",
	})
	postTransaction(t, ts, map[string]any{
		"title": "Bensin", "amount": "50000", "type": "expense", "category": "Transportasi", "date": "2024-03-15",
	})

	list := func(query string) []transactionJSON {
		t.Helper()
		resp, err := http.Get(ts.URL + "/transactions" + query)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list%s status = %d", query, resp.StatusCode)
		}
		var records []transactionJSON
		if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
			t.Fatal(err)
		}
		return records
	}

	if got := list(""); len(got) != 2 {
		t.Errorf("all: got %d records", len(got))
	}
	if got := list("?type=income"); len(got) != 1 || got[0].Title != "Gaji" {
		t.Errorf("type filter: %+v", got)
	}
	if got := list("?q=bensin"); len(got) != 1 || got[0].Title != "Bensin" {
		t.Errorf("search: %+v", got)
	}
	if got := list("?start=2024-03-10&end=2024-03-20"); len(got) != 1 || got[0].Title != "Bensin" {
		t.Errorf("range filter: %+v", got)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/summary?period=bogus")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown period status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/summary?period=all")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d", resp.StatusCode)
	}

	var summary summaryJSON
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.Period != "all" {
		t.Errorf("period = %q", summary.Period)
	}
	if summary.Income != "0" || summary.Expense != "0" || summary.Balance != "0" {
		t.Errorf("empty store summary = %+v", summary)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/categories")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var categories map[string][]string
	if err := json.NewDecoder(resp.Body).Decode(&categories); err != nil {
		t.Fatal(err)
	}
	if len(categories["income"]) == 0 || len(categories["expense"]) == 0 {
		t.Errorf("unexpected category lists: %v", categories)
	}
}

func TestSyncEndpointsWithoutRemote(t *testing.T) {
	ts := newTestServer(t)

	for _, ep := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/sync/push"},
		{http.MethodPost, "/sync/pull"},
		{http.MethodGet, "/sync/status"},
		{http.MethodPost, "/export"},
		{http.MethodGet, "/export/status"},
	} {
		req, _ := http.NewRequest(ep.method, ts.URL+ep.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s %s status = %d, want 503", ep.method, ep.path, resp.StatusCode)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/transactions", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); allow == "" {
		t.Error("expected an Allow header")
	}
}

func TestSummaryCacheInvalidation(t *testing.T) {
	ts := newTestServer(t)

	// warm the cache on an empty store
	resp, err := http.Get(ts.URL + "/summary?period=all")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	postTransaction(t, ts, map[string]any{
		"title": "Gaji", "amount": "5000000", "type": "income", "category": "Gaji", "date": "2024-03-01",
	})

	resp, err = http.Get(ts.URL + "/summary?period=all")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var summary summaryJSON
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.Income != "5000000" {
		t.Fatalf("income = %s, stale cache served after a mutation", summary.Income)
	}
}

func TestListOrderNewestFirst(t *testing.T) {
	ts := newTestServer(t)

	for i, date := range []string{"2024-03-01", "2024-03-20", "2024-03-10"} {
		postTransaction(t, ts, map[string]any{
			"title":    fmt.Sprintf("tx-%d", i),
			"amount":   "100",
			"type":     "expense",
			"category": "Makanan",
			"date":     date,
		})
	}

	resp, err := http.Get(ts.URL + "/transactions")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var records []transactionJSON
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatal(err)
	}
	want := []string{"tx-1", "tx-2", "tx-0"}
	for i, title := range want {
		if records[i].Title != title {
			t.Errorf("position %d: got %s, want %s", i, records[i].Title, title)
		}
	}
}
