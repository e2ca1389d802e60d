// Package remote speaks to the hosted backend: a PostgREST-style
// transactions resource and an object storage bucket for report uploads.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"keuanganku/internal/core"
)

// WireTimeFormat is the fixed ISO-8601 UTC layout with millisecond precision
// used for every timestamp on the wire.
const WireTimeFormat = "2006-01-02T15:04:05.000Z"

// ConnectionError reports a transport-level failure: DNS, dial, timeout.
// The remote never saw (or never answered) the request.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// RejectedError reports a non-2xx response, with the message parsed from the
// remote's error body when present.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote rejected request: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote rejected request: HTTP %d", e.StatusCode)
}

// Client talks to the remote transactions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	http    *http.Client
}

func NewClient(baseURL, apiKey, userID string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		userID:  userID,
		http:    &http.Client{Timeout: timeout},
	}
}

// wireTransaction is the JSON shape of a transaction row on the remote.
type wireTransaction struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	CreatedAt   string      `json:"created_at"`
}

func toWire(t core.Transaction, userID string) wireTransaction {
	uid := t.UserID
	if uid == "" {
		uid = userID
	}
	return wireTransaction{
		ID:          t.ID,
		UserID:      uid,
		Title:       t.Title,
		Description: t.Description,
		Amount:      json.Number(t.Amount.String()),
		Type:        string(t.Kind),
		Category:    t.Category,
		Date:        t.OccurredAt.UTC().Format(WireTimeFormat),
		CreatedAt:   t.CreatedAt.UTC().Format(WireTimeFormat),
	}
}

func fromWire(w wireTransaction) (core.Transaction, error) {
	amount, err := decimal.NewFromString(w.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse remote amount %q: %w", w.Amount, err)
	}
	occurredAt, err := time.Parse(WireTimeFormat, w.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse remote date %q: %w", w.Date, err)
	}
	createdAt := occurredAt
	if w.CreatedAt != "" {
		createdAt, err = time.Parse(WireTimeFormat, w.CreatedAt)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse remote created_at %q: %w", w.CreatedAt, err)
		}
	}
	return core.Transaction{
		ID:          w.ID,
		UserID:      w.UserID,
		Title:       w.Title,
		Description: w.Description,
		Amount:      amount,
		Kind:        core.Kind(w.Type),
		Category:    w.Category,
		OccurredAt:  occurredAt,
		CreatedAt:   createdAt,
	}, nil
}

// CreateTransaction POSTs one transaction to the remote store.
func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) error {
	body, err := json.Marshal(toWire(t, c.userID))
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/rest/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build create request: %w", err)
	}
	c.setAuthHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectionError{Op: "create transaction", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rejectedFromResponse(resp)
	}

	slog.DebugContext(ctx, "Transaction accepted by remote", "id", t.ID)
	return nil
}

// ListTransactions fetches remote records in the interval, newest first.
// Remote rows are already confirmed present remotely, so they come back with
// Synced set.
func (c *Client) ListTransactions(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	q := url.Values{}
	q.Set("order", "date.desc")
	// PostgREST range filters: repeated date params
	listURL := fmt.Sprintf("%s/rest/v1/transactions?date=gte.%s&date=lte.%s&%s",
		c.baseURL,
		url.QueryEscape(start.UTC().Format(WireTimeFormat)),
		url.QueryEscape(end.UTC().Format(WireTimeFormat)),
		q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectionError{Op: "list transactions", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejectedFromResponse(resp)
	}

	var wires []wireTransaction
	if err := json.NewDecoder(resp.Body).Decode(&wires); err != nil {
		return nil, fmt.Errorf("decode transaction list: %w", err)
	}

	result := make([]core.Transaction, 0, len(wires))
	for _, w := range wires {
		t, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		t.Synced = true
		result = append(result, t)
	}
	return result, nil
}

// Ping probes the REST root to check connectivity.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectionError{Op: "ping", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rejectedFromResponse(resp)
	}
	return nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func rejectedFromResponse(resp *http.Response) error {
	rejected := &RejectedError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return rejected
	}
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		rejected.Message = parsed.Message
	}
	return rejected
}
