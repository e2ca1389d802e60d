package http

import (
	"container/list"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"keuanganku/internal/core"
	"keuanganku/internal/services"
	"keuanganku/internal/storage"
)

// lruCache with TTL and size-based eviction, used for summary responses.
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Purge drops every entry. Any store mutation invalidates all summaries,
// since a record can move between arbitrary periods.
func (c *lruCache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru = list.New()
}

func (c *lruCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// Pinger probes remote connectivity for the readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the JSON API over the transaction data layer. The sync and
// export services are optional; without a configured remote their endpoints
// answer 503.
type Server struct {
	*http.Server

	store        *storage.SQLiteRepository
	transactions *services.TransactionService
	summaries    *services.SummaryService
	sync         *services.SyncService
	exporter     *services.ExportService
	pinger       Pinger

	summaryCache *lruCache[core.PeriodSummary]
}

// Deps carries the server's collaborators.
type Deps struct {
	Store        *storage.SQLiteRepository
	Transactions *services.TransactionService
	Summaries    *services.SummaryService
	Sync         *services.SyncService
	Exporter     *services.ExportService
	Pinger       Pinger
}

func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		store:        deps.Store,
		transactions: deps.Transactions,
		summaries:    deps.Summaries,
		sync:         deps.Sync,
		exporter:     deps.Exporter,
		pinger:       deps.Pinger,
		summaryCache: newLRUCache[core.PeriodSummary](16, 30*time.Second),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/transactions", s.handleTransactions)
	mux.HandleFunc("/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/categories", s.handleCategories)
	mux.HandleFunc("/sync/push", s.handleSyncPush)
	mux.HandleFunc("/sync/pull", s.handleSyncPull)
	mux.HandleFunc("/sync/status", s.handleSyncStatus)
	mux.HandleFunc("/export", s.handleExport)
	mux.HandleFunc("/export/status", s.handleExportStatus)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.withRequestLog(mux),
	}

	return s
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		slog.DebugContext(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(started))
	})
}

// invalidateSummaries is called after any store mutation.
func (s *Server) invalidateSummaries() {
	s.summaryCache.Purge()
}
