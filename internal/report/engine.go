package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/fintrack/internal/cache"
	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/utils"
	"github.com/google/uuid"
)

const (
	kindSummary    = "summary"
	kindByCategory = "by_category"
)

// Source returns the caller's transactions for a window with categories attached.
// The engine re-applies the scoping predicate, so a source may over-return.
type Source interface {
	ListInWindow(ctx context.Context, userID int64, w transaction.Window) ([]transaction.Transaction, error)
}

type Engine struct {
	src   Source
	cache cache.Store
	ttl   time.Duration
	prom  *observability.Prom
	log   *slog.Logger

	// users whose last generation rotation failed; their reads skip the cache
	// until a rotation succeeds
	mu    sync.Mutex
	stale map[int64]struct{}
}

type Option func(*Engine)

// WithCache enables result caching. A nil store leaves caching off.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = store
		e.ttl = ttl
	}
}

func WithMetrics(prom *observability.Prom) Option {
	return func(e *Engine) { e.prom = prom }
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func NewEngine(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:   src,
		ttl:   5 * time.Minute,
		log:   slog.Default(),
		stale: make(map[int64]struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// FinancialSummary returns income, expense and balance for the caller in (year, month).
func (e *Engine) FinancialSummary(ctx context.Context, callerID int64, year, month int) (Summary, error) {
	w := transaction.Window{Year: year, Month: month}

	var out Summary
	gen, hit := e.readCache(ctx, kindSummary, callerID, w, &out)
	if hit {
		return out, nil
	}

	rows, err := e.load(ctx, callerID, w)
	if err != nil {
		return Summary{}, err
	}

	out = Summarize(rows)
	e.writeCache(ctx, kindSummary, callerID, gen, w, out)

	return out, nil
}

// ExpensesByCategory returns the caller's expense totals per category in (year, month).
func (e *Engine) ExpensesByCategory(ctx context.Context, callerID int64, year, month int) ([]CategoryTotal, error) {
	w := transaction.Window{Year: year, Month: month}

	var out []CategoryTotal
	gen, hit := e.readCache(ctx, kindByCategory, callerID, w, &out)
	if hit {
		return out, nil
	}

	rows, err := e.load(ctx, callerID, w)
	if err != nil {
		return nil, err
	}

	out = GroupExpensesByCategory(rows)
	e.writeCache(ctx, kindByCategory, callerID, gen, w, out)

	return out, nil
}

// Invalidate drops every cached report of userID by rotating its generation.
func (e *Engine) Invalidate(ctx context.Context, userID int64) {
	if e.cache == nil {
		return
	}

	if _, err := e.rotate(ctx, userID); err != nil {
		e.setStale(userID, true)
		e.log.WarnContext(ctx, "report cache invalidation failed", "user_id", userID, "err", err)
		return
	}

	e.setStale(userID, false)
}

// rotate stores a fresh generation for userID. Generations are random, so a rotation
// can never bring back one that cached entries were written under.
func (e *Engine) rotate(ctx context.Context, userID int64) (string, error) {
	gen := uuid.NewString()
	if err := e.cache.Set(ctx, utils.BuildReportGenerationKey(userID), []byte(gen), 0); err != nil {
		return "", err
	}
	return gen, nil
}

func (e *Engine) setStale(userID int64, stale bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if stale {
		e.stale[userID] = struct{}{}
		return
	}
	delete(e.stale, userID)
}

func (e *Engine) isStale(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.stale[userID]
	return ok
}

func (e *Engine) load(ctx context.Context, callerID int64, w transaction.Window) ([]transaction.Transaction, error) {
	rows, err := e.src.ListInWindow(ctx, callerID, w)
	if err != nil {
		return nil, fmt.Errorf("list transactions in window: %w", err)
	}

	return Scope(rows, callerID, w), nil
}

// generation returns the current generation of userID. A pending failed invalidation is
// retried first, and a missing key (never set, or evicted) gets a fresh generation.
func (e *Engine) generation(ctx context.Context, userID int64) (string, error) {
	if e.isStale(userID) {
		gen, err := e.rotate(ctx, userID)
		if err != nil {
			return "", err
		}
		e.setStale(userID, false)
		return gen, nil
	}

	b, ok, err := e.cache.Get(ctx, utils.BuildReportGenerationKey(userID))
	if err != nil {
		return "", err
	}
	if !ok {
		return e.rotate(ctx, userID)
	}
	return string(b), nil
}

// readCache returns the generation it read so the write after a miss lands under the
// same generation; a write racing with an invalidation is then orphaned, never served.
func (e *Engine) readCache(ctx context.Context, kind string, userID int64, w transaction.Window, out any) (string, bool) {
	if e.cache == nil {
		return "", false
	}

	gen, err := e.generation(ctx, userID)
	if err != nil {
		e.log.WarnContext(ctx, "report cache read failed", "kind", kind, "user_id", userID, "err", err)
		e.observeCache(kind, "error")
		return "", false
	}

	b, ok, err := e.cache.Get(ctx, utils.BuildReportCacheKey(kind, userID, gen, w))
	if err != nil {
		e.log.WarnContext(ctx, "report cache read failed", "kind", kind, "user_id", userID, "err", err)
		e.observeCache(kind, "error")
		return gen, false
	}

	if !ok {
		e.observeCache(kind, "miss")
		return gen, false
	}

	if err := json.Unmarshal(b, out); err != nil {
		e.observeCache(kind, "error")
		return gen, false
	}

	e.observeCache(kind, "hit")
	return gen, true
}

func (e *Engine) writeCache(ctx context.Context, kind string, userID int64, gen string, w transaction.Window, v any) {
	if e.cache == nil || gen == "" {
		return
	}

	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	if err := e.cache.Set(ctx, utils.BuildReportCacheKey(kind, userID, gen, w), b, e.ttl); err != nil {
		e.log.WarnContext(ctx, "report cache write failed", "kind", kind, "user_id", userID, "err", err)
	}
}

func (e *Engine) observeCache(kind, result string) {
	if e.prom != nil {
		e.prom.ReportCacheResults.WithLabelValues(kind, result).Inc()
	}
}
