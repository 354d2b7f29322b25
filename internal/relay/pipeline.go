package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karseba/comprelay/internal/metrics"
	"github.com/karseba/comprelay/internal/platform"
	"github.com/karseba/comprelay/internal/relay/cache"
)

// spaceLister is the slice of platform.SpaceLister the pipeline needs.
type spaceLister interface {
	ListAllowed(ctx context.Context, token string) ([]platform.Space, error)
}

// competitionAggregator is satisfied by *Aggregator and by test fakes.
type competitionAggregator interface {
	Aggregate(ctx context.Context, memberRefID, space, token, apiKey string) (cache.Aggregate, error)
}

// PipelineOptions collects the collaborators the pipeline orchestrates.
type PipelineOptions struct {
	Cache             cache.ResultCache
	CacheTTL          time.Duration
	Spaces            spaceLister
	Aggregator        competitionAggregator
	CorrelationHeader string
	Metrics           *metrics.Recorder
}

// Pipeline is the request-scoped orchestration for /check-competitions: header
// admission, token freshness, space authorization, cache consult, aggregate
// fetch, cache store, response shaping.
type Pipeline struct {
	logger *slog.Logger
	opts   PipelineOptions
	now    func() time.Time
}

// NewPipeline builds the pipeline around an owned cache instance so tests can
// run isolated pipelines with fresh caches.
func NewPipeline(logger *slog.Logger, opts PipelineOptions) *Pipeline {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.CorrelationHeader == "" {
		opts.CorrelationHeader = "X-Request-ID"
	}
	return &Pipeline{
		logger: logger.With(slog.String("agent", "pipeline")),
		opts:   opts,
		now:    time.Now,
	}
}

// Close releases the pipeline's cache.
func (p *Pipeline) Close(ctx context.Context) error {
	if p.opts.Cache == nil {
		return nil
	}
	return p.opts.Cache.Close(ctx)
}

// ServeCheckCompetitions handles the relay's single externally visible
// operation.
func (p *Pipeline) ServeCheckCompetitions(w http.ResponseWriter, r *http.Request) {
	start := p.now()
	ctx := r.Context()
	correlationID := strings.TrimSpace(r.Header.Get(p.opts.CorrelationHeader))
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := p.logger.With(slog.String("correlation_id", correlationID))

	finish := func(outcome string, status int, fromCache bool) {
		duration := p.now().Sub(start)
		p.opts.Metrics.ObserveRequest(outcome, status, fromCache, duration)
		logger.Info("request complete",
			slog.String("outcome", outcome),
			slog.Int("status", status),
			slog.Bool("from_cache", fromCache),
			slog.Duration("duration", duration))
	}

	auth, authErr := admitRequest(r, start)
	if authErr != nil {
		p.WriteError(w, http.StatusUnauthorized, authErr.Message)
		finish("auth_failed", http.StatusUnauthorized, false)
		return
	}

	memberRefID := r.URL.Query().Get("memberRefId")
	space := r.URL.Query().Get("space")
	if memberRefID == "" {
		p.WriteError(w, http.StatusBadRequest, `Invalid or missing "memberRefId". It must be a string.`)
		finish("validation_failed", http.StatusBadRequest, false)
		return
	}
	if space == "" {
		p.WriteError(w, http.StatusBadRequest, `Invalid or missing "space". It must be a string.`)
		finish("validation_failed", http.StatusBadRequest, false)
		return
	}

	allowed, err := p.opts.Spaces.ListAllowed(ctx, auth.RawToken)
	if err != nil {
		logger.Error("allowed spaces fetch failed", slog.Any("error", err))
		p.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		finish("spaces_unavailable", http.StatusInternalServerError, false)
		return
	}
	if !platform.IsAllowed(space, allowed) {
		names := make([]string, len(allowed))
		for i, entry := range allowed {
			names[i] = entry.SpaceName
		}
		message := `"space" must be one of the following: ` + strings.Join(names, ", ") + "."
		p.WriteError(w, http.StatusBadRequest, message)
		finish("space_denied", http.StatusBadRequest, false)
		return
	}

	key := cache.Key(memberRefID, space)

	lookupStart := p.now()
	entry, hit, err := p.opts.Cache.Lookup(ctx, key)
	if err != nil {
		// A broken cache degrades to a fresh fetch rather than failing the request.
		logger.Warn("cache lookup failed", slog.Any("error", err))
		p.opts.Metrics.ObserveCacheLookup(metrics.CacheLookupError, p.now().Sub(lookupStart))
	} else if hit {
		p.opts.Metrics.ObserveCacheLookup(metrics.CacheLookupHit, p.now().Sub(lookupStart))
		p.writeJSON(w, http.StatusOK, entry.Aggregate)
		finish("success", http.StatusOK, true)
		return
	} else {
		p.opts.Metrics.ObserveCacheLookup(metrics.CacheLookupMiss, p.now().Sub(lookupStart))
	}

	aggregate, err := p.opts.Aggregator.Aggregate(ctx, memberRefID, space, auth.RawToken, auth.APIKey)
	if err != nil {
		logger.Error("aggregate fetch failed", slog.Any("error", err))
		p.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		finish("aggregate_failed", http.StatusInternalServerError, false)
		return
	}

	storedAt := p.now().UTC()
	storeStart := p.now()
	storeErr := p.opts.Cache.Store(ctx, key, cache.Entry{
		Aggregate: aggregate,
		StoredAt:  storedAt,
		ExpiresAt: storedAt.Add(p.opts.CacheTTL),
	})
	if storeErr != nil {
		logger.Warn("cache store failed", slog.Any("error", storeErr))
		p.opts.Metrics.ObserveCacheStore(metrics.CacheStoreError, p.now().Sub(storeStart))
	} else {
		p.opts.Metrics.ObserveCacheStore(metrics.CacheStoreStored, p.now().Sub(storeStart))
	}

	p.writeJSON(w, http.StatusOK, aggregate)
	finish("success", http.StatusOK, false)
}

// ServeHealth reports liveness.
func (p *Pipeline) ServeHealth(w http.ResponseWriter, _ *http.Request) {
	p.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// WriteError emits the relay's JSON error envelope. The message is always a
// plain string; raw error objects never reach clients.
func (p *Pipeline) WriteError(w http.ResponseWriter, status int, message string) {
	p.writeJSON(w, status, map[string]string{"error": message})
}

func (p *Pipeline) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		p.logger.Warn("response encode failed", slog.Any("error", err))
	}
}
