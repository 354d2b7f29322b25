package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/karseba/comprelay/internal/metrics"
	"github.com/karseba/comprelay/internal/platform"
	"github.com/karseba/comprelay/internal/relay/cache"
)

// tokenIssuer is the slice of platform.TokenIssuer the aggregator needs.
type tokenIssuer interface {
	Issue(ctx context.Context, memberRefID, apiKey string) platform.SessionTokenResult
}

// Aggregator runs one full fetch: session token, active competitions, and the
// per-competition contest fan-out. There is no partial-success mode; any
// failing sub-fetch discards the whole aggregate.
type Aggregator struct {
	issuer       tokenIssuer
	queryBaseURL string
	doer         platform.Doer
	logger       *slog.Logger
	metrics      *metrics.Recorder
}

// NewAggregator wires the aggregator to the issuer and the query API.
func NewAggregator(issuer tokenIssuer, queryBaseURL string, doer platform.Doer, logger *slog.Logger, recorder *metrics.Recorder) *Aggregator {
	return &Aggregator{
		issuer:       issuer,
		queryBaseURL: queryBaseURL,
		doer:         doer,
		logger:       logger,
		metrics:      recorder,
	}
}

// Aggregate issues a fresh session token (every run, even adjacent to cache
// hits on other keys), queries active competitions with the caller's inbound
// token, and fans out over contests. Output order follows the competitions'
// creation-descending order regardless of which contest fetch finishes first.
func (a *Aggregator) Aggregate(ctx context.Context, memberRefID, space, token, apiKey string) (cache.Aggregate, error) {
	session := a.issuer.Issue(ctx, memberRefID, apiKey)
	if session.Status != http.StatusOK {
		a.metrics.ObserveUpstream("member_token", metrics.UpstreamError)
		return cache.Aggregate{}, &UpstreamError{Message: session.Err}
	}
	a.metrics.ObserveUpstream("member_token", metrics.UpstreamOK)

	client := platform.NewClient(a.queryBaseURL, token, a.doer)

	records, err := client.QueryActiveCompetitions(ctx)
	if err != nil {
		a.metrics.ObserveUpstream("competitions", metrics.UpstreamError)
		return cache.Aggregate{}, &UpstreamError{Message: "Failed to fetch competitions.", Cause: err}
	}
	a.metrics.ObserveUpstream("competitions", metrics.UpstreamOK)

	shaped := make([]cache.Competition, len(records))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, record := range records {
		i, record := i, record
		group.Go(func() error {
			contests, err := client.QueryContests(groupCtx, record.ID)
			if err != nil {
				a.metrics.ObserveUpstream("contests", metrics.UpstreamError)
				return err
			}
			a.metrics.ObserveUpstream("contests", metrics.UpstreamOK)
			if contests == nil {
				contests = []json.RawMessage{}
			}
			shaped[i] = cache.Competition{
				CompetitionID: record.ID,
				Name:          record.Name,
				StartDate:     record.ScheduledStartDate,
				EndDate:       record.ScheduledEndDate,
				Status:        strings.ToLower(record.Status),
				Contests:      contests,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return cache.Aggregate{}, &UpstreamError{Message: "Failed to fetch competitions.", Cause: err}
	}

	if a.logger != nil {
		a.logger.Debug("aggregate fetch complete",
			slog.String("member_ref_id", memberRefID),
			slog.String("space", space),
			slog.Int("competitions", len(shaped)))
	}

	return cache.Aggregate{SessionToken: session.Token, Competitions: shaped}, nil
}
