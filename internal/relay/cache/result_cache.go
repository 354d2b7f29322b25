package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Competition is the shaped upstream record returned to relay clients. Contests
// stay opaque so cached entries re-serialize byte for byte.
type Competition struct {
	CompetitionID any               `json:"competitionId"`
	Name          string            `json:"name"`
	StartDate     string            `json:"startDate"`
	EndDate       string            `json:"endDate"`
	Status        string            `json:"status"`
	Contests      []json.RawMessage `json:"contests"`
}

// Aggregate is the cached value: the freshly issued session token plus the
// shaped competitions, in upstream creation-descending order.
type Aggregate struct {
	SessionToken string        `json:"sessionToken"`
	Competitions []Competition `json:"competitions"`
}

// Entry wraps an aggregate with its cache lifetime bookkeeping.
type Entry struct {
	Aggregate Aggregate `json:"aggregate"`
	StoredAt  time.Time `json:"storedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResultCache fronts the aggregator with a time-bounded (member, space) keyed
// store. Lookups never refresh entry lifetimes.
type ResultCache interface {
	Lookup(ctx context.Context, key string) (Entry, bool, error)
	Store(ctx context.Context, key string, entry Entry) error
	Size(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

// Key builds the canonical cache key for a member and space pair.
func Key(memberRefID, space string) string {
	return memberRefID + ":" + space
}
