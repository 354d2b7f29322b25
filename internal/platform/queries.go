package platform

import (
	"context"
	"encoding/json"
	"fmt"
)

// queryPageSize caps every competitions/contests query to the 10 most recently
// created records; there is no pagination beyond the first page.
const queryPageSize = 10

// QueryClause filters a platform query on one field.
type QueryClause struct {
	QueryField  string `json:"queryField"`
	QueryValues []any  `json:"queryValues"`
}

// SortClause orders a platform query on one field.
type SortClause struct {
	QueryField string `json:"queryField"`
	Order      string `json:"order"`
}

// QueryRequest is the fixed request shape of the competitions/contests query
// endpoints.
type QueryRequest struct {
	Must   []QueryClause `json:"must"`
	SortBy []SortClause  `json:"sortBy"`
	Limit  int           `json:"limit"`
	Skip   int           `json:"skip"`
}

// CompetitionRecord is the subset of an upstream competition the relay shapes
// into its response. The id stays untyped; the platform has served both
// numeric and string identifiers.
type CompetitionRecord struct {
	ID                 any    `json:"id"`
	Name               string `json:"name"`
	ScheduledStartDate string `json:"scheduledStartDate"`
	ScheduledEndDate   string `json:"scheduledEndDate"`
	Status             string `json:"status"`
}

type competitionsResponse struct {
	Results []CompetitionRecord `json:"results"`
}

type contestsResponse struct {
	Results []json.RawMessage `json:"results"`
}

func createdDescending() []SortClause {
	return []SortClause{{QueryField: "created", Order: "Desc"}}
}

// QueryActiveCompetitions fetches the first page of active competitions,
// newest first.
func (c *Client) QueryActiveCompetitions(ctx context.Context) ([]CompetitionRecord, error) {
	request := QueryRequest{
		Must:   []QueryClause{{QueryField: "status", QueryValues: []any{"Active"}}},
		SortBy: createdDescending(),
		Limit:  queryPageSize,
		Skip:   0,
	}
	var decoded competitionsResponse
	if err := c.PostJSON(ctx, "/competitions/query", request, &decoded); err != nil {
		return nil, fmt.Errorf("query competitions: %w", err)
	}
	return decoded.Results, nil
}

// QueryContests fetches the 10 most recent contests of one competition.
// Contest records stay opaque to the relay.
func (c *Client) QueryContests(ctx context.Context, competitionID any) ([]json.RawMessage, error) {
	request := QueryRequest{
		Must:   []QueryClause{{QueryField: "competitionId", QueryValues: []any{competitionID}}},
		SortBy: createdDescending(),
		Limit:  queryPageSize,
		Skip:   0,
	}
	var decoded contestsResponse
	if err := c.PostJSON(ctx, "/contests/query", request, &decoded); err != nil {
		return nil, fmt.Errorf("query contests: %w", err)
	}
	return decoded.Results, nil
}
