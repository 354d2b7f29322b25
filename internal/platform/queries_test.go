package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryActiveCompetitionsShape(t *testing.T) {
	var got QueryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/competitions/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results":[
			{"id":1,"name":"Test Competition","scheduledStartDate":"2026-01-01","scheduledEndDate":"2026-02-01","status":"Active"},
			{"id":"comp-2","name":"Second","scheduledStartDate":"2026-01-05","scheduledEndDate":"2026-02-05","status":"Active"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", server.Client())
	competitions, err := client.QueryActiveCompetitions(context.Background())
	require.NoError(t, err)

	require.Equal(t, []QueryClause{{QueryField: "status", QueryValues: []any{"Active"}}}, got.Must)
	require.Equal(t, []SortClause{{QueryField: "created", Order: "Desc"}}, got.SortBy)
	require.Equal(t, 10, got.Limit)
	require.Equal(t, 0, got.Skip)

	require.Len(t, competitions, 2)
	require.Equal(t, float64(1), competitions[0].ID)
	require.Equal(t, "Test Competition", competitions[0].Name)
	require.Equal(t, "Active", competitions[0].Status)
	require.Equal(t, "comp-2", competitions[1].ID)
}

func TestQueryContestsShape(t *testing.T) {
	var got QueryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/contests/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results":[{"id":"contest-1","round":1},{"id":"contest-2","round":2}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", server.Client())
	contests, err := client.QueryContests(context.Background(), "comp-1")
	require.NoError(t, err)

	require.Equal(t, []QueryClause{{QueryField: "competitionId", QueryValues: []any{"comp-1"}}}, got.Must)
	require.Equal(t, []SortClause{{QueryField: "created", Order: "Desc"}}, got.SortBy)
	require.Equal(t, 10, got.Limit)
	require.Equal(t, 0, got.Skip)

	require.Len(t, contests, 2)
	require.JSONEq(t, `{"id":"contest-1","round":1}`, string(contests[0]))
}

func TestQueryContestsPropagatesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", server.Client())
	_, err := client.QueryContests(context.Background(), 7)
	require.Error(t, err)
	require.Contains(t, err.Error(), "query contests")
}

func TestQueryActiveCompetitionsEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", server.Client())
	competitions, err := client.QueryActiveCompetitions(context.Background())
	require.NoError(t, err)
	require.Empty(t, competitions)
}
