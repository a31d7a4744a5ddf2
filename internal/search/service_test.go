package search

import (
	"context"
	"testing"
)

// Both backends accept the request context so queries are cancelled with it.
var (
	_ Searcher = (*PgFTS)(nil)
	_ Searcher = (*Meili)(nil)
)

func TestSearchEmptyScopeReturnsNothing(t *testing.T) {
	// An empty visibility scope must short-circuit before any query runs;
	// the nil db proves the database is never touched.
	svc := NewService(nil, NewPgFTS(nil))

	resp := svc.Search(context.Background(), Query{Text: "kickoff"})
	if len(resp.Results) != 0 || resp.Total != 0 {
		t.Fatalf("expected no hits for an empty scope, got %+v", resp)
	}
	if resp.Query != "kickoff" {
		t.Fatalf("response should echo the query, got %q", resp.Query)
	}
}

func TestSearchBlankQueryReturnsNothing(t *testing.T) {
	svc := NewService(nil, NewPgFTS(nil))
	resp := svc.Search(context.Background(), Query{Text: "   ", ProjectIDs: []string{"prj_1"}})
	if len(resp.Results) != 0 {
		t.Fatalf("expected no hits for a blank query, got %+v", resp)
	}
}
