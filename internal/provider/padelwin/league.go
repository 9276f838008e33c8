package padelwin

import (
	"context"

	"github.com/albapepper/padelwin-ingest/internal/logging"
	"github.com/albapepper/padelwin-ingest/internal/provider"
)

// Fetcher is the remote data source the handler reads from. *Client
// implements it.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, payload map[string]any) []provider.RawRow
}

var _ Fetcher = (*Client)(nil)

// LeagueHandler fetches and normalizes league data from padelwin.
type LeagueHandler struct {
	client Fetcher
	logger *logging.Logger
}

// NewLeagueHandler creates a league handler.
func NewLeagueHandler(client Fetcher, logger *logging.Logger) *LeagueHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LeagueHandler{client: client, logger: logger}
}

// GetCompetitions fetches the competitions currently in progress.
func (h *LeagueHandler) GetCompetitions(ctx context.Context) []provider.Competition {
	rows := h.client.Fetch(ctx, EndpointCompetitions, map[string]any{"v": "100"})
	return TransformCompetitions(rows)
}

// GetCategories fetches the categories of a competition.
func (h *LeagueHandler) GetCategories(ctx context.Context, rc provider.RunContext, comp provider.Competition) []provider.Category {
	rows := h.client.Fetch(ctx, EndpointCategories, map[string]any{"v": comp.Encoded})
	categories := TransformCategories(rc, rows)
	h.logDropped("categories", len(rows), len(categories), "competition_id", comp.ID)
	return categories
}

// GetClubs fetches the clubs registered in a category.
func (h *LeagueHandler) GetClubs(ctx context.Context, rc provider.RunContext, comp provider.Competition, categoryID int) []provider.Club {
	rows := h.client.Fetch(ctx, EndpointClubs, map[string]any{
		"v":    comp.ID,
		"ace":  "undefined",
		"cat":  categoryID,
		"type": "1",
	})
	return TransformClubs(rc, rows, categoryID)
}

// GetFixtures fetches the fixtures of a category. Fixtures without a match
// detail link are dropped.
func (h *LeagueHandler) GetFixtures(ctx context.Context, rc provider.RunContext, comp provider.Competition, categoryID int) []provider.Fixture {
	rows := h.client.Fetch(ctx, EndpointFixtures, map[string]any{
		"v":       comp.Encoded,
		"cat":     categoryID,
		"ty":      "7",
		"tab":     "2",
		"ace":     "0",
		"jornada": "0",
		"lugar":   "0",
	})
	fixtures := TransformFixtures(rc, rows, categoryID)
	h.logDropped("fixtures", len(rows), len(fixtures), "category_api_id", categoryID)
	return fixtures
}

// GetMatchResults fetches the individual match scores of a fixture.
func (h *LeagueHandler) GetMatchResults(ctx context.Context, rc provider.RunContext, fixtureID int) ([]provider.MatchResult, error) {
	rows := h.client.Fetch(ctx, EndpointMatchResults, map[string]any{"ide": fixtureID})
	results, err := TransformMatchResults(rc, rows, fixtureID)
	if err != nil {
		return nil, err
	}
	h.logDropped("match results", len(rows), len(results), "fixture_api_id", fixtureID)
	return results, nil
}

func (h *LeagueHandler) logDropped(entity string, fetched, kept int, key string, id any) {
	if dropped := fetched - kept; dropped > 0 {
		h.logger.Warn("Dropped rows without a usable id", "entity", entity, key, id, "dropped", dropped, "kept", kept)
	}
}
