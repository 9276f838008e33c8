package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/albapepper/padelwin-ingest/internal/logging"
	"github.com/albapepper/padelwin-ingest/internal/provider"
)

// ErrCompetitionNotFound is returned when no in-progress competition matches
// the configured filter.
var ErrCompetitionNotFound = errors.New("competition not found")

// Source is the league data the extraction walks. *padelwin.LeagueHandler
// implements it.
type Source interface {
	GetCompetitions(ctx context.Context) []provider.Competition
	GetCategories(ctx context.Context, rc provider.RunContext, comp provider.Competition) []provider.Category
	GetClubs(ctx context.Context, rc provider.RunContext, comp provider.Competition, categoryID int) []provider.Club
	GetFixtures(ctx context.Context, rc provider.RunContext, comp provider.Competition, categoryID int) []provider.Fixture
	GetMatchResults(ctx context.Context, rc provider.RunContext, fixtureID int) ([]provider.MatchResult, error)
}

// Tables holds everything one run extracted, ready to load.
type Tables struct {
	Categories []provider.Category
	Clubs      []provider.Club
	Fixtures   []provider.Fixture
	Results    []provider.MatchResult
}

// FindCompetition returns the first competition whose normalized name
// contains the normalized filter.
func FindCompetition(comps []provider.Competition, filter string) (provider.Competition, error) {
	want := provider.NormalizeName(filter)
	for _, c := range comps {
		if strings.Contains(provider.NormalizeName(c.Name), want) {
			return c, nil
		}
	}
	return provider.Competition{}, errors.Wrapf(ErrCompetitionNotFound, "filter %q among %d competitions", filter, len(comps))
}

// Extract walks competition, categories, clubs, fixtures and match results
// in that order. Failed fetches surface as empty tables; only a missing
// competition, a malformed win indicator or a cancelled context fail the
// extraction.
func Extract(ctx context.Context, src Source, rc provider.RunContext, filter string, logger *logging.Logger) (Tables, ExtractSummary, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var (
		tables  Tables
		summary ExtractSummary
	)

	logger.Info("Fetching competitions", "filter", filter)
	comp, err := FindCompetition(src.GetCompetitions(ctx), filter)
	if err != nil {
		return Tables{}, summary, err
	}
	summary.Competition = comp.Name
	logger.Info("Competition selected", "id", comp.ID, "encoded", comp.Encoded, "name", comp.Name)

	tables.Categories = src.GetCategories(ctx, rc, comp)
	logger.Info("Categories fetched", "count", len(tables.Categories))

	for i, cat := range tables.Categories {
		if err := ctx.Err(); err != nil {
			return Tables{}, summary, errors.Wrap(err, "extract categories")
		}
		clubs := src.GetClubs(ctx, rc, comp, cat.CategoryAPIID)
		fixtures := src.GetFixtures(ctx, rc, comp, cat.CategoryAPIID)
		tables.Clubs = append(tables.Clubs, clubs...)
		tables.Fixtures = append(tables.Fixtures, fixtures...)
		logger.Info("Category processed",
			"progress", progress(i+1, len(tables.Categories)),
			"category_api_id", cat.CategoryAPIID, "name", cat.Name,
			"clubs", len(clubs), "fixtures", len(fixtures))
	}

	played := make([]provider.Fixture, 0, len(tables.Fixtures))
	for _, f := range tables.Fixtures {
		if f.HasResult() {
			played = append(played, f)
		}
	}
	logger.Info("Fixtures with result", "count", len(played), "total", len(tables.Fixtures))

	for i, f := range played {
		if err := ctx.Err(); err != nil {
			return Tables{}, summary, errors.Wrap(err, "extract match results")
		}
		results, err := src.GetMatchResults(ctx, rc, f.FixtureAPIID)
		if err != nil {
			return Tables{}, summary, errors.Wrap(err, "extract match results")
		}
		tables.Results = append(tables.Results, results...)
		logger.Debug("Fixture processed",
			"progress", progress(i+1, len(played)),
			"fixture_api_id", f.FixtureAPIID, "results", len(results))
	}

	summary.Categories = len(tables.Categories)
	summary.Clubs = len(tables.Clubs)
	summary.Fixtures = len(tables.Fixtures)
	summary.FixturesWithResult = len(played)
	summary.Results = len(tables.Results)
	return tables, summary, nil
}

func progress(done, total int) string {
	return fmt.Sprintf("%d/%d", done, total)
}
