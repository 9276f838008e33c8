// Package seed extracts a padelwin competition and upserts it into Postgres.
package seed

import "fmt"

// ExtractSummary tracks how many rows each extraction stage produced.
type ExtractSummary struct {
	Competition        string
	Categories         int
	Clubs              int
	Fixtures           int
	FixturesWithResult int
	Results            int
}

// Summary returns a human-readable summary of the extraction.
func (s ExtractSummary) Summary() string {
	return fmt.Sprintf(
		"categories=%d clubs=%d fixtures=%d fixtures_with_result=%d results=%d",
		s.Categories, s.Clubs, s.Fixtures, s.FixturesWithResult, s.Results,
	)
}

// LoadResult tracks rows written per table and the errors hit along the way.
type LoadResult struct {
	CategoriesUpserted int
	ClubsUpserted      int
	FixturesUpserted   int
	ResultsUpserted    int
	Errors             []string
}

// AddErrorf records a formatted error message.
func (r *LoadResult) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the load.
func (r *LoadResult) Summary() string {
	return fmt.Sprintf(
		"categories=%d clubs=%d fixtures=%d results=%d errors=%d",
		r.CategoriesUpserted, r.ClubsUpserted,
		r.FixturesUpserted, r.ResultsUpserted,
		len(r.Errors),
	)
}
