package padelwin

import (
	"github.com/cockroachdb/errors"

	"github.com/albapepper/padelwin-ingest/internal/provider"
)

// ErrInvalidWinIndicator is returned when a match row's "win" column is not an
// integer. The row cannot be classified either way, so the run stops.
var ErrInvalidWinIndicator = errors.New("invalid win indicator")

// --------------------------------------------------------------------------
// Normalizers: pure functions from raw API rows to canonical records.
// --------------------------------------------------------------------------

// TransformCompetitions maps the competition list. Rows without an id are
// skipped.
func TransformCompetitions(rows []provider.RawRow) []provider.Competition {
	out := make([]provider.Competition, 0, len(rows))
	for _, row := range rows {
		id := provider.ToString(row["idcompeticion"])
		if id == "" {
			continue
		}
		out = append(out, provider.Competition{
			ID:      id,
			Encoded: provider.EncodeID(id),
			Name:    provider.ToString(row["name"]),
		})
	}
	return out
}

// TransformCategories maps idcategoria/name/genero. The name is kept verbatim.
// Rows whose idcategoria is not an integer are dropped.
func TransformCategories(rc provider.RunContext, rows []provider.RawRow) []provider.Category {
	out := make([]provider.Category, 0, len(rows))
	for _, row := range rows {
		id, ok := provider.ToInt(row["idcategoria"])
		if !ok {
			continue
		}
		out = append(out, provider.Category{
			CategoryAPIID: id,
			Name:          provider.ToString(row["name"]),
			Gender:        provider.ToString(row["genero"]),
			SnapshotDate:  rc.SnapshotDate,
		})
	}
	return out
}

// TransformClubs maps the "nom" column, stripping display markup.
func TransformClubs(rc provider.RunContext, rows []provider.RawRow, categoryID int) []provider.Club {
	out := make([]provider.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, provider.Club{
			Name:          provider.CleanString(provider.ToString(row["nom"])),
			CategoryAPIID: categoryID,
			SnapshotDate:  rc.SnapshotDate,
		})
	}
	return out
}

// TransformFixtures maps fixture rows. The fixture id lives inside the
// "verpartidos" click handler; rows without one have no match detail to
// fetch and are dropped.
func TransformFixtures(rc provider.RunContext, rows []provider.RawRow, categoryID int) []provider.Fixture {
	out := make([]provider.Fixture, 0, len(rows))
	for _, row := range rows {
		handler, _ := row["verpartidos"].(string)
		rawID, ok := provider.ExtractFixtureID(handler)
		if !ok {
			continue
		}
		id, ok := provider.ToInt(rawID)
		if !ok {
			continue
		}
		out = append(out, provider.Fixture{
			FixtureAPIID:  id,
			MatchTime:     provider.ParseMatchTime(row["Fecha"], rc.Location),
			ResultText:    provider.CleanString(provider.ToString(row["resul"])),
			HomeClub:      provider.CleanString(provider.ToString(row["eq1"])),
			AwayClub:      provider.CleanString(provider.ToString(row["eq2"])),
			Round:         provider.IntPtr(row["num_jornada"]),
			SnapshotDate:  rc.SnapshotDate,
			CategoryAPIID: categoryID,
		})
	}
	return out
}

// TransformMatchResults maps the per-match score rows of one fixture. Scores,
// court and points that are not integers become nil. Rows without an integer
// idpartido are dropped; a non-integer "win" aborts with
// ErrInvalidWinIndicator.
func TransformMatchResults(rc provider.RunContext, rows []provider.RawRow, fixtureID int) ([]provider.MatchResult, error) {
	out := make([]provider.MatchResult, 0, len(rows))
	for _, row := range rows {
		id, ok := provider.ToInt(row["idpartido"])
		if !ok {
			continue
		}
		homeWon, err := parseWin(row["win"])
		if err != nil {
			return nil, errors.Wrapf(err, "fixture %d match %d", fixtureID, id)
		}
		out = append(out, provider.MatchResult{
			MatchAPIID:   id,
			HomeWon:      homeWon,
			HomePlayer1:  provider.ToString(row["nom11"]),
			HomePlayer2:  provider.ToString(row["nom12"]),
			AwayPlayer1:  provider.ToString(row["nom21"]),
			AwayPlayer2:  provider.ToString(row["nom22"]),
			Set1Home:     provider.IntPtr(row["s11"]),
			Set1Away:     provider.IntPtr(row["s12"]),
			Set2Home:     provider.IntPtr(row["s21"]),
			Set2Away:     provider.IntPtr(row["s22"]),
			Set3Home:     provider.IntPtr(row["s31"]),
			Set3Away:     provider.IntPtr(row["s32"]),
			Court:        provider.IntPtr(row["orden"]),
			Points:       provider.IntPtr(row["puntos"]),
			SnapshotDate: rc.SnapshotDate,
			FixtureAPIID: fixtureID,
		})
	}
	return out, nil
}

// parseWin is true iff the value is the integer 1.
func parseWin(val any) (bool, error) {
	n, ok := provider.ToInt(val)
	if !ok {
		return false, errors.Wrapf(ErrInvalidWinIndicator, "win=%q", provider.ToString(val))
	}
	return n == 1, nil
}
