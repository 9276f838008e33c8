package padelwin

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/padelwin-ingest/internal/provider"
)

var testLoc = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		panic(err)
	}
	return loc
}()

func testRunContext() provider.RunContext {
	return provider.NewRunContext(time.Date(2025, 9, 15, 10, 0, 0, 0, testLoc), testLoc)
}

func TestTransformCompetitions(t *testing.T) {
	got := TransformCompetitions([]provider.RawRow{
		{"idcompeticion": json.Number("308"), "name": "LLIGA 14 VALLÈS"},
		{"idcompeticion": nil, "name": "broken"},
		{"idcompeticion": "319", "name": "Lliga 15"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, provider.Competition{ID: "308", Encoded: "MzA4", Name: "LLIGA 14 VALLÈS"}, got[0])
	assert.Equal(t, "MzE5", got[1].Encoded)
}

func TestTransformCategories(t *testing.T) {
	rc := testRunContext()
	got := TransformCategories(rc, []provider.RawRow{
		{"idcategoria": json.Number("5"), "name": " Open Masc ", "genero": "M", "extra": "ignored"},
		{"idcategoria": "x", "name": "no id", "genero": "F"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, provider.Category{
		CategoryAPIID: 5,
		Name:          " Open Masc ",
		Gender:        "M",
		SnapshotDate:  time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
	}, got[0])
}

func TestTransformCategories_NilInputIsEmpty(t *testing.T) {
	got := TransformCategories(testRunContext(), nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTransformClubs(t *testing.T) {
	rc := testRunContext()
	got := TransformClubs(rc, []provider.RawRow{
		{"nom": "<span>Club Barcelona</span>"},
		{"nom": "Plain Club"},
		{"nom": nil},
	}, 12)

	require.Len(t, got, 3)
	assert.Equal(t, "Club Barcelona", got[0].Name)
	assert.Equal(t, "Plain Club", got[1].Name)
	assert.Equal(t, "", got[2].Name)
	for _, c := range got {
		assert.Equal(t, 12, c.CategoryAPIID)
		assert.Equal(t, rc.SnapshotDate, c.SnapshotDate)
	}
}

func TestTransformFixtures(t *testing.T) {
	rc := testRunContext()
	rows := []provider.RawRow{
		{
			"Fecha":       "05/10/2025 18:30",
			"resul":       "<b>3 - 2</b>",
			"eq1":         "<span>CT Sabadell</span>",
			"eq2":         "Club Terrassa",
			"num_jornada": json.Number("4"),
			"verpartidos": "verDetalle(this,'1234')",
		},
		{
			"Fecha":       "pendiente",
			"resul":       "Sin resultado",
			"eq1":         "A",
			"eq2":         "B",
			"num_jornada": "n/a",
			"verpartidos": "verDetalle(this,'77')",
		},
		{"verpartidos": "verDetalle(this,'0')", "eq1": "dropped"},
		{"verpartidos": "", "eq1": "dropped"},
		{"verpartidos": nil, "eq1": "dropped"},
		{"eq1": "dropped"},
	}

	got := TransformFixtures(rc, rows, 3)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, 1234, first.FixtureAPIID)
	require.NotNil(t, first.MatchTime)
	assert.True(t, first.MatchTime.Equal(time.Date(2025, 10, 5, 18, 30, 0, 0, testLoc)))
	assert.Equal(t, "3 - 2", first.ResultText)
	assert.Equal(t, "CT Sabadell", first.HomeClub)
	assert.Equal(t, "Club Terrassa", first.AwayClub)
	require.NotNil(t, first.Round)
	assert.Equal(t, 4, *first.Round)
	assert.Equal(t, 3, first.CategoryAPIID)
	assert.Equal(t, rc.SnapshotDate, first.SnapshotDate)
	assert.True(t, first.HasResult())

	second := got[1]
	assert.Equal(t, 77, second.FixtureAPIID)
	assert.Nil(t, second.MatchTime)
	assert.Nil(t, second.Round)
	assert.False(t, second.HasResult())
}

func TestTransformFixtures_NoSurvivorHasZeroID(t *testing.T) {
	rows := []provider.RawRow{
		{"verpartidos": "verDetalle(this,'0')"},
		{"verpartidos": "verDetalle(this,'15')"},
		{"verpartidos": "javascript:void(0)"},
		{"verpartidos": "verDetalle(this,'nan')"},
	}
	got := TransformFixtures(testRunContext(), rows, 1)
	require.Len(t, got, 1)
	for _, f := range got {
		assert.NotZero(t, f.FixtureAPIID)
	}
}

func TestTransformMatchResults(t *testing.T) {
	rc := testRunContext()
	rows := []provider.RawRow{
		{
			"idpartido": json.Number("9001"), "win": "1",
			"nom11": "Anna", "nom12": "Berta", "nom21": "Carla", "nom22": "Dana",
			"s11": "6", "s12": json.Number("4"), "s21": "3", "s22": "6", "s31": "", "s32": "-",
			"orden": json.Number("2"), "puntos": "abc",
		},
		{"idpartido": "9002", "win": json.Number("0")},
		{"idpartido": nil, "win": "1"},
	}

	got, err := TransformMatchResults(rc, rows, 1234)
	require.NoError(t, err)
	require.Len(t, got, 2)

	m := got[0]
	assert.Equal(t, 9001, m.MatchAPIID)
	assert.True(t, m.HomeWon)
	assert.Equal(t, "Anna", m.HomePlayer1)
	assert.Equal(t, "Dana", m.AwayPlayer2)
	require.NotNil(t, m.Set1Home)
	assert.Equal(t, 6, *m.Set1Home)
	require.NotNil(t, m.Set1Away)
	assert.Equal(t, 4, *m.Set1Away)
	assert.Nil(t, m.Set3Home)
	assert.Nil(t, m.Set3Away)
	require.NotNil(t, m.Court)
	assert.Equal(t, 2, *m.Court)
	assert.Nil(t, m.Points)
	assert.Equal(t, 1234, m.FixtureAPIID)
	assert.Equal(t, rc.SnapshotDate, m.SnapshotDate)

	assert.False(t, got[1].HomeWon)
	assert.Equal(t, "", got[1].HomePlayer1)
}

func TestTransformMatchResults_WinIndicator(t *testing.T) {
	tests := []struct {
		raw  any
		want bool
	}{
		{raw: "1", want: true},
		{raw: json.Number("1"), want: true},
		{raw: 1.0, want: true},
		{raw: "0", want: false},
		{raw: "2", want: false},
	}
	for _, tt := range tests {
		got, err := TransformMatchResults(testRunContext(), []provider.RawRow{{"idpartido": "1", "win": tt.raw}}, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, tt.want, got[0].HomeWon, "win=%v", tt.raw)
	}
}

func TestTransformMatchResults_NonIntegerWinFails(t *testing.T) {
	for _, raw := range []any{"yes", "", nil} {
		_, err := TransformMatchResults(testRunContext(), []provider.RawRow{{"idpartido": "1", "win": raw}}, 55)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidWinIndicator), "win=%v", raw)
	}
}
