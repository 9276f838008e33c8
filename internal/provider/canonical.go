// Package provider defines canonical record types that the padelwin handler
// normalizes into. These structs are the contract between the transformer and
// the seed loader: the handler outputs these, the loader writes them to
// Postgres.
//
// Each record lists its columns in the exact order the loader binds them, so
// the insert statement and the values it receives can never drift apart.
package provider

import (
	"time"
)

// RawRow is one decoded row of an API response before normalization.
type RawRow = map[string]any

// Record is implemented by every row type the loader writes.
type Record interface {
	Columns() []string
	Values() []any
}

// RunContext carries values that are fixed for a whole run. It is built once
// by the run controller and passed to every transform.
type RunContext struct {
	SnapshotDate time.Time
	Location     *time.Location
}

// NewRunContext pins the snapshot date to the calendar day of now in loc.
func NewRunContext(now time.Time, loc *time.Location) RunContext {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return RunContext{
		SnapshotDate: time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
		Location:     loc,
	}
}

// Competition identifies the league instance being extracted. It is never
// persisted.
type Competition struct {
	ID      string
	Encoded string // base64 form expected by most endpoints
	Name    string
}

// Category is a division within a competition.
type Category struct {
	CategoryAPIID int
	Name          string
	Gender        string
	SnapshotDate  time.Time
}

func (Category) Columns() []string {
	return []string{"categoria_api_id", "nombre", "genero", "fecha"}
}

func (c Category) Values() []any {
	return []any{c.CategoryAPIID, c.Name, c.Gender, c.SnapshotDate}
}

// Club is a participant registered in a category.
type Club struct {
	Name          string
	CategoryAPIID int
	SnapshotDate  time.Time
}

func (Club) Columns() []string {
	return []string{"nombre", "categoria_api_id", "fecha"}
}

func (c Club) Values() []any {
	return []any{c.Name, c.CategoryAPIID, c.SnapshotDate}
}

// Fixture is a tie between two clubs in a category round ("enfrentamiento").
type Fixture struct {
	FixtureAPIID  int
	MatchTime     *time.Time
	ResultText    string
	HomeClub      string
	AwayClub      string
	Round         *int
	SnapshotDate  time.Time
	CategoryAPIID int
}

func (Fixture) Columns() []string {
	return []string{
		"fecha_partido", "resultado", "club_local_id", "club_visitante_id",
		"jornada", "enfrentamiento_api_id", "fecha", "categoria_api_id",
	}
}

func (f Fixture) Values() []any {
	return []any{
		f.MatchTime, f.ResultText, f.HomeClub, f.AwayClub,
		f.Round, f.FixtureAPIID, f.SnapshotDate, f.CategoryAPIID,
	}
}

// HasResult reports whether the fixture has a recorded score.
func (f Fixture) HasResult() bool {
	return !HasNoResult(f.ResultText)
}

// MatchResult is the score detail of one match inside a fixture ("resultado").
type MatchResult struct {
	MatchAPIID   int
	HomeWon      bool
	HomePlayer1  string
	HomePlayer2  string
	AwayPlayer1  string
	AwayPlayer2  string
	Set1Home     *int
	Set1Away     *int
	Set2Home     *int
	Set2Away     *int
	Set3Home     *int
	Set3Away     *int
	Court        *int
	Points       *int
	SnapshotDate time.Time
	FixtureAPIID int
}

func (MatchResult) Columns() []string {
	return []string{
		"partido_api_id", "is_local_ganador",
		"nombre1_local", "nombre2_local", "nombre1_visitante", "nombre2_visitante",
		"set1_local", "set1_visitante", "set2_local", "set2_visitante", "set3_local", "set3_visitante",
		"pista", "puntos", "fecha", "enfrentamiento_api_id",
	}
}

func (m MatchResult) Values() []any {
	return []any{
		m.MatchAPIID, m.HomeWon,
		m.HomePlayer1, m.HomePlayer2, m.AwayPlayer1, m.AwayPlayer2,
		m.Set1Home, m.Set1Away, m.Set2Home, m.Set2Away, m.Set3Home, m.Set3Away,
		m.Court, m.Points, m.SnapshotDate, m.FixtureAPIID,
	}
}
