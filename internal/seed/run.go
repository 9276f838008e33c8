package seed

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/albapepper/padelwin-ingest/internal/config"
	"github.com/albapepper/padelwin-ingest/internal/logging"
	"github.com/albapepper/padelwin-ingest/internal/provider"
)

// State is the phase a run is in.
type State int

const (
	StateExtracting State = iota
	StateLoading
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateExtracting:
		return "extracting"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Store is the datastore connection a run loads through. *db.Conn
// implements it.
type Store interface {
	Beginner
	CountRows(ctx context.Context, table string) (int64, error)
	Close(ctx context.Context) error
}

// Connector opens the datastore. It is called only after extraction
// succeeds.
type Connector func(ctx context.Context) (Store, error)

// RunConfig holds the knobs of a run.
type RunConfig struct {
	CompetitionFilter string
	BatchSize         int
	// Atomic wraps the whole load phase in one transaction; each entity
	// becomes a savepoint.
	Atomic bool
}

// Report is the outcome of one run.
type Report struct {
	State    State
	Extract  ExtractSummary
	Load     LoadResult
	Duration time.Duration
	Err      error
}

// ExitCode maps the run outcome to a process exit status.
func (r Report) ExitCode() int {
	if r.State == StateSuccess {
		return 0
	}
	return 1
}

// Runner drives one extract-then-load run.
type Runner struct {
	source  Source
	connect Connector
	cfg     RunConfig
	logger  *logging.Logger
	state   State
}

// NewRunner creates a runner in the extracting state.
func NewRunner(source Source, connect Connector, cfg RunConfig, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{source: source, connect: connect, cfg: cfg, logger: logger, state: StateExtracting}
}

// State returns the phase the runner is in.
func (r *Runner) State() State {
	return r.state
}

// Run extracts the competition and loads it. The datastore is only opened
// once extraction has succeeded, and is always closed before Run returns.
func (r *Runner) Run(ctx context.Context, rc provider.RunContext) Report {
	start := time.Now()
	report := Report{}
	finish := func(state State, err error) Report {
		r.state = state
		report.State = state
		report.Err = err
		report.Duration = time.Since(start).Round(time.Millisecond)
		return report
	}

	r.state = StateExtracting
	r.logger.Info("Extraction started", "snapshot_date", rc.SnapshotDate.Format(time.DateOnly))
	tables, summary, err := Extract(ctx, r.source, rc, r.cfg.CompetitionFilter, r.logger)
	report.Extract = summary
	if err != nil {
		r.logger.Error("Extraction failed", "error", err)
		return finish(StateFailed, errors.Wrap(err, "extract"))
	}
	r.logger.Info("Extraction summary",
		"competition", summary.Competition,
		"categories", summary.Categories,
		"clubs", summary.Clubs,
		"fixtures", summary.Fixtures,
		"fixtures_with_result", summary.FixturesWithResult,
		"results", summary.Results)

	r.state = StateLoading
	store, err := r.connect(ctx)
	if err != nil {
		r.logger.Error("Database connection failed", "error", err)
		return finish(StateFailed, errors.Wrap(err, "connect"))
	}
	closed := false
	defer func() {
		if closed {
			return
		}
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("Closing database connection failed", "error", err)
		}
	}()

	if err := r.load(ctx, store, tables, &report.Load); err != nil {
		return finish(StateFailed, err)
	}
	r.logCounts(ctx, store)

	// The run only succeeds once the connection has closed cleanly.
	closed = true
	if err := store.Close(context.WithoutCancel(ctx)); err != nil {
		r.logger.Error("Closing database connection failed", "error", err)
		return finish(StateFailed, errors.Wrap(err, "close"))
	}
	return finish(StateSuccess, nil)
}

// load writes the tables in foreign-key order.
func (r *Runner) load(ctx context.Context, store Store, tables Tables, result *LoadResult) error {
	if !r.cfg.Atomic {
		return r.loadAll(ctx, store, tables, result)
	}

	tx, err := store.Begin(ctx)
	if err != nil {
		r.logger.Error("Begin run transaction failed", "error", err)
		return errors.Wrap(err, "begin run transaction")
	}
	if err := r.loadAll(ctx, tx, tables, result); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.Warn("Run rollback failed", "error", rbErr)
		}
		r.logger.Error("Load rolled back, nothing committed")
		*result = LoadResult{Errors: result.Errors}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Commit run transaction failed", "error", err)
		result.AddErrorf("commit: %v", err)
		return errors.Wrap(err, "commit run transaction")
	}
	return nil
}

func (r *Runner) loadAll(ctx context.Context, db Beginner, tables Tables, result *LoadResult) error {
	loader := NewLoader(db, r.cfg.BatchSize, r.logger)

	steps := []struct {
		table string
		run   func() (int, error)
		count *int
	}{
		{config.CategoriesTable, func() (int, error) { return loader.LoadCategories(ctx, tables.Categories) }, &result.CategoriesUpserted},
		{config.ClubsTable, func() (int, error) { return loader.LoadClubs(ctx, tables.Clubs) }, &result.ClubsUpserted},
		{config.FixturesTable, func() (int, error) { return loader.LoadFixtures(ctx, tables.Fixtures) }, &result.FixturesUpserted},
		{config.ResultsTable, func() (int, error) { return loader.LoadResults(ctx, tables.Results) }, &result.ResultsUpserted},
	}
	for _, step := range steps {
		n, err := step.run()
		if err != nil {
			result.AddErrorf("%s: %v", step.table, err)
			return errors.Wrapf(err, "load %s", step.table)
		}
		*step.count = n
	}
	return nil
}

// logCounts reports table sizes after the load. Failures are only logged.
func (r *Runner) logCounts(ctx context.Context, store Store) {
	for _, table := range []string{config.CategoriesTable, config.ClubsTable, config.FixturesTable, config.ResultsTable} {
		n, err := store.CountRows(ctx, table)
		if err != nil {
			r.logger.Warn("Row count failed", "table", table, "error", err)
			continue
		}
		r.logger.Info("Table size", "table", table, "rows", n)
	}
}
