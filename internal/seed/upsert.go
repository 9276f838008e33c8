package seed

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/albapepper/padelwin-ingest/internal/config"
	"github.com/albapepper/padelwin-ingest/internal/logging"
	"github.com/albapepper/padelwin-ingest/internal/provider"
)

// maxParams is PostgreSQL's limit on bind parameters per statement.
const maxParams = 65535

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 100

// Beginner opens the transaction an entity is loaded in. *pgx.Conn gives a
// real transaction; pgx.Tx gives a savepoint inside the enclosing one.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// upsertPlan describes the ON CONFLICT statement for one table.
type upsertPlan struct {
	table   string
	columns []string
	key     []string
	update  []string
	keyIdx  []int
}

// newUpsertPlan validates key and update columns against the record's column
// list. A mismatch is a programming error and panics at package init.
func newUpsertPlan[T provider.Record](table string, key, update []string) upsertPlan {
	var zero T
	columns := zero.Columns()
	plan := upsertPlan{table: table, columns: columns, key: key, update: update}
	for _, k := range key {
		i := slices.Index(columns, k)
		if i < 0 {
			panic(fmt.Sprintf("seed: %s key column %q not in %v", table, k, columns))
		}
		plan.keyIdx = append(plan.keyIdx, i)
	}
	for _, u := range update {
		if !slices.Contains(columns, u) || slices.Contains(key, u) {
			panic(fmt.Sprintf("seed: %s update column %q must be a non-key column of %v", table, u, columns))
		}
	}
	return plan
}

var (
	categoryPlan = newUpsertPlan[provider.Category](config.CategoriesTable,
		[]string{"categoria_api_id"},
		[]string{"fecha"})
	clubPlan = newUpsertPlan[provider.Club](config.ClubsTable,
		[]string{"nombre", "categoria_api_id"},
		[]string{"fecha"})
	fixturePlan = newUpsertPlan[provider.Fixture](config.FixturesTable,
		[]string{"enfrentamiento_api_id"},
		[]string{"club_local_id", "club_visitante_id", "fecha", "fecha_partido", "resultado"})
	resultPlan = newUpsertPlan[provider.MatchResult](config.ResultsTable,
		[]string{"partido_api_id"},
		nonKey(provider.MatchResult{}.Columns(), "partido_api_id"))
)

func nonKey(columns []string, key ...string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if !slices.Contains(key, c) {
			out = append(out, c)
		}
	}
	return out
}

// statement builds the upsert for n rows.
func (s upsertPlan) statement(n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgx.Identifier{s.table}.Sanitize())
	b.WriteString(" (")
	b.WriteString(strings.Join(quoteAll(s.columns), ", "))
	b.WriteString(") VALUES ")

	param := 1
	for r := 0; r < n; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range s.columns {
			if c > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(param))
			param++
		}
		b.WriteByte(')')
	}

	b.WriteString(" ON CONFLICT (")
	b.WriteString(strings.Join(quoteAll(s.key), ", "))
	b.WriteString(") DO UPDATE SET ")
	for i, u := range s.update {
		if i > 0 {
			b.WriteString(", ")
		}
		q := pgx.Identifier{u}.Sanitize()
		b.WriteString(q + " = EXCLUDED." + q)
	}
	return b.String()
}

// chunkSize caps rows per statement by the batch size and the parameter limit.
func (s upsertPlan) chunkSize(batchSize int) int {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return min(batchSize, maxParams/len(s.columns))
}

// naturalKey renders a record's conflict key for deduplication.
func (s upsertPlan) naturalKey(values []any) string {
	parts := make([]string, len(s.keyIdx))
	for i, idx := range s.keyIdx {
		parts[i] = fmt.Sprint(values[idx])
	}
	return strings.Join(parts, "\x00")
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = pgx.Identifier{n}.Sanitize()
	}
	return out
}

// dedupe collapses rows sharing a natural key. The last occurrence wins and
// keeps the position of the first, so one statement never updates a row twice.
func dedupe[T provider.Record](plan upsertPlan, rows []T) []T {
	seen := make(map[string]int, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		k := plan.naturalKey(row.Values())
		if i, ok := seen[k]; ok {
			out[i] = row
			continue
		}
		seen[k] = len(out)
		out = append(out, row)
	}
	return out
}

// --------------------------------------------------------------------------
// Loader
// --------------------------------------------------------------------------

// Loader upserts extracted tables, one transaction per entity.
type Loader struct {
	db        Beginner
	batchSize int
	logger    *logging.Logger
}

// NewLoader creates a loader writing through db.
func NewLoader(db Beginner, batchSize int, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{db: db, batchSize: batchSize, logger: logger}
}

// LoadCategories upserts categories, refreshing only the snapshot date.
func (l *Loader) LoadCategories(ctx context.Context, rows []provider.Category) (int, error) {
	return load(ctx, l, categoryPlan, rows)
}

// LoadClubs upserts clubs, refreshing only the snapshot date.
func (l *Loader) LoadClubs(ctx context.Context, rows []provider.Club) (int, error) {
	return load(ctx, l, clubPlan, rows)
}

// LoadFixtures upserts fixtures, refreshing clubs, dates and result text.
func (l *Loader) LoadFixtures(ctx context.Context, rows []provider.Fixture) (int, error) {
	return load(ctx, l, fixturePlan, rows)
}

// LoadResults upserts match results, refreshing every non-key column.
func (l *Loader) LoadResults(ctx context.Context, rows []provider.MatchResult) (int, error) {
	return load(ctx, l, resultPlan, rows)
}

// load writes rows in chunks inside one transaction and returns the number of
// rows the database reported as inserted or updated.
func load[T provider.Record](ctx context.Context, l *Loader, plan upsertPlan, rows []T) (int, error) {
	if len(rows) == 0 {
		l.logger.Warn("No rows to load", "table", plan.table)
		return 0, nil
	}

	rows = dedupe(plan, rows)

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "begin %s", plan.table)
	}

	var (
		affected int
		sql      string
	)
	for chunk := range slices.Chunk(rows, plan.chunkSize(l.batchSize)) {
		sql = plan.statement(len(chunk))
		args := make([]any, 0, len(chunk)*len(plan.columns))
		for _, row := range chunk {
			args = append(args, row.Values()...)
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			fail(ctx, l, tx, plan, sql, rows, err)
			return 0, errors.Wrapf(err, "upsert %s", plan.table)
		}
		affected += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		fail(ctx, l, tx, plan, sql, rows, err)
		return 0, errors.Wrapf(err, "commit %s", plan.table)
	}

	l.logger.Info("Table loaded", "table", plan.table, "rows", len(rows), "affected", affected)
	return affected, nil
}

// fail rolls back and logs enough of the statement to reproduce the error.
func fail[T provider.Record](ctx context.Context, l *Loader, tx pgx.Tx, plan upsertPlan, sql string, rows []T, cause error) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		l.logger.Warn("Rollback failed", "table", plan.table, "error", err)
	}
	l.logger.Error("Load failed, rolled back", "table", plan.table, "error", cause)
	l.logger.Debug("Failing statement", "table", plan.table, "sql", sql)

	head := rows[:min(3, len(rows))]
	sample := make([][]any, len(head))
	for i, r := range head {
		sample[i] = r.Values()
	}
	l.logger.Debug("First rows", "table", plan.table, "rows", sample)
	if plan.table == config.FixturesTable {
		l.logger.Debug("Expected column order", "table", plan.table, "columns", plan.columns)
	}
}
