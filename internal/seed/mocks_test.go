package seed

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// mockTx implements pgx.Tx. Methods the loader never calls fall through to
// the nil embedded interface and panic.
type mockTx struct {
	mock.Mock
	pgx.Tx
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTx) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// execCalls returns the SQL and arguments of every Exec call in order.
func (m *mockTx) execCalls() (sqls []string, args [][]any) {
	for _, c := range m.Calls {
		if c.Method != "Exec" {
			continue
		}
		sqls = append(sqls, c.Arguments.String(1))
		args = append(args, c.Arguments.Get(2).([]any))
	}
	return sqls, args
}

type mockBeginner struct {
	mock.Mock
}

func (m *mockBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

type mockStore struct {
	mockBeginner
}

func (m *mockStore) CountRows(ctx context.Context, table string) (int64, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func insertTag(n int64) pgconn.CommandTag {
	return pgconn.NewCommandTag("INSERT 0 " + strconv.FormatInt(n, 10))
}
