// Package db opens the single PostgreSQL connection a run loads through.
package db

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/albapepper/padelwin-ingest/internal/config"
)

const connectTimeout = 15 * time.Second

// Conn wraps pgx.Conn with application-specific helpers.
type Conn struct {
	*pgx.Conn
}

// Connect opens and validates a connection.
func Connect(ctx context.Context, cfg *config.Config) (*Conn, error) {
	connCfg, err := pgx.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database URL")
	}
	if connCfg.ConnectTimeout == 0 {
		connCfg.ConnectTimeout = connectTimeout
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s:%d/%s", connCfg.Host, connCfg.Port, connCfg.Database)
	}

	c := &Conn{Conn: conn}
	// Verify connectivity
	if err := c.HealthCheck(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, errors.Wrap(err, "health check")
	}
	return c, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (c *Conn) HealthCheck(ctx context.Context) error {
	var n int
	return c.QueryRow(ctx, "SELECT 1").Scan(&n)
}

// CountRows returns the number of rows currently in table. Used for the
// post-load summary; table must be one of the config table constants.
func (c *Conn) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := c.QueryRow(ctx, "SELECT count(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "count %s", table)
	}
	return n, nil
}
