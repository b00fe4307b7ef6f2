// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/reportpush/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// PurgeDispatchLog deletes dispatch summaries older than maxAge and returns
// the number of rows removed.
func (p *Pool) PurgeDispatchLog(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := p.Exec(ctx, PurgeDispatchLogSQL, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("purge dispatch log: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Statements lists every statement prepared on connect. Only the tables the
// send path cannot work without are referenced here, so a database without
// the dispatch log still accepts connections.
var Statements = map[string]string{
	// Health
	"health_check": "SELECT 1",

	// Directories. The parameter takes the column's type, so lookups stay on
	// the primary key and user_id indexes.
	"recipient_lookup":        "SELECT id::text, COALESCE(username, '') FROM " + config.SupervisorsTable + " WHERE id = $1",
	"recipient_device_tokens": "SELECT fcm_token FROM " + config.DeviceTokenTable + " WHERE user_id = $1",
}

// Dispatch log statements run unprepared; a missing table fails only the
// best-effort write, never the connection.
const (
	InsertDispatchLogSQL = "INSERT INTO " + config.DispatchLogTable +
		" (dispatch_id, user_id, report_type, total_count, success_count) VALUES ($1, $2, $3, $4, $5)"
	PurgeDispatchLogSQL = "DELETE FROM " + config.DispatchLogTable + " WHERE created_at < $1"
)

// registerPreparedStatements registers all statements the API, listener and
// CLI use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
