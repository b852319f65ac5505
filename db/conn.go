// Package db opens single-session connections to a relational database and
// wraps them with hook dispatch. It is NOT an ORM and does no pooling: every
// Conn is exactly one server session owned by whoever opened it.
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Conn — one live session
// ─────────────────────────────────────────────────────────────────────────────

// Conn is a live session with the database.
//
// It pins one *sql.Conn drawn from a private *sql.DB capped at a single
// connection, so two Conns never share a server session. The caller owns the
// Conn and must Close it on every exit path.
type Conn struct {
	sqldb    *sql.DB
	conn     *sql.Conn
	endpoint string
	hooks    hookChain
}

// Connect opens a new session using a database/sql driver name and a
// driver-native DSN, then verifies it with a ping. No partial Conn is ever
// returned: on failure every resource acquired so far is released and the
// error is a *ConnectionError wrapping the driver's cause.
//
// endpoint is a secret-free label carried on errors; pass "" to use driverName.
func Connect(ctx context.Context, driverName, dsn, endpoint string, hooks ...Hook) (*Conn, error) {
	if endpoint == "" {
		endpoint = driverName
	}
	fail := func(err error) (*Conn, error) {
		return nil, &ConnectionError{Endpoint: endpoint, Cause: err}
	}

	if dsn == "" {
		return fail(errors.New("empty DSN"))
	}

	sqldb, err := sql.Open(driverName, dsn)
	if err != nil {
		return fail(err)
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	conn, err := sqldb.Conn(ctx)
	if err != nil {
		_ = sqldb.Close()
		return fail(err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = sqldb.Close()
		return fail(err)
	}

	return &Conn{
		sqldb:    sqldb,
		conn:     conn,
		endpoint: endpoint,
		hooks:    newHookChain(hooks),
	}, nil
}

// Raw returns the underlying *sql.Conn for driver-specific work.
func (c *Conn) Raw() *sql.Conn { return c.conn }

// Endpoint returns the label the Conn was opened with. It never contains the
// account secret.
func (c *Conn) Endpoint() string { return c.endpoint }

// Ping verifies the session is still alive.
func (c *Conn) Ping(ctx context.Context) error {
	return c.conn.PingContext(ctx)
}

// Close ends the session and releases the private pool. Calling Close more
// than once is safe.
func (c *Conn) Close() error {
	err := c.conn.Close()
	if errors.Is(err, sql.ErrConnDone) {
		err = nil
	}
	if dbErr := c.sqldb.Close(); err == nil {
		err = dbErr
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Statement execution
// ─────────────────────────────────────────────────────────────────────────────

// Exec executes a statement that returns no rows (INSERT, UPDATE, DELETE, DDL).
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	c.hooks.Before(ctx, query, args)
	res, err := c.conn.ExecContext(ctx, query, args...)
	c.hooks.After(ctx, query, args, time.Since(start), err)
	return res, err
}

// Query executes a query that returns rows.
// The caller MUST close the returned *sql.Rows before issuing the next
// statement on the same Conn.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	c.hooks.Before(ctx, query, args)
	rows, err := c.conn.QueryContext(ctx, query, args...)
	c.hooks.After(ctx, query, args, time.Since(start), err)
	return rows, err
}

// QueryRow executes a query expected to return at most one row.
// Errors are deferred until Scan, as with *sql.Row.
func (c *Conn) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	c.hooks.Before(ctx, query, args)
	row := c.conn.QueryRowContext(ctx, query, args...)
	c.hooks.After(ctx, query, args, time.Since(start), nil) // err unknown until Scan
	return row
}
