// db/db_test.go — unit tests for the connection layer.
// Uses in-memory SQLite sessions; no external services required.
//
// Run:  go test ./db/... -v -race
package db_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/MilanoDeveloper/FiapFintech/db"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test helpers
// ─────────────────────────────────────────────────────────────────────────────

func newTestConn(t *testing.T, hooks ...db.Hook) *db.Conn {
	t.Helper()
	c, err := db.Connect(context.Background(), "sqlite3", ":memory:", "", hooks...)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS usuarios (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			nome  TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			senha TEXT NOT NULL
		)`)
	if err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// Connect / Ping / Close
// ─────────────────────────────────────────────────────────────────────────────

func TestConnect(t *testing.T) {
	c := newTestConn(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if c.Endpoint() != "sqlite3" {
		t.Fatalf("unexpected endpoint label: %q", c.Endpoint())
	}
}

func TestConnect_EmptyDSN(t *testing.T) {
	c, err := db.Connect(context.Background(), "sqlite3", "", "")
	if !db.IsConnectionFailed(err) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
	if c != nil {
		t.Fatal("expected no handle on failure")
	}
}

func TestConnect_UnknownSQLDriver(t *testing.T) {
	_, err := db.Connect(context.Background(), "no-such-driver", "x", "label")
	if !db.IsConnectionFailed(err) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
	var ce *db.ConnectionError
	if !errors.As(err, &ce) || ce.Endpoint != "label" || ce.Cause == nil {
		t.Fatalf("expected *ConnectionError with cause, got %#v", err)
	}
}

func TestConnect_DistinctSessions(t *testing.T) {
	ctx := context.Background()
	a := newTestConn(t)
	b := newTestConn(t)

	if a == b || a.Raw() == b.Raw() {
		t.Fatal("expected independent handles")
	}

	// Each :memory: session is its own database; a write on one is invisible
	// on the other.
	if _, err := a.Exec(ctx, `INSERT INTO usuarios (nome, email, senha) VALUES (?, ?, ?)`,
		"Ana", "ana@example.com", "x"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int
	if err := b.QueryRow(ctx, `SELECT COUNT(*) FROM usuarios`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected isolated session, got %d rows", n)
	}
}

func TestClose_Idempotent(t *testing.T) {
	c, err := db.Connect(context.Background(), "sqlite3", ":memory:", "")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping on closed conn to fail")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Exec / Query / QueryRow
// ─────────────────────────────────────────────────────────────────────────────

func TestExec_Insert(t *testing.T) {
	c := newTestConn(t)

	res, err := c.Exec(context.Background(),
		`INSERT INTO usuarios (nome, email, senha) VALUES (?, ?, ?)`,
		"Alice", "alice@test.com", "s3cret",
	)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	n, _ := res.RowsAffected()
	if n != 1 {
		t.Fatalf("expected 1 row affected, got %d", n)
	}
}

func TestQueryRow_Scan(t *testing.T) {
	c := newTestConn(t)
	ctx := context.Background()

	if _, err := c.Exec(ctx,
		`INSERT INTO usuarios (nome, email, senha) VALUES (?, ?, ?)`,
		"Bob", "bob@test.com", "x",
	); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var name, email string
	err := c.QueryRow(ctx, `SELECT nome, email FROM usuarios WHERE email = ?`, "bob@test.com").
		Scan(&name, &email)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if name != "Bob" || email != "bob@test.com" {
		t.Fatalf("unexpected values: name=%q email=%q", name, email)
	}
}

func TestQueryRow_NoRows(t *testing.T) {
	c := newTestConn(t)

	var name string
	err := c.QueryRow(context.Background(), `SELECT nome FROM usuarios WHERE id = ?`, 99999).Scan(&name)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQuery_MultipleRows(t *testing.T) {
	c := newTestConn(t)
	ctx := context.Background()

	for _, u := range []struct{ name, email string }{
		{"Alice", "alice@q.com"},
		{"Bob", "bob@q.com"},
		{"Carol", "carol@q.com"},
	} {
		if _, err := c.Exec(ctx,
			`INSERT INTO usuarios (nome, email, senha) VALUES (?, ?, ?)`,
			u.name, u.email, "x",
		); err != nil {
			t.Fatalf("insert %s: %v", u.name, err)
		}
	}

	rows, err := c.Query(ctx, `SELECT nome FROM usuarios ORDER BY nome`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			t.Fatalf("scan: %v", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows.Err: %v", err)
	}
	if strings.Join(names, ",") != "Alice,Bob,Carol" {
		t.Fatalf("unexpected rows: %v", names)
	}
}

func TestExec_ErrorPassesThrough(t *testing.T) {
	c := newTestConn(t)

	_, err := c.Exec(context.Background(), `INSERT INTO missing_table VALUES (1)`)
	if err == nil {
		t.Fatal("expected error")
	}
	if db.IsConnectionFailed(err) {
		t.Fatalf("statement errors must not be reported as connection failures: %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Hooks
// ─────────────────────────────────────────────────────────────────────────────

type countingHook struct {
	before  int
	after   int
	lastErr error
}

func (h *countingHook) BeforeQuery(context.Context, string, []any) { h.before++ }
func (h *countingHook) AfterQuery(_ context.Context, _ string, _ []any, _ time.Duration, err error) {
	h.after++
	h.lastErr = err
}

func TestHooks_CalledOnExec(t *testing.T) {
	hook := &countingHook{}
	c, err := db.Connect(context.Background(), "sqlite3", ":memory:", "", hook)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	_, _ = c.Exec(ctx, `SELECT 1`)
	if hook.before != 1 || hook.after != 1 {
		t.Fatalf("hook not called: before=%d after=%d", hook.before, hook.after)
	}

	_, _ = c.Exec(ctx, `SELECT * FROM nowhere`)
	if hook.lastErr == nil {
		t.Fatal("expected AfterQuery to receive the statement error")
	}
}

func TestHooks_StatementErrorNotWrapped(t *testing.T) {
	hook := &countingHook{}
	c := newTestConn(t, nil, hook)

	_, err := c.Exec(context.Background(), `SELECT * FROM nowhere`)
	if err == nil {
		t.Fatal("expected error")
	}
	if hook.lastErr != err {
		t.Fatalf("AfterQuery saw %v, caller saw %v", hook.lastErr, err)
	}
	var ce *db.ConnectionError
	if errors.As(hook.lastErr, &ce) {
		t.Fatalf("statement error reached hook as a ConnectionError: %v", hook.lastErr)
	}
}

type panickingHook struct{}

func (panickingHook) BeforeQuery(context.Context, string, []any) { panic("before") }
func (panickingHook) AfterQuery(context.Context, string, []any, time.Duration, error) {
	panic("after")
}

func TestHooks_PanicRecovered(t *testing.T) {
	counter := &countingHook{}
	c := newTestConn(t, panickingHook{}, nil, counter)

	if _, err := c.Exec(context.Background(), `SELECT 1`); err != nil {
		t.Fatalf("exec: %v", err)
	}
	// CREATE TABLE in newTestConn plus SELECT 1.
	if counter.after != 2 {
		t.Fatalf("hooks after a panicking one must still run, got %d", counter.after)
	}
}

func TestLogHook_SlowQueryWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newTestConn(t, db.NewLogHook(db.LogHookConfig{
		Logger:             logger,
		LogArgs:            true,
		SlowQueryThreshold: time.Nanosecond,
	}))
	if _, err := c.Exec(context.Background(), `SELECT ?`, 1); err != nil {
		t.Fatalf("exec: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "slow query") {
		t.Fatalf("expected slow query warning, got %q", out)
	}
	if !strings.Contains(out, "args=") {
		t.Fatalf("expected args in log entry, got %q", out)
	}
}

func TestLogHook_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	c := newTestConn(t, db.NewLogHook(db.LogHookConfig{Logger: logger}))
	_, _ = c.Exec(context.Background(), `SELECT * FROM nowhere`)

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "query error") {
		t.Fatalf("expected error entry, got %q", out)
	}
}
