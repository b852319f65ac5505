package provider_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/MilanoDeveloper/FiapFintech/db"
)

// fakedb is an in-process database/sql driver standing in for the remote
// server. It accepts exactly one account and counts live sessions.

const fakeScheme = "fakedb"

type fakeServer struct {
	account string
	secret  string

	opened atomic.Int64
	active atomic.Int64
}

var server = &fakeServer{account: "RM000000", secret: "test-secret"}

func init() {
	sql.Register(fakeScheme, fakeSQLDriver{srv: server})
	db.RegisterDriver(fakeAdapter{})
}

// authError is what the fake server answers to a rejected login.
type authError struct {
	account string
}

func (e *authError) Error() string { return "fakedb: login denied for user " + e.account }

// ── db.Driver adapter ────────────────────────────────────────────────────────

type fakeAdapter struct{}

func (fakeAdapter) Name() string { return fakeScheme }

func (fakeAdapter) DSN(ep db.Endpoint, cred db.Credentials) (string, error) {
	return cred.Account + "/" + cred.Secret + "@" + ep.Host, nil
}

// ── database/sql/driver implementation ───────────────────────────────────────

type fakeSQLDriver struct {
	srv *fakeServer
}

func (d fakeSQLDriver) Open(dsn string) (driver.Conn, error) {
	login, _, _ := strings.Cut(dsn, "@")
	account, secret, _ := strings.Cut(login, "/")
	if account != d.srv.account || secret != d.srv.secret {
		return nil, &authError{account: account}
	}
	d.srv.opened.Add(1)
	d.srv.active.Add(1)
	return &fakeConn{srv: d.srv}, nil
}

type fakeConn struct {
	srv    *fakeServer
	closed bool
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("fakedb: prepare not supported")
}

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("fakedb: transactions not supported")
}

func (c *fakeConn) Close() error {
	if !c.closed {
		c.closed = true
		c.srv.active.Add(-1)
	}
	return nil
}

func (c *fakeConn) Ping(context.Context) error {
	if c.closed {
		return driver.ErrBadConn
	}
	return nil
}

func (c *fakeConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	if strings.HasPrefix(query, "FAIL") {
		return nil, errors.New("fakedb: statement failed")
	}
	return driver.RowsAffected(0), nil
}

var (
	_ driver.Pinger        = (*fakeConn)(nil)
	_ driver.ExecerContext = (*fakeConn)(nil)
)
