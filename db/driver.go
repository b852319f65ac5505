package db

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	go_ora "github.com/sijms/go-ora/v2"
)

// ─────────────────────────────────────────────────────────────────────────────
// Driver interface
// ─────────────────────────────────────────────────────────────────────────────

// Driver adapts one database/sql driver to endpoints and credentials.
//
// Implement Driver and register it to support a new database without
// modifying this package.
type Driver interface {
	// Name is both the endpoint scheme and the name the driver registered
	// with database/sql, e.g. "oracle", "postgres".
	Name() string

	// DSN builds the driver-native data source name.
	DSN(ep Endpoint, cred Credentials) (string, error)
}

// Credentials is the account a session logs in with.
type Credentials struct {
	Account string
	Secret  string
}

// ─────────────────────────────────────────────────────────────────────────────
// Driver registry
// ─────────────────────────────────────────────────────────────────────────────

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// RegisterDriver adds a Driver to the global registry.
// Panics if a driver with the same name is already registered (use
// ReplaceDriver to override).
func RegisterDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, ok := drivers[d.Name()]; ok {
		panic(fmt.Sprintf("fintech/db: driver %q already registered", d.Name()))
	}
	drivers[d.Name()] = d
}

// ReplaceDriver upserts a driver in the registry.
func ReplaceDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[d.Name()] = d
}

// LookupDriver returns the registered Driver by name or an error.
func LookupDriver(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("fintech/db: driver %q not registered", name)
	}
	return d, nil
}

// RequiresCredentials reports whether opening ep needs an account and
// secret. Drivers opt out by implementing Credentialless() bool; an
// unregistered scheme is assumed to need them.
func RequiresCredentials(ep Endpoint) bool {
	d, err := LookupDriver(ep.Scheme)
	if err != nil {
		return true
	}
	c, ok := d.(interface{ Credentialless() bool })
	return !ok || !c.Credentialless()
}

// OpenEndpoint opens a new session against ep using the driver registered
// for ep.Scheme. Every failure, including an unknown scheme or a DSN the
// driver cannot build, is a *ConnectionError.
func OpenEndpoint(ctx context.Context, ep Endpoint, cred Credentials, hooks ...Hook) (*Conn, error) {
	label := ep.String()

	drv, err := LookupDriver(ep.Scheme)
	if err != nil {
		return nil, &ConnectionError{Endpoint: label, Cause: err}
	}
	dsn, err := drv.DSN(ep, cred)
	if err != nil {
		return nil, &ConnectionError{Endpoint: label, Cause: err}
	}
	return Connect(ctx, drv.Name(), dsn, label, hooks...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Oracle (sijms/go-ora)
// ─────────────────────────────────────────────────────────────────────────────

// OracleDriver is the pure-Go go-ora adapter.
type OracleDriver struct{}

func (OracleDriver) Name() string { return "oracle" }

func (OracleDriver) DSN(ep Endpoint, cred Credentials) (string, error) {
	if ep.Host == "" || ep.Service == "" {
		return "", fmt.Errorf("oracle driver: host and service are required")
	}
	port := ep.portOr(1521)
	if ep.SID {
		return go_ora.BuildUrl(ep.Host, port, "", cred.Account, cred.Secret,
			map[string]string{"SID": ep.Service}), nil
	}
	return go_ora.BuildUrl(ep.Host, port, ep.Service, cred.Account, cred.Secret, nil), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (lib/pq)
// ─────────────────────────────────────────────────────────────────────────────

// PostgresDriver is the lib/pq adapter. TLS is disabled; the service id is
// the database name.
type PostgresDriver struct{}

func (PostgresDriver) Name() string { return "postgres" }

func (PostgresDriver) DSN(ep Endpoint, cred Credentials) (string, error) {
	if ep.Host == "" || ep.Service == "" {
		return "", fmt.Errorf("postgres driver: host and service are required")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cred.Account, cred.Secret),
		Host:     net.JoinHostPort(ep.Host, strconv.Itoa(ep.portOr(5432))),
		Path:     "/" + ep.Service,
		RawQuery: "sslmode=disable",
	}
	return u.String(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL (go-sql-driver/mysql)
// ─────────────────────────────────────────────────────────────────────────────

// MySQLDriver is the go-sql-driver/mysql adapter. The service id is the
// schema name.
type MySQLDriver struct{}

func (MySQLDriver) Name() string { return "mysql" }

func (MySQLDriver) DSN(ep Endpoint, cred Credentials) (string, error) {
	if ep.Host == "" || ep.Service == "" {
		return "", fmt.Errorf("mysql driver: host and service are required")
	}
	cfg := mysql.NewConfig()
	cfg.User = cred.Account
	cfg.Passwd = cred.Secret
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(ep.Host, strconv.Itoa(ep.portOr(3306)))
	cfg.DBName = ep.Service
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite (mattn/go-sqlite3)
// ─────────────────────────────────────────────────────────────────────────────

// SQLiteDriver is the mattn/go-sqlite3 adapter. Host, port and credentials
// are ignored; the service id is the file path or ":memory:".
type SQLiteDriver struct{}

func (SQLiteDriver) Name() string { return "sqlite3" }

// Credentialless reports that a local database file takes no account.
func (SQLiteDriver) Credentialless() bool { return true }

func (SQLiteDriver) DSN(ep Endpoint, _ Credentials) (string, error) {
	if ep.Service == "" {
		return "", fmt.Errorf("sqlite3 driver: service (file path) is required")
	}
	return ep.Service, nil
}

func init() {
	RegisterDriver(OracleDriver{})
	RegisterDriver(PostgresDriver{})
	RegisterDriver(MySQLDriver{})
	RegisterDriver(SQLiteDriver{})
}
