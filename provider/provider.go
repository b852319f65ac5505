// Package provider hands out fresh database sessions for a fixed endpoint
// and account.
package provider

import (
	"context"

	"github.com/MilanoDeveloper/FiapFintech/db"
)

// Config is everything needed to reach the database. Values come from the
// caller (see package config); nothing is embedded in source.
type Config struct {
	// Endpoint is <scheme>:<host>:<port>:<service-id>, or a JDBC thin URL.
	Endpoint string
	Account  string
	Secret   string
}

// ConnectionProvider opens a new session on every call. It keeps no
// connection, counts no references and never retries.
type ConnectionProvider struct {
	cfg   Config
	hooks []db.Hook
}

// Option customises a ConnectionProvider.
type Option func(*ConnectionProvider)

// WithHooks attaches statement hooks to every Conn the provider returns.
func WithHooks(hooks ...db.Hook) Option {
	return func(p *ConnectionProvider) {
		p.hooks = append(p.hooks, hooks...)
	}
}

// New returns a provider for cfg. cfg is not checked here; a bad endpoint
// surfaces as a connection failure from OpenConnection.
func New(cfg Config, opts ...Option) *ConnectionProvider {
	p := &ConnectionProvider{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OpenConnection establishes a new session and returns it to the caller,
// who owns it and must Close it.
//
// It blocks until the server completes the login handshake or the attempt
// fails; ctx is the only bound on that wait. On failure the returned error
// is a *db.ConnectionError (errors.Is(err, db.ErrConnectionFailed)) whose
// cause is the driver or network error, unaltered, and no handle is returned.
func (p *ConnectionProvider) OpenConnection(ctx context.Context) (*db.Conn, error) {
	ep, err := db.ParseEndpoint(p.cfg.Endpoint)
	if err != nil {
		return nil, &db.ConnectionError{Endpoint: db.RedactEndpoint(p.cfg.Endpoint), Cause: err}
	}
	return db.OpenEndpoint(ctx, ep, db.Credentials{
		Account: p.cfg.Account,
		Secret:  p.cfg.Secret,
	}, p.hooks...)
}
