// main.go — FiapFintech connectivity check
// ============================================================
// Loads configuration, opens one session through the provider,
// pings it and releases it. Exit status 1 on any failure.
//
//	DB_URL=oracle:oracle.fiap.com.br:1521:orcl \
//	DB_USER=... DB_PASSWORD=... go run .
// ============================================================
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MilanoDeveloper/FiapFintech/config"
	"github.com/MilanoDeveloper/FiapFintech/db"
	"github.com/MilanoDeveloper/FiapFintech/provider"
)

func main() {
	configDir := flag.String("config", ".", "directory holding app.env")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg.Logger, os.Stdout)
	if err != nil {
		fatalf("logger: %v", err)
	}
	slog.SetDefault(logger)

	p := provider.New(cfg.DB.Provider(), provider.WithHooks(
		db.NewLogHook(db.LogHookConfig{
			Logger:             logger,
			SlowQueryThreshold: cfg.Logger.SlowQuery,
		}),
	))

	ctx := context.Background()
	if cfg.DB.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DB.ConnectTimeout)
		defer cancel()
	}

	if err := check(ctx, p); err != nil {
		var ce *db.ConnectionError
		if errors.As(err, &ce) {
			slog.Error("database unreachable", "endpoint", ce.Endpoint, "cause", ce.Cause)
			os.Exit(1)
		}
		fatalf("check: %v", err)
	}
}

func check(ctx context.Context, p *provider.ConnectionProvider) (err error) {
	conn, err := p.OpenConnection(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); err == nil {
			err = cerr
		}
	}()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	slog.Info("database connected", "endpoint", conn.Endpoint())
	return nil
}

// newLogger writes both formats to w so the format switch never moves
// output between streams.
func newLogger(cfg config.LoggerConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
