// Package redshift executes load statements over the Postgres wire protocol.
package redshift

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dvloznov/ramp-bills/internal/config"
	"github.com/dvloznov/ramp-bills/internal/warehouse"
)

// Executor runs statements on a single connection. Every statement runs in
// its own implicit transaction.
type Executor struct {
	conn *pgx.Conn
}

// Exec runs one statement.
func (e *Executor) Exec(ctx context.Context, sql string) error {
	if _, err := e.conn.Exec(ctx, sql); err != nil {
		return fmt.Errorf("Exec: %w", err)
	}
	return nil
}

// Close closes the connection.
func (e *Executor) Close(ctx context.Context) error {
	return e.conn.Close(ctx)
}

// ParseConfig builds a pgx config for Redshift. Redshift does not support
// the extended protocol's statement caching, so statements go out as simple
// queries.
func ParseConfig(cfg config.Redshift) (*pgx.ConnConfig, error) {
	cc, err := pgx.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("ParseConfig: %w", err)
	}
	cc.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	return cc, nil
}

// Opener returns a warehouse.Opener that dials one connection per run.
func Opener(cfg config.Redshift) warehouse.Opener {
	return func(ctx context.Context) (warehouse.Executor, error) {
		cc, err := ParseConfig(cfg)
		if err != nil {
			return nil, err
		}

		conn, err := pgx.ConnectConfig(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("Opener: connecting to %s:%s/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
		}
		return &Executor{conn: conn}, nil
	}
}
