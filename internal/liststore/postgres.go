package liststore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotecast/quotecast/internal/model"
)

// PostgresBackend stores list entries in the email_list_entries table.
// See migrations/000001_email_lists.up.sql.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresPool opens and verifies a pgx connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// NewPostgresBackend creates a PostgresBackend over an open pool.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// Read implements Backend.
func (b *PostgresBackend) Read(ctx context.Context, list model.ListName) ([]string, bool, error) {
	var found bool
	err := b.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM email_lists WHERE name = $1)`, string(list),
	).Scan(&found)
	if err != nil {
		return nil, false, fmt.Errorf("check list: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	rows, err := b.pool.Query(ctx, `
		SELECT address
		FROM email_list_entries
		WHERE list_name = $1
		ORDER BY id
	`, string(list))
	if err != nil {
		return nil, false, fmt.Errorf("query entries: %w", err)
	}

	lines, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, false, fmt.Errorf("scan entries: %w", err)
	}
	return lines, true, nil
}

// Write implements Backend.
func (b *PostgresBackend) Write(ctx context.Context, list model.ListName, lines []string) error {
	return pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		if err := ensureList(ctx, tx, list); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM email_list_entries WHERE list_name = $1`, string(list)); err != nil {
			return fmt.Errorf("clear entries: %w", err)
		}
		return copyEntries(ctx, tx, list, lines)
	})
}

// Append implements Backend.
func (b *PostgresBackend) Append(ctx context.Context, list model.ListName, lines []string) error {
	return pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		if err := ensureList(ctx, tx, list); err != nil {
			return err
		}
		return copyEntries(ctx, tx, list, lines)
	})
}

// Ping checks database connectivity.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func ensureList(ctx context.Context, tx pgx.Tx, list model.ListName) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO email_lists (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, string(list))
	if err != nil {
		return fmt.Errorf("ensure list: %w", err)
	}
	return nil
}

func copyEntries(ctx context.Context, tx pgx.Tx, list model.ListName, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	rows := make([][]any, len(lines))
	for i, l := range lines {
		rows[i] = []any{string(list), l}
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"email_list_entries"},
		[]string{"list_name", "address"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy entries: %w", err)
	}
	return nil
}
