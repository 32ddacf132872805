package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/quotecast/quotecast/internal/model"
)

// ErrNotMigrated is returned when the feedback table does not exist.
var ErrNotMigrated = errors.New("feedback table missing; run migrations")

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// PostgresStore keeps feedback in the feedback table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new feedback repository.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenDB opens a database/sql handle using the lib/pq driver and verifies
// connectivity.
func OpenDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	connector, err := pq.NewConnector(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, entry *model.Feedback) error {
	query := `
		INSERT INTO feedback (id, message, user_email, created_at)
		VALUES ($1, $2, $3, $4)
	`

	var email sql.NullString
	if entry.UserEmail != "" {
		email = sql.NullString{String: entry.UserEmail, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query, entry.ID, entry.Message, email, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", mapError(err))
	}
	return nil
}

// Recent implements Store.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]model.Feedback, error) {
	query := `
		SELECT id, message, user_email, created_at
		FROM feedback
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", mapError(err))
	}
	defer rows.Close()

	var out []model.Feedback
	for rows.Next() {
		var entry model.Feedback
		var email sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Message, &email, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		entry.UserEmail = email.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Ping verifies the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return fmt.Errorf("%w: %v", ErrNotMigrated, err)
	}
	return err
}
