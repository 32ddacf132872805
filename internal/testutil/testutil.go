package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// ReadMigration returns the down and up SQL for a migration such as
// "000001_email_lists".
func ReadMigration(name string) (down, up string, err error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", "", err
	}

	downSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".down.sql"))
	if err != nil {
		return "", "", fmt.Errorf("read %s down migration: %w", name, err)
	}
	upSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".up.sql"))
	if err != nil {
		return "", "", fmt.Errorf("read %s up migration: %w", name, err)
	}
	return string(downSQL), string(upSQL), nil
}

// ApplyMigration drops and recreates the schema of one migration.
func ApplyMigration(ctx context.Context, pool *pgxpool.Pool, name string) error {
	down, up, err := ReadMigration(name)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, down); err != nil {
		return fmt.Errorf("apply %s down migration: %w", name, err)
	}
	if _, err := pool.Exec(ctx, up); err != nil {
		return fmt.Errorf("apply %s up migration: %w", name, err)
	}
	return nil
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}
