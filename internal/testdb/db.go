package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/madlib-comics/internal/platform/logger"
	"github.com/phrazzld/madlib-comics/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// Environment variables consulted for the test database, in order.
const (
	DatabaseURLEnv     = "DATABASE_URL"
	TestDatabaseURLEnv = "COMIC_TEST_DB_URL"
)

// TestTimeout bounds setup and cleanup statements.
const TestTimeout = 5 * time.Second

// GetTestDatabaseURL returns the first non-empty of DATABASE_URL and
// COMIC_TEST_DB_URL.
func GetTestDatabaseURL() string {
	for _, name := range []string{DatabaseURLEnv, TestDatabaseURLEnv} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// Open connects to the test database and applies all migrations. It skips
// the test when no database is configured. The connection is closed when
// the test finishes.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := GetTestDatabaseURL()
	if url == "" {
		t.Skipf("%s not set, skipping database test", DatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	log, _ := logger.NewTestLogger()
	db, err := postgres.Open(ctx, url, log)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	require.NoError(t, postgres.Migrate(ctx, db, log), "failed to migrate test database")
	return db
}

// Reset empties the given tables so a test starts from a known state.
func Reset(t *testing.T, db *sql.DB, tables ...string) {
	t.Helper()

	if len(tables) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	stmt := fmt.Sprintf("TRUNCATE %s", strings.Join(tables, ", "))
	_, err := db.ExecContext(ctx, stmt)
	require.NoError(t, err, "failed to reset tables %v", tables)
}
