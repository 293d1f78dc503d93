//go:build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"
)

// setupTestPostgres connects to the database named by TEST_DATABASE_URL.
func setupTestPostgres(t *testing.T) *PostgresStore {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := ConnectPostgres(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIntegration_PostgresStore(t *testing.T) {
	testStoreContract(t, setupTestPostgres(t))
}
