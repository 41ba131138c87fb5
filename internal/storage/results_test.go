package storage

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tomblanch118/DAB/internal/config"
	"github.com/tomblanch118/DAB/internal/game"
)

// Runs only against a real database, e.g.
// DAB_TEST_PG_HOST=localhost DAB_TEST_PG_USER=dab DAB_TEST_PG_PASSWORD=dab go test ./internal/storage
func testClient(t *testing.T) *PostgresClient {
	t.Helper()
	host := os.Getenv("DAB_TEST_PG_HOST")
	if host == "" {
		t.Skip("DAB_TEST_PG_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("DAB_TEST_PG_PORT"))
	if port == 0 {
		port = 5432
	}
	db := os.Getenv("DAB_TEST_PG_DATABASE")
	if db == "" {
		db = "dab_test"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := NewPostgresClient(ctx, config.DatabaseConfig{
		Host:           host,
		Port:           port,
		Database:       db,
		User:           os.Getenv("DAB_TEST_PG_USER"),
		Password:       os.Getenv("DAB_TEST_PG_PASSWORD"),
		MaxConnections: 2,
	})
	if err != nil {
		t.Fatalf("NewPostgresClient() failed: %v", err)
	}
	t.Cleanup(client.Close)

	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() failed: %v", err)
	}
	return client
}

func TestSaveAndListResults(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Millisecond)
	result := game.Result{
		SessionID:   uuid.New(),
		Round:       "default",
		Outcome:     game.OutcomeExploded,
		BoomReason:  "MOTION",
		Strikes:     0,
		RemainingMs: 12345,
		StartedAt:   started,
		FinishedAt:  started.Add(time.Minute),
	}

	if err := client.SaveResult(ctx, result); err != nil {
		t.Fatalf("SaveResult() failed: %v", err)
	}
	if err := client.SaveResult(ctx, result); err != nil {
		t.Fatalf("second SaveResult() failed: %v", err)
	}

	results, err := client.ListResults(ctx, 500)
	if err != nil {
		t.Fatalf("ListResults() failed: %v", err)
	}

	found := 0
	for _, r := range results {
		if r.SessionID == result.SessionID {
			found++
			if r.BoomReason != "MOTION" || r.RemainingMs != 12345 {
				t.Errorf("stored result = %+v", r)
			}
		}
	}
	if found != 1 {
		t.Errorf("found %d copies of the result, want 1", found)
	}
}
