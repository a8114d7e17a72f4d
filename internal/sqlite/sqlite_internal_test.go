package sqlite

import (
	"context"
	"testing"

	"github.com/myrjola/progapp/internal/testhelpers"
)

func TestDatabase_CloseStopsOptimizer(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))

	db, err := NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	// Canceling the parent context before Close mirrors test teardown
	// order; the optimizer must not log through a finished test's writer.
	cancel()
	if err = db.Close(); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}

	select {
	case <-db.optimizerDone:
	default:
		t.Error("optimizer goroutine still running after Close")
	}
}
