package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// setupTestStorage creates an in-memory database with migrations applied.
func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()

	ctx := context.Background()
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		require.NoError(t, s.Close())
	}

	return s, cleanup
}

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func testTime(t *testing.T) time.Time {
	t.Helper()
	return time.Now().UTC().Truncate(time.Second)
}

func TestNew(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NotNil(t, s.DB())
	require.NoError(t, s.DB().Ping())
}
