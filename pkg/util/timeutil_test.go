package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRefreshSeconds(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 2, RefreshSeconds(now, now.Add(1500*time.Millisecond)))
	require.Equal(t, 1, RefreshSeconds(now, now.Add(-time.Second)))
	require.Equal(t, 1, RefreshSeconds(now, now))
}
