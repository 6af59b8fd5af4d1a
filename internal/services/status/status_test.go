package status

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taf-timeline/pkg/logger"
)

func TestBoard_LatestAndHistory(t *testing.T) {
	b := NewBoard(10, logger.NewZapLogger("test-app", io.Discard))

	_, ok := b.Latest()
	assert.False(t, ok)

	require.NoError(t, Report(context.Background(), b, "run-1", "Updating TAF"))
	require.NoError(t, Report(context.Background(), b, "run-1", "TAF Updated"))

	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, "TAF Updated", latest.Status)
	assert.Equal(t, "run-1", latest.RunID)

	history := b.History()
	require.Len(t, history, 2)
	assert.Equal(t, "Updating TAF", history[0].Status)
}

func TestBoard_TrimsHistory(t *testing.T) {
	b := NewBoard(3, logger.NewZapLogger("test-app", io.Discard))

	for i := 0; i < 5; i++ {
		require.NoError(t, Report(context.Background(), b, fmt.Sprintf("run-%d", i), "TAF Updated"))
	}

	history := b.History()
	require.Len(t, history, 3)
	assert.Equal(t, "run-2", history[0].RunID)
	assert.Equal(t, "run-4", history[2].RunID)
}

func TestBoard_IgnoresMessagesWithoutStatus(t *testing.T) {
	b := NewBoard(3, logger.NewZapLogger("test-app", io.Discard))

	require.NoError(t, b.Send(context.Background(), "run-1", map[string]string{"OTHER": "x"}))
	assert.Empty(t, b.History())
}
