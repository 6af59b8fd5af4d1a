package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taf-timeline/internal/models"
	"taf-timeline/internal/services/updater"
	"taf-timeline/pkg/logger"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (c *countingSyncer) Sync(context.Context) (updater.Result, error) {
	c.calls.Add(1)
	return updater.Result{RunID: "r", Status: models.StatusUpdated}, c.err
}

func TestScheduler_RunsImmediatelyAndRepeats(t *testing.T) {
	syncer := &countingSyncer{}
	s := New(syncer, 50*time.Millisecond, logger.NewZapLogger("test", io.Discard))

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return syncer.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_DisabledWithoutInterval(t *testing.T) {
	syncer := &countingSyncer{}
	s := New(syncer, 0, logger.NewZapLogger("test", io.Discard))

	require.NoError(t, s.Start())
	defer s.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, syncer.calls.Load())
}

func TestScheduler_RunToleratesBusySyncer(t *testing.T) {
	syncer := &countingSyncer{err: updater.ErrSyncInProgress}
	s := New(syncer, time.Minute, logger.NewZapLogger("test", io.Discard))

	s.run()
	assert.Equal(t, int32(1), syncer.calls.Load())
}
