package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweeper struct {
	payouts    atomic.Int32
	stale      atomic.Int32
	sync       atomic.Int32
	batchSize  atomic.Int32
	staleAfter atomic.Int64
}

func (c *countingSweeper) ProcessPendingPayouts(_ context.Context, limit int) (*service.SweepSummary, error) {
	c.payouts.Add(1)
	c.batchSize.Store(int32(limit))
	return &service.SweepSummary{}, nil
}

func (c *countingSweeper) CheckStaleTasks(_ context.Context, olderThan time.Duration) (*service.StaleReport, error) {
	c.stale.Add(1)
	c.staleAfter.Store(int64(olderThan))
	return &service.StaleReport{Threshold: olderThan}, nil
}

func (c *countingSweeper) SyncGitHubData(_ context.Context) (*service.SyncSummary, error) {
	c.sync.Add(1)
	return &service.SyncSummary{}, nil
}

func TestScheduler_RunsEnabledJobs(t *testing.T) {
	sweeper := &countingSweeper{}
	s, err := NewScheduler(sweeper, Config{
		PayoutsInterval:    20 * time.Millisecond,
		StaleTasksInterval: 20 * time.Millisecond,
		PayoutBatchSize:    7,
		StaleAfter:         time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.RegisterJobs())

	s.Start()
	assert.Eventually(t, func() bool {
		return sweeper.payouts.Load() > 0 && sweeper.stale.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Equal(t, int32(7), sweeper.batchSize.Load())
	assert.Equal(t, int64(time.Hour), sweeper.staleAfter.Load())
	assert.Zero(t, sweeper.sync.Load())
}

func TestScheduler_NoJobsWhenIntervalsZero(t *testing.T) {
	sweeper := &countingSweeper{}
	s, err := NewScheduler(sweeper, Config{}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.RegisterJobs())

	assert.Empty(t, s.scheduler.Jobs())
	s.Start()
	require.NoError(t, s.Stop())
}
