package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRunsOnFirstTickThenByInterval(t *testing.T) {
	s := New()
	s.tick = 10 * time.Millisecond

	var runs atomic.Int32
	s.Every(time.Hour).Name("hourly").Run(func(context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	cancel()
	s.Wait()

	assert.Equal(t, int32(1), runs.Load(), "interval not yet elapsed")
}

func TestWithoutOverlappingSkipsBusyTask(t *testing.T) {
	s := New()
	release := make(chan struct{})
	var runs atomic.Int32
	s.Every(time.Nanosecond).WithoutOverlapping().Run(func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	})

	now := time.Now()
	s.dispatchDue(context.Background(), now)
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	s.dispatchDue(context.Background(), now.Add(time.Second))

	close(release)
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())
}

func TestRunAllReportsErrorsAndPanics(t *testing.T) {
	s := New()
	var ran []string
	s.Hourly().Name("a").Run(func(context.Context) error {
		ran = append(ran, "a")
		return errors.New("db down")
	})
	s.Hourly().Name("b").Run(func(context.Context) error {
		ran = append(ran, "b")
		panic("boom")
	})

	err := s.RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, []string{"a", "b"}, ran)
	assert.Equal(t, []string{"a  [every 1h0m0s]", "b  [every 1h0m0s]"}, s.List())
}
