package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type blockingJob struct {
	runs    atomic.Int32
	release chan struct{}
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	<-j.release
	return nil
}

func TestAddJobValidation(t *testing.T) {
	s := NewCronScheduler()
	job := &blockingJob{release: make(chan struct{})}
	require.NoError(t, s.AddJob(job, "@every 5m"))
	require.Error(t, s.AddJob(job, "@every 5m"))
	require.Error(t, NewCronScheduler().AddJob(job, "not a spec"))
	require.NoError(t, NewCronScheduler().AddJob(job, "*/5 * * * *"))
}

func TestWrapSkipsOverlappingRuns(t *testing.T) {
	s := NewCronScheduler()
	job := &blockingJob{release: make(chan struct{})}
	run := s.wrap(job, "@every 1s")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	run()
	require.Equal(t, int32(1), job.runs.Load())

	close(job.release)
	<-done
	run()
	require.Equal(t, int32(2), job.runs.Load())
}

func TestStartStop(t *testing.T) {
	s := NewCronScheduler()
	s.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
