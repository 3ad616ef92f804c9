package job

import (
	"context"
	"time"
)

type IdlePurger interface {
	PurgeIdle(ctx context.Context, maxIdle time.Duration) int
}

type SessionPurgeJob struct {
	purger  IdlePurger
	maxIdle time.Duration
}

func NewSessionPurgeJob(purger IdlePurger, maxIdle time.Duration) *SessionPurgeJob {
	return &SessionPurgeJob{purger: purger, maxIdle: maxIdle}
}

func (j *SessionPurgeJob) Name() string {
	return "session_purge"
}

func (j *SessionPurgeJob) Run(ctx context.Context) error {
	if j.purger == nil || j.maxIdle <= 0 {
		return nil
	}
	j.purger.PurgeIdle(ctx, j.maxIdle)
	return nil
}
