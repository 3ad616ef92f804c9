package job

import (
	"context"

	"github.com/xxxsen/pdfchat/internal/ai"
)

type ModelLoader interface {
	State() ai.State
	Init(ctx context.Context) error
}

// ModelRecoverJob retries loading the generation model after a failed load
// so the service heals without waiting for the next question.
type ModelRecoverJob struct {
	loader ModelLoader
}

func NewModelRecoverJob(loader ModelLoader) *ModelRecoverJob {
	return &ModelRecoverJob{loader: loader}
}

func (j *ModelRecoverJob) Name() string {
	return "model_recover"
}

func (j *ModelRecoverJob) Run(ctx context.Context) error {
	if j.loader == nil {
		return nil
	}
	switch j.loader.State() {
	case ai.StateFailed, ai.StateUninitialized:
		return j.loader.Init(ctx)
	default:
		return nil
	}
}
