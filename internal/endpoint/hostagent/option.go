package hostagent

import (
	"time"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"go.uber.org/zap"
)

type Option func(*HostAgent)

// WithMaxStepDelay bounds the random delay between the task's state
// transitions, zero makes the tasks complete almost immediately.
func WithMaxStepDelay(maxStepDelay time.Duration) Option {
	return func(agent *HostAgent) {
		agent.maxStepDelay = maxStepDelay
	}
}

// WithCompletionHook registers a function that is called
// each time a task reaches a terminal state.
func WithCompletionHook(hook func(task v1.Task)) Option {
	return func(agent *HostAgent) {
		agent.completionHooks = append(agent.completionHooks, hook)
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(agent *HostAgent) {
		agent.logger = logger
	}
}
