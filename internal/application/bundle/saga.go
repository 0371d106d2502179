package bundle

import (
	"context"
	"fmt"

	"github.com/bundleshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SagaStep is one unit of a multi-step cart operation. Forward performs the
// step; Compensate undoes its effects and is nil for read-only steps.
type SagaStep struct {
	Name       string
	Forward    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// SagaRunner executes an ordered list of steps, compensating completed steps
// in reverse order when a later step fails. Cancellation between steps is
// treated like a step failure: accumulated compensations run before the
// error is returned.
type SagaRunner struct {
	logger *zap.Logger
}

// NewSagaRunner creates a new SagaRunner
func NewSagaRunner(logger *zap.Logger) *SagaRunner {
	return &SagaRunner{logger: logger}
}

// Run executes the steps in order. On failure the original step error is
// returned when every compensation succeeds; if any compensation fails the
// result is a PARTIAL_FAILURE instead, so the caller knows the cart may need
// manual reconciliation.
func (r *SagaRunner) Run(ctx context.Context, operation string, steps []SagaStep) error {
	completed := make([]SagaStep, 0, len(steps))

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("saga cancelled",
				zap.String("operation", operation),
				zap.String("next_step", step.Name),
			)
			return r.compensate(operation, completed, err)
		}

		if err := step.Forward(ctx); err != nil {
			r.logger.Warn("saga step failed",
				zap.String("operation", operation),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			return r.compensate(operation, completed, err)
		}

		if step.Compensate != nil {
			completed = append(completed, step)
		}
	}

	return nil
}

// compensate runs the compensations of completed steps in reverse order.
// Compensations use a fresh context: the saga may be compensating precisely
// because the request context was cancelled.
func (r *SagaRunner) compensate(operation string, completed []SagaStep, cause error) error {
	var failed []string
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if err := step.Compensate(context.Background()); err != nil {
			// A compensation that cannot undo its step (e.g. restoring
			// deleted rows into a store that is down) is logged and
			// surfaced, not retried.
			r.logger.Error("saga compensation failed",
				zap.String("operation", operation),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			failed = append(failed, step.Name)
		}
	}

	if len(failed) > 0 {
		return shared.NewPartialFailure(fmt.Sprintf(
			"%s failed (%s) and compensation of %v also failed; manual reconciliation may be required",
			operation, cause.Error(), failed,
		))
	}
	return cause
}
