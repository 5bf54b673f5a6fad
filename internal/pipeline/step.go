package pipeline

import (
	"context"
	"fmt"
	"time"

	"xwikireport/internal/logger"
)

// Step is one unit of work in a run.
type Step interface {
	Name() string
	Run(ctx context.Context) error
}

type funcStep struct {
	name string
	fn   func(ctx context.Context) error
}

func (s funcStep) Name() string                  { return s.name }
func (s funcStep) Run(ctx context.Context) error { return s.fn(ctx) }

func step(name string, fn func(ctx context.Context) error) Step {
	return funcStep{name: name, fn: fn}
}

// runSteps executes steps in order and stops at the first error.
func runSteps(ctx context.Context, log *logger.Logger, steps []Step) error {
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("before step %s: %w", s.Name(), err)
		}

		log.Info("running step", "step", s.Name(), "current", i+1, "total", len(steps))
		t0 := time.Now()

		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("step %s failed after %s: %w", s.Name(), time.Since(t0).Truncate(time.Millisecond), err)
		}

		log.Info("completed step", "step", s.Name(), "duration", time.Since(t0).Truncate(time.Millisecond))
	}

	return nil
}
