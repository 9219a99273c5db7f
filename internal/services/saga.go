package services

import (
	"context"
	"log/slog"
)

type sagaStep struct {
	name       string
	action     func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga runs steps in order. When one fails, the compensations of the steps
// that already succeeded run in reverse order and the original error is returned.
type saga struct {
	logger *slog.Logger
	steps  []sagaStep
}

func newSaga(logger *slog.Logger) *saga {
	return &saga{logger: logger}
}

func (s *saga) add(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, sagaStep{name: name, action: action, compensate: compensate})
}

func (s *saga) run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.action(ctx); err != nil {
			s.unwind(ctx, i)
			return err
		}
	}
	return nil
}

func (s *saga) unwind(ctx context.Context, failed int) {
	// compensations must run even if the request was abandoned
	ctx = context.WithoutCancel(ctx)
	for i := failed - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			s.logger.Error("compensation failed", "step", step.name, "error", err)
		}
	}
}
