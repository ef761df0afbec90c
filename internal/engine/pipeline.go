package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/exynos7580/releasetools/internal/ota"
	"go.uber.org/zap"
)

// StepEntry holds a step with its ID for ordered execution.
type StepEntry struct {
	ID   string
	Step Step
	// When is optional; a nil condition always runs.
	When *Condition
}

// Summary reports which steps ran.
type Summary struct {
	Applied []string
	Skipped []string
}

type Pipeline struct {
	name   string
	logger *zap.Logger
	input  ConditionInput
	steps  []StepEntry
}

func NewPipeline(name string, logger *zap.Logger, input ConditionInput) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		name:   name,
		logger: logger,
		input:  input,
		steps:  nil,
	}
}

func (p *Pipeline) AddStep(id string, step Step, when *Condition) error {
	for _, entry := range p.steps {
		if entry.ID == id {
			return fmt.Errorf("step %s already exists", id)
		}
	}

	p.steps = append(p.steps, StepEntry{ID: id, Step: step, When: when})
	return nil
}

func (p *Pipeline) Name() string {
	return p.name
}

func (p *Pipeline) Steps() []StepEntry {
	return p.steps
}

// Run applies every step in order against info. It stops at the first failure.
func (p *Pipeline) Run(ctx context.Context, info *ota.Info) (Summary, error) {
	var summary Summary

	for _, entry := range p.steps {
		// Check context cancellation before each step
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("context cancelled while running pipeline at step '%s': %w", entry.ID, err)
		}

		if entry.When != nil {
			ok, err := entry.When.Eval(p.input)
			if err != nil {
				return summary, fmt.Errorf("failed to evaluate condition of step '%s': %w", entry.ID, err)
			}
			if !ok {
				p.logger.Info("skipping step", zap.String("step_id", entry.ID), zap.Stringer("when", entry.When))
				summary.Skipped = append(summary.Skipped, entry.ID)
				continue
			}
		}

		start := time.Now()
		if err := entry.Step.Apply(ctx, info); err != nil {
			return summary, fmt.Errorf("failed to apply step '%s': %w", entry.ID, err)
		}

		p.logger.Info("applied step",
			zap.String("step_id", entry.ID),
			zap.String("step_kind", entry.Step.Kind()),
			zap.Duration("duration", time.Since(start)),
		)
		summary.Applied = append(summary.Applied, entry.ID)
	}

	return summary, nil
}
