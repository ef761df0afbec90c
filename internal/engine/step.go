package engine

import (
	"context"

	"github.com/exynos7580/releasetools/internal/ota"
)

// Step contributes to an OTA package under construction.
type Step interface {
	Named
	Apply(ctx context.Context, info *ota.Info) error
}

type StepFunc func(ctx context.Context, info *ota.Info) error

type stepFunction struct {
	name string
	kind string
	fn   StepFunc
}

func (s *stepFunction) Name() string {
	return s.name
}

func (s *stepFunction) Kind() string {
	return s.kind
}

func (s *stepFunction) Apply(ctx context.Context, info *ota.Info) error {
	return s.fn(ctx, info)
}

func StepFunction(name string, kind string, fn StepFunc) Step {
	return &stepFunction{name: name, kind: kind, fn: fn}
}
