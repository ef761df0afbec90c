package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type StepFactory func(ctx context.Context, logger *zap.Logger, id string, input any) (Step, error)

// TypedStepFactory is a strongly-typed step factory.
// S is the concrete step spec type (e.g. *v1.OverridesStep).
type TypedStepFactory[S any] func(ctx context.Context, logger *zap.Logger, id string, spec S) (Step, error)

// NewStepFactory wraps a typed step factory into a generic StepFactory.
// It centralizes the unsafe cast from any → S and provides a clear error if the type mismatches.
func NewStepFactory[S any](kind string, f TypedStepFactory[S]) StepFactory {
	return func(ctx context.Context, logger *zap.Logger, id string, input any) (Step, error) {
		spec, ok := input.(S)
		if !ok {
			return nil, fmt.Errorf("invalid step spec for kind %q with id %s: %T", kind, id, input)
		}

		return f(ctx, logger, id, spec)
	}
}

// UnsupportedTypeError is returned when a step kind is not registered.
type UnsupportedTypeError struct {
	Category  string   // "step"
	Kind      string   // the requested kind
	Available []string // registered kinds
}

func (e *UnsupportedTypeError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unsupported %s type %q: no %ss registered", e.Category, e.Kind, e.Category)
	}
	return fmt.Sprintf("unsupported %s type %q (available: %v)", e.Category, e.Kind, e.Available)
}

type Registry struct {
	mu     sync.RWMutex
	steps  map[string]StepFactory
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		steps:  make(map[string]StepFactory),
		logger: logger,
	}
}

func (r *Registry) RegisterStep(kind string, factory StepFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[kind] = factory
}

func (r *Registry) CreateStep(ctx context.Context, kind string, id string, spec any) (Step, error) {
	r.mu.RLock()
	factory, ok := r.steps[kind]
	available := r.availableSteps()
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedTypeError{Category: "step", Kind: kind, Available: available}
	}
	return factory(ctx, r.logger.Named(kind), id, spec)
}

func (r *Registry) AvailableSteps() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableSteps()
}

func (r *Registry) availableSteps() []string {
	steps := lo.Keys(r.steps)
	slices.Sort(steps)
	return steps
}
