package runner

import (
	"fmt"

	v1 "github.com/exynos7580/releasetools/apis/v1"
	"github.com/exynos7580/releasetools/internal/engine/steps"
)

// ResolvedSpec holds a kind identifier and the spec for that kind.
type ResolvedSpec struct {
	Kind string
	Spec any
}

// ResolveStepSpec extracts the kind and spec from a v1.Step.
// Returns an error if no step type or more than one is specified.
func ResolveStepSpec(s v1.Step) (ResolvedSpec, error) {
	var resolved []ResolvedSpec
	if s.Overrides != nil {
		resolved = append(resolved, ResolvedSpec{Kind: steps.OverridesStepKind, Spec: s.Overrides})
	}
	if s.WelcomeMessage != nil {
		resolved = append(resolved, ResolvedSpec{Kind: steps.WelcomeMessageStepKind, Spec: s.WelcomeMessage})
	}
	if s.UIPrint != nil {
		resolved = append(resolved, ResolvedSpec{Kind: steps.UIPrintStepKind, Spec: s.UIPrint})
	}
	if s.File != nil {
		resolved = append(resolved, ResolvedSpec{Kind: steps.FileStepKind, Spec: s.File})
	}
	if s.Exec != nil {
		resolved = append(resolved, ResolvedSpec{Kind: steps.ExecStepKind, Spec: s.Exec})
	}

	switch len(resolved) {
	case 0:
		return ResolvedSpec{}, fmt.Errorf("step %q has no type specified", s.ID)
	case 1:
		return resolved[0], nil
	default:
		kinds := make([]string, 0, len(resolved))
		for _, r := range resolved {
			kinds = append(kinds, r.Kind)
		}
		return ResolvedSpec{}, fmt.Errorf("step %q has more than one type specified: %v", s.ID, kinds)
	}
}
