package steps

import (
	"context"
	"io"

	v1 "github.com/exynos7580/releasetools/apis/v1"
	"github.com/exynos7580/releasetools/internal/config"
	"github.com/exynos7580/releasetools/internal/engine"
	"github.com/exynos7580/releasetools/internal/ota"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Dependencies are shared by every step built from a job.
type Dependencies struct {
	Fs  afero.Fs
	Env config.Environment
	// Audit receives user-facing progress lines.
	Audit io.Writer
	// AllowedEnv is passed to exec steps.
	AllowedEnv []string
}

func Register(registry *engine.Registry, deps Dependencies) {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}

	registry.RegisterStep(
		OverridesStepKind,
		engine.NewStepFactory(OverridesStepKind, func(_ context.Context, logger *zap.Logger, id string, spec *v1.OverridesStep) (engine.Step, error) {
			source := deps.Env.DefaultOverridesDir()
			if spec.Source != nil {
				source = resolvePath(deps.Env.TopDir, *spec.Source)
			}
			return NewOverridesStep(id, logger, deps.Fs, OverridesStepConfig{
				Source:       source,
				Destination:  spec.Destination,
				Symlinks:     ota.SymlinkPolicy(spec.Symlinks),
				SpecialFiles: ota.SpecialFilePolicy(spec.SpecialFiles),
				Audit:        deps.Audit,
			})
		}),
	)

	registry.RegisterStep(
		WelcomeMessageStepKind,
		engine.NewStepFactory(WelcomeMessageStepKind, func(_ context.Context, _ *zap.Logger, id string, _ *v1.WelcomeMessageStep) (engine.Step, error) {
			return NewWelcomeMessageStep(id), nil
		}),
	)

	registry.RegisterStep(
		UIPrintStepKind,
		engine.NewStepFactory(UIPrintStepKind, func(_ context.Context, _ *zap.Logger, id string, spec *v1.UIPrintStep) (engine.Step, error) {
			return NewUIPrintStep(id, spec.Lines)
		}),
	)

	registry.RegisterStep(
		FileStepKind,
		engine.NewStepFactory(FileStepKind, func(_ context.Context, _ *zap.Logger, id string, spec *v1.FileStep) (engine.Step, error) {
			return NewFileStep(id, deps.Fs, deps.Env.TopDir, FileStepConfig{
				Source:      spec.Source,
				Value:       spec.Value,
				Destination: spec.Destination,
			})
		}),
	)

	registry.RegisterStep(
		ExecStepKind,
		engine.NewStepFactory(ExecStepKind, func(_ context.Context, logger *zap.Logger, id string, spec *v1.ExecStep) (engine.Step, error) {
			return NewExecStep(id, logger, deps.Env.TopDir, deps.Env.Variables(), ExecStepConfig{
				Program:     spec.Program,
				Destination: spec.Destination,
				WorkingDir:  spec.WorkingDir,
				Timeout:     spec.Timeout,
				Env:         spec.Env,
				AllowedEnv:  deps.AllowedEnv,
			})
		}),
	)
}
