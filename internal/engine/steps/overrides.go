package steps

import (
	"context"
	"fmt"
	"io"

	"github.com/exynos7580/releasetools/internal/engine"
	"github.com/exynos7580/releasetools/internal/ota"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const OverridesStepKind = "overrides"

type OverridesStepConfig struct {
	Source       string
	Destination  string
	Symlinks     ota.SymlinkPolicy
	SpecialFiles ota.SpecialFilePolicy
	// Audit receives the per-file "Adding override file" lines.
	Audit io.Writer
}

// NewOverridesStep copies the Source tree into the package below Destination.
func NewOverridesStep(name string, logger *zap.Logger, fs afero.Fs, cfg OverridesStepConfig) (engine.Step, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("source is required")
	}

	copier, err := ota.NewCopier(fs, logger, ota.CopierConfig{
		Symlinks:     cfg.Symlinks,
		SpecialFiles: cfg.SpecialFiles,
		Audit:        cfg.Audit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create copier: %w", err)
	}

	return engine.StepFunction(name, OverridesStepKind, func(ctx context.Context, info *ota.Info) error {
		written, err := copier.CopyTree(ctx, info.Output, cfg.Source, cfg.Destination)
		if err != nil {
			return err
		}

		logger.Info("copied overrides",
			zap.String("step", name),
			zap.String("source", cfg.Source),
			zap.String("destination", cfg.Destination),
			zap.Int("files", written),
		)
		return nil
	}), nil
}
