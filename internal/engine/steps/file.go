package steps

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/exynos7580/releasetools/internal/engine"
	"github.com/exynos7580/releasetools/internal/ota"
	"github.com/spf13/afero"
)

const FileStepKind = "file"

type FileStepConfig struct {
	Source      *string
	Value       *string
	Destination string
}

// NewFileStep adds a single file to the package. Relative sources are resolved against baseDir.
func NewFileStep(name string, fs afero.Fs, baseDir string, cfg FileStepConfig) (engine.Step, error) {
	if cfg.Source != nil && cfg.Value != nil {
		return nil, fmt.Errorf("both source and value are set")
	}

	if cfg.Source == nil && cfg.Value == nil {
		return nil, fmt.Errorf("neither source nor value are set")
	}

	if cfg.Destination == "" {
		return nil, fmt.Errorf("destination is required")
	}

	if cfg.Source != nil {
		return newSourceFileStep(name, fs, resolvePath(baseDir, *cfg.Source), cfg.Destination), nil
	}

	return newValueFileStep(name, *cfg.Value, cfg.Destination), nil
}

func newSourceFileStep(name string, fs afero.Fs, source, destination string) engine.Step {
	return engine.StepFunction(name, FileStepKind, func(ctx context.Context, info *ota.Info) (err error) {
		f, err := fs.Open(source)
		if err != nil {
			return fmt.Errorf("failed to open source %s: %w", source, err)
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()

		if err := info.Output.Write(ctx, destination, f); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", destination, err)
		}
		return nil
	})
}

func newValueFileStep(name string, value string, destination string) engine.Step {
	return engine.StepFunction(name, FileStepKind, func(ctx context.Context, info *ota.Info) error {
		if err := info.Output.Write(ctx, destination, strings.NewReader(value)); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", destination, err)
		}
		return nil
	})
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
