package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/exynos7580/releasetools/internal/engine"
	"github.com/exynos7580/releasetools/internal/ota"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	ExecStepKind = "exec"

	defaultTimeout = 5 * time.Minute
)

// ExecStepConfig runs a program and stores its standard output in the package at Destination.
type ExecStepConfig struct {
	Program     []string
	Destination string
	// WorkingDir is resolved against the build tree root when relative.
	WorkingDir *string
	Timeout    *string
	// Env is added to the process environment after the build variables.
	Env map[string]string
	// AllowedEnv names host variables passed through in addition to safeEnvVars.
	AllowedEnv []string
}

// safeEnvVars are always passed through from the host environment.
var safeEnvVars = []string{"PATH", "HOME", "USER", "LANG", "TMPDIR", "SHELL", "TERM"}

// NewExecStep creates an exec step. baseDir is the build tree root and buildEnv the variables
// (TOP, OUT, TARGET_*) exported to the program.
func NewExecStep(name string, logger *zap.Logger, baseDir string, buildEnv map[string]string, cfg ExecStepConfig) (engine.Step, error) {
	if len(cfg.Program) == 0 {
		return nil, fmt.Errorf("program is required")
	}

	if cfg.Destination == "" {
		return nil, fmt.Errorf("destination is required")
	}

	timeout := defaultTimeout
	if cfg.Timeout != nil {
		parsed, err := time.ParseDuration(*cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", *cfg.Timeout, err)
		}
		timeout = parsed
	}

	workingDir := baseDir
	if cfg.WorkingDir != nil {
		workingDir = resolvePath(baseDir, *cfg.WorkingDir)
	}

	env := hostEnv(append(slices.Clone(safeEnvVars), cfg.AllowedEnv...))
	env = append(env, envPairs(buildEnv)...)
	env = append(env, envPairs(cfg.Env)...)

	return engine.StepFunction(name, ExecStepKind, func(ctx context.Context, info *ota.Info) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, cfg.Program[0], cfg.Program[1:]...)
		cmd.Dir = workingDir
		cmd.Env = env

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		logger.Debug("invoking exec step",
			zap.String("step", name),
			zap.Strings("program", cfg.Program),
			zap.Duration("timeout", timeout),
			zap.String("working_dir", cmd.Dir),
		)
		start := time.Now()
		err := cmd.Run()
		duration := time.Since(start)
		exitCode := -1
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}
		logger.Debug("exec step finished",
			zap.String("step", name),
			zap.Int("exit_code", exitCode),
			zap.Duration("duration", duration),
		)

		if err != nil {
			stderrStr := strings.TrimSpace(stderr.String())
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("command timed out after %s: %s", timeout, stderrStr)
			}
			if stderrStr != "" {
				return fmt.Errorf("command failed: %w: %s", err, stderrStr)
			}
			return fmt.Errorf("command failed: %w", err)
		}

		if err := info.Output.Write(ctx, cfg.Destination, &stdout); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", cfg.Destination, err)
		}
		return nil
	}), nil
}

func hostEnv(names []string) []string {
	var env []string
	for _, name := range lo.Uniq(names) {
		if val, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+val)
		}
	}
	return env
}

// envPairs renders vars as sorted KEY=VALUE entries.
func envPairs(vars map[string]string) []string {
	pairs := lo.MapToSlice(vars, func(k, v string) string {
		return k + "=" + v
	})
	slices.Sort(pairs)
	return pairs
}
