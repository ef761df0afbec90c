package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	v1 "github.com/exynos7580/releasetools/apis/v1"
	"github.com/exynos7580/releasetools/internal/config"
	"github.com/exynos7580/releasetools/internal/engine"
	"github.com/exynos7580/releasetools/internal/engine/sinks"
	"github.com/exynos7580/releasetools/internal/engine/steps"
	"github.com/exynos7580/releasetools/internal/ota"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// Options carries what a Runner needs besides the job itself.
type Options struct {
	Env config.Environment
	// Variables are the template variables; they are also visible to step conditions as `vars`.
	Variables map[string]string
	// AllowedEnv is forwarded to exec steps.
	AllowedEnv []string
	// Fs is the filesystem steps read from. Defaults to the OS filesystem.
	Fs afero.Fs
	// Stdout receives the package when the job uses the stdout sink. Defaults to os.Stdout.
	Stdout io.Writer
	// Audit receives per-file progress lines. Defaults to os.Stdout, or os.Stderr when
	// the package itself is streamed to stdout.
	Audit io.Writer
	// Sink overrides the sink configured in the job.
	Sink engine.Sink
}

// Result describes a finished package.
type Result struct {
	Summary engine.Summary
	// Archive is the name the package was written under.
	Archive string
	Entries int
}

type Runner struct {
	logger   *zap.Logger
	job      v1.PackageJob
	pipeline *engine.Pipeline
	output   *sinks.ArchiveSink
}

// ParsePackageJob parses a YAML or JSON job file and validates it. It returns a validated
// PackageJob or an error if parsing or validation fails.
func ParsePackageJob(data []byte) (v1.PackageJob, error) {
	var job v1.PackageJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return v1.PackageJob{}, fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	if err := defaultValidator.Struct(job); err != nil {
		return v1.PackageJob{}, fmt.Errorf("failed to validate job: %w", err)
	}

	for _, step := range job.Spec.Steps {
		if _, err := ResolveStepSpec(step); err != nil {
			return v1.PackageJob{}, fmt.Errorf("failed to validate job: %w", err)
		}
	}

	return job, nil
}

// New builds the pipeline, archiver and sink for job. Templates in job must already be expanded.
func New(ctx context.Context, logger *zap.Logger, job v1.PackageJob, opts Options) (*Runner, error) {
	logger.Info("creating runner", zap.String("job_name", job.Metadata.Name))

	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Audit == nil {
		opts.Audit = os.Stdout
		if usesStdoutSink(job) {
			opts.Audit = os.Stderr
		}
	}

	registry := BuildRegistry(logger.Named("steps"), steps.Dependencies{
		Fs:         opts.Fs,
		Env:        opts.Env,
		Audit:      opts.Audit,
		AllowedEnv: opts.AllowedEnv,
	})

	input := engine.ConditionInput{
		Target: opts.Env.Target.Map(),
		Vars:   opts.Variables,
	}

	pipeline, err := createPipeline(ctx, logger.Named("pipeline"), registry, job, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	archiver, err := buildArchiver(job.Spec.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to build archiver: %w", err)
	}

	inner := opts.Sink
	if inner == nil {
		inner, err = buildInnerSink(ctx, job, opts.Env, opts.Stdout)
		if err != nil {
			return nil, fmt.Errorf("failed to build sink: %w", err)
		}
	}

	return &Runner{
		logger:   logger,
		job:      job,
		pipeline: pipeline,
		output:   sinks.NewArchiveSink(inner, archiver, archiveName(job)),
	}, nil
}

// Run applies every step, adds the updater-script when any step produced instructions and
// writes the finished archive to the sink. Nothing is written to the sink if a step fails.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	script := ota.NewScript()
	info := &ota.Info{
		Output: r.output,
		Script: script,
	}

	summary, err := r.pipeline.Run(ctx, info)
	if err != nil {
		return Result{Summary: summary}, fmt.Errorf("failed to run pipeline: %w", err)
	}

	if script.Len() > 0 {
		if err := r.output.Write(ctx, ota.UpdaterScriptPath, strings.NewReader(script.String())); err != nil {
			return Result{Summary: summary}, fmt.Errorf("failed to write updater-script: %w", err)
		}
	}

	entries := r.output.Entries()
	if err := r.output.Close(ctx); err != nil {
		return Result{Summary: summary}, fmt.Errorf("failed to close sink: %w", err)
	}

	r.logger.Info("package written",
		zap.String("archive", r.output.ArchiveName()),
		zap.String("sink", r.output.Name()),
		zap.Int("entries", entries),
		zap.Strings("skipped", summary.Skipped),
	)

	return Result{
		Summary: summary,
		Archive: r.output.ArchiveName(),
		Entries: entries,
	}, nil
}

func usesStdoutSink(job v1.PackageJob) bool {
	return job.Spec.Output != nil && job.Spec.Output.Sink != nil && job.Spec.Output.Sink.Stdout != nil
}
