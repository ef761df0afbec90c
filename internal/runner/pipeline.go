package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	v1 "github.com/exynos7580/releasetools/apis/v1"
	"github.com/exynos7580/releasetools/internal/config"
	"github.com/exynos7580/releasetools/internal/engine"
	"github.com/exynos7580/releasetools/internal/engine/archivers"
	"github.com/exynos7580/releasetools/internal/engine/sinks"
	"github.com/exynos7580/releasetools/internal/engine/steps"
	"go.uber.org/zap"
)

// BuildRegistry creates a registry with every step kind registered.
func BuildRegistry(logger *zap.Logger, deps steps.Dependencies) *engine.Registry {
	registry := engine.NewRegistry(logger)
	steps.Register(registry, deps)
	return registry
}

func createPipeline(ctx context.Context, logger *zap.Logger, registry *engine.Registry, job v1.PackageJob, input engine.ConditionInput) (*engine.Pipeline, error) {
	logger.Info("creating pipeline", zap.String("job_name", job.Metadata.Name))
	pipeline := engine.NewPipeline(job.Metadata.Name, logger, input)

	for _, stepSpec := range job.Spec.Steps {
		resolved, err := ResolveStepSpec(stepSpec)
		if err != nil {
			return nil, err
		}

		step, err := registry.CreateStep(ctx, resolved.Kind, stepSpec.ID, resolved.Spec)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s step %s: %w", resolved.Kind, stepSpec.ID, err)
		}

		var when *engine.Condition
		if stepSpec.When != nil {
			when, err = engine.NewCondition(*stepSpec.When)
			if err != nil {
				return nil, fmt.Errorf("step %s: %w", stepSpec.ID, err)
			}
		}

		if err := pipeline.AddStep(stepSpec.ID, step, when); err != nil {
			return nil, fmt.Errorf("failed to add step: %w", err)
		}

		logger.Debug("created step", zap.String("step_id", stepSpec.ID), zap.String("step_kind", resolved.Kind))
	}

	return pipeline, nil
}

// buildArchiver creates the package archiver. Defaults to a deflate zip.
func buildArchiver(output *v1.OutputSpec) (engine.Archiver, error) {
	var spec v1.ArchiveSpec
	if output != nil && output.Archive != nil {
		spec = *output.Archive
	}

	switch spec.Format {
	case "", "zip":
		level := -1
		if spec.Level != nil {
			level = *spec.Level
		}
		archiver, err := archivers.NewZipArchiver(spec.Method, level)
		if err != nil {
			return nil, fmt.Errorf("failed to create zip archiver: %w", err)
		}
		return archiver, nil
	case "tar":
		archiver, err := archivers.NewTarArchiver(spec.Compression)
		if err != nil {
			return nil, fmt.Errorf("failed to create tar archiver: %w", err)
		}
		return archiver, nil
	default:
		return nil, fmt.Errorf("unsupported archive format %q", spec.Format)
	}
}

// buildInnerSink creates the sink the finished archive is written to.
//
// Default behavior:
//   - No output or sink spec: filesystem sink at OUT
//   - Explicit stdout sink: stream sink on stdout
//   - Explicit filesystem sink: filesystem sink at path (default OUT) joined with prefix
//   - Explicit s3 sink: S3 upload
func buildInnerSink(ctx context.Context, job v1.PackageJob, env config.Environment, stdout io.Writer) (engine.Sink, error) {
	if job.Spec.Output == nil || job.Spec.Output.Sink == nil {
		return sinks.NewFilesystemSinkFromPath(env.OutDir)
	}

	sink := job.Spec.Output.Sink
	switch {
	case sink.Stdout != nil:
		return sinks.NewStreamSink(stdout), nil
	case sink.Filesystem != nil:
		return buildFilesystemSink(sink.Filesystem, env)
	case sink.S3 != nil:
		return buildS3Sink(ctx, sink.S3, objectMetadata(job, env))
	default:
		return nil, fmt.Errorf("invalid sink configuration: no sink type specified")
	}
}

func buildFilesystemSink(spec *v1.FilesystemSinkSpec, env config.Environment) (engine.Sink, error) {
	path := env.OutDir
	if spec.Path != nil && *spec.Path != "" {
		path = *spec.Path
	}

	var prefix string
	if spec.Prefix != nil {
		prefix = *spec.Prefix
	}

	return sinks.NewFilesystemSinkFromPath(filepath.Join(path, prefix))
}

func buildS3Sink(ctx context.Context, s3Spec *v1.S3SinkSpec, metadata map[string]string) (engine.Sink, error) {
	cfg := sinks.S3Config{
		Bucket:         s3Spec.Bucket,
		ForcePathStyle: s3Spec.ForcePathStyle,
		Metadata:       metadata,
	}

	if s3Spec.Region != nil {
		cfg.Region = *s3Spec.Region
	}

	if s3Spec.Endpoint != nil {
		cfg.Endpoint = *s3Spec.Endpoint
	}

	if s3Spec.Prefix != nil {
		cfg.Prefix = *s3Spec.Prefix
	}

	if s3Spec.Credentials != nil {
		cfg.AccessKeyID = s3Spec.Credentials.AccessKeyID
		cfg.SecretAccessKey = s3Spec.Credentials.SecretAccessKey
	}

	return sinks.NewS3Sink(ctx, cfg)
}

// objectMetadata labels uploaded packages with the job and the build target they were built for.
func objectMetadata(job v1.PackageJob, env config.Environment) map[string]string {
	return map[string]string{
		"job":            job.Metadata.Name,
		"target-product": env.Target.Product,
		"target-device":  env.Target.Device,
		"target-variant": env.Target.Variant,
	}
}

// archiveName is the package name without extension. Defaults to the job name.
func archiveName(job v1.PackageJob) string {
	if job.Spec.Output != nil && job.Spec.Output.Archive != nil && job.Spec.Output.Archive.Name != "" {
		return job.Spec.Output.Archive.Name
	}
	return job.Metadata.Name
}

// BuildVariables creates the variables map for expansion.
// It includes the job variables, the build environment and the allowed environment variables.
// If an allowed variable is not set, an error is returned.
func BuildVariables(job v1.PackageJob, env config.Environment, allowedEnv []string) (map[string]string, error) {
	date := time.Now().UTC()
	variables := map[string]string{
		"JOB_NAME":         job.Metadata.Name,
		"JOB_DATE_ISO8601": date.Format(engine.ISO8601Basic),
		"JOB_DATE_RFC3339": date.Format(time.RFC3339),
	}

	for k, v := range env.Variables() {
		variables[k] = v
	}

	var errs error
	for _, envName := range allowedEnv {
		val, ok := os.LookupEnv(envName)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("environment variable %q is not set", envName))
			continue
		}
		variables[envName] = val
	}

	if errs != nil {
		return nil, errs
	}

	return variables, nil
}
