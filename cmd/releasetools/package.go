package main

import (
	"context"
	"fmt"

	"github.com/exynos7580/releasetools/internal/runner"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var packageCommand = &cli.Command{
	Name:  "package",
	Usage: "Build an OTA package from a job file",
	Flags: append(buildEnvFlags(), allowedEnvFlag()),
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "job",
			UsageText: "The job file to run, or - to read it from stdin",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		jobFilename := command.StringArg("job")
		if jobFilename == "" {
			return fmt.Errorf("no job file provided")
		}

		jobFile, source, err := readJobFile(ctx, jobFilename)
		if err != nil {
			return fmt.Errorf("failed to read job file '%s': %w", jobFilename, err)
		}

		job, err := runner.ParsePackageJob(jobFile)
		if err != nil {
			return fmt.Errorf("failed to parse job from %s: %w", source, formatValidationError(err))
		}

		env, err := environmentFromCommand(command)
		if err != nil {
			return err
		}

		logger = logger.With(zap.String("job", job.Metadata.Name), zap.String("target", env.Target.String()))

		allowedEnv := command.StringSlice("allowed-env")

		variables, err := runner.BuildVariables(job, env, allowedEnv)
		if err != nil {
			return fmt.Errorf("failed to build variables: %w", err)
		}

		if err := runner.ExpandTemplates(&job, variables); err != nil {
			return fmt.Errorf("failed to expand templates: %w", err)
		}

		r, err := runner.New(ctx, logger.Named("runner"), job, runner.Options{
			Env:        env,
			Variables:  variables,
			AllowedEnv: allowedEnv,
		})
		if err != nil {
			return fmt.Errorf("failed to create runner: %w", err)
		}

		result, err := r.Run(ctx)
		if err != nil {
			return fmt.Errorf("failed to build package: %w", err)
		}

		logger.Info("package complete",
			zap.String("archive", result.Archive),
			zap.Int("entries", result.Entries),
			zap.Int("applied", len(result.Summary.Applied)),
			zap.Int("skipped", len(result.Summary.Skipped)),
		)

		return nil
	},
}
