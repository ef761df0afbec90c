package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/exynos7580/releasetools/internal/engine/sinks"
	"github.com/exynos7580/releasetools/internal/runner"
	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Validate a job file",
	Flags: append(buildEnvFlags(), allowedEnvFlag()),
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "job",
			UsageText: "The job file to validate",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		jobFilename := command.StringArg("job")
		if jobFilename == "" {
			return fmt.Errorf("no job file provided")
		}

		jobFile, _, err := readJobFile(ctx, jobFilename)
		if err != nil {
			return fmt.Errorf("failed to read job file '%s': %w", jobFilename, err)
		}

		logger = logger.With(zap.String("job_filename", jobFilename))
		logger.Debug("validating job file")

		job, err := runner.ParsePackageJob(jobFile)
		if err != nil {
			fmt.Println(formatValidationError(err))
			return fmt.Errorf("job file '%s' is invalid", jobFilename)
		}

		env, err := environmentFromCommand(command)
		if err != nil {
			return err
		}

		allowedEnv := command.StringSlice("allowed-env")

		variables, err := runner.BuildVariables(job, env, allowedEnv)
		if err != nil {
			return fmt.Errorf("failed to build variables: %w", err)
		}

		if err := runner.ExpandTemplates(&job, variables); err != nil {
			return fmt.Errorf("failed to expand templates: %w", err)
		}

		// Building the runner compiles every step and condition without touching the output.
		if _, err := runner.New(ctx, zap.NewNop(), job, runner.Options{
			Env:        env,
			Variables:  variables,
			AllowedEnv: allowedEnv,
			Sink:       sinks.NewStreamSink(io.Discard),
		}); err != nil {
			return fmt.Errorf("job file '%s' is invalid: %w", jobFilename, err)
		}

		if isInteractive(ctx) {
			fmt.Printf("✓ Job file '%s' is valid\n", jobFilename)
		} else {
			fmt.Printf("job file '%s' is valid\n", jobFilename)
		}
		return nil
	},
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("job file has %d validation error(s):", len(validationErrs)))
		for _, fe := range validationErrs {
			sb.WriteString(fmt.Sprintf("\n  • %s: failed '%s' validation", fe.Namespace(), fe.Tag()))
			if fe.Param() != "" {
				sb.WriteString(fmt.Sprintf(" (param: %s)", fe.Param()))
			}
		}
		return errors.New(sb.String())
	}
	return err
}
