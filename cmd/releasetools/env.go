package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/exynos7580/releasetools/internal/config"
	"github.com/urfave/cli/v3"
)

// buildEnvFlags read the build environment the Android build system exports.
func buildEnvFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "top",
			Usage:   "Root of the source tree",
			Sources: cli.EnvVars(config.EnvTop),
		},
		&cli.StringFlag{
			Name:    "out",
			Usage:   "Product output directory",
			Sources: cli.EnvVars(config.EnvOut),
		},
		&cli.StringFlag{
			Name:    "target",
			Usage:   "Build target as <device>_<variant>",
			Sources: cli.EnvVars(config.EnvTargetProduct),
		},
	}
}

func allowedEnvFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "allowed-env",
		Usage: "Environment variables allowed in job configuration (can be repeated)",
	}
}

func environmentFromCommand(command *cli.Command) (config.Environment, error) {
	env, err := config.NewEnvironment(command.String("top"), command.String("out"), command.String("target"))
	if err != nil {
		return config.Environment{}, fmt.Errorf("invalid build environment: %w", err)
	}
	return env, nil
}

// readJobFile reads the job from filename, or from stdin when filename is "-".
func readJobFile(_ context.Context, filename string) ([]byte, string, error) {
	if filename == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, "stdin", err
	}

	data, err := os.ReadFile(filename)
	return data, filename, err
}
