package main

import (
	"context"
	"fmt"

	"github.com/exynos7580/releasetools/internal/ota"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var installBeginCommand = &cli.Command{
	Name:  "install-begin",
	Usage: "Append the welcome banner to an updater-script",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "script",
			Aliases:  []string{"s"},
			Usage:    "Path of the updater-script to append to",
			Required: true,
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)
		path := command.String("script")

		script := ota.NewScript()
		if err := ota.InjectWelcomeMessage(script); err != nil {
			return fmt.Errorf("failed to build welcome message: %w", err)
		}

		if err := ota.AppendScriptFile(afero.NewOsFs(), path, script); err != nil {
			return err
		}

		logger.Debug("welcome message appended", zap.String("script", path), zap.Int("lines", script.Len()))
		return nil
	},
}
