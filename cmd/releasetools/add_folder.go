package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/exynos7580/releasetools/internal/engine/archivers"
	"github.com/exynos7580/releasetools/internal/engine/sinks"
	"github.com/exynos7580/releasetools/internal/ota"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var addFolderCommand = &cli.Command{
	Name:  "add-folder",
	Usage: "Pack a directory tree into a zip archive",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "archive",
			Aliases:  []string{"o"},
			Usage:    "Path of the archive to create",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "Path prefix for entries inside the archive",
		},
		&cli.StringFlag{
			Name:  "symlinks",
			Value: string(ota.SymlinkFollow),
			Usage: "What to do with symbolic links (follow, skip, error)",
		},
		&cli.StringFlag{
			Name:  "special-files",
			Value: string(ota.SpecialFileError),
			Usage: "What to do with devices, sockets and pipes (error, skip)",
		},
		&cli.StringFlag{
			Name:  "method",
			Value: string(archivers.ZipDeflate),
			Usage: "Zip compression method (deflate, store)",
		},
		&cli.IntFlag{
			Name:  "level",
			Value: -1,
			Usage: "Deflate level, -1 for the default",
		},
	},
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "dir",
			UsageText: "The directory to pack",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		dir := command.StringArg("dir")
		if dir == "" {
			return fmt.Errorf("no directory provided")
		}

		archivePath := command.String("archive")

		copier, err := ota.NewCopier(afero.NewOsFs(), logger.Named("copier"), ota.CopierConfig{
			Symlinks:     ota.SymlinkPolicy(command.String("symlinks")),
			SpecialFiles: ota.SpecialFilePolicy(command.String("special-files")),
		})
		if err != nil {
			return err
		}

		archiver, err := archivers.NewZipArchiver(command.String("method"), command.Int("level"))
		if err != nil {
			return err
		}

		inner, err := sinks.NewFilesystemSinkFromPath(filepath.Dir(archivePath))
		if err != nil {
			return err
		}
		output := sinks.NewArchiveSink(inner, archiver, filepath.Base(archivePath))

		written, err := copier.CopyTree(ctx, output, dir, filepath.ToSlash(command.String("prefix")))
		if err != nil {
			return fmt.Errorf("failed to add folder %s: %w", dir, err)
		}

		if err := output.Close(ctx); err != nil {
			return fmt.Errorf("failed to write archive: %w", err)
		}

		logger.Info("folder added",
			zap.String("source", dir),
			zap.String("archive", filepath.Join(filepath.Dir(archivePath), output.ArchiveName())),
			zap.Int("files", written),
		)

		return nil
	},
}
