package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

// buildInfo describes the running binary. Fields stay "unknown" when the binary was built
// without module or VCS information.
type buildInfo struct {
	Version   string
	GoVersion string
	Commit    string
	BuildTime string
	Modified  bool
}

func readBuildInfo() buildInfo {
	bi := buildInfo{
		Version:   "unknown",
		GoVersion: "unknown",
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return bi
	}

	bi.Version = info.Main.Version
	bi.GoVersion = info.GoVersion

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			bi.Commit = setting.Value
		case "vcs.time":
			bi.BuildTime = setting.Value
		case "vcs.modified":
			bi.Modified = setting.Value == "true"
		}
	}

	return bi
}

func (bi buildInfo) print(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, bi.Version)
		return
	}

	fmt.Fprintf(w, "releasetools %s\n", bi.Version)
	fmt.Fprintf(w, "go: %s\n", bi.GoVersion)
	if bi.Commit != "unknown" {
		dirty := ""
		if bi.Modified {
			dirty = " (dirty)"
		}
		fmt.Fprintf(w, "commit: %s%s\n", bi.Commit, dirty)
	}
	if bi.BuildTime != "unknown" {
		fmt.Fprintf(w, "built: %s\n", bi.BuildTime)
	}
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "short",
			Usage: "Print only the version",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		readBuildInfo().print(os.Stdout, command.Bool("short"))
		return nil
	},
}
