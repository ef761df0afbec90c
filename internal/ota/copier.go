package ota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SymlinkPolicy decides what the copier does with symbolic links found in a tree.
type SymlinkPolicy string

const (
	// SymlinkFollow copies what the link points to. Links back into an ancestor directory fail with ErrSymlinkCycle.
	SymlinkFollow SymlinkPolicy = "follow"
	SymlinkSkip   SymlinkPolicy = "skip"
	SymlinkError  SymlinkPolicy = "error"
)

// SpecialFilePolicy decides what the copier does with devices, sockets and named pipes.
type SpecialFilePolicy string

const (
	SpecialFileError SpecialFilePolicy = "error"
	SpecialFileSkip  SpecialFilePolicy = "skip"
)

const (
	defaultMaxDepth = 128

	auditFormat = "Adding override file -> %s\n"
)

var (
	ErrSymlink       = errors.New("symbolic link not allowed")
	ErrSymlinkCycle  = errors.New("symbolic link cycle")
	ErrSpecialFile   = errors.New("special file not allowed")
	ErrTreeTooDeep   = errors.New("directory tree too deep")
	ErrInvalidPrefix = errors.New("invalid archive prefix")
)

// ParseSymlinkPolicy converts s to a SymlinkPolicy. Empty means SymlinkFollow.
func ParseSymlinkPolicy(s string) (SymlinkPolicy, error) {
	switch p := SymlinkPolicy(s); p {
	case "":
		return SymlinkFollow, nil
	case SymlinkFollow, SymlinkSkip, SymlinkError:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported symlink policy %q (available: follow, skip, error)", s)
	}
}

// ParseSpecialFilePolicy converts s to a SpecialFilePolicy. Empty means SpecialFileError.
func ParseSpecialFilePolicy(s string) (SpecialFilePolicy, error) {
	switch p := SpecialFilePolicy(s); p {
	case "":
		return SpecialFileError, nil
	case SpecialFileError, SpecialFileSkip:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported special file policy %q (available: error, skip)", s)
	}
}

type CopierConfig struct {
	Symlinks     SymlinkPolicy
	SpecialFiles SpecialFilePolicy
	// Audit receives one human-readable line per copied file. Defaults to os.Stdout.
	Audit io.Writer
	// MaxDepth bounds directory nesting below the source directory. Defaults to 128.
	MaxDepth int
}

// Copier adds directory trees to an OTA package.
type Copier struct {
	fs     afero.Fs
	logger *zap.Logger
	cfg    CopierConfig
}

func NewCopier(afs afero.Fs, logger *zap.Logger, cfg CopierConfig) (*Copier, error) {
	symlinks, err := ParseSymlinkPolicy(string(cfg.Symlinks))
	if err != nil {
		return nil, err
	}
	cfg.Symlinks = symlinks

	special, err := ParseSpecialFilePolicy(string(cfg.SpecialFiles))
	if err != nil {
		return nil, err
	}
	cfg.SpecialFiles = special

	if cfg.Audit == nil {
		cfg.Audit = os.Stdout
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Copier{fs: afs, logger: logger, cfg: cfg}, nil
}

// CopyTree writes every file below sourceDir into archive at destPrefix/<relative path>
// and returns the number of files written. Entries are visited depth-first in name order.
// The prefix and the source directory are checked before anything is written; a failure
// part way through leaves the entries already written in place.
func (c *Copier) CopyTree(ctx context.Context, archive ArchiveWriter, sourceDir, destPrefix string) (int, error) {
	if err := checkPrefix(destPrefix); err != nil {
		return 0, err
	}

	info, err := c.fs.Stat(sourceDir)
	if err != nil {
		return 0, fmt.Errorf("failed to stat source directory %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("source %s is not a directory", sourceDir)
	}

	c.logger.Debug("copying tree", zap.String("source", sourceDir), zap.String("prefix", destPrefix))

	w := &treeWalk{copier: c, archive: archive}
	err = w.copyDir(ctx, sourceDir, destPrefix, []fs.FileInfo{info})
	return w.written, err
}

// checkPrefix rejects prefixes that are absolute or leave the archive root.
func checkPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if path.IsAbs(prefix) {
		return fmt.Errorf("%w %q: must be relative to the archive root", ErrInvalidPrefix, prefix)
	}
	if cleaned := path.Clean(prefix); cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("%w %q: escapes the archive root", ErrInvalidPrefix, prefix)
	}
	return nil
}

type treeWalk struct {
	copier  *Copier
	archive ArchiveWriter
	written int
}

// copyDir copies the children of dir. ancestors holds dir and every directory above it.
func (w *treeWalk) copyDir(ctx context.Context, dir, prefix string, ancestors []fs.FileInfo) error {
	if len(ancestors) > w.copier.cfg.MaxDepth {
		return fmt.Errorf("%w: %s is nested more than %d levels", ErrTreeTooDeep, dir, w.copier.cfg.MaxDepth)
	}

	entries, err := ReadEntries(w.copier.fs, dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled while copying %s: %w", entry.Path, err)
		}

		dest := path.Join(prefix, entry.Name)

		switch entry.Kind {
		case EntryFile:
			err = w.copyFile(ctx, entry.Path, dest)
		case EntryDirectory:
			err = w.enterDir(ctx, entry.Path, dest, ancestors)
		case EntrySymlink:
			err = w.copySymlink(ctx, entry, dest, ancestors)
		default:
			err = w.handleSpecial(entry)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (w *treeWalk) enterDir(ctx context.Context, dir, dest string, ancestors []fs.FileInfo) error {
	info, err := w.copier.fs.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}

	for _, ancestor := range ancestors {
		if os.SameFile(ancestor, info) {
			return fmt.Errorf("%w: %s leads back to %s", ErrSymlinkCycle, dir, ancestor.Name())
		}
	}

	return w.copyDir(ctx, dir, dest, append(slices.Clip(ancestors), info))
}

func (w *treeWalk) copySymlink(ctx context.Context, entry Entry, dest string, ancestors []fs.FileInfo) error {
	switch w.copier.cfg.Symlinks {
	case SymlinkSkip:
		w.copier.logger.Debug("skipping symlink", zap.String("path", entry.Path))
		return nil
	case SymlinkError:
		return fmt.Errorf("%w: %s", ErrSymlink, entry.Path)
	}

	info, err := w.copier.fs.Stat(entry.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve symlink %s: %w", entry.Path, err)
	}

	switch KindOf(info.Mode()) {
	case EntryFile:
		return w.copyFile(ctx, entry.Path, dest)
	case EntryDirectory:
		return w.enterDir(ctx, entry.Path, dest, ancestors)
	default:
		return w.handleSpecial(entry)
	}
}

func (w *treeWalk) handleSpecial(entry Entry) error {
	if w.copier.cfg.SpecialFiles == SpecialFileSkip {
		w.copier.logger.Warn("skipping special file", zap.String("path", entry.Path))
		return nil
	}
	return fmt.Errorf("%w: %s", ErrSpecialFile, entry.Path)
}

func (w *treeWalk) copyFile(ctx context.Context, src, dest string) error {
	f, err := w.copier.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()

	fmt.Fprintf(w.copier.cfg.Audit, auditFormat, dest)
	w.copier.logger.Debug("adding override file", zap.String("source", src), zap.String("dest", dest))

	if err := w.archive.Write(ctx, dest, f); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", dest, err)
	}

	w.written++
	return nil
}
