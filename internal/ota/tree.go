package ota

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// EntryKind classifies a directory entry without following symbolic links.
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDirectory
	EntrySymlink
	// EntrySpecial covers devices, sockets, named pipes and anything else that is neither
	// a regular file, a directory nor a symbolic link.
	EntrySpecial
)

func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDirectory:
		return "directory"
	case EntrySymlink:
		return "symlink"
	case EntrySpecial:
		return "special"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// Entry is one child of a directory.
type Entry struct {
	Name string
	Path string
	Kind EntryKind
}

// KindOf classifies a file mode.
func KindOf(mode fs.FileMode) EntryKind {
	switch {
	case mode.IsRegular():
		return EntryFile
	case mode.IsDir():
		return EntryDirectory
	case mode&fs.ModeSymlink != 0:
		return EntrySymlink
	default:
		return EntrySpecial
	}
}

// ReadEntries lists the immediate children of dir, sorted by name.
func ReadEntries(afs afero.Fs, dir string) ([]Entry, error) {
	infos, err := afero.ReadDir(afs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name: info.Name(),
			Path: filepath.Join(dir, info.Name()),
			Kind: KindOf(info.Mode()),
		})
	}

	return entries, nil
}
