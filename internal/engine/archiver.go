package engine

import (
	"context"
	"io"
	"time"
)

// ReproducibleModTime is stamped on every archive entry so that packaging the same
// inputs twice yields byte-identical archives.
var ReproducibleModTime = time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC)

// Archiver collects files into an archive format.
type Archiver interface {
	// AddFile adds a file to the archive with the given filename and data.
	AddFile(ctx context.Context, filename string, data io.Reader) error

	// Close finalizes the archive and returns a reader for the complete archive data.
	Close() (io.Reader, error)

	// Extension returns the file extension for this archive type (e.g., ".zip", ".tar.gz").
	Extension() string
}
