package sinks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/exynos7580/releasetools/internal/engine"
)

// ArchiveSink wraps a sink and collects all writes into an archive.
// On Close, it finalizes the archive and writes a single file to the inner sink.
// It is the output handle steps write package entries through.
type ArchiveSink struct {
	inner       engine.Sink
	archiver    engine.Archiver
	archiveName string
	entries     int
}

// NewArchiveSink creates a new archive sink that wraps the given inner sink.
// The archiver's extension is appended to archiveName unless it already ends with it.
func NewArchiveSink(inner engine.Sink, archiver engine.Archiver, archiveName string) *ArchiveSink {
	if ext := archiver.Extension(); !strings.HasSuffix(archiveName, ext) {
		archiveName += ext
	}
	return &ArchiveSink{
		inner:       inner,
		archiver:    archiver,
		archiveName: archiveName,
	}
}

func (s *ArchiveSink) Name() string {
	return fmt.Sprintf("archive(%s)->%s", s.archiveName, s.inner.Name())
}

func (s *ArchiveSink) Kind() string {
	return "archive"
}

// ArchiveName is the name the finished archive is written under.
func (s *ArchiveSink) ArchiveName() string {
	return s.archiveName
}

// Entries returns how many files were added so far.
func (s *ArchiveSink) Entries() int {
	return s.entries
}

// Write adds a file to the archive.
func (s *ArchiveSink) Write(ctx context.Context, path string, data io.Reader) error {
	if err := s.archiver.AddFile(ctx, path, data); err != nil {
		return fmt.Errorf("failed to add file to archive: %w", err)
	}
	s.entries++
	return nil
}

// Close finalizes the archive and writes it to the inner sink.
func (s *ArchiveSink) Close(ctx context.Context) error {
	reader, err := s.archiver.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}

	if err := s.inner.Write(ctx, s.archiveName, reader); err != nil {
		return fmt.Errorf("failed to write archive to sink: %w", err)
	}

	if err := s.inner.Close(ctx); err != nil {
		return fmt.Errorf("failed to close inner sink: %w", err)
	}

	return nil
}
