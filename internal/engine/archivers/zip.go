package archivers

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/exynos7580/releasetools/internal/engine"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// ZipMethod selects how zip entries are stored.
type ZipMethod string

const (
	ZipDeflate ZipMethod = "deflate"
	ZipStore   ZipMethod = "store"
)

// ZipArchiver builds the zip archives recovery installs OTA packages from.
// Entries carry a fixed modification time and mode so rebuilding the same
// inputs produces the same bytes.
type ZipArchiver struct {
	buf       *bytes.Buffer
	zipWriter *zip.Writer
	method    uint16
	entries   map[string]struct{}
	closed    bool
}

// NewZipArchiver creates a zip archiver. Supported methods: "deflate", "store".
// If method is empty, defaults to "deflate". level is a flate compression level
// (-1 for the default level) and is ignored for "store".
func NewZipArchiver(method string, level int) (engine.Archiver, error) {
	zm := ZipMethod(method)
	if zm == "" {
		zm = ZipDeflate
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	var zipMethod uint16
	switch zm {
	case ZipDeflate:
		if level < flate.HuffmanOnly || level > flate.BestCompression {
			return nil, fmt.Errorf("unsupported deflate level %d", level)
		}
		zipMethod = zip.Deflate
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, level)
		})
	case ZipStore:
		zipMethod = zip.Store
	default:
		return nil, fmt.Errorf("unsupported zip method: %s", method)
	}

	return &ZipArchiver{
		buf:       buf,
		zipWriter: zw,
		method:    zipMethod,
		entries:   make(map[string]struct{}),
	}, nil
}

// AddFile adds a file to the zip archive. Adding the same name twice is an error.
func (a *ZipArchiver) AddFile(ctx context.Context, filename string, data io.Reader) error {
	if a.closed {
		return fmt.Errorf("archiver is closed")
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	name, err := entryName(filename)
	if err != nil {
		return err
	}

	if _, ok := a.entries[name]; ok {
		return fmt.Errorf("duplicate zip entry %s", name)
	}

	header := &zip.FileHeader{
		Name:     name,
		Method:   a.method,
		Modified: engine.ReproducibleModTime,
	}
	header.SetMode(0644)

	w, err := a.zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry %s: %w", name, err)
	}

	if _, err := io.Copy(w, data); err != nil {
		return fmt.Errorf("failed to write zip entry %s: %w", name, err)
	}

	a.entries[name] = struct{}{}
	return nil
}

// Close finalizes the zip archive and returns a reader for the complete archive data.
func (a *ZipArchiver) Close() (io.Reader, error) {
	if a.closed {
		return nil, fmt.Errorf("archiver already closed")
	}
	a.closed = true

	if err := a.zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %w", err)
	}

	return bytes.NewReader(a.buf.Bytes()), nil
}

func (a *ZipArchiver) Extension() string {
	return ".zip"
}
