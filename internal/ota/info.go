// Package ota implements the device-specific steps of OTA package generation:
// copying override trees into the package and writing installer messages.
package ota

import (
	"context"
	"io"
)

// ArchiveWriter is the write side of an OTA package under construction.
// It accepts one entry per call and never needs to be read back.
type ArchiveWriter interface {
	Write(ctx context.Context, path string, data io.Reader) error
}

// ScriptWriter appends a single literal instruction to an installer script.
type ScriptWriter interface {
	AppendExtra(line string) error
}

// Info is the in-progress OTA package handed to each packaging step.
type Info struct {
	Output ArchiveWriter
	Script ScriptWriter
}
