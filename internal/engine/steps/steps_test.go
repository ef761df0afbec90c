package steps

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/exynos7580/releasetools/internal/ota"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// memArchive records archive writes in memory.
type memArchive struct {
	files map[string]string
	order []string
	err   error
}

func newMemArchive() *memArchive {
	return &memArchive{files: make(map[string]string)}
}

func (a *memArchive) Write(_ context.Context, path string, data io.Reader) error {
	if a.err != nil {
		return a.err
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if _, ok := a.files[path]; ok {
		return errors.New("duplicate entry " + path)
	}
	a.files[path] = string(content)
	a.order = append(a.order, path)
	return nil
}

func newInfo() (*ota.Info, *memArchive, *ota.Script) {
	archive := newMemArchive()
	script := ota.NewScript()
	return &ota.Info{Output: archive, Script: script}, archive, script
}

func newMemMapFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
	return fs
}
