package steps

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOverridesStep(t *testing.T) {
	fs := newMemMapFs(t, map[string]string{
		"/top/device/a3xelte/overrides/a.txt":          "a",
		"/top/device/a3xelte/overrides/sub/b.txt":      "b",
		"/top/device/a3xelte/overrides/sub/deep/c.bin": "c",
	})

	var audit bytes.Buffer
	step, err := NewOverridesStep("overrides", zap.NewNop(), fs, OverridesStepConfig{
		Source:      "/top/device/a3xelte/overrides",
		Destination: "overrides",
		Audit:       &audit,
	})
	require.NoError(t, err)
	assert.Equal(t, OverridesStepKind, step.Kind())

	info, archive, script := newInfo()
	require.NoError(t, step.Apply(t.Context(), info))

	assert.Equal(t, map[string]string{
		"overrides/a.txt":          "a",
		"overrides/sub/b.txt":      "b",
		"overrides/sub/deep/c.bin": "c",
	}, archive.files)
	assert.Equal(t, []string{"overrides/a.txt", "overrides/sub/b.txt", "overrides/sub/deep/c.bin"}, archive.order)
	assert.Equal(t,
		"Adding override file -> overrides/a.txt\n"+
			"Adding override file -> overrides/sub/b.txt\n"+
			"Adding override file -> overrides/sub/deep/c.bin\n",
		audit.String())
	assert.Zero(t, script.Len())
}

func TestOverridesStep_MissingSource(t *testing.T) {
	step, err := NewOverridesStep("overrides", zap.NewNop(), newMemMapFs(t, nil), OverridesStepConfig{
		Source: "/top/device/a3xelte/overrides",
		Audit:  &bytes.Buffer{},
	})
	require.NoError(t, err)

	info, archive, _ := newInfo()
	err = step.Apply(t.Context(), info)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat source directory")
	assert.Empty(t, archive.files)
}

func TestNewOverridesStep_Invalid(t *testing.T) {
	fs := newMemMapFs(t, nil)

	_, err := NewOverridesStep("overrides", zap.NewNop(), fs, OverridesStepConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source is required")

	_, err = NewOverridesStep("overrides", zap.NewNop(), fs, OverridesStepConfig{Source: "/x", Symlinks: "copy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported symlink policy")
}
