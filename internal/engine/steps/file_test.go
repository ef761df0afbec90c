package steps

import (
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStep(t *testing.T) {
	fs := newMemMapFs(t, map[string]string{
		"/src/device/samsung/a3xelte/configs/gps.conf": "XTRA_SERVER_1=x",
		"/etc/motd": "hello",
	})

	tests := []struct {
		name        string
		cfg         FileStepConfig
		wantFiles   map[string]string
		wantErr     bool
		errContains string
	}{
		{
			name: "relative source resolved against base dir",
			cfg: FileStepConfig{
				Source:      lo.ToPtr("device/samsung/a3xelte/configs/gps.conf"),
				Destination: "system/etc/gps.conf",
			},
			wantFiles: map[string]string{"system/etc/gps.conf": "XTRA_SERVER_1=x"},
		},
		{
			name:      "absolute source",
			cfg:       FileStepConfig{Source: lo.ToPtr("/etc/motd"), Destination: "motd"},
			wantFiles: map[string]string{"motd": "hello"},
		},
		{
			name:      "inline value",
			cfg:       FileStepConfig{Value: lo.ToPtr("ro.lineage.device=a3xelte\n"), Destination: "system/build.prop"},
			wantFiles: map[string]string{"system/build.prop": "ro.lineage.device=a3xelte\n"},
		},
		{
			name:        "both set",
			cfg:         FileStepConfig{Source: lo.ToPtr("a"), Value: lo.ToPtr("b"), Destination: "c"},
			wantErr:     true,
			errContains: "both source and value are set",
		},
		{
			name:        "neither set",
			cfg:         FileStepConfig{Destination: "c"},
			wantErr:     true,
			errContains: "neither source nor value are set",
		},
		{
			name:        "missing destination",
			cfg:         FileStepConfig{Value: lo.ToPtr("b")},
			wantErr:     true,
			errContains: "destination is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, err := NewFileStep("file", fs, "/src", tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, FileStepKind, step.Kind())
			assert.Equal(t, "file", step.Name())

			info, archive, _ := newInfo()
			require.NoError(t, step.Apply(t.Context(), info))
			assert.Equal(t, tt.wantFiles, archive.files)
		})
	}
}

func TestFileStep_MissingSource(t *testing.T) {
	step, err := NewFileStep("file", newMemMapFs(t, nil), "/src", FileStepConfig{
		Source:      lo.ToPtr("missing.conf"),
		Destination: "system/etc/missing.conf",
	})
	require.NoError(t, err)

	info, archive, _ := newInfo()
	err = step.Apply(t.Context(), info)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open source /src/missing.conf")
	assert.Empty(t, archive.files)
}

func TestFileStep_WriteError(t *testing.T) {
	step, err := NewFileStep("file", newMemMapFs(t, nil), "", FileStepConfig{
		Value:       lo.ToPtr("x"),
		Destination: "x",
	})
	require.NoError(t, err)

	info, archive, _ := newInfo()
	archive.err = errors.New("archive closed")
	err = step.Apply(t.Context(), info)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write x to archive")
}
