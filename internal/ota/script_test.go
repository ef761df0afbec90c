package ota

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// limitedScript rejects appends once limit lines have been accepted.
type limitedScript struct {
	lines []string
	limit int
}

var errScriptFull = errors.New("script full")

func (s *limitedScript) AppendExtra(line string) error {
	if len(s.lines) >= s.limit {
		return errScriptFull
	}
	s.lines = append(s.lines, line)
	return nil
}

func TestScript_AppendExtra(t *testing.T) {
	s := NewScript()
	require.NoError(t, s.AppendExtra(`mount("ext4", "EMMC", "/dev/block/platform/13540000.dwmmc0/by-name/SYSTEM", "/system");`))
	require.NoError(t, s.AppendExtra(`unmount("/system");`))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, `unmount("/system");`, s.Lines()[1])

	err := s.AppendExtra("ui_print(\"a\");\nui_print(\"b\");")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMultilineInstruction)
	assert.Equal(t, 2, s.Len(), "rejected line must not be buffered")
}

func TestScript_LinesIsCopy(t *testing.T) {
	s := NewScript()
	require.NoError(t, s.AppendExtra("a"))

	lines := s.Lines()
	lines[0] = "changed"

	assert.Equal(t, "a", s.Lines()[0])
}

func TestUIPrint(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{name: "plain", msg: "Installing", want: `ui_print("Installing");`},
		{name: "empty", msg: "", want: `ui_print("");`},
		{name: "quotes", msg: `say "hi"`, want: `ui_print("say \"hi\"");`},
		{name: "backslash", msg: `C:\temp`, want: `ui_print("C:\\temp");`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UIPrint(tt.msg))
		})
	}
}

func TestScript_PrintAndWriteTo(t *testing.T) {
	s := NewScript()
	require.NoError(t, s.Print("Patching system image"))
	require.NoError(t, s.AppendExtra(`set_progress(0.5);`))

	var sb strings.Builder
	n, err := s.WriteTo(&sb)
	require.NoError(t, err)

	want := "ui_print(\"Patching system image\");\nset_progress(0.5);\n"
	assert.Equal(t, want, sb.String())
	assert.Equal(t, int64(len(want)), n)
	assert.Equal(t, want, s.String())
}

func TestAppendScriptFile(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "/updater-script", []byte("assert(getprop(\"ro.product.device\") == \"a3xelte\");\n"), 0644))

	s := NewScript()
	require.NoError(t, s.Print("hello"))

	require.NoError(t, AppendScriptFile(afs, "/updater-script", s))

	data, err := afero.ReadFile(afs, "/updater-script")
	require.NoError(t, err)
	assert.Equal(t, "assert(getprop(\"ro.product.device\") == \"a3xelte\");\nui_print(\"hello\");\n", string(data))
}

func TestAppendScriptFile_CreatesMissing(t *testing.T) {
	afs := afero.NewMemMapFs()

	s := NewScript()
	require.NoError(t, s.Print("hello"))
	require.NoError(t, AppendScriptFile(afs, "/updater-script", s))

	data, err := afero.ReadFile(afs, "/updater-script")
	require.NoError(t, err)
	assert.Equal(t, "ui_print(\"hello\");\n", string(data))
}

func TestAppendScriptFile_ReadOnly(t *testing.T) {
	afs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	err := AppendScriptFile(afs, "/updater-script", NewScript())
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrPermission)
}
