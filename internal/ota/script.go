package ota

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// UpdaterScriptPath is where recovery looks for the edify installer script inside the package.
const UpdaterScriptPath = "META-INF/com/google/android/updater-script"

// ErrMultilineInstruction is returned when an appended instruction spans several lines.
var ErrMultilineInstruction = errors.New("instruction must be a single line")

var edifyEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Script is an append-only edify instruction buffer.
type Script struct {
	lines []string
}

func NewScript() *Script {
	return &Script{}
}

// AppendExtra appends a literal instruction line.
func (s *Script) AppendExtra(line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("%w: %q", ErrMultilineInstruction, line)
	}
	s.lines = append(s.lines, line)
	return nil
}

// Print appends a ui_print instruction displaying msg.
func (s *Script) Print(msg string) error {
	return s.AppendExtra(UIPrint(msg))
}

// Lines returns a copy of the buffered instructions.
func (s *Script) Lines() []string {
	return append([]string(nil), s.lines...)
}

func (s *Script) Len() int {
	return len(s.lines)
}

// WriteTo writes every instruction followed by a newline.
func (s *Script) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range s.lines {
		n, err := io.WriteString(w, line+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Script) String() string {
	var sb strings.Builder
	_, _ = s.WriteTo(&sb)
	return sb.String()
}

// UIPrint formats msg as an edify ui_print call.
func UIPrint(msg string) string {
	return `ui_print("` + edifyEscaper.Replace(msg) + `");`
}

// AppendScriptFile appends the instructions of s to the script file at path, creating it if needed.
func AppendScriptFile(fs afero.Fs, path string, s *Script) (err error) {
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open script %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if _, err = s.WriteTo(f); err != nil {
		return fmt.Errorf("failed to append to script %s: %w", path, err)
	}

	return nil
}
