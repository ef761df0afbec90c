package archivers

import (
	"fmt"
	"path"
	"strings"
)

// entryName cleans a slash-separated archive entry name. Backslashes are ordinary name
// characters; callers convert OS paths with filepath.ToSlash before adding them.
func entryName(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid archive entry name %q: must be a non-empty relative path", name)
	}

	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid archive entry name %q: escapes the archive root", name)
	}

	return cleaned, nil
}
