package pathutil

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Normalize cleans a path for the current platform, collapsing "." and
// ".." components with filepath.Clean.
func Normalize(path string) string {
	return filepath.Clean(path)
}

// Validate rejects an empty name on every platform. On Windows it also
// rejects names containing Windows' reserved characters; on other
// platforms those characters are accepted.
func Validate(name string) error {
	if name == "" {
		return &PathError{Path: name, Message: "path is empty"}
	}
	if runtime.GOOS != "windows" {
		return nil
	}
	invalid := []string{"<", ">", ":", "\"", "|", "?", "*"}
	for _, ch := range invalid {
		if strings.Contains(name, ch) {
			return &PathError{Path: name, Message: "path contains invalid character: " + ch}
		}
	}
	return nil
}

// PathError reports a path that failed platform validation.
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Message)
}
