package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// maxSuffixAttempts bounds the collision-suffix search per spec section 7's
// TargetExists error: after this many attempts the caller should report an
// Error row rather than loop forever.
const maxSuffixAttempts = 1000

// ReserveUnique creates an empty file at dir/desiredName (or, on collision,
// dir/name_1.ext, dir/name_2.ext, ...) using O_CREATE|O_EXCL so the
// reservation is atomic with respect to any other process racing to create
// the same name. It returns the path that was reserved; the caller is
// responsible for replacing the placeholder content with the real move.
func ReserveUnique(dir, desiredName string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create target directory: %w", err)
	}

	ext := extOf(desiredName)
	stem := desiredName[:len(desiredName)-len(ext)]

	candidate := filepath.Join(dir, desiredName)
	if f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644); err == nil {
		f.Close()
		return candidate, nil
	} else if !os.IsExist(err) {
		return "", fmt.Errorf("reserve %s: %w", candidate, err)
	}

	for i := 1; i <= maxSuffixAttempts; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return candidate, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("reserve %s: %w", candidate, err)
		}
	}

	return "", fmt.Errorf("too many name collisions for %s (target_exists)", filepath.Join(dir, desiredName))
}

// PreviewUnique computes the same name a ReserveUnique call would pick,
// without creating anything on disk: it probes with os.Stat instead of
// O_CREATE|O_EXCL. Used by the organizer's dry-run path, where no
// filesystem-mutating call is permitted but the report still needs a
// plausible destination name.
func PreviewUnique(dir, desiredName string) (string, error) {
	ext := extOf(desiredName)
	stem := desiredName[:len(desiredName)-len(ext)]

	candidate := filepath.Join(dir, desiredName)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}

	for i := 1; i <= maxSuffixAttempts; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("too many name collisions for %s (target_exists)", filepath.Join(dir, desiredName))
}

// SharesStem derives a satellite's target name from the primary's final
// basename, keeping the satellite's own extension. Used to place a Live
// Photo motion file or an .aae sidecar alongside its renamed primary.
func SharesStem(primaryFinalName, satelliteOriginalName string) string {
	return Stem(primaryFinalName) + extOf(satelliteOriginalName)
}

// SafeJoin joins dir and name after rejecting a name that would escape dir
// via ".." components, guarding archive placement against a maliciously or
// accidentally crafted source filename.
func SafeJoin(dir, name string) (string, error) {
	joined := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, joined)
	if err != nil {
		return "", err
	}
	if rel == ".." || len(rel) >= 2 && rel[:2] == ".." {
		return "", fmt.Errorf("path %q escapes %q", name, dir)
	}
	return joined, nil
}
