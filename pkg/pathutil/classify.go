// Package pathutil implements the path and filename utilities of spec
// section 4.A: extension classification, collision-free renaming, and
// safe path joins.
package pathutil

import (
	"strings"

	"photox/pkg/config"
	"photox/pkg/models"
)

// Classifier classifies paths by case-insensitive extension against the
// three fixed sets configured for a run.
type Classifier struct {
	still   map[string]bool
	video   map[string]bool
	sidecar map[string]bool
}

// NewClassifier builds a Classifier from the extension sets in cfg.
func NewClassifier(cfg *config.Config) *Classifier {
	return &Classifier{
		still:   toSet(cfg.Extensions.Still),
		video:   toSet(cfg.Extensions.Video),
		sidecar: toSet(cfg.Extensions.Sidecar),
	}
}

func toSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}
	return set
}

// Classify returns the FileKind of name by its extension. Video files that
// end up bound as a Live Photo motion satellite are still classified
// PrimaryVideo here; the grouper decides pairing separately.
func (c *Classifier) Classify(name string) models.FileKind {
	ext := strings.ToLower(extOf(name))
	switch {
	case c.still[ext]:
		return models.PrimaryImage
	case c.video[ext]:
		return models.PrimaryVideo
	case c.sidecar[ext]:
		return models.Sidecar
	default:
		return models.Unknown
	}
}

// extOf returns the extension of name including the leading dot, in its
// original case, or "" if name has none.
func extOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// Stem returns name without its extension.
func Stem(name string) string {
	ext := extOf(name)
	if ext == "" {
		return name
	}
	return name[:len(name)-len(ext)]
}
