package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newRunID mirrors the original tool's now_run_id: a sortable timestamp
// prefix plus a short random suffix, so two runs started in the same
// second still get distinct report directories.
func newRunID() string {
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), uuid.New().String()[:8])
}
