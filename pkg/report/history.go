package report

import (
	"encoding/json"
	"fmt"
	"os"

	"photox/pkg/models"
)

// AppendHistory reads the existing run_history.json (if any), appends
// record, and rewrites the whole file. This mirrors the original's
// _update_run_history: a read-modify-write of the full array rather than
// an append-only log, so a crash between read and write can lose the
// update. Spec section 4.G doesn't demand this be crash-atomic the way
// the index must be, so the simpler shape is kept.
func AppendHistory(path string, record models.RunRecord) error {
	var history []models.RunRecord

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, &history); jsonErr != nil {
			return fmt.Errorf("parse run history %s: %w", path, jsonErr)
		}
	case os.IsNotExist(err):
		// first run: history starts empty.
	default:
		return fmt.Errorf("read run history %s: %w", path, err)
	}

	history = append(history, record)

	out, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run history: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write run history %s: %w", path, err)
	}
	return nil
}

// LoadHistory reads run_history.json, returning an empty slice if it does
// not yet exist. Used by the status CLI command.
func LoadHistory(path string) ([]models.RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run history %s: %w", path, err)
	}
	var history []models.RunRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse run history %s: %w", path, err)
	}
	return history, nil
}
