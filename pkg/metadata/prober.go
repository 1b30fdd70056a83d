// Package metadata resolves capture timestamps for primaries by batching
// invocations of an external metadata extractor, per spec section 4.C.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// exiftoolFields is the exact -FieldName list passed to exiftool. It names
// the same fields, in the same order, as fieldOrder in parse.go; the two
// lists are written out separately and must be kept in step by hand.
var exiftoolFields = []string{
	"-DateTimeOriginal", "-CreateDate", "-MediaCreateDate", "-FileModifyDate",
}

// Probe is one resolved or unresolved result for a single path.
type Probe struct {
	Path        string
	CaptureTime time.Time
	Resolved    bool
}

// Prober batches primaries into chunk_size groups and invokes exiftool on
// each batch, matching the original tool's _exiftool_batch.
type Prober struct {
	chunkSize int
	exePath   string
}

// New builds a Prober. exePath is the exiftool binary to invoke; chunkSize
// is the default-800 batching knob from spec section 6.
func New(chunkSize int, exePath string) *Prober {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if exePath == "" {
		exePath = "exiftool"
	}
	return &Prober{chunkSize: chunkSize, exePath: exePath}
}

// ProbeAll resolves capture times for every path in paths, batching
// chunk_size at a time. A batch that fails wholesale (non-zero exit, bad
// JSON) is retried one path at a time, per spec section 4.C's
// partial-batch recovery: a single bad file in a batch never costs the
// rest of the batch their timestamps.
//
// onBatch, if given, is called after each chunk completes with the number
// of paths probed so far and the total, so a caller can drive a progress
// indicator without this package knowing anything about how it's drawn.
func (p *Prober) ProbeAll(ctx context.Context, paths []string, onBatch ...func(done, total int)) ([]Probe, error) {
	results := make([]Probe, 0, len(paths))

	for start := 0; start < len(paths); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(paths) {
			end = len(paths)
		}
		batch := paths[start:end]

		batchResults, err := p.probeBatch(ctx, batch)
		if err != nil {
			for _, path := range batch {
				results = append(results, p.probeSingle(ctx, path))
			}
		} else {
			results = append(results, batchResults...)
		}

		for _, cb := range onBatch {
			cb(end, len(paths))
		}
	}

	return results, nil
}

// rawRecord mirrors one element of exiftool -json output: SourceFile plus
// whichever of the four timestamp fields were present for that file.
type rawRecord struct {
	SourceFile       string `json:"SourceFile"`
	DateTimeOriginal string `json:"DateTimeOriginal"`
	CreateDate       string `json:"CreateDate"`
	MediaCreateDate  string `json:"MediaCreateDate"`
	FileModifyDate   string `json:"FileModifyDate"`
}

func (p *Prober) probeBatch(ctx context.Context, paths []string) ([]Probe, error) {
	records, err := p.run(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(records) != len(paths) {
		return nil, fmt.Errorf("exiftool returned %d records for %d paths", len(records), len(paths))
	}

	out := make([]Probe, len(records))
	for i, rec := range records {
		out[i] = recordToProbe(paths[i], rec)
	}
	return out, nil
}

func (p *Prober) probeSingle(ctx context.Context, path string) Probe {
	records, err := p.run(ctx, []string{path})
	if err != nil || len(records) != 1 {
		return Probe{Path: path, Resolved: false}
	}
	return recordToProbe(path, records[0])
}

func recordToProbe(path string, rec rawRecord) Probe {
	fields := map[string]string{
		"DateTimeOriginal": rec.DateTimeOriginal,
		"CreateDate":       rec.CreateDate,
		"MediaCreateDate":  rec.MediaCreateDate,
		"FileModifyDate":   rec.FileModifyDate,
	}
	t, ok := ResolveCaptureTime(fields)
	return Probe{Path: path, CaptureTime: t, Resolved: ok}
}

func (p *Prober) run(ctx context.Context, paths []string) ([]rawRecord, error) {
	args := make([]string, 0, len(exiftoolFields)+len(paths)+2)
	args = append(args, "-json", "-n")
	args = append(args, exiftoolFields...)
	args = append(args, paths...)

	cmd := exec.CommandContext(ctx, p.exePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("exiftool: %w: %s", err, stderr.String())
	}

	var records []rawRecord
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		return nil, fmt.Errorf("parse exiftool output: %w", err)
	}
	return records, nil
}
