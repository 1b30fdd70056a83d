package metadata

import (
	"strings"
	"time"
)

// fieldOrder is the fallback order for resolving a primary's capture time,
// exactly spec section 4.C's DateTimeOriginal, CreateDate, MediaCreateDate,
// FileModifyDate.
var fieldOrder = []string{"DateTimeOriginal", "CreateDate", "MediaCreateDate", "FileModifyDate"}

// layouts covers the datetime string shapes exiftool's -json -n output
// produces across the fields in fieldOrder, plus the RFC3339 variants a
// substitute in-process metadata parser (spec section 9's "alternative
// implementation") might emit.
var layouts = []string{
	"2006:01:02 15:04:05-07:00",
	"2006:01:02 15:04:05Z07:00",
	"2006:01:02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseDateTime parses one exiftool-style timestamp string, trying each
// known layout in turn. An empty or unparseable string yields ok=false,
// which the caller treats as that field being absent (fall through to the
// next field in fieldOrder).
func ParseDateTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	// exiftool emits "0000:00:00 00:00:00" for an unset field.
	if strings.HasPrefix(raw, "0000:00:00") {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ResolveCaptureTime walks fieldOrder against a decoded metadata record and
// returns the first field that parses, matching spec section 4.C.
func ResolveCaptureTime(fields map[string]string) (time.Time, bool) {
	for _, name := range fieldOrder {
		raw, present := fields[name]
		if !present {
			continue
		}
		if t, ok := ParseDateTime(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
