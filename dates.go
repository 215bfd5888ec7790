package ageline

import (
	"strconv"
	"strings"
	"time"
)

// captureLayouts are the only timestamp formats the verifiers accept. Anything
// else is treated as "no date found", never as an error.
var captureLayouts = []string{
	"2006:01:02 15:04:05", // EXIF convention
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeCaptureDate converts a raw capture timestamp to a YYYY-MM-DD
// calendar date. Returns ok=false for anything outside the accepted layouts.
func NormalizeCaptureDate(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	for _, layout := range captureLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// normalizeDatePrefix extracts a calendar date from a structured-metadata
// value that may carry a trailing time component ("2019-05-17 13:44:02",
// "2019:05:17T13:44:02"). Values whose first token does not look like a
// 10-character date are rejected.
func normalizeDatePrefix(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	for _, sep := range []string{"T", " "} {
		if i := strings.Index(v, sep); i >= 0 {
			v = strings.TrimSpace(v[:i])
		}
	}
	if len(v) < 10 {
		return "", false
	}
	v = v[:10]
	if v[4] == ':' && v[7] == ':' {
		v = v[:4] + "-" + v[5:7] + "-" + v[8:]
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return "", false
	}
	return v, true
}

// yearOf extracts the year from a normalized YYYY-MM-DD date.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
