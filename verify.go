package ageline

import (
	"os"
	"time"

	"github.com/bep/imagemeta"
)

// Verifier confidence levels. A curated-repository date outranks nothing but
// an embedded original-capture timestamp; generic embedded fields rank lowest.
const (
	confidenceCommons      = 0.95
	confidenceEXIFOriginal = 0.98
	confidenceEXIFGeneric  = 0.93
)

// exifDateTags are the EXIF timestamp fields checked by the file verifier,
// in order of trust.
var exifDateTags = []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime"}

// verifyCandidate runs the date verifiers against c in fixed order:
// structured source metadata first, then the downloaded file's embedded
// metadata. Verification is monotonic: once a date is attached it is never
// replaced, so re-running is a no-op for verified candidates.
func verifyCandidate(c *ImageCandidate) {
	verifyFromSourceMeta(c)
	verifyFromFile(c)
}

// verifyFromSourceMeta trusts a structured capture date that the source
// adapter attached at lead-creation time (Wikimedia Commons extmetadata).
// The method label records which extmetadata field matched; confidence does
// not vary by sub-field for this verifier.
func verifyFromSourceMeta(c *ImageCandidate) {
	if c.Verified {
		return
	}
	raw := c.Meta[MetaCommonsDate]
	method := c.Meta[MetaCommonsDateMethod]
	if raw == "" || method == "" {
		return
	}
	date, ok := normalizeDatePrefix(raw)
	if !ok {
		return
	}
	c.setVerified(VerifiedDate{
		Date:       date,
		Year:       yearOf(date),
		Method:     method,
		Confidence: confidenceCommons,
	})
}

// verifyFromFile reads a capture timestamp out of the downloaded image's EXIF
// block. Only runs for downloaded candidates. Missing metadata or an
// unparseable value leaves the candidate unverified; it is never an error.
func verifyFromFile(c *ImageCandidate) {
	if c.Verified || c.LocalPath == "" {
		return
	}
	date, tag := extractEXIFDate(c.LocalPath)
	if date == "" {
		return
	}
	confidence := confidenceEXIFGeneric
	if tag == "DateTimeOriginal" {
		confidence = confidenceEXIFOriginal
	}
	c.setVerified(VerifiedDate{
		Date:       date,
		Year:       yearOf(date),
		Method:     "exif:" + tag,
		Confidence: confidence,
	})
}

// extractEXIFDate returns (normalized date, EXIF tag name) for the first
// trusted timestamp found in the image at path, or ("", "") when the file has
// no usable EXIF date. All internal failures map to "no date found".
func extractEXIFDate(path string) (string, string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()

	wanted := make(map[string]bool, len(exifDateTags))
	for _, tag := range exifDateTags {
		wanted[tag] = true
	}

	values := make(map[string]string)
	_, err = imagemeta.Decode(imagemeta.Options{
		R:       f,
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return wanted[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if s := timestampString(ti.Value); s != "" {
				values[ti.Tag] = s
			}
			return nil
		},
	})
	if err != nil || len(values) == 0 {
		return "", ""
	}

	// Tag handler order is not guaranteed; apply the trust order here.
	for _, tag := range exifDateTags {
		raw, ok := values[tag]
		if !ok {
			continue
		}
		if date, ok := NormalizeCaptureDate(raw); ok {
			return date, tag
		}
	}
	return "", ""
}

// timestampString extracts a timestamp string from an EXIF tag value.
// imagemeta surfaces date tags as either string or time.Time depending on
// how well-formed the field is.
func timestampString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.Format("2006:01:02 15:04:05")
	default:
		return ""
	}
}
