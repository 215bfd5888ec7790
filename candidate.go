package ageline

import (
	"sort"
)

// Well-known candidate meta keys. Meta stays an open string map so providers
// can attach source-specific detail without schema churn; these are the keys
// the pipeline itself reads or writes.
const (
	MetaCommonsDate       = "commons_date"        // raw structured date from Commons extmetadata
	MetaCommonsDateMethod = "commons_date_method" // which extmetadata field supplied it
	MetaQueryYear         = "query_year"          // year baked into the search query that produced the lead
	MetaDownloadError     = "download_error"      // why the download failed, when it did
	MetaNearDuplicateOf   = "near_duplicate_of"   // image_url of a perceptually similar earlier candidate
)

// VerifiedDate is a capture date attached to a candidate by one of the
// verifiers. Immutable once set: verification never reverts or overwrites.
type VerifiedDate struct {
	Date       string  `json:"date"` // YYYY-MM-DD
	Year       int     `json:"year"`
	Method     string  `json:"method"` // e.g. "exif:DateTimeOriginal", "commons:DateTime"
	Confidence float64 `json:"confidence"`
}

// ImageCandidate is one lead for a photograph of the subject, plus its
// download and verification state.
type ImageCandidate struct {
	Source   string `json:"source"`
	Title    string `json:"title"`
	PageURL  string `json:"page_url,omitempty"`
	ImageURL string `json:"image_url"`

	// LocalPath is set once the image has been downloaded.
	LocalPath string `json:"local_path,omitempty"`

	Verified     bool          `json:"verified"`
	VerifiedDate *VerifiedDate `json:"verified_date,omitempty"`

	Meta map[string]string `json:"meta,omitempty"`
}

// setVerified attaches a verified date unless one is already present.
// Returns false when the candidate was already verified.
func (c *ImageCandidate) setVerified(vd VerifiedDate) bool {
	if c.Verified {
		return false
	}
	c.Verified = true
	c.VerifiedDate = &vd
	return true
}

// setMeta lazily initializes the meta map.
func (c *ImageCandidate) setMeta(key, value string) {
	if c.Meta == nil {
		c.Meta = make(map[string]string)
	}
	c.Meta[key] = value
}

// ImageManifest is the persisted result of one acquisition run for one
// subject. VerifiedYears and VerifiedCount are derived from Candidates and
// recomputed at write time; a manifest is never mutated after persistence.
type ImageManifest struct {
	CelebrityName string           `json:"celebrity_name"`
	CelebritySlug string           `json:"celebrity_slug"`
	TargetYearEnd int              `json:"target_year_end"`
	Candidates    []ImageCandidate `json:"candidates"`
	VerifiedYears []int            `json:"verified_years"`
	VerifiedCount int              `json:"verified_count"`
}

// recompute refreshes the derived VerifiedYears and VerifiedCount fields.
func (m *ImageManifest) recompute() {
	seen := make(map[int]bool)
	count := 0
	for _, c := range m.Candidates {
		if !c.Verified || c.VerifiedDate == nil {
			continue
		}
		count++
		seen[c.VerifiedDate.Year] = true
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)

	m.VerifiedYears = years
	m.VerifiedCount = count
}

// Anchor is one selected entry on the output timeline: a verified, dated
// photograph representing one point in the subject's life.
type Anchor struct {
	Year      int    `json:"year"`
	Age       int    `json:"age"`
	ImagePath string `json:"image_path"`
	Source    string `json:"source"`
	Verified  bool   `json:"verified"`
}

// Timeline is the persisted anchor list handed off to the rendering stage.
type Timeline struct {
	Celebrity string   `json:"celebrity"`
	Anchors   []Anchor `json:"anchors"`
}
