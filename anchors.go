package ageline

import (
	"fmt"
	"sort"
)

// Anchor selection parameters. Selection is biased toward even, sparse
// coverage of the subject's life rather than dense clustering.
const (
	MaxAnchors = 8
	MinAnchors = 5
	MinYearGap = 3 // minimum spacing between anchors, in years
)

// SelectAnchors picks an ordered, year-spaced sequence of anchors from a
// manifest. Strict selection walks candidates chronologically and enforces
// MinYearGap; when that yields fewer than MinAnchors, the result is discarded
// and a relaxed pass spreads picks evenly across the available year span.
//
// Returns ErrNoEligibleImages when no candidate is verified and downloaded,
// and ErrYearDiversity when the relaxed pass has fewer than two distinct
// years to work with.
func SelectAnchors(m *ImageManifest, birthYear int) ([]Anchor, error) {
	var eligible []ImageCandidate
	for _, c := range m.Candidates {
		if c.Verified && c.VerifiedDate != nil && c.LocalPath != "" {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleImages
	}

	// Stable sort keeps original aggregation order for equal years, which is
	// the tie-break: the first candidate seen for a year wins.
	sorted := make([]ImageCandidate, len(eligible))
	copy(sorted, eligible)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].VerifiedDate.Year < sorted[j].VerifiedDate.Year
	})

	var anchors []Anchor
	lastYear := 0
	for _, c := range sorted {
		year := c.VerifiedDate.Year
		if len(anchors) > 0 && year-lastYear < MinYearGap {
			continue
		}
		anchors = append(anchors, anchorFrom(c, birthYear))
		lastYear = year
		if len(anchors) >= MaxAnchors {
			break
		}
	}

	if len(anchors) < MinAnchors {
		return relaxedSelection(eligible, birthYear)
	}
	return anchors, nil
}

// relaxedSelection spreads anchors across the candidates' year span when
// strict spacing was too aggressive. Candidates are walked in their original
// aggregation order; a year is rejected when it lies within step of any
// already-accepted year.
func relaxedSelection(eligible []ImageCandidate, birthYear int) ([]Anchor, error) {
	distinct := make(map[int]bool)
	for _, c := range eligible {
		distinct[c.VerifiedDate.Year] = true
	}
	if len(distinct) < 2 {
		return nil, ErrYearDiversity
	}

	years := make([]int, 0, len(distinct))
	for y := range distinct {
		years = append(years, y)
	}
	sort.Ints(years)

	step := (years[len(years)-1] - years[0]) / MaxAnchors
	if step < 1 {
		step = 1
	}

	var anchors []Anchor
	used := make(map[int]bool)
	for _, c := range eligible {
		year := c.VerifiedDate.Year
		if tooClose(year, used, step) {
			continue
		}
		anchors = append(anchors, anchorFrom(c, birthYear))
		used[year] = true
		if len(anchors) >= MaxAnchors {
			break
		}
	}

	// Acceptance ran in aggregation order; the output timeline is still
	// chronological.
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Year < anchors[j].Year })
	return anchors, nil
}

func tooClose(year int, used map[int]bool, step int) bool {
	for u := range used {
		d := year - u
		if d < 0 {
			d = -d
		}
		if d < step {
			return true
		}
	}
	return false
}

func anchorFrom(c ImageCandidate, birthYear int) Anchor {
	year := c.VerifiedDate.Year
	return Anchor{
		Year:      year,
		Age:       year - birthYear,
		ImagePath: c.LocalPath,
		Source:    c.Source,
		Verified:  true,
	}
}

// SaveTimeline persists the anchor list as the hand-off artifact for the
// downstream rendering stage. Returns the written path.
func (cfg *Config) SaveTimeline(name string, anchors []Anchor) (string, error) {
	cfg.defaults()

	path := cfg.TimelinePath(name)
	timeline := Timeline{Celebrity: name, Anchors: anchors}
	if err := saveJSON(path, timeline); err != nil {
		return "", fmt.Errorf("persist timeline: %w", err)
	}
	return path, nil
}
