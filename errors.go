package ageline

import (
	"errors"
	"fmt"
)

// ErrNoEligibleImages is returned by anchor selection when no candidate is
// both verified and downloaded.
var ErrNoEligibleImages = errors.New("ageline: no verified downloaded images eligible for anchor selection")

// ErrYearDiversity is returned by the relaxed fallback when fewer than two
// distinct verified years exist.
var ErrYearDiversity = errors.New("ageline: not enough distinct verified years for anchor selection")

// RecencyError reports that an acquisition run produced no verified image
// close enough to the target year. The manifest has already been persisted
// when this is returned; VerifiedYears shows how close the run came.
type RecencyError struct {
	Required      int   // minimum acceptable verified year
	VerifiedYears []int // verified years actually found, ascending
}

func (e *RecencyError) Error() string {
	return fmt.Sprintf("ageline: no verified image for year >= %d (verified years found: %v)", e.Required, e.VerifiedYears)
}

// IdentityError reports that a subject could not be matched to a knowledge
// base entry with a usable birth date.
type IdentityError struct {
	Name   string
	Reason string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("ageline: cannot resolve identity of %q: %s", e.Name, e.Reason)
}
