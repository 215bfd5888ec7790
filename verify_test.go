package ageline

import (
	"path/filepath"
	"testing"
)

func TestVerifyFromSourceMeta(t *testing.T) {
	t.Parallel()

	c := &ImageCandidate{
		Source:   "wikimedia",
		Title:    "File:Subject 2019.jpg",
		ImageURL: "https://example.org/a.jpg",
		Meta: map[string]string{
			MetaCommonsDate:       "2019:05:17 13:44:02",
			MetaCommonsDateMethod: "commons:DateTimeOriginal",
		},
	}
	verifyFromSourceMeta(c)

	if !c.Verified || c.VerifiedDate == nil {
		t.Fatal("candidate not verified from source metadata")
	}
	if c.VerifiedDate.Date != "2019-05-17" {
		t.Errorf("date = %q, want 2019-05-17", c.VerifiedDate.Date)
	}
	if c.VerifiedDate.Year != 2019 {
		t.Errorf("year = %d, want 2019", c.VerifiedDate.Year)
	}
	if c.VerifiedDate.Method != "commons:DateTimeOriginal" {
		t.Errorf("method = %q", c.VerifiedDate.Method)
	}
	if c.VerifiedDate.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", c.VerifiedDate.Confidence)
	}
}

func TestVerifyFromSourceMetaRejectsGarbage(t *testing.T) {
	t.Parallel()

	c := &ImageCandidate{
		ImageURL: "https://example.org/a.jpg",
		Meta: map[string]string{
			MetaCommonsDate:       "circa 1990",
			MetaCommonsDateMethod: "commons:Date",
		},
	}
	verifyFromSourceMeta(c)

	if c.Verified || c.VerifiedDate != nil {
		t.Error("unparseable structured date must leave candidate unverified")
	}
}

func TestVerificationIsMonotonic(t *testing.T) {
	t.Parallel()

	c := &ImageCandidate{
		ImageURL: "https://example.org/a.jpg",
		Meta: map[string]string{
			MetaCommonsDate:       "2001-01-01",
			MetaCommonsDateMethod: "commons:DateTime",
		},
	}
	verifyCandidate(c)
	first := *c.VerifiedDate

	// A second pass with richer metadata must not overwrite.
	c.Meta[MetaCommonsDate] = "2010-10-10"
	c.Meta[MetaCommonsDateMethod] = "commons:DateTimeOriginal"
	verifyCandidate(c)

	if *c.VerifiedDate != first {
		t.Errorf("verified date changed on re-run: %+v -> %+v", first, *c.VerifiedDate)
	}
}

func TestVerifyFromFileMissingFile(t *testing.T) {
	t.Parallel()

	c := &ImageCandidate{
		ImageURL:  "https://example.org/a.jpg",
		LocalPath: filepath.Join(t.TempDir(), "does-not-exist.jpg"),
	}
	verifyFromFile(c)

	if c.Verified {
		t.Error("missing file must map to 'no date found', not verification")
	}
}

func TestVerifyFromFileNoEXIF(t *testing.T) {
	t.Parallel()

	// A plain text file has no metadata block; the candidate stays unverified
	// and no error escapes.
	path := filepath.Join(t.TempDir(), "plain.jpg")
	writeFile(t, path, []byte("not an image at all"))

	c := &ImageCandidate{ImageURL: "https://example.org/a.jpg", LocalPath: path}
	verifyFromFile(c)

	if c.Verified {
		t.Error("file without EXIF must leave candidate unverified")
	}
}

func TestSetVerifiedRefusesOverwrite(t *testing.T) {
	t.Parallel()

	c := &ImageCandidate{ImageURL: "u"}
	if !c.setVerified(VerifiedDate{Date: "1999-01-01", Year: 1999}) {
		t.Fatal("first setVerified must succeed")
	}
	if c.setVerified(VerifiedDate{Date: "2005-01-01", Year: 2005}) {
		t.Error("second setVerified must be refused")
	}
	if c.VerifiedDate.Year != 1999 {
		t.Errorf("year = %d, want 1999", c.VerifiedDate.Year)
	}
}

func TestManifestRecompute(t *testing.T) {
	t.Parallel()

	m := &ImageManifest{Candidates: []ImageCandidate{
		{ImageURL: "a", Verified: true, VerifiedDate: &VerifiedDate{Year: 2004}},
		{ImageURL: "b", Verified: true, VerifiedDate: &VerifiedDate{Year: 1998}},
		{ImageURL: "c", Verified: true, VerifiedDate: &VerifiedDate{Year: 2004}},
		{ImageURL: "d"},
	}}
	m.recompute()

	if m.VerifiedCount != 3 {
		t.Errorf("VerifiedCount = %d, want 3", m.VerifiedCount)
	}
	want := []int{1998, 2004}
	if len(m.VerifiedYears) != len(want) {
		t.Fatalf("VerifiedYears = %v, want %v", m.VerifiedYears, want)
	}
	for i := range want {
		if m.VerifiedYears[i] != want[i] {
			t.Fatalf("VerifiedYears = %v, want %v", m.VerifiedYears, want)
		}
	}
}
