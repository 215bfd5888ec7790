package ageline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// providerSearchLimit caps how many leads are requested from each source.
const providerSearchLimit = 30

// nearDupThreshold is the maximum dHash Hamming distance at which two
// downloads are tagged as near duplicates. Tagging is informational only:
// near-duplicate images with different URLs stay in the manifest to keep
// coverage maximal.
const nearDupThreshold = 10

// Collect runs one acquisition pass for a subject: fan out to every source
// in quality-descending order, dedup by exact image URL and exact title,
// download up to MaxDownloads candidates, verify capture dates, and persist
// the manifest.
//
// The manifest is persisted before the recency requirement is checked, so a
// failing run still leaves its partial progress on disk; in that case the
// manifest is returned together with a *RecencyError.
//
// A cached manifest (present on disk, force=false) is returned as-is, without
// re-checking the recency requirement. Pass force=true to rebuild and
// re-validate.
func (cfg *Config) Collect(ctx context.Context, q Query, force bool) (*ImageManifest, error) {
	cfg.defaults()

	mp := cfg.ManifestPath(q.Name)
	if !force {
		if cached, err := LoadManifest(mp); err == nil {
			slog.Info("ageline: using cached manifest", "subject", q.Name, "path", mp)
			return cached, nil
		}
	}

	if q.TargetYear <= 0 {
		q.TargetYear = cfg.TargetYearEnd
	}

	candidates := cfg.aggregate(ctx, q)
	if len(candidates) > cfg.MaxDownloads {
		candidates = candidates[:cfg.MaxDownloads]
	}

	outDir := cfg.RawImageDir(q.Name)
	dups := newNearDupIndex()
	for i := range candidates {
		cfg.downloadCandidate(ctx, &candidates[i], outDir, i+1)
		verifyCandidate(&candidates[i])
		dups.tag(&candidates[i])
	}

	manifest := &ImageManifest{
		CelebrityName: q.Name,
		CelebritySlug: Slugify(q.Name),
		TargetYearEnd: q.TargetYear,
		Candidates:    candidates,
	}
	manifest.recompute()

	if err := saveJSON(mp, manifest); err != nil {
		return nil, fmt.Errorf("persist manifest: %w", err)
	}

	slog.Info("ageline: collection finished",
		"subject", q.Name,
		"candidates", len(manifest.Candidates),
		"verified", manifest.VerifiedCount,
		"verified_years", manifest.VerifiedYears)

	required := q.TargetYear - 1
	if !reachesYear(manifest.VerifiedYears, required) {
		return manifest, &RecencyError{Required: required, VerifiedYears: manifest.VerifiedYears}
	}
	return manifest, nil
}

// aggregate collects leads from every provider sequentially, in configured
// order, deduplicating as it goes. A provider that errors is logged and
// skipped; the first provider to produce a given image URL or title wins, so
// provider order decides which metadata survives.
func (cfg *Config) aggregate(ctx context.Context, q Query) []ImageCandidate {
	seenURL := make(map[string]bool)
	seenTitle := make(map[string]bool)

	var candidates []ImageCandidate
	for _, p := range cfg.resolveProviders() {
		leads, err := p.Search(ctx, q, providerSearchLimit)
		if err != nil {
			slog.Warn("ageline: provider search failed", "provider", p.Name(), "error", err.Error())
			continue
		}
		if len(leads) == 0 {
			slog.Info("ageline: provider returned no leads", "provider", p.Name())
			continue
		}

		kept := 0
		for _, lead := range leads {
			if lead.ImageURL == "" {
				continue
			}
			if seenURL[lead.ImageURL] || seenTitle[lead.Title] {
				continue
			}
			seenURL[lead.ImageURL] = true
			seenTitle[lead.Title] = true
			candidates = append(candidates, ImageCandidate{
				Source:   p.Name(),
				Title:    lead.Title,
				PageURL:  lead.PageURL,
				ImageURL: lead.ImageURL,
				Meta:     lead.Meta,
			})
			kept++
		}
		slog.Info("ageline: provider done", "provider", p.Name(), "leads", len(leads), "kept", kept)
	}
	return candidates
}

// resolveProviders returns the effective provider chain. Explicit Providers
// win; otherwise the default chain is built in quality-descending order.
func (cfg *Config) resolveProviders() []SourceProvider {
	if len(cfg.Providers) > 0 {
		return cfg.Providers
	}
	providers := []SourceProvider{
		&CommonsProvider{HTTPClient: cfg.HTTPClient, UserAgent: cfg.UserAgent, Timeout: cfg.HTTPTimeout},
		&WikiPageProvider{HTTPClient: cfg.HTTPClient, UserAgent: cfg.UserAgent, Timeout: cfg.HTTPTimeout},
		&IMDbProvider{HTTPClient: cfg.HTTPClient, UserAgent: cfg.UserAgent, Timeout: cfg.HTTPTimeout},
		&WebSearchProvider{HTTPClient: cfg.HTTPClient, UserAgent: cfg.UserAgent, Timeout: cfg.HTTPTimeout},
	}
	if cfg.SerpAPIKey != "" {
		providers = append(providers, &SerpAPIProvider{
			APIKey:     cfg.SerpAPIKey,
			HTTPClient: cfg.HTTPClient,
			UserAgent:  cfg.UserAgent,
			Timeout:    cfg.HTTPTimeout,
		})
	}
	return providers
}

// downloadCandidate attempts the candidate's single download for this run.
// Failure is recorded on the candidate and never aborts the run; an
// undownloaded candidate simply cannot be verified from file metadata.
func (cfg *Config) downloadCandidate(ctx context.Context, c *ImageCandidate, outDir string, idx int) {
	dest := filepath.Join(outDir, candidateFilename(idx, c.Title, c.ImageURL))
	if err := cfg.downloadToFile(ctx, c.ImageURL, dest); err != nil {
		slog.Warn("ageline: download failed", "url", c.ImageURL, "error", err.Error())
		c.setMeta(MetaDownloadError, err.Error())
		return
	}
	c.LocalPath = dest
}

// nearDupIndex tags perceptually similar downloads via difference hashing.
type nearDupIndex struct {
	hashes []*goimagehash.ImageHash
	urls   []string
}

func newNearDupIndex() *nearDupIndex {
	return &nearDupIndex{}
}

// tag records the candidate's dHash and, when it sits within
// nearDupThreshold of an earlier download, annotates the candidate with the
// earlier image's URL. Hash failures are ignored.
func (n *nearDupIndex) tag(c *ImageCandidate) {
	if c.LocalPath == "" {
		return
	}
	f, err := os.Open(c.LocalPath)
	if err != nil {
		return
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return
	}
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return
	}

	for i, h := range n.hashes {
		dist, err := hash.Distance(h)
		if err == nil && dist < nearDupThreshold {
			c.setMeta(MetaNearDuplicateOf, n.urls[i])
			break
		}
	}
	n.hashes = append(n.hashes, hash)
	n.urls = append(n.urls, c.ImageURL)
}

// reachesYear reports whether any verified year meets the requirement.
func reachesYear(years []int, required int) bool {
	for _, y := range years {
		if y >= required {
			return true
		}
	}
	return false
}

// LoadManifest reads a persisted manifest from path.
func LoadManifest(path string) (*ImageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m ImageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return &m, nil
}

// saveJSON persists v as an indented JSON document, creating parent
// directories as needed. The write goes through a temp file and rename so a
// crash never leaves a torn document at path.
func saveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
