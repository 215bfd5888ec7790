// Package ageline assembles a dated photographic timeline for a public figure.
// It resolves birth facts from open knowledge bases, gathers photo candidates
// from several independent web sources, attaches a trusted capture date to each
// candidate where the evidence allows it, and selects a small chronologically
// spaced set of verified anchor images for a downstream morphing stage.
package ageline

import (
	"net/http"
	"path/filepath"
	"time"
)

// DefaultMaxDownloads caps how many deduplicated candidates are downloaded per run.
const DefaultMaxDownloads = 100

// DefaultHTTPTimeout bounds each individual provider or download request.
const DefaultHTTPTimeout = 20 * time.Second

// Config holds all dependencies and process-wide settings injected by the
// consumer. The zero value is usable; defaults() fills the gaps.
type Config struct {
	HTTPClient    *http.Client // default http client (nil = http.DefaultClient)
	StealthClient *http.Client // optional: TLS-fingerprinted client for downloads
	UserAgent     string       // default: "ageline/1.0"

	DataDir string // manifests, facts, anchor timelines, work log (default: "data")
	RawDir  string // downloaded candidate images (default: "images/raw")

	TargetYearEnd int           // default: current UTC year
	MaxDownloads  int           // default: DefaultMaxDownloads
	HTTPTimeout   time.Duration // default: DefaultHTTPTimeout
	SerpAPIKey    string        // enables the optional SerpAPI provider

	// Providers is an optional list of image sources. When empty, the default
	// chain is used in quality-descending order: Wikimedia Commons, Wikipedia
	// page images, IMDb stills, keyless web search, and SerpAPI when keyed.
	// Order matters: dedup is first-seen-wins.
	Providers []SourceProvider

	// API endpoints, overridable for tests.
	WikipediaAPIURL   string // default: "https://en.wikipedia.org/w/api.php"
	WikidataEntityURL string // default: "https://www.wikidata.org/wiki/Special:EntityData"
}

// defaults fills zero-value fields with sensible defaults.
func (cfg *Config) defaults() {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "ageline/1.0"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.RawDir == "" {
		cfg.RawDir = filepath.Join("images", "raw")
	}
	if cfg.TargetYearEnd <= 0 {
		cfg.TargetYearEnd = time.Now().UTC().Year()
	}
	if cfg.MaxDownloads <= 0 {
		cfg.MaxDownloads = DefaultMaxDownloads
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.WikipediaAPIURL == "" {
		cfg.WikipediaAPIURL = "https://en.wikipedia.org/w/api.php"
	}
	if cfg.WikidataEntityURL == "" {
		cfg.WikidataEntityURL = "https://www.wikidata.org/wiki/Special:EntityData"
	}
}

// downloadClient returns the preferred client for image downloads: the stealth
// client when configured, the regular client otherwise.
func (cfg *Config) downloadClient() *http.Client {
	if cfg.StealthClient != nil {
		return cfg.StealthClient
	}
	return cfg.HTTPClient
}

// ManifestPath returns where the acquisition manifest for name is persisted.
func (cfg *Config) ManifestPath(name string) string {
	cfg.defaults()
	return filepath.Join(cfg.DataDir, "manifests", Slugify(name)+".json")
}

// FactsPath returns where resolved facts for name are cached.
func (cfg *Config) FactsPath(name string) string {
	cfg.defaults()
	return filepath.Join(cfg.DataDir, "facts", Slugify(name)+".json")
}

// TimelinePath returns where the anchor timeline for name is persisted.
func (cfg *Config) TimelinePath(name string) string {
	cfg.defaults()
	return filepath.Join(cfg.DataDir, "anchors", Slugify(name)+".json")
}

// RawImageDir returns the per-subject directory for downloaded candidates.
func (cfg *Config) RawImageDir(name string) string {
	cfg.defaults()
	return filepath.Join(cfg.RawDir, Slugify(name))
}

// WorkLogPath returns the location of the subject work log database.
func (cfg *Config) WorkLogPath() string {
	cfg.defaults()
	return filepath.Join(cfg.DataDir, "worklog.db")
}
