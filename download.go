package ageline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	downloadRetries = 3
	backoffStep     = 600 * time.Millisecond
)

// downloadToFile fetches url into dest, retrying with increasing backoff.
// The body is written to a temporary ".part" path and renamed into place on
// success, so a half-written file never occupies dest.
func (cfg *Config) downloadToFile(ctx context.Context, url, dest string) error {
	cfg.defaults()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= downloadRetries; attempt++ {
		err := cfg.fetchToFile(ctx, url, dest)
		if err == nil {
			return nil
		}
		lastErr = err
		// No point waiting out a backoff when no attempt follows.
		if attempt == downloadRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffStep * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("download failed after %d attempts: %w", downloadRetries, lastErr)
}

func (cfg *Config) fetchToFile(ctx context.Context, url, dest string) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := cfg.downloadClient().Do(req) //nolint:gosec // G704: URL is provider-supplied by design
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// safeExt infers the on-disk extension from an image URL. JPEG variants
// collapse to ".jpg"; unknown types default to ".jpg".
func safeExt(url string) string {
	u := strings.ToLower(url)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp"} {
		if strings.Contains(u, ext) {
			if ext == ".jpeg" {
				return ".jpg"
			}
			return ext
		}
	}
	return ".jpg"
}

// candidateFilename builds the local filename for the idx-th downloaded
// candidate: zero-padded index, sanitized title slug capped at 60 bytes,
// extension inferred from the URL.
func candidateFilename(idx int, title, url string) string {
	slug := Slugify(title)
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return fmt.Sprintf("%03d_%s%s", idx, slug, safeExt(url))
}
