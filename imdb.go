package ageline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// IMDbProvider scrapes the subject's public IMDb media index for stills and
// event photos. No API key, no login; titles are generic so dates come only
// from the file verifier after download.
type IMDbProvider struct {
	BaseURL    string // default: "https://www.imdb.com"
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration
}

// Name implements SourceProvider.
func (p *IMDbProvider) Name() string { return "imdb" }

// Search resolves the subject's name page via IMDb search, then pulls image
// URLs off its media index.
func (p *IMDbProvider) Search(ctx context.Context, q Query, limit int) ([]Lead, error) {
	base := p.BaseURL
	if base == "" {
		base = "https://www.imdb.com"
	}

	searchURL := base + "/find?q=" + url.QueryEscape(q.Name) + "&s=nm"
	doc, err := p.fetchDoc(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	href, ok := doc.Find(".result_text a").First().Attr("href")
	if !ok || href == "" {
		return nil, nil
	}

	mediaURL := base + strings.TrimSuffix(href, "/") + "/mediaindex"
	doc, err = p.fetchDoc(ctx, mediaURL)
	if err != nil {
		return nil, err
	}

	var leads []Lead
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok || !strings.Contains(src, "media-amazon") {
			return true
		}
		// Strip the resize suffix to get the original resolution.
		clean := strings.SplitN(src, "_", 2)[0] + ".jpg"
		title := sel.AttrOr("alt", "")
		if title == "" {
			// No alt text: derive a distinct title from the URL so exact-title
			// dedup does not collapse unrelated stills.
			title = "imdb " + clean[strings.LastIndex(clean, "/")+1:]
		}
		leads = append(leads, Lead{
			Title:    title,
			ImageURL: clean,
			PageURL:  mediaURL,
		})
		return len(leads) < limit
	})
	return leads, nil
}

func (p *IMDbProvider) fetchDoc(ctx context.Context, pageURL string) (*goquery.Document, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	ua := p.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	}
	req.Header.Set("User-Agent", ua)

	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("imdb status %d for %s", resp.StatusCode, pageURL)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}
