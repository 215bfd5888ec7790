package ageline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// portraitHints mark Wikipedia image titles that are likely to be portraits
// of the subject rather than logos, maps, or article illustrations.
var portraitHints = []string{"portrait", "photo", "headshot", "face"}

// WikiPageProvider collects the images embedded on the subject's Wikipedia
// article. These are usually clean, well-curated portraits, but carry no
// structured capture date.
type WikiPageProvider struct {
	BaseURL    string // default: "https://en.wikipedia.org/w/api.php"
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration
}

// Name implements SourceProvider.
func (p *WikiPageProvider) Name() string { return "wikipedia_page" }

// Search lists the images on the subject's article and keeps those whose
// titles suggest a portrait.
func (p *WikiPageProvider) Search(ctx context.Context, q Query, limit int) ([]Lead, error) {
	base := p.BaseURL
	if base == "" {
		base = "https://en.wikipedia.org/w/api.php"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := url.Values{
		"action": {"query"},
		"format": {"json"},
		"prop":   {"images"},
		"titles": {q.Name},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.UserAgent)

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
		return nil, fmt.Errorf("wikipedia api status %d", resp.StatusCode)
	}

	var body struct {
		Query struct {
			Pages map[string]struct {
				Images []struct {
					Title string `json:"title"`
				} `json:"images"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	pageURL := "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(q.Name, " ", "_")

	var leads []Lead
	for _, page := range body.Query.Pages {
		for _, img := range page.Images {
			if !looksLikePortrait(img.Title) {
				continue
			}
			file := strings.TrimPrefix(img.Title, "File:")
			leads = append(leads, Lead{
				Title:    img.Title,
				ImageURL: "https://commons.wikimedia.org/wiki/Special:FilePath/" + file,
				PageURL:  pageURL,
			})
			if len(leads) >= limit {
				return leads, nil
			}
		}
	}
	return leads, nil
}

func looksLikePortrait(title string) bool {
	lower := strings.ToLower(title)
	for _, hint := range portraitHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
