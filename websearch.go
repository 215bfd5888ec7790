package ageline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// murlRe pulls direct image URLs out of Bing's embedded result JSON.
var murlRe = regexp.MustCompile(`"murl":"(.*?)"`)

// websearchPhrases bias the keyless search toward usable face shots.
var websearchPhrases = []string{
	"face close up",
	"interview headshot",
	"movie still face",
}

// WebSearchProvider is the keyless general web image search fallback. It is
// the lowest-trust source: leads carry no date metadata, so they verify only
// through embedded file metadata after download.
type WebSearchProvider struct {
	BaseURL    string // default: "https://www.bing.com"
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration
}

// Name implements SourceProvider.
func (p *WebSearchProvider) Name() string { return "websearch" }

// Search runs a few face-focused queries and scrapes direct image URLs from
// the result markup. Per-query failures skip to the next query; an error is
// returned only when every query failed.
func (p *WebSearchProvider) Search(ctx context.Context, q Query, limit int) ([]Lead, error) {
	perQuery := limit / len(websearchPhrases)
	if perQuery < 1 {
		perQuery = 1
	}

	var leads []Lead
	var lastErr error
	for _, phrase := range websearchPhrases {
		found, err := p.searchOne(ctx, q.Name+" "+phrase, perQuery)
		if err != nil {
			lastErr = err
			continue
		}
		leads = append(leads, found...)
	}
	if len(leads) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return leads, nil
}

func (p *WebSearchProvider) searchOne(ctx context.Context, query string, limit int) ([]Lead, error) {
	base := p.BaseURL
	if base == "" {
		base = "https://www.bing.com"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pageURL := base + "/images/search?q=" + url.QueryEscape(query) + "&form=HDRSC2"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	ua := p.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0"
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
		return nil, fmt.Errorf("websearch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var leads []Lead
	for _, m := range murlRe.FindAllStringSubmatch(string(body), limit) {
		img := strings.ReplaceAll(m[1], `\/`, "/")
		if img == "" {
			continue
		}
		leads = append(leads, Lead{
			Title:    query + " " + img[strings.LastIndex(img, "/")+1:],
			ImageURL: img,
			PageURL:  pageURL,
		})
	}
	return leads, nil
}
