package ageline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// SerpAPIProvider queries Google Images through SerpAPI. It is the only
// provider that issues year-targeted queries, tagging each lead with the
// query year that produced it. Optional: requires an API key.
type SerpAPIProvider struct {
	APIKey     string
	BaseURL    string // default: "https://serpapi.com"
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration
}

// Name implements SourceProvider.
func (p *SerpAPIProvider) Name() string { return "serpapi" }

// Search issues one query per decade of the subject's adult life, from ten
// years after birth through the target year. The decade year lands in each
// lead's meta under MetaQueryYear.
func (p *SerpAPIProvider) Search(ctx context.Context, q Query, limit int) ([]Lead, error) {
	if p.APIKey == "" {
		return nil, nil
	}

	years := queryYears(q.BirthYear, q.TargetYear)
	perYear := limit / len(years)
	if perYear < 1 {
		perYear = 1
	}

	var leads []Lead
	var lastErr error
	for _, year := range years {
		query := fmt.Sprintf("%s %d portrait", q.Name, year)
		found, err := p.searchOne(ctx, query, perYear)
		if err != nil {
			lastErr = err
			continue
		}
		for i := range found {
			if found[i].Meta == nil {
				found[i].Meta = make(map[string]string)
			}
			found[i].Meta[MetaQueryYear] = strconv.Itoa(year)
		}
		leads = append(leads, found...)
	}
	if len(leads) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return leads, nil
}

// queryYears spans the subject's life in decade steps, always ending on the
// target year itself so the recency requirement has a fighting chance.
func queryYears(birthYear, targetYear int) []int {
	if targetYear <= 0 {
		targetYear = time.Now().UTC().Year()
	}
	start := birthYear + 10
	if birthYear <= 0 || start >= targetYear {
		return []int{targetYear}
	}
	var years []int
	for y := start; y < targetYear; y += 10 {
		years = append(years, y)
	}
	return append(years, targetYear)
}

func (p *SerpAPIProvider) searchOne(ctx context.Context, query string, limit int) ([]Lead, error) {
	base := p.BaseURL
	if base == "" {
		base = "https://serpapi.com"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := url.Values{
		"engine":  {"google_images"},
		"q":       {query},
		"api_key": {p.APIKey},
		"num":     {strconv.Itoa(limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search.json?"+params.Encode(), nil)
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
		return nil, fmt.Errorf("serpapi status %d", resp.StatusCode)
	}

	var body struct {
		ImagesResults []struct {
			Original  string `json:"original"`
			Thumbnail string `json:"thumbnail"`
			Link      string `json:"link"`
			Title     string `json:"title"`
		} `json:"images_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var leads []Lead
	for _, it := range body.ImagesResults {
		img := it.Original
		if img == "" {
			img = it.Thumbnail
		}
		if img == "" {
			continue
		}
		title := it.Title
		if title == "" {
			title = "serpapi " + img
		}
		leads = append(leads, Lead{
			Title:    title,
			ImageURL: img,
			PageURL:  it.Link,
		})
		if len(leads) >= limit {
			break
		}
	}
	return leads, nil
}
