package ageline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// commonsDateFields are the extmetadata fields checked for a capture date,
// most specific first.
var commonsDateFields = []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime", "Date"}

// CommonsProvider searches Wikimedia Commons, the curated repository whose
// structured extmetadata carries capture dates. It is the highest-quality
// source and should run first in the provider chain.
type CommonsProvider struct {
	BaseURL    string // default: "https://commons.wikimedia.org/w/api.php"
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration
}

// Name implements SourceProvider.
func (p *CommonsProvider) Name() string { return "wikimedia" }

// Search finds File-namespace pages matching the subject and resolves each to
// a direct image URL plus any structured capture date found in extmetadata.
func (p *CommonsProvider) Search(ctx context.Context, q Query, limit int) ([]Lead, error) {
	titles, err := p.searchFileTitles(ctx, q.Name, limit)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, nil
	}
	return p.fetchImageInfo(ctx, titles)
}

func (p *CommonsProvider) searchFileTitles(ctx context.Context, name string, limit int) ([]string, error) {
	var body struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	err := p.api(ctx, url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"list":        {"search"},
		"srsearch":    {name + " filetype:bitmap"},
		"srlimit":     {strconv.Itoa(limit)},
		"srnamespace": {"6"}, // File namespace
	}, &body)
	if err != nil {
		return nil, err
	}

	var titles []string
	for _, item := range body.Query.Search {
		if strings.HasPrefix(item.Title, "File:") {
			titles = append(titles, item.Title)
		}
	}
	return titles, nil
}

func (p *CommonsProvider) fetchImageInfo(ctx context.Context, titles []string) ([]Lead, error) {
	if len(titles) > 50 {
		titles = titles[:50] // API batch limit
	}

	var body struct {
		Query struct {
			Pages map[string]struct {
				Title     string `json:"title"`
				FullURL   string `json:"fullurl"`
				ImageInfo []struct {
					URL         string                     `json:"url"`
					ExtMetadata map[string]json.RawMessage `json:"extmetadata"`
				} `json:"imageinfo"`
			} `json:"pages"`
		} `json:"query"`
	}
	err := p.api(ctx, url.Values{
		"action":    {"query"},
		"format":    {"json"},
		"prop":      {"imageinfo|info"},
		"titles":    {strings.Join(titles, "|")},
		"iiprop":    {"url|extmetadata"},
		"inprop":    {"url"},
		"redirects": {"1"},
	}, &body)
	if err != nil {
		return nil, err
	}

	var leads []Lead
	for _, page := range body.Query.Pages {
		if page.Title == "" || page.FullURL == "" || len(page.ImageInfo) == 0 {
			continue
		}
		ii := page.ImageInfo[0]
		if ii.URL == "" {
			continue
		}
		lead := Lead{
			Title:    page.Title,
			ImageURL: ii.URL,
			PageURL:  page.FullURL,
		}
		if date, method, ok := extmetaDate(ii.ExtMetadata); ok {
			lead.Meta = map[string]string{
				MetaCommonsDate:       date,
				MetaCommonsDateMethod: method,
			}
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// extmetaDate pulls the best available capture date out of Commons
// extmetadata, returning the raw date-prefix value and a method label naming
// the field it came from.
func extmetaDate(extmeta map[string]json.RawMessage) (date, method string, ok bool) {
	for _, field := range commonsDateFields {
		raw, present := extmeta[field]
		if !present {
			continue
		}
		var node struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &node); err != nil || node.Value == "" {
			continue
		}
		if d, valid := normalizeDatePrefix(node.Value); valid {
			return d, "commons:" + field, true
		}
	}
	return "", "", false
}

func (p *CommonsProvider) api(ctx context.Context, params url.Values, dest any) error {
	base := p.BaseURL
	if base == "" {
		base = "https://commons.wikimedia.org/w/api.php"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", p.UserAgent)

	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("commons api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
