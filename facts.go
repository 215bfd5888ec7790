package ageline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// Facts are the canonical biographical facts for one subject, resolved from
// Wikipedia and Wikidata and cached per slug.
type Facts struct {
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	BirthDate      string `json:"birth_date"` // YYYY-MM-DD
	BirthYear      int    `json:"birth_year"`
	TargetYearEnd  int    `json:"target_year_end"`
	WikipediaTitle string `json:"wikipedia_title"`
	WikidataID     string `json:"wikidata_id"`
}

// ResolveFacts matches a subject name to a Wikipedia article, follows it to
// Wikidata, and extracts the birth date. Results are cached; pass force=true
// to re-resolve. A subject that cannot be matched or has no birth date fails
// with *IdentityError.
func (cfg *Config) ResolveFacts(ctx context.Context, name string, force bool) (*Facts, error) {
	cfg.defaults()

	fp := cfg.FactsPath(name)
	if !force {
		if cached, err := loadFacts(fp); err == nil {
			return cached, nil
		}
	}

	title, qid, err := cfg.wikipediaLookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, &IdentityError{Name: name, Reason: "no matching Wikipedia article"}
	}
	if qid == "" {
		return nil, &IdentityError{Name: name, Reason: "article has no Wikidata id"}
	}

	birthDate, err := cfg.wikidataBirthDate(ctx, qid)
	if err != nil {
		return nil, err
	}
	if birthDate == "" {
		return nil, &IdentityError{Name: name, Reason: "no birth date on Wikidata entity " + qid}
	}

	facts := &Facts{
		Name:           name,
		Slug:           Slugify(name),
		BirthDate:      birthDate,
		BirthYear:      yearOf(birthDate),
		TargetYearEnd:  cfg.TargetYearEnd,
		WikipediaTitle: title,
		WikidataID:     qid,
	}
	if err := saveJSON(fp, facts); err != nil {
		return nil, fmt.Errorf("persist facts: %w", err)
	}
	return facts, nil
}

// wikipediaLookup finds the best-matching article title for name and the
// Wikidata item it links to.
func (cfg *Config) wikipediaLookup(ctx context.Context, name string) (title, qid string, err error) {
	var search struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	err = cfg.wikiAPI(ctx, url.Values{
		"action":   {"query"},
		"format":   {"json"},
		"list":     {"search"},
		"srsearch": {name},
		"srlimit":  {"1"},
	}, &search)
	if err != nil {
		return "", "", err
	}
	if len(search.Query.Search) == 0 {
		return "", "", nil
	}
	title = search.Query.Search[0].Title

	var props struct {
		Query struct {
			Pages map[string]struct {
				PageProps struct {
					WikibaseItem string `json:"wikibase_item"`
				} `json:"pageprops"`
			} `json:"pages"`
		} `json:"query"`
	}
	err = cfg.wikiAPI(ctx, url.Values{
		"action": {"query"},
		"format": {"json"},
		"prop":   {"pageprops"},
		"titles": {title},
	}, &props)
	if err != nil {
		return "", "", err
	}
	for _, page := range props.Query.Pages {
		if page.PageProps.WikibaseItem != "" {
			qid = page.PageProps.WikibaseItem
			break
		}
	}
	return title, qid, nil
}

// wikidataBirthDate reads the P569 (date of birth) claim from the entity's
// JSON dump. Wikidata times look like "+1974-11-11T00:00:00Z".
func (cfg *Config) wikidataBirthDate(ctx context.Context, qid string) (string, error) {
	var body struct {
		Entities map[string]struct {
			Claims map[string][]struct {
				MainSnak struct {
					DataValue struct {
						Value struct {
							Time string `json:"time"`
						} `json:"value"`
					} `json:"datavalue"`
				} `json:"mainsnak"`
			} `json:"claims"`
		} `json:"entities"`
	}
	endpoint := cfg.WikidataEntityURL + "/" + qid + ".json"
	if err := cfg.getJSON(ctx, endpoint, &body); err != nil {
		return "", err
	}

	entity, ok := body.Entities[qid]
	if !ok {
		return "", nil
	}
	claims := entity.Claims["P569"]
	if len(claims) == 0 {
		return "", nil
	}

	t := strings.TrimPrefix(claims[0].MainSnak.DataValue.Value.Time, "+")
	if len(t) < 10 {
		return "", nil
	}
	date := t[:10]
	// Precision below a day leaves month/day as "00"; the year is still usable.
	date = strings.ReplaceAll(date, "-00", "-01")
	if yearOf(date) == 0 {
		return "", nil
	}
	return date, nil
}

func (cfg *Config) wikiAPI(ctx context.Context, params url.Values, dest any) error {
	return cfg.getJSON(ctx, cfg.WikipediaAPIURL+"?"+params.Encode(), dest)
}

func (cfg *Config) getJSON(ctx context.Context, endpoint string, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d from %s", resp.StatusCode, endpoint)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func loadFacts(path string) (*Facts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Facts
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
