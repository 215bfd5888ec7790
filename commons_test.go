package ageline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtmetaDate(t *testing.T) {
	t.Parallel()

	raw := func(v string) json.RawMessage {
		return json.RawMessage(`{"value":` + v + `}`)
	}

	tests := []struct {
		name       string
		extmeta    map[string]json.RawMessage
		wantDate   string
		wantMethod string
		wantOK     bool
	}{
		{
			name: "original capture field preferred",
			extmeta: map[string]json.RawMessage{
				"DateTimeOriginal": raw(`"2019-05-17 13:44:02"`),
				"DateTime":         raw(`"2021-01-01"`),
			},
			wantDate:   "2019-05-17",
			wantMethod: "commons:DateTimeOriginal",
			wantOK:     true,
		},
		{
			name: "falls back past unparseable field",
			extmeta: map[string]json.RawMessage{
				"DateTimeOriginal": raw(`"circa 1990"`),
				"DateTime":         raw(`"2019:05:17 13:44:02"`),
			},
			wantDate:   "2019-05-17",
			wantMethod: "commons:DateTime",
			wantOK:     true,
		},
		{
			name:    "nothing usable",
			extmeta: map[string]json.RawMessage{"Artist": raw(`"Someone"`)},
		},
		{
			name:    "empty",
			extmeta: nil,
		},
	}
	for _, tt := range tests {
		date, method, ok := extmetaDate(tt.extmeta)
		if ok != tt.wantOK || date != tt.wantDate || method != tt.wantMethod {
			t.Errorf("%s: extmetaDate = (%q, %q, %v), want (%q, %q, %v)",
				tt.name, date, method, ok, tt.wantDate, tt.wantMethod, tt.wantOK)
		}
	}
}

func TestCommonsProviderSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("list") {
		case "search":
			_, _ = w.Write([]byte(`{"query":{"search":[
				{"title":"File:Subject 2019.jpg"},
				{"title":"Subject article"}
			]}}`))
		default:
			_, _ = w.Write([]byte(`{"query":{"pages":{"1":{
				"title":"File:Subject 2019.jpg",
				"fullurl":"https://commons.wikimedia.org/wiki/File:Subject_2019.jpg",
				"imageinfo":[{
					"url":"https://upload.wikimedia.org/subject_2019.jpg",
					"extmetadata":{"DateTimeOriginal":{"value":"2019-05-17 13:44:02"}}
				}]
			}}}}`))
		}
	}))
	t.Cleanup(srv.Close)

	p := &CommonsProvider{BaseURL: srv.URL, HTTPClient: srv.Client()}
	leads, err := p.Search(context.Background(), Query{Name: "Subject"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("got %d leads, want 1 (non-File results filtered)", len(leads))
	}

	lead := leads[0]
	if lead.ImageURL != "https://upload.wikimedia.org/subject_2019.jpg" {
		t.Errorf("ImageURL = %q", lead.ImageURL)
	}
	if lead.Meta[MetaCommonsDate] != "2019-05-17" {
		t.Errorf("commons_date = %q, want 2019-05-17", lead.Meta[MetaCommonsDate])
	}
	if lead.Meta[MetaCommonsDateMethod] != "commons:DateTimeOriginal" {
		t.Errorf("commons_date_method = %q", lead.Meta[MetaCommonsDateMethod])
	}
}

func TestCommonsProviderServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	p := &CommonsProvider{BaseURL: srv.URL, HTTPClient: srv.Client()}
	if _, err := p.Search(context.Background(), Query{Name: "Subject"}, 10); err == nil {
		t.Error("provider must surface a server failure to the orchestrator")
	}
}
