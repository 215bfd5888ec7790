package ageline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIMDbProviderSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/find"):
			_, _ = w.Write([]byte(`<html><body>
				<td class="result_text"><a href="/name/nm0000138/">Test Subject</a></td>
			</body></html>`))
		case strings.Contains(r.URL.Path, "mediaindex"):
			_, _ = w.Write([]byte(`<html><body>
				<img src="https://m.media-amazon.com/images/M/still1._V1_UX100.jpg" alt="Subject at premiere"/>
				<img src="https://m.media-amazon.com/images/M/still2._V1_UX100.jpg" alt="Subject interview"/>
				<img src="https://other.example.org/ad.jpg" alt="ad"/>
			</body></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	p := &IMDbProvider{BaseURL: srv.URL, HTTPClient: srv.Client()}
	leads, err := p.Search(context.Background(), Query{Name: "Test Subject"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("got %d leads, want 2 media-amazon stills", len(leads))
	}
	if leads[0].ImageURL != "https://m.media-amazon.com/images/M/still1..jpg" {
		t.Errorf("ImageURL = %q (resize suffix should be stripped)", leads[0].ImageURL)
	}
	if leads[0].Title != "Subject at premiere" {
		t.Errorf("Title = %q", leads[0].Title)
	}
}

func TestIMDbProviderNoMatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>no results</body></html>`))
	}))
	t.Cleanup(srv.Close)

	p := &IMDbProvider{BaseURL: srv.URL, HTTPClient: srv.Client()}
	leads, err := p.Search(context.Background(), Query{Name: "Nobody"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(leads) != 0 {
		t.Errorf("got %d leads, want none", len(leads))
	}
}
