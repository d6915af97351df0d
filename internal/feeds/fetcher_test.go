package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const rssTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>%s</title>
<link>https://example.com</link>
<description>test feed</description>
%s
</channel>
</rss>`

func rssItem(link string) string {
	return fmt.Sprintf("<item><title>%s</title><link>%s</link></item>", link, link)
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/travel.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, rssTemplate, "Travel",
			rssItem("https://en.wikipedia.org/wiki/Paris")+
				rssItem("https://en.wikipedia.org/wiki/Rome"))
	})
	mux.HandleFunc("/europe.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, rssTemplate, "Europe",
			rssItem("https://en.wikipedia.org/wiki/Rome")+
				rssItem("https://en.wikipedia.org/wiki/Oslo"))
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher() *Fetcher {
	f := NewFetcher()
	f.delay = 0
	return f
}

func TestFetcher_Import(t *testing.T) {
	srv := newFeedServer(t)

	result, err := newTestFetcher().Import(context.Background(), []string{
		srv.URL + "/travel.xml",
		srv.URL + "/europe.xml",
	}, ImportOptions{})
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	want := []string{
		"https://en.wikipedia.org/wiki/Paris",
		"https://en.wikipedia.org/wiki/Rome",
		"https://en.wikipedia.org/wiki/Oslo",
	}
	if len(result.Keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", result.Keys, want)
	}
	for i := range want {
		if result.Keys[i] != want[i] {
			t.Errorf("Keys[%d] = %q, want %q", i, result.Keys[i], want[i])
		}
	}
	if len(result.Failed) != 0 {
		t.Errorf("Failed = %v, want none", result.Failed)
	}
}

func TestFetcher_ImportRecordsFailures(t *testing.T) {
	srv := newFeedServer(t)

	result, err := newTestFetcher().Import(context.Background(), []string{
		srv.URL + "/travel.xml",
		srv.URL + "/broken.xml",
		"ftp://example.com/feed.xml",
	}, ImportOptions{MaxItems: 1})
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	if len(result.Keys) != 1 || result.Keys[0] != "https://en.wikipedia.org/wiki/Paris" {
		t.Errorf("Keys = %v, want [Paris]", result.Keys)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("got %d failed feeds, want 2: %v", len(result.Failed), result.Failed)
	}
}

func TestUserAgentTransport(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	resp, err := NewFetcher().client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()

	if gotUA == "" || gotUA == "Go-http-client/1.1" {
		t.Errorf("User-Agent = %q, want the fetcher's agent", gotUA)
	}
}
