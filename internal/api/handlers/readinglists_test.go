package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hoanghai1803/bookshelf/internal/feeds"
	"github.com/hoanghai1803/bookshelf/internal/models"
)

const parisKey = "https://en.wikipedia.org/wiki/Paris"

func TestCreateReadingList(t *testing.T) {
	ctrl, _ := newTestController(t)

	body := `{"name": "Travel", "description": "Trips", "articles": ["` + parisKey + `"]}`
	w := serve(t, http.MethodPost, "/api/reading-lists", "/api/reading-lists", body, CreateReadingList(ctrl))

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp struct {
		List   models.ReadingList `json:"list"`
		Result struct {
			Added []string `json:"added"`
		} `json:"result"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.List.Name != "Travel" {
		t.Errorf("list name = %q, want %q", resp.List.Name, "Travel")
	}
	if len(resp.List.Entries) != 1 || resp.List.Entries[0].DisplayTitle == nil || *resp.List.Entries[0].DisplayTitle != "Paris" {
		t.Errorf("entries = %+v, want one entry titled Paris", resp.List.Entries)
	}
	if len(resp.Result.Added) != 1 {
		t.Errorf("added = %v, want 1 key", resp.Result.Added)
	}
}

func TestCreateReadingList_Conflict(t *testing.T) {
	ctrl, _ := newTestController(t)
	if _, _, err := ctrl.CreateList(context.Background(), "Travel", nil, nil); err != nil {
		t.Fatalf("seeding list: %v", err)
	}

	w := serve(t, http.MethodPost, "/api/reading-lists", "/api/reading-lists", `{"name": "TRAVEL"}`, CreateReadingList(ctrl))
	if w.Code != http.StatusConflict {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusConflict)
	}
	if got, want := decodeError(t, w), "A reading list already exists with the name ‟TRAVEL”"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestCreateReadingList_BadRequests(t *testing.T) {
	ctrl, _ := newTestController(t)

	for _, body := range []string{"not json", `{"name": "  "}`, `{}`} {
		t.Run(body, func(t *testing.T) {
			w := serve(t, http.MethodPost, "/api/reading-lists", "/api/reading-lists", body, CreateReadingList(ctrl))
			if w.Code != http.StatusBadRequest {
				t.Errorf("got status %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestGetReadingLists(t *testing.T) {
	ctrl, _ := newTestController(t)

	w := serve(t, http.MethodGet, "/api/reading-lists", "/api/reading-lists", "", GetReadingLists(ctrl))
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("empty body = %q, want %q", got, "[]\n")
	}

	ctx := context.Background()
	if _, _, err := ctrl.CreateList(ctx, "Travel", nil, models.ArticlesFromKeys([]string{parisKey})); err != nil {
		t.Fatalf("seeding list: %v", err)
	}

	w = serve(t, http.MethodGet, "/api/reading-lists", "/api/reading-lists", "", GetReadingLists(ctrl))
	var lists []models.ReadingList
	if err := json.NewDecoder(w.Body).Decode(&lists); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(lists) != 1 || lists[0].EntryCount != 1 {
		t.Errorf("lists = %+v, want Travel with 1 entry", lists)
	}
}

func TestGetReadingList_NotFoundLocalized(t *testing.T) {
	ctrl, _ := newTestController(t)

	rtr := serveWithLanguage("de")
	w := rtr(t, GetReadingList(ctrl), "/api/reading-lists/Reisen")

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusNotFound)
	}
	want := "Eine Leseliste mit dem Namen ‟Reisen” wurde nicht gefunden. Bitte überprüfe den Namen."
	if got := decodeError(t, w); got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

// serveWithLanguage returns a GET helper that sets the response language the
// way the router's middleware does.
func serveWithLanguage(acceptLanguage string) func(t *testing.T, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	return func(t *testing.T, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
		t.Helper()
		withLang := func(w http.ResponseWriter, r *http.Request) {
			h(w, r.WithContext(WithLanguage(r.Context(), MatchLanguage(acceptLanguage))))
		}
		return serve(t, http.MethodGet, "/api/reading-lists/{name}", target, "", withLang)
	}
}

func TestEntriesLifecycle(t *testing.T) {
	ctrl, _ := newTestController(t)
	if _, _, err := ctrl.CreateList(context.Background(), "Summer Trips", nil, nil); err != nil {
		t.Fatalf("seeding list: %v", err)
	}

	const pattern = "/api/reading-lists/{name}/entries"
	const target = "/api/reading-lists/summer%20trips/entries"
	body := `{"articles": ["` + parisKey + `", "", "` + parisKey + `"]}`

	w := serve(t, http.MethodPost, pattern, target, body, AddEntries(ctrl))
	if w.Code != http.StatusOK {
		t.Fatalf("add: got status %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var result models.AddResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding add response: %v", err)
	}
	if len(result.Added) != 1 || result.Unresolved != 1 {
		t.Errorf("add result = %+v, want 1 added and 1 unresolved", result)
	}

	w = serve(t, http.MethodPost, pattern, target, body, AddEntries(ctrl))
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding second add response: %v", err)
	}
	if len(result.Added) != 0 || len(result.Skipped) != 1 {
		t.Errorf("second add result = %+v, want 1 skipped", result)
	}

	w = serve(t, http.MethodDelete, pattern, target, `{"articles": ["`+parisKey+`"]}`, RemoveEntries(ctrl))
	if w.Code != http.StatusOK {
		t.Fatalf("remove: got status %d, want %d", w.Code, http.StatusOK)
	}

	list, err := ctrl.ListByName(context.Background(), "Summer Trips")
	if err != nil {
		t.Fatalf("ListByName() error: %v", err)
	}
	if len(list.Entries) != 0 {
		t.Errorf("got %d entries after remove, want 0", len(list.Entries))
	}
}

func TestRemoveEntries_UnknownList(t *testing.T) {
	ctrl, _ := newTestController(t)

	w := serve(t, http.MethodDelete, "/api/reading-lists/{name}/entries", "/api/reading-lists/Nowhere/entries",
		`{"articles": ["`+parisKey+`"]}`, RemoveEntries(ctrl))
	if w.Code != http.StatusNotFound {
		t.Errorf("got status %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDeleteReadingLists(t *testing.T) {
	ctrl, _ := newTestController(t)
	if _, _, err := ctrl.CreateList(context.Background(), "Travel", nil, nil); err != nil {
		t.Fatalf("seeding list: %v", err)
	}

	w := serve(t, http.MethodDelete, "/api/reading-lists", "/api/reading-lists", `{"names": ["Travel", "Unknown"]}`, DeleteReadingLists(ctrl))
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}

	w = serve(t, http.MethodGet, "/api/reading-lists/{name}", "/api/reading-lists/Travel", "", GetReadingList(ctrl))
	if w.Code != http.StatusNotFound {
		t.Errorf("lookup after delete: got status %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetListsForArticle(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()
	for _, name := range []string{"Travel", "France"} {
		if _, _, err := ctrl.CreateList(ctx, name, nil, models.ArticlesFromKeys([]string{parisKey})); err != nil {
			t.Fatalf("seeding %s: %v", name, err)
		}
	}

	w := serve(t, http.MethodGet, "/api/articles/lists", "/api/articles/lists?key="+parisKey, "", GetListsForArticle(ctrl))
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	var lists []models.ReadingList
	if err := json.NewDecoder(w.Body).Decode(&lists); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(lists) != 2 {
		t.Errorf("got %d lists, want 2", len(lists))
	}

	w = serve(t, http.MethodGet, "/api/articles/lists", "/api/articles/lists", "", GetListsForArticle(ctrl))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing key: got status %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestImportFeeds(t *testing.T) {
	ctrl, _ := newTestController(t)
	if _, _, err := ctrl.CreateList(context.Background(), "Travel", nil, nil); err != nil {
		t.Fatalf("seeding list: %v", err)
	}

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>`+
			`<item><title>Paris</title><link>%s</link></item></channel></rss>`, parisKey)
	}))
	defer feedSrv.Close()

	h := ImportFeeds(ctrl, feeds.NewFetcher(), feeds.ImportOptions{MaxItems: 10})
	body := `{"feed_urls": ["` + feedSrv.URL + `/feed.xml"]}`
	w := serve(t, http.MethodPost, "/api/reading-lists/{name}/import", "/api/reading-lists/Travel/import", body, h)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Result      models.AddResult   `json:"result"`
		FailedFeeds []feeds.FailedFeed `json:"failed_feeds"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Result.Added) != 1 || resp.Result.Added[0] != parisKey {
		t.Errorf("added = %v, want [%s]", resp.Result.Added, parisKey)
	}
	if len(resp.FailedFeeds) != 0 {
		t.Errorf("failed feeds = %v, want none", resp.FailedFeeds)
	}

	w = serve(t, http.MethodPost, "/api/reading-lists/{name}/import", "/api/reading-lists/Travel/import", `{"feed_urls": []}`, h)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty feed_urls: got status %d, want %d", w.Code, http.StatusBadRequest)
	}
}
