package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoanghai1803/bookshelf/internal/feeds"
	"github.com/hoanghai1803/bookshelf/internal/models"
	"github.com/hoanghai1803/bookshelf/internal/readinglists"
)

// addResponse is an AddResult plus the batch abort error, if any.
type addResponse struct {
	*models.AddResult
	Error string `json:"error,omitempty"`
}

func newAddResponse(result *models.AddResult) addResponse {
	resp := addResponse{AddResult: result}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	return resp
}

// GetReadingLists handles GET /api/reading-lists. It returns every list with
// its entry count.
func GetReadingLists(ctrl *readinglists.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lists, err := ctrl.Lists(r.Context())
		if err != nil {
			writeListError(w, r, err, "get reading lists")
			return
		}
		writeJSON(w, http.StatusOK, lists)
	}
}

// CreateReadingList handles POST /api/reading-lists. It creates a list with
// optional initial articles and returns 409 when the name is taken.
func CreateReadingList(ctrl *readinglists.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name        string   `json:"name"`
			Description *string  `json:"description"`
			Articles    []string `json:"articles"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if strings.TrimSpace(body.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		list, result, err := ctrl.CreateList(r.Context(), body.Name, body.Description, models.ArticlesFromKeys(body.Articles))
		if err != nil {
			writeListError(w, r, err, "create reading list")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"list":   list,
			"result": newAddResponse(result),
		})
	}
}

// DeleteReadingLists handles DELETE /api/reading-lists. Names are matched
// exactly; unknown names are ignored.
func DeleteReadingLists(ctrl *readinglists.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Names []string `json:"names"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if err := ctrl.DeleteLists(r.Context(), body.Names); err != nil {
			writeListError(w, r, err, "delete reading lists")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// GetReadingList handles GET /api/reading-lists/{name}. It returns the list
// with its entries.
func GetReadingList(ctrl *readinglists.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := ctrl.ListByName(r.Context(), listName(r))
		if err != nil {
			writeListError(w, r, err, "get reading list")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type articlesBody struct {
	Articles []string `json:"articles"`
}

// AddEntries handles POST /api/reading-lists/{name}/entries. The response
// reports which keys were added, skipped, or failed.
func AddEntries(ctrl *readinglists.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body articlesBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		ctx := r.Context()
		list, err := ctrl.ListByName(ctx, listName(r))
		if err != nil {
			writeListError(w, r, err, "add articles")
			return
		}

		result, err := ctrl.AddArticles(ctx, list, models.ArticlesFromKeys(body.Articles))
		if err != nil {
			writeListError(w, r, err, "add articles")
			return
		}
		writeJSON(w, http.StatusOK, newAddResponse(result))
	}
}

// RemoveEntries handles DELETE /api/reading-lists/{name}/entries.
func RemoveEntries(ctrl *readinglists.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body articlesBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if err := ctrl.RemoveArticles(r.Context(), models.ArticlesFromKeys(body.Articles), listName(r)); err != nil {
			writeListError(w, r, err, "remove articles")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	}
}

// ImportFeeds handles POST /api/reading-lists/{name}/import. It adds the
// item links of the given feeds to the list.
func ImportFeeds(ctrl *readinglists.Controller, fetcher *feeds.Fetcher, opts feeds.ImportOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			FeedURLs []string `json:"feed_urls"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if len(body.FeedURLs) == 0 {
			writeError(w, http.StatusBadRequest, "feed_urls is required")
			return
		}

		ctx := r.Context()
		list, err := ctrl.ListByName(ctx, listName(r))
		if err != nil {
			writeListError(w, r, err, "import feeds")
			return
		}

		imported, err := fetcher.Import(ctx, body.FeedURLs, opts)
		if err != nil {
			slog.Error("failed to import feeds", "list", list.Name, "error", err)
			writeError(w, http.StatusBadGateway, "Failed to import feeds")
			return
		}

		result, err := ctrl.AddArticles(ctx, list, models.ArticlesFromKeys(imported.Keys))
		if err != nil {
			writeListError(w, r, err, "import feeds")
			return
		}

		failed := imported.Failed
		if failed == nil {
			failed = []feeds.FailedFeed{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"result":       newAddResponse(result),
			"failed_feeds": failed,
		})
	}
}

// GetListsForArticle handles GET /api/articles/lists?key=... It returns
// every list containing the article.
func GetListsForArticle(ctrl *readinglists.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.URL.Query().Get("key"))
		if key == "" {
			writeError(w, http.StatusBadRequest, "key is required")
			return
		}

		lists, err := ctrl.ListsForArticle(r.Context(), models.Article{Key: key})
		if err != nil {
			writeListError(w, r, err, "get lists for article")
			return
		}
		if lists == nil {
			lists = []models.ReadingList{}
		}
		writeJSON(w, http.StatusOK, lists)
	}
}
