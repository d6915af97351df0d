package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/hoanghai1803/bookshelf/internal/readinglists"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeJSON encodes v as JSON and writes it to the response with the given
// HTTP status code. Content-Type is always set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; the status cannot change anymore.
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response with the given HTTP status code.
// The response body is {"error": "message"}.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeListError maps a controller error to a response. List validation
// errors are localized for the request; anything else is reported as an
// opaque server error.
func writeListError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var listErr *readinglists.ListError
	if errors.As(err, &listErr) {
		msg := listErr.Localized(LanguageFrom(r.Context()))
		switch {
		case errors.Is(listErr.Kind, readinglists.ErrListExistsWithSameName):
			writeError(w, http.StatusConflict, msg)
		case errors.Is(listErr.Kind, readinglists.ErrListNotFound):
			writeError(w, http.StatusNotFound, msg)
		default:
			slog.Error("failed to "+action, "list", listErr.Name, "error", err)
			writeError(w, http.StatusInternalServerError, msg)
		}
		return
	}
	if errors.Is(err, readinglists.ErrClosed) {
		writeError(w, http.StatusServiceUnavailable, "Service is shutting down")
		return
	}

	slog.Error("failed to "+action, "error", err)
	writeError(w, http.StatusInternalServerError, "Failed to "+action)
}

// listName extracts the unescaped {name} URL parameter.
func listName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
