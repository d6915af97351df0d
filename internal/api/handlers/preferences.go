package handlers

import (
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/hoanghai1803/bookshelf/internal/eventlog"
	"github.com/hoanghai1803/bookshelf/internal/history"
	"github.com/hoanghai1803/bookshelf/internal/storage"
)

// reservedPreferences are owned by the server and cannot be written through
// the API.
var reservedPreferences = map[string]bool{
	history.BaselinePreferenceKey:   true,
	eventlog.InstallIDPreferenceKey: true,
}

// GetPreferences handles GET /api/preferences. It returns all user
// preferences as a JSON object.
func GetPreferences(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefs, err := store.GetAllPreferences(r.Context())
		if err != nil {
			slog.Error("failed to get preferences", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get preferences")
			return
		}

		writeJSON(w, http.StatusOK, prefs)
	}
}

// UpdatePreferences handles PUT /api/preferences. It accepts a JSON object
// where each key-value pair is saved as a separate preference.
func UpdatePreferences(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body map[string]jsoniter.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		for key := range body {
			if reservedPreferences[key] {
				writeError(w, http.StatusBadRequest, "preference "+key+" is read-only")
				return
			}
		}

		for key, value := range body {
			if err := store.SetPreference(ctx, key, value); err != nil {
				slog.Error("failed to set preference", "key", key, "error", err)
				writeError(w, http.StatusInternalServerError, "Failed to save preferences")
				return
			}
		}

		prefs, err := store.GetAllPreferences(ctx)
		if err != nil {
			slog.Error("failed to get preferences after save", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get preferences")
			return
		}

		writeJSON(w, http.StatusOK, prefs)
	}
}
