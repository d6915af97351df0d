package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/bookshelf/internal/history"
)

// GetHistorySnapshot handles GET /api/history/snapshot. It returns the
// current user history snapshot and the reconciler state without emitting
// anything.
func GetHistorySnapshot(funnel *history.Funnel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := funnel.Snapshot(r.Context())
		if err != nil {
			slog.Error("failed to compute user history snapshot", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to compute snapshot")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"state":    funnel.State().String(),
			"snapshot": snap,
		})
	}
}
