package eventlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hoanghai1803/bookshelf/internal/storage"
)

// Standard field names.
const (
	FieldInstallID = "app_install_id"
	FieldSessionID = "session_id"
	FieldClientDT  = "client_dt"
)

// InstallIDPreferenceKey is the preferences key holding the install id.
const InstallIDPreferenceKey = "app_install_id"

// Standard supplies the contextual fields sent with every event: an install
// id stable across restarts, a per-process session id and the client time.
type Standard struct {
	installID string
	sessionID string
	now       func() time.Time
}

// NewStandard returns a provider with fixed ids.
func NewStandard(installID, sessionID string) *Standard {
	return &Standard{installID: installID, sessionID: sessionID, now: time.Now}
}

// LoadStandard reads the install id from the preferences table, creating and
// saving one on first run, and starts a new session.
func LoadStandard(ctx context.Context, store *storage.Store) (*Standard, error) {
	var installID string
	err := store.GetPreference(ctx, InstallIDPreferenceKey, &installID)
	switch {
	case errors.Is(err, storage.ErrNotFound) || (err == nil && installID == ""):
		installID = uuid.NewString()
		if err := store.SetPreference(ctx, InstallIDPreferenceKey, installID); err != nil {
			return nil, fmt.Errorf("saving install id: %w", err)
		}
		slog.Info("created app install id", "install_id", installID)
	case err != nil:
		return nil, fmt.Errorf("loading install id: %w", err)
	}

	return NewStandard(installID, uuid.NewString()), nil
}

// Fields returns a fresh map of the standard fields.
func (s *Standard) Fields() map[string]any {
	return map[string]any{
		FieldInstallID: s.installID,
		FieldSessionID: s.sessionID,
		FieldClientDT:  s.now().UTC().Format(time.RFC3339),
	}
}
