// Package history computes user history snapshots from reading list usage
// and emits one only when it differs from the last emitted baseline.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Event schema and revision of the user history snapshot.
const (
	Schema   = "MobileWikiAppiOSUserHistory"
	Revision = 17990229
)

// ErrNoBaseline is returned by LogIfChanged when it is called before a
// baseline was established. It indicates a caller bug.
var ErrNoBaseline = errors.New("user history snapshot has no baseline")

// Counter supplies the reading list aggregates. Both counts must come from
// the same read so they describe one moment.
type Counter interface {
	Counts(ctx context.Context) (lists, items int, err error)
}

// Flags supplies reading list feature flags.
type Flags interface {
	SyncEnabled() bool
	DefaultListEnabled() bool
}

// Session reports whether a user is logged in.
type Session interface {
	IsLoggedIn() bool
}

// Locale reports the primary UI language code. An empty code means unknown.
type Locale interface {
	LanguageCode() string
}

// Emitter hands events to the event log. Log calls ack with the logged fields
// only after the event was written.
type Emitter interface {
	StandardFields() map[string]any
	Log(ctx context.Context, schema string, revision int, fields map[string]any, ack func(map[string]any) error) error
}

// BaselineStore persists the last emitted snapshot.
type BaselineStore interface {
	// Load returns the baseline and whether one exists.
	Load(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, s Snapshot) error
}

// State is the reconciler state.
type State int

const (
	Idle State = iota
	BaselineEstablished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case BaselineEstablished:
		return "baseline_established"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Deps are the collaborators a Funnel reads from and writes to.
type Deps struct {
	Counter  Counter
	Flags    Flags
	Session  Session
	Locale   Locale
	Emitter  Emitter
	Baseline BaselineStore
}

// Funnel reconciles the current user history snapshot against the baseline.
type Funnel struct {
	deps        Deps
	established atomic.Bool
}

// NewFunnel returns a Funnel in the Idle state.
func NewFunnel(deps Deps) *Funnel {
	return &Funnel{deps: deps}
}

// State reports whether a baseline has been established in this process.
func (f *Funnel) State() State {
	if f.established.Load() {
		return BaselineEstablished
	}
	return Idle
}

// Snapshot computes the current snapshot. Count failures fail the whole
// computation. Standard fields win over metric fields on a key collision.
func (f *Funnel) Snapshot(ctx context.Context) (Snapshot, error) {
	snap, _, err := f.snapshot(ctx)
	return snap, err
}

func (f *Funnel) snapshot(ctx context.Context) (Snapshot, []string, error) {
	lists, items, err := f.deps.Counter.Counts(ctx)
	if err != nil {
		return nil, nil, err
	}

	lang := f.deps.Locale.LanguageCode()
	if lang == "" {
		lang = DefaultLanguage
	}

	snap := Snapshot{
		FieldListCount:       lists,
		FieldItemCount:       items,
		FieldSyncEnabled:     f.deps.Flags.SyncEnabled(),
		FieldShowDefault:     f.deps.Flags.DefaultListEnabled(),
		FieldPrimaryLanguage: lang,
		FieldIsAnon:          !f.deps.Session.IsLoggedIn(),
	}

	standard := f.deps.Emitter.StandardFields()
	excluded := make([]string, 0, len(standard))
	for k, v := range standard {
		snap[k] = v
		excluded = append(excluded, k)
	}
	return snap, excluded, nil
}

// EstablishBaseline saves the current snapshot as the baseline without
// emitting anything.
func (f *Funnel) EstablishBaseline(ctx context.Context) error {
	snap, err := f.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("computing user history snapshot: %w", err)
	}
	if err := f.deps.Baseline.Save(ctx, snap); err != nil {
		return err
	}
	f.established.Store(true)
	slog.Debug("established user history baseline", "fields", len(snap))
	return nil
}

// EnsureBaseline adopts a stored baseline when there is one and establishes
// a new one otherwise. It reports whether a new baseline was saved.
func (f *Funnel) EnsureBaseline(ctx context.Context) (bool, error) {
	_, ok, err := f.deps.Baseline.Load(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		f.established.Store(true)
		return false, nil
	}
	if err := f.EstablishBaseline(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// LogIfChanged emits the current snapshot when it differs from the baseline
// in any non-standard field. The baseline is replaced only once the event
// log acknowledged the event. It reports whether an event was emitted,
// which can be true alongside an error when saving the baseline failed.
func (f *Funnel) LogIfChanged(ctx context.Context) (bool, error) {
	current, excluded, err := f.snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("computing user history snapshot: %w", err)
	}

	baseline, ok, err := f.deps.Baseline.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		slog.Error("user history snapshot requested before a baseline was established")
		return false, ErrNoBaseline
	}

	if current.EqualExcluding(baseline, excluded) {
		slog.Debug("user history snapshots are identical; not logging")
		return false, nil
	}

	slog.Debug("user history snapshots differ; logging new snapshot")
	var emitted bool
	err = f.deps.Emitter.Log(ctx, Schema, Revision, current, func(fields map[string]any) error {
		emitted = true
		if err := f.deps.Baseline.Save(ctx, Snapshot(fields)); err != nil {
			return err
		}
		f.established.Store(true)
		return nil
	})
	if err != nil {
		return emitted, fmt.Errorf("logging user history snapshot: %w", err)
	}
	return true, nil
}
