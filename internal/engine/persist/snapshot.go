package persist

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/humane/internal/engine/behavior"
	"github.com/dshills/humane/internal/engine/document"
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/rle"
	"github.com/dshills/humane/internal/engine/style"
)

const currentVersion = 1

// Snapshot is the full saved state of a document and its history.
type Snapshot struct {
	Version    int       `json:"version"`
	Generation string    `json:"generation"`
	SavedAt    time.Time `json:"saved_at"`

	Text         string                         `json:"text"`
	StylePool    []style.Style                  `json:"style_pool"`
	DefaultStyle style.ID                       `json:"default_style"`
	Styles       []rle.Run[style.ID]            `json:"styles"`
	Pools        behavior.Pools                 `json:"behavior_pools"`
	Behaviors    []rle.Run[behavior.BehaviorID] `json:"behaviors"`
	Memento      document.Memento               `json:"memento"`

	History      history.List `json:"history"`
	HistoryIndex int          `json:"history_index"`
	Anchor       int          `json:"anchor"`
	LeapTarget   string       `json:"leap_target,omitempty"`
}

// NewGeneration returns a new time-ordered generation id.
func NewGeneration() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Capture snapshots env under generation. At most historyLimit history
// entries are kept; 0 keeps them all.
func Capture(generation string, env *history.Env, historyLimit int) *Snapshot {
	st := env.Doc.State()
	entries, index := env.History.Capped(historyLimit)
	return &Snapshot{
		Version:      currentVersion,
		Generation:   generation,
		SavedAt:      time.Now(),
		Text:         st.Text,
		StylePool:    st.StylePool,
		DefaultStyle: st.DefaultStyle,
		Styles:       rle.Encode(st.Styles),
		Pools:        st.BehaviorPools,
		Behaviors:    rle.Encode(st.Behaviors),
		Memento:      st.Memento,
		History:      entries,
		HistoryIndex: index,
		Anchor:       env.History.SelectionAnchor(),
		LeapTarget:   env.History.LastLeapTarget(),
	}
}

// State returns the document part of the snapshot.
func (s *Snapshot) State() document.State {
	return document.State{
		Text:          s.Text,
		StylePool:     s.StylePool,
		DefaultStyle:  s.DefaultStyle,
		Styles:        rle.Decode(s.Styles),
		BehaviorPools: s.Pools,
		Behaviors:     rle.Decode(s.Behaviors),
		Memento:       s.Memento,
	}
}

// Apply restores the document and history in env. The behaviors used by
// the document must already be registered in env.Doc.Behaviors().
func (s *Snapshot) Apply(env *history.Env) error {
	if err := env.Doc.Restore(s.State()); err != nil {
		return err
	}
	if err := env.History.Restore(s.History, s.HistoryIndex); err != nil {
		return err
	}
	env.History.SetSelectionAnchor(s.Anchor)
	env.History.SetLastLeapTarget(s.LeapTarget)
	return nil
}

func (s *Snapshot) validate() error {
	if s.Version < 1 || s.Version > currentVersion {
		return fmt.Errorf("unsupported version %d (max supported: %d)", s.Version, currentVersion)
	}
	if s.Generation == "" {
		return errors.New("missing generation")
	}
	if _, err := uuid.Parse(s.Generation); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	n := len([]rune(s.Text))
	if got := rle.Len(s.Styles); got != n {
		return fmt.Errorf("%d style ids for %d characters", got, n)
	}
	if got := rle.Len(s.Behaviors); got != n {
		return fmt.Errorf("%d behavior ids for %d characters", got, n)
	}
	if s.HistoryIndex < -1 || s.HistoryIndex >= len(s.History) {
		return fmt.Errorf("history index %d outside %d entries", s.HistoryIndex, len(s.History))
	}
	return nil
}
