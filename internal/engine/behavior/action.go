package behavior

import (
	"strconv"
	"strings"

	"github.com/dshills/humane/internal/engine/pool"
)

// Kind says which kind of edit a handler intercepts.
type Kind int

// Handler kinds, in slot order.
const (
	Add Kind = iota
	Delete
	Style
	Focus
	Unfocus

	// NumKinds is the number of handler slots in an Action.
	NumKinds
)

var kindNames = [NumKinds]string{"add", "delete", "style", "focus", "unfocus"}

// String returns the slot name.
func (k Kind) String() string {
	if k < 0 || k >= NumKinds {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Handler describes how one kind of edit is carried out at positions whose
// behavior includes the handler's action. Handler values are compared for
// equality when actions are interned, so implementations must be
// comparable types (typically small structs).
type Handler interface {
	Kind() Kind

	// StopBit reports whether lower-priority actions should be skipped
	// once this handler has run.
	StopBit() bool
}

// Named marks handlers that belong to a registered behavior such as
// "LOCK". The built-in default handlers do not implement it, which is how
// membership tests tell user-facing behaviors apart from plain editing.
type Named interface {
	Handler
	BehaviorName() string
}

// ActionID identifies an interned Action.
type ActionID = pool.ID

// BehaviorID identifies an interned Behavior.
type BehaviorID = pool.ID

// DefaultAction and DefaultBehavior are the ids of the built-in default
// editing action and of the behavior that holds only that action.
const (
	DefaultAction   ActionID   = 0
	DefaultBehavior BehaviorID = 0
)

// Action is a named bundle of handlers, one optional handler per Kind.
// Generation distinguishes occurrences that carry different storage
// objects; see Store.SetStorage.
type Action struct {
	Name       string
	Generation int
	Slots      [NumKinds]Handler
}

// Handler returns the handler in slot k, or nil.
func (a Action) Handler(k Kind) Handler {
	return a.Slots[k]
}

// ActionRef is the persisted form of an Action. Handlers are not
// serialized; they are looked up again by name when a document is loaded.
type ActionRef struct {
	Name       string `json:"name"`
	Generation int    `json:"gen,omitempty"`
}

// Behavior is a priority stack of actions. The front is consulted first.
type Behavior []ActionID

func behaviorKey(b Behavior) string {
	var sb strings.Builder
	for i, id := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(id)))
	}
	return sb.String()
}

func actionKey(a Action) Action { return a }
