package commands

import (
	"github.com/dshills/humane/internal/engine/behavior"
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/style"
)

// AddFactory is an add handler that builds the command inserting text at
// positions it governs.
type AddFactory interface {
	behavior.Handler
	NewAdd(text string, styles []style.ID) history.Command
}

// DeleteFactory is a delete handler that builds the command deleting the
// selection.
type DeleteFactory interface {
	behavior.Handler
	NewDelete() history.Command
}

// StyleFactory is a style handler that builds the command restyling the
// selection.
type StyleFactory interface {
	behavior.Handler
	NewStyle(o style.Overlay) history.Command
}

// DefaultAdd inserts text as typed.
type DefaultAdd struct{}

func (DefaultAdd) Kind() behavior.Kind { return behavior.Add }
func (DefaultAdd) StopBit() bool       { return false }

// NewAdd implements AddFactory.
func (DefaultAdd) NewAdd(text string, styles []style.ID) history.Command {
	return &SimpleAddText{Text: text, Styles: styles}
}

// DefaultDelete deletes the selection.
type DefaultDelete struct{}

func (DefaultDelete) Kind() behavior.Kind { return behavior.Delete }
func (DefaultDelete) StopBit() bool       { return false }

// NewDelete implements DeleteFactory.
func (DefaultDelete) NewDelete() history.Command {
	return &SimpleDeleteText{}
}

// DefaultStyle applies overlays to the selection.
type DefaultStyle struct{}

func (DefaultStyle) Kind() behavior.Kind { return behavior.Style }
func (DefaultStyle) StopBit() bool       { return false }

// NewStyle implements StyleFactory.
func (DefaultStyle) NewStyle(o style.Overlay) history.Command {
	return &SimpleStyle{Overlay: o}
}

// DefaultHandlers returns the handlers of the default action.
func DefaultHandlers() []behavior.Handler {
	return []behavior.Handler{DefaultAdd{}, DefaultDelete{}, DefaultStyle{}}
}

// Names of the lock behaviors.
const (
	LockBehavior       = "LOCK"
	SystemLockBehavior = "SYSTEM LOCK"
	FormLockBehavior   = "FORM LOCK"
)

// LockAdd redirects typing away from locked text. With Form set, text is
// always placed after the locked run, silently.
type LockAdd struct {
	Name string
	Form bool
}

func (LockAdd) Kind() behavior.Kind    { return behavior.Add }
func (LockAdd) StopBit() bool          { return true }
func (h LockAdd) BehaviorName() string { return h.Name }

// NewAdd implements AddFactory.
func (h LockAdd) NewAdd(text string, styles []style.ID) history.Command {
	return &LockAddText{Behavior: h.Name, Form: h.Form, Text: text, Styles: styles}
}

// LockDelete keeps locked text from being deleted.
type LockDelete struct{ Name string }

func (LockDelete) Kind() behavior.Kind    { return behavior.Delete }
func (LockDelete) StopBit() bool          { return true }
func (h LockDelete) BehaviorName() string { return h.Name }

// LockStyle keeps locked text from being restyled.
type LockStyle struct{ Name string }

func (LockStyle) Kind() behavior.Kind    { return behavior.Style }
func (LockStyle) StopBit() bool          { return true }
func (h LockStyle) BehaviorName() string { return h.Name }

// RegisterBehaviors declares the built-in lock behaviors.
func RegisterBehaviors(s *behavior.Store) error {
	for _, name := range []string{LockBehavior, SystemLockBehavior, FormLockBehavior} {
		add := LockAdd{Name: name, Form: name == FormLockBehavior}
		if err := s.Register(name, add, LockDelete{Name: name}, LockStyle{Name: name}); err != nil {
			return err
		}
	}
	return nil
}

// NewBehaviorStore returns a behavior store with the default handlers and
// the built-in behaviors registered.
func NewBehaviorStore() (*behavior.Store, error) {
	s, err := behavior.NewStore(DefaultHandlers()...)
	if err != nil {
		return nil, err
	}
	if err := RegisterBehaviors(s); err != nil {
		return nil, err
	}
	return s, nil
}

// steps holds the sub-commands a composite command ran, most recent
// first.
type steps struct {
	Applied history.List `json:"applied,omitempty"`
}

func (s *steps) run(env *history.Env, cmd history.Command) error {
	if err := cmd.Execute(env); err != nil {
		return err
	}
	s.Applied = append(history.List{cmd}, s.Applied...)
	return nil
}

func (s *steps) undo(env *history.Env) error {
	for _, cmd := range s.Applied {
		if err := cmd.Undo(env); err != nil {
			return err
		}
	}
	return nil
}

func stops(h behavior.Handler, cmd history.Command) bool {
	if s, ok := cmd.(history.Stopper); ok {
		return s.StopBit()
	}
	return h.StopBit()
}
