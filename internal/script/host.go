package script

import (
	"fmt"
	"log/slog"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/humane/internal/engine/behavior"
	"github.com/dshills/humane/internal/engine/commands"
	"github.com/dshills/humane/internal/engine/document"
	"github.com/dshills/humane/internal/engine/history"
)

// ModuleName is the global table scripts declare definitions through.
const ModuleName = "humane"

// BehaviorDef is a behavior declared by a script.
type BehaviorDef struct {
	Name string
	// Add is "", "lock" or "form".
	Add    string
	Delete bool
	Style  bool
	// Apply registers a user command of the same name that attaches the
	// behavior to the selection.
	Apply bool
}

// Handlers returns the handlers overriding the default action.
func (d BehaviorDef) Handlers() []behavior.Handler {
	var hs []behavior.Handler
	switch d.Add {
	case "lock":
		hs = append(hs, commands.LockAdd{Name: d.Name})
	case "form":
		hs = append(hs, commands.LockAdd{Name: d.Name, Form: true})
	}
	if d.Delete {
		hs = append(hs, commands.LockDelete{Name: d.Name})
	}
	if d.Style {
		hs = append(hs, commands.LockStyle{Name: d.Name})
	}
	return hs
}

// Host loads scripts and turns their declarations into behaviors and
// commands.
type Host struct {
	state  *State
	logger *slog.Logger

	behaviors []BehaviorDef
	commands  map[string]*lua.LFunction
	declared  map[string]bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the host logger.
func WithLogger(l *slog.Logger) HostOption {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithStateOptions passes options to the underlying Lua state.
func WithStateOptions(opts ...StateOption) HostOption {
	return func(h *Host) {
		h.state = NewState(opts...)
	}
}

// NewHost creates a host with a fresh sandboxed state.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		logger:   slog.New(slog.DiscardHandler),
		commands: make(map[string]*lua.LFunction),
		declared: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.state == nil {
		h.state = NewState()
	}
	h.state.SetModule(ModuleName, map[string]lua.LGFunction{
		"behavior": h.luaBehavior,
		"command":  h.luaCommand,
	})
	return h
}

// LoadFile runs a script file.
func (h *Host) LoadFile(path string) error {
	if err := h.state.DoFile(path); err != nil {
		return fmt.Errorf("load script %s: %w", path, err)
	}
	h.logger.Info("script loaded", "path", path)
	return nil
}

// LoadString runs a script chunk.
func (h *Host) LoadString(code string) error {
	if err := h.state.DoString(code); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	return nil
}

// Behaviors returns the declared behaviors in declaration order.
func (h *Host) Behaviors() []BehaviorDef {
	return append([]BehaviorDef(nil), h.behaviors...)
}

// CommandNames returns the declared command names, sorted.
func (h *Host) CommandNames() []string {
	names := make([]string, 0, len(h.commands))
	for name := range h.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBehaviors declares every script behavior in s.
func (h *Host) RegisterBehaviors(s *behavior.Store) error {
	for _, d := range h.behaviors {
		if err := s.Register(d.Name, d.Handlers()...); err != nil {
			return fmt.Errorf("register behavior %q: %w", d.Name, err)
		}
	}
	return nil
}

// RegisterCommands adds the script commands to r in the user scope.
func (h *Host) RegisterCommands(r *history.Registry) error {
	for _, d := range h.behaviors {
		if !d.Apply {
			continue
		}
		name := d.Name
		if err := r.Register(func() history.Command { return &commands.Attach{Behavior: name} }, history.UserScope); err != nil {
			return err
		}
	}
	for _, name := range h.CommandNames() {
		f := h.factory(name, h.commands[name])
		if err := r.Register(f, history.UserScope); err != nil {
			return err
		}
	}
	return nil
}

// factory builds commands whose text comes from fn. The function gets the
// selected text and the cursor and must return a string; returning nil
// cancels the command.
func (h *Host) factory(name string, fn *lua.LFunction) history.Factory {
	produce := func(env *history.Env) (string, error) {
		doc := env.Doc
		var selected string
		if sel := doc.Selection(document.Selection).Clamp(doc.Len()); !sel.IsEmpty() {
			selected = doc.Slice(sel.Start, sel.End)
		}
		ret, err := h.state.CallFunction(fn, lua.LString(selected), lua.LNumber(doc.Cursor()))
		if err != nil {
			h.logger.Warn("script command failed", "command", name, "error", err)
			return "", fmt.Errorf("%s: %w", name, err)
		}
		s, ok := ret.(lua.LString)
		if !ok {
			return "", history.Cancel("%s produced no text.", name)
		}
		return string(s), nil
	}
	return func() history.Command {
		return &commands.Generated{Label: name, Produce: produce}
	}
}

// Close releases the Lua state.
func (h *Host) Close() error {
	return h.state.Close()
}

func (h *Host) declare(L *lua.LState, name string) {
	if name == "" {
		L.ArgError(1, "name must not be empty")
	}
	if h.declared[name] {
		L.RaiseError("%v: %q", ErrDuplicateDefinition, name)
	}
	h.declared[name] = true
}

// humane.behavior(name, {add = "lock"|"form", delete = bool, style = bool, apply = bool})
func (h *Host) luaBehavior(L *lua.LState) int {
	name := L.CheckString(1)
	opts := L.OptTable(2, L.NewTable())

	d := BehaviorDef{Name: name}
	switch add := opts.RawGetString("add"); add.Type() {
	case lua.LTNil:
	case lua.LTString:
		d.Add = add.String()
		if d.Add != "lock" && d.Add != "form" {
			L.ArgError(2, fmt.Sprintf("add must be \"lock\" or \"form\", got %q", d.Add))
		}
	default:
		L.ArgError(2, "add must be a string")
	}
	d.Delete = lua.LVAsBool(opts.RawGetString("delete"))
	d.Style = lua.LVAsBool(opts.RawGetString("style"))
	d.Apply = lua.LVAsBool(opts.RawGetString("apply"))

	h.declare(L, name)
	h.behaviors = append(h.behaviors, d)
	h.logger.Debug("behavior declared", "name", name)
	return 0
}

// humane.command(name, function(selected, cursor) return text end)
func (h *Host) luaCommand(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	h.declare(L, name)
	h.commands[name] = fn
	h.logger.Debug("command declared", "name", name)
	return 0
}
