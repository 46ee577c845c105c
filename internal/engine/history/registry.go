package history

import (
	"errors"
	"fmt"
	"sort"
)

// Registry errors.
var (
	ErrDuplicateCommand = errors.New("command already registered")
	ErrUnknownCommand   = errors.New("unknown command")
)

// Scope says who may invoke a registered command by name.
type Scope int

const (
	// UserScope commands are offered to the user.
	UserScope Scope = iota
	// SystemScope commands are only reachable from code.
	SystemScope
)

// Factory returns a fresh command instance.
type Factory func() Command

type registration struct {
	factory Factory
	scope   Scope
}

// Registry maps command names to factories. Every lookup returns a new
// instance, so executed commands never share state.
type Registry struct {
	commands map[string]registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]registration)}
}

// Register adds a command under the name its instances report.
func (r *Registry) Register(f Factory, scope Scope) error {
	name := f().Name()
	if _, ok := r.commands[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, name)
	}
	r.commands[name] = registration{factory: f, scope: scope}
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// built-in commands registered at startup.
func (r *Registry) MustRegister(f Factory, scope Scope) {
	if err := r.Register(f, scope); err != nil {
		panic(err)
	}
}

// Unregister removes name. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	delete(r.commands, name)
}

// Find returns a new instance of the user command called name.
func (r *Registry) Find(name string) (Command, error) {
	reg, ok := r.commands[name]
	if !ok || reg.scope != UserScope {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return reg.factory(), nil
}

// FindSystem returns a new instance of any command called name.
func (r *Registry) FindSystem(name string) (Command, error) {
	reg, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return reg.factory(), nil
}

// Names returns the user command names in alphabetical order.
func (r *Registry) Names() []string {
	var names []string
	for name, reg := range r.commands {
		if reg.scope == UserScope {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
