package history

import (
	"errors"
	"fmt"
)

// ErrNotRecording is returned when a recording operation finds no open
// recording.
var ErrNotRecording = errors.New("not recording")

// Recorder is a stack of open recordings. Each recording collects the
// commands executed through it, most recent first, so a caller can undo
// a whole group at once. Recordings nest.
type Recorder struct {
	stack [][]Command
}

// NewRecorder creates a recorder with no open recording.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start opens a new recording.
func (r *Recorder) Start() {
	r.stack = append(r.stack, nil)
}

// Depth returns the number of open recordings.
func (r *Recorder) Depth() int {
	return len(r.stack)
}

// ExecuteAndRecord runs cmd and adds it to the innermost recording.
func (r *Recorder) ExecuteAndRecord(env *Env, cmd Command) error {
	if len(r.stack) == 0 {
		return ErrNotRecording
	}
	if err := cmd.Execute(env); err != nil {
		return err
	}
	return r.Record(cmd)
}

// Record adds an already executed command to the innermost recording.
func (r *Recorder) Record(cmd Command) error {
	top := len(r.stack) - 1
	if top < 0 {
		return ErrNotRecording
	}
	r.stack[top] = append([]Command{cmd}, r.stack[top]...)
	return nil
}

// Stop closes the innermost recording and returns its commands as one
// command.
func (r *Recorder) Stop() (*Recorded, error) {
	top := len(r.stack) - 1
	if top < 0 {
		return nil, ErrNotRecording
	}
	cmds := r.stack[top]
	r.stack = r.stack[:top]
	return &Recorded{Commands: cmds}, nil
}

// Rollback closes the innermost recording and undoes everything it
// captured.
func (r *Recorder) Rollback(env *Env) error {
	rec, err := r.Stop()
	if err != nil {
		return err
	}
	return rec.Undo(env)
}

// Transaction runs fn inside a new recording. If fn fails or panics, every
// recording it opened is rolled back, its own included. On success the
// captured commands are returned as one command.
func (r *Recorder) Transaction(env *Env, fn func() error) (rec *Recorded, err error) {
	depth := len(r.stack)
	r.Start()
	defer func() {
		if p := recover(); p != nil {
			_ = r.unwindTo(env, depth)
			panic(p)
		}
	}()

	if err := fn(); err != nil {
		if rbErr := r.unwindTo(env, depth); rbErr != nil {
			return nil, errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return nil, err
	}
	for len(r.stack) > depth+1 {
		inner, _ := r.Stop()
		_ = r.Record(inner)
	}
	return r.Stop()
}

func (r *Recorder) unwindTo(env *Env, depth int) error {
	var errs []error
	for len(r.stack) > depth {
		if err := r.Rollback(env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorded is a finished recording, usable as a single command. Commands
// are stored most recent first.
type Recorded struct {
	Commands List `json:"commands"`
}

// Name implements Command.
func (c *Recorded) Name() string { return "RECORDED COMMANDS" }

// Execute re-applies the commands in the order they first ran.
func (c *Recorded) Execute(env *Env) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := Redo(env, c.Commands[i]); err != nil {
			return err
		}
	}
	return nil
}

// Undo reverses the commands, most recent first.
func (c *Recorded) Undo(env *Env) error {
	for _, cmd := range c.Commands {
		if err := cmd.Undo(env); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of recorded commands.
func (c *Recorded) Len() int {
	return len(c.Commands)
}
