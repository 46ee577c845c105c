// Package history provides commands, undo/redo and recordings for the
// document core.
//
// # Commands
//
// Every edit is a Command with Execute and Undo. Undo restores exactly
// the state Execute started from. Commands that produce a value the first
// time they run (pasting the clipboard, generated text) implement Redoer
// and reuse that value, so undo followed by redo is always symmetric.
//
// A command that cannot apply returns a *CancelError built with Cancel.
// Callers show its explanation to the user; it is not a failure.
//
// # History
//
// History is linear. Executing a new command after some undos discards
// the undone commands:
//
//	h := NewHistory(nil)
//	h.Execute(env, a) // [A]
//	h.Execute(env, b) // [A B]
//	h.Undo(env)       // [A] b redoable
//	h.Execute(env, c) // [A C], b is gone
//
// Commands implementing Recordable may opt out. Undo, redo and clearing
// the history are such commands; they work on the History directly.
//
// # Recordings
//
// A Recorder groups commands so they can be undone as one:
//
//	rec.Start()
//	rec.ExecuteAndRecord(env, x)
//	rec.ExecuteAndRecord(env, y)
//	group, _ := rec.Stop() // undoes y then x
//
// Recordings nest; a finished inner recording is a single command inside
// the outer one. Transaction wraps this with automatic rollback.
//
// # Encoding
//
// Commands are persisted as {"kind": ..., "data": ...} envelopes. Each
// concrete command type registers its kind with RegisterKind.
package history
