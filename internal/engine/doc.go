// Package engine provides the document session for Humane.
//
// A Session ties together the document core:
//
//   - document: characters, styles and behaviors kept in lock-step
//   - history: commands, linear undo/redo and recordings
//   - commands: the built-in commands and the LOCK behaviors
//   - persist: snapshots, the change log and text backups
//
// # Thread Safety
//
// The document core itself is single-threaded. Session serializes every
// call with one lock, so hosts with background goroutines (auto flush,
// services that edit the document) can share a Session safely. Use Do
// when several steps must happen without interleaving.
//
// # Basic Usage
//
//	s, _ := engine.New(engine.WithContent("hello"))
//
//	s.Execute(&commands.SetCursor{Pos: 5})
//	s.Execute(&commands.AddText{Text: " world"})
//	s.Text() // "hello world"
//
//	s.Undo() // "hello"
//	s.Redo() // "hello world"
//
// # Atomic Commands
//
// Execute wraps every command in a document transaction. A command that
// returns an error, is cancelled or panics leaves no trace:
//
//	err := s.Execute(&commands.DeleteText{})
//	if ce, ok := history.AsCancel(err); ok {
//		fmt.Println(ce.Explanation) // "Nothing is selected."
//	}
//
// ExecuteAll and StartRecording/StopRecording group several commands into
// one history entry.
//
// # Persistence
//
// With WithStore, executed commands are written to a change log as they
// happen. Save writes a full snapshot and starts a new log; Load restores
// the snapshot and replays the log:
//
//	store := persist.NewStore(dir, "document.json")
//	s, _ := engine.New(engine.WithStore(store))
//	if err := s.Load(); errors.Is(err, persist.ErrNoState) {
//		s.Save()
//	}
//	defer s.Close()
package engine
