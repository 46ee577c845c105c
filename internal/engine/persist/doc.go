// Package persist saves a document as a full snapshot plus an append-only
// change log.
//
// A snapshot holds the text, the style and behavior sequences (run-length
// encoded), both pools, the cursor and selections, and a capped copy of
// the command history. Every snapshot gets a new generation id.
//
// Between snapshots, executed commands are queued in a Journal and
// flushed to the change log in batches, one JSON object per line. Each
// batch carries the generation of the snapshot it follows, so batches
// left over from an older snapshot are ignored on load.
//
// Save never leaves the directory without a complete copy:
//
//	name.new   written and synced
//	name       renamed to name.bak
//	name.new   renamed to name
//	name.log   removed
//
// Load reports a missing document as ErrNoState. Anything it cannot read
// is a *CorruptError; nothing is repaired automatically.
package persist
