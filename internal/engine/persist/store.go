package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dshills/humane/internal/engine/history"
)

// DefaultMaxTextBackups is the number of text backups kept by default.
const DefaultMaxTextBackups = 20

// Store reads and writes one document in a directory.
type Store struct {
	dir        string
	name       string
	maxBackups int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxTextBackups sets how many text backups are kept. 0 disables
// text backups.
func WithMaxTextBackups(n int) Option {
	return func(s *Store) {
		s.maxBackups = max(n, 0)
	}
}

// NewStore returns a store for the document called name in dir.
func NewStore(dir, name string, opts ...Option) *Store {
	s := &Store{dir: dir, name: name, maxBackups: DefaultMaxTextBackups}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the snapshot path.
func (s *Store) Path() string { return filepath.Join(s.dir, s.name) }

// LogPath returns the change log path.
func (s *Store) LogPath() string { return s.Path() + ".log" }

func (s *Store) newPath() string    { return s.Path() + ".new" }
func (s *Store) backupPath() string { return s.Path() + ".bak" }

// Save writes snap as the current snapshot and clears the change log.
// At every step at least one complete snapshot is on disk.
func (s *Store) Save(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	path := s.Path()
	if err := s.promoteNew(); err != nil {
		return err
	}
	if err := writeFileSync(s.newPath(), data); err != nil {
		os.Remove(s.newPath())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(path, s.backupPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("retire snapshot: %w", err)
	}
	if err := os.Rename(s.newPath(), path); err != nil {
		return fmt.Errorf("promote snapshot: %w", err)
	}
	if err := os.Remove(s.LogPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reset change log: %w", err)
	}
	syncDir(s.dir)
	return nil
}

// promoteNew finishes a save that stopped after retiring the old
// snapshot, so the only complete copy is not overwritten.
func (s *Store) promoteNew() error {
	if _, err := os.Stat(s.Path()); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if _, err := os.Stat(s.newPath()); err != nil {
		return nil
	}
	if err := os.Rename(s.newPath(), s.Path()); err != nil {
		return fmt.Errorf("promote snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot and the change log batches that follow it.
func (s *Store) Load() (*Snapshot, []Batch, error) {
	path, data, err := s.readSnapshot()
	if err != nil {
		return nil, nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, &CorruptError{Path: path, Err: err}
	}
	if err := snap.validate(); err != nil {
		return nil, nil, &CorruptError{Path: path, Err: err}
	}
	batches, err := s.readLog(snap.Generation)
	if err != nil {
		return nil, nil, err
	}
	return &snap, batches, nil
}

func (s *Store) readSnapshot() (string, []byte, error) {
	for _, path := range []string{s.Path(), s.newPath()} {
		data, err := os.ReadFile(path)
		if err == nil {
			return path, data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("read snapshot: %w", err)
		}
	}
	if _, err := os.Stat(s.backupPath()); err == nil {
		return "", nil, &CorruptError{Path: s.Path(), Err: errors.New("snapshot missing, only a backup remains")}
	}
	return "", nil, ErrNoState
}

// readLog returns the batches of generation in order. Batches of other
// generations were written before the current snapshot and are skipped.
func (s *Store) readLog(generation string) ([]Batch, error) {
	path := s.LogPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read change log: %w", err)
	}

	lines := bytes.Split(data, []byte{'\n'})
	if last := lines[len(lines)-1]; len(last) > 0 {
		return nil, &CorruptError{Path: path, Line: len(lines), Err: errors.New("incomplete last line")}
	}
	var batches []Batch
	for i, line := range lines[:len(lines)-1] {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		b, err := decodeBatch(line)
		if err != nil {
			return nil, &CorruptError{Path: path, Line: i + 1, Err: err}
		}
		if b.Generation != generation {
			continue
		}
		if b.Seq != len(batches) {
			return nil, &CorruptError{Path: path, Line: i + 1,
				Err: fmt.Errorf("batch %d out of sequence, want %d", b.Seq, len(batches))}
		}
		b.Line = i + 1
		batches = append(batches, b)
	}
	return batches, nil
}

// appendLine appends one line to the change log and syncs it.
func (s *Store) appendLine(line []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(s.LogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open change log: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append change log: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync change log: %w", err)
	}
	return f.Close()
}

// Replay re-applies batches to env. Recordable commands are added to the
// history without being logged again. It returns the number of commands
// replayed.
func (s *Store) Replay(env *history.Env, batches []Batch) (int, error) {
	n := 0
	for _, b := range batches {
		for i, cmd := range b.Commands {
			if err := history.Redo(env, cmd); err != nil {
				return n, &CorruptError{Path: s.LogPath(), Line: b.Line,
					Err: fmt.Errorf("replay command %d (%s): %w", i, cmd.Name(), err)}
			}
			if history.IsRecordable(cmd) {
				if err := env.History.Add(cmd, false); err != nil {
					return n, err
				}
			}
			n++
		}
	}
	return n, nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// syncDir flushes directory entries after renames. Not every platform
// supports it, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}
