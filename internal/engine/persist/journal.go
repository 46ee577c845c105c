package persist

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/humane/internal/engine/history"
)

// Journal queues executed commands and flushes them to the change log.
// It implements history.ChangeLogger.
type Journal struct {
	store       *Store
	generation  string
	threshold   int
	backupEvery int
	text        func() string
	logger      *slog.Logger

	pending [][]byte
	seq     int
	changes int
}

// JournalOption configures a Journal.
type JournalOption func(*Journal)

// WithFlushThreshold flushes whenever n commands are pending.
func WithFlushThreshold(n int) JournalOption {
	return func(j *Journal) {
		j.threshold = max(n, 1)
	}
}

// WithTextBackups writes a text backup every n changes, reading the text
// from text.
func WithTextBackups(n int, text func() string) JournalOption {
	return func(j *Journal) {
		j.backupEvery = n
		j.text = text
	}
}

// WithJournalLogger sets the logger for failures that do not stop logging.
func WithJournalLogger(l *slog.Logger) JournalOption {
	return func(j *Journal) {
		j.logger = l
	}
}

// NewJournal returns a journal appending batches of generation to store.
func NewJournal(store *Store, generation string, opts ...JournalOption) *Journal {
	j := &Journal{
		store:      store,
		generation: generation,
		threshold:  1,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// LogChange encodes cmd and queues it. The command is encoded now, so
// later changes to it do not reach the log.
func (j *Journal) LogChange(cmd history.Command) error {
	raw, err := history.Encode(cmd)
	if err != nil {
		return err
	}
	j.pending = append(j.pending, raw)
	j.changes++

	if j.backupEvery > 0 && j.text != nil && j.changes%j.backupEvery == 0 {
		if err := j.store.TextBackup(j.text()); err != nil {
			j.logger.Warn("text backup failed", "error", err)
		}
	}
	if len(j.pending) >= j.threshold {
		return j.Flush()
	}
	return nil
}

// Flush appends the pending commands to the change log as one batch.
func (j *Journal) Flush() error {
	if len(j.pending) == 0 {
		return nil
	}
	line, err := encodeBatch(j.generation, j.seq, time.Now(), j.pending)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	if err := j.store.appendLine(line); err != nil {
		return err
	}
	j.logger.Debug("flushed changes", "batch", j.seq, "commands", len(j.pending))
	j.pending = nil
	j.seq++
	return nil
}

// Pending returns the number of queued commands.
func (j *Journal) Pending() int {
	return len(j.pending)
}

// Generation returns the generation batches are written under.
func (j *Journal) Generation() string {
	return j.generation
}

// Reset drops pending commands and continues under generation, with
// nextSeq as the next batch number.
func (j *Journal) Reset(generation string, nextSeq int) {
	j.generation = generation
	j.seq = nextSeq
	j.pending = nil
}
