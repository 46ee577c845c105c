package document

// Mark identifies the journal position returned by Begin.
type Mark struct {
	depth int
	pos   int
}

// journal records an inverse for every primitive mutation made while a
// transaction is open.
type journal struct {
	depth     int
	entries   []func()
	unwinding bool
}

// Begin opens a transaction. Transactions nest; each Begin must be
// matched by exactly one Commit or Rollback with the returned mark.
func (d *Document) Begin() Mark {
	d.journal.depth++
	return Mark{depth: d.journal.depth, pos: len(d.journal.entries)}
}

// Rollback undoes every mutation made since m was taken and closes the
// transaction. Pool ids interned in the meantime stay valid.
func (d *Document) Rollback(m Mark) {
	j := &d.journal
	j.unwinding = true
	for i := len(j.entries) - 1; i >= m.pos; i-- {
		j.entries[i]()
		j.entries[i] = nil
	}
	j.entries = j.entries[:m.pos]
	j.unwinding = false
	j.depth = m.depth - 1
}

// Commit closes the transaction opened by m, keeping its mutations.
// Inner commits keep their inverses so an outer rollback can still undo
// them.
func (d *Document) Commit(m Mark) {
	d.journal.depth = m.depth - 1
	if d.journal.depth == 0 {
		d.journal.entries = nil
	}
}

// InTransaction reports whether a transaction is open.
func (d *Document) InTransaction() bool {
	return d.journal.depth > 0
}

func (d *Document) record(undo func()) {
	if d.journal.depth == 0 || d.journal.unwinding {
		return
	}
	d.journal.entries = append(d.journal.entries, undo)
}
