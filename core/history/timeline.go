package history

import "fmt"

// Timeline is a list of state snapshots with a cursor. Entries after the
// cursor are the redo future. A Timeline is not safe for concurrent use.
type Timeline[S any] struct {
	entries []S
	cursor  int
	limit   int
}

// NewTimeline returns a timeline holding only initial. With limit > 0 at
// most limit entries are kept; the oldest entry after index 0 is evicted
// first. Limits below 2 are raised to 2.
func NewTimeline[S any](initial S, limit int) *Timeline[S] {
	if limit > 0 && limit < 2 {
		limit = 2
	}
	return &Timeline[S]{entries: []S{initial}, limit: limit}
}

func (t *Timeline[S]) Current() S {
	t.check()
	return t.entries[t.cursor]
}

func (t *Timeline[S]) Cursor() int   { return t.cursor }
func (t *Timeline[S]) Len() int      { return len(t.entries) }
func (t *Timeline[S]) CanUndo() bool { return t.cursor > 0 }
func (t *Timeline[S]) CanRedo() bool { return t.cursor < len(t.entries)-1 }

// Undo moves the cursor back one entry, if possible, and returns the
// current state.
func (t *Timeline[S]) Undo() S {
	if t.CanUndo() {
		t.cursor--
	}
	return t.Current()
}

// Redo moves the cursor forward one entry, if possible, and returns the
// current state.
func (t *Timeline[S]) Redo() S {
	if t.CanRedo() {
		t.cursor++
	}
	return t.Current()
}

// Push drops the redo future, appends s and moves the cursor to it.
func (t *Timeline[S]) Push(s S) {
	t.check()

	clear(t.entries[t.cursor+1:])
	t.entries = append(t.entries[:t.cursor+1], s)
	t.cursor++

	if t.limit > 0 && len(t.entries) > t.limit {
		last := len(t.entries) - 1
		copy(t.entries[1:], t.entries[2:])
		var zero S
		t.entries[last] = zero
		t.entries = t.entries[:last]
		t.cursor--
	}
	t.check()
}

// Reset replaces the whole timeline with s.
func (t *Timeline[S]) Reset(s S) {
	clear(t.entries)
	t.entries = append(t.entries[:0], s)
	t.cursor = 0
}

func (t *Timeline[S]) check() {
	if t.cursor < 0 || t.cursor >= len(t.entries) {
		panic(fmt.Sprintf("history: cursor %d out of range [0, %d)", t.cursor, len(t.entries)))
	}
}
