package text

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap")
)

// DefaultMaxChanges is the default number of changes retained for
// anchor resolution.
const DefaultMaxChanges = 10000

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithMaxChanges bounds the number of retained changes. Anchors older
// than the retained window fail to resolve rather than resolving
// wrongly. Must only be used during Buffer creation.
func WithMaxChanges(maxChanges int) Option {
	return func(b *Buffer) {
		if maxChanges > 0 {
			b.hist.maxChanges = maxChanges
		}
	}
}

// history is the append-only change log shared between a buffer and
// all of its snapshots. Snapshots read it to carry anchors forward
// across the edits that separate the anchor's revision from theirs.
type history struct {
	mu         sync.RWMutex
	changes    []Change
	maxChanges int
}

// changesBetween returns the retained changes with revisions in
// (after, upTo]. ok is false when changes in that window have been
// evicted.
func (h *history) changesBetween(after, upTo Revision) (changes []Change, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if after+1 <= upTo {
		if len(h.changes) == 0 || h.changes[0].Seq > after+1 {
			return nil, false
		}
	}
	start := sort.Search(len(h.changes), func(i int) bool {
		return h.changes[i].Seq > after
	})
	end := sort.Search(len(h.changes), func(i int) bool {
		return h.changes[i].Seq > upTo
	})
	return h.changes[start:end], true
}

func (h *history) append(changes []Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.changes = append(h.changes, changes...)
	if excess := len(h.changes) - h.maxChanges; excess > 0 {
		// Evict at a revision boundary only: a partially replayed
		// revision would transform offsets incorrectly.
		for excess < len(h.changes) && h.changes[excess].Seq == h.changes[excess-1].Seq {
			excess++
		}
		h.changes = append(h.changes[:0:0], h.changes[excess:]...)
	}
}

// Buffer is a single-writer text buffer that produces immutable
// snapshots. Reads take independent snapshots and need no
// coordination with the writer.
type Buffer struct {
	mu   sync.RWMutex
	id   BufferID
	snap *Snapshot
	hist *history
}

// NewBuffer creates a buffer with the given initial content.
func NewBuffer(content string, opts ...Option) *Buffer {
	b := &Buffer{
		id:   uuid.New(),
		hist: &history{maxChanges: DefaultMaxChanges},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.snap = newSnapshot(content, 0, b.id, b.hist)
	return b
}

// ID returns the buffer's unique identifier.
func (b *Buffer) ID() BufferID {
	return b.id
}

// Snapshot returns the current immutable snapshot.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap
}

// Apply applies a batch of edits atomically, producing one new
// revision. Edit ranges are interpreted against the current snapshot
// and must not overlap; they may be given in any order.
func (b *Buffer) Apply(edits []Edit) (*Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := b.snap
	for _, e := range edits {
		if !e.Range.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrRangeInvalid, e.Range)
		}
		if e.Range.Start < 0 || e.Range.End > snap.Len() {
			return nil, fmt.Errorf("%w: %s", ErrOffsetOutOfRange, e.Range)
		}
	}

	ordered := make([]Edit, len(edits))
	copy(ordered, edits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Range.Start < ordered[j].Range.Start
	})
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Range.Start < ordered[i-1].Range.End {
			return nil, fmt.Errorf("%w: %s and %s",
				ErrEditsOverlap, ordered[i-1].Range, ordered[i].Range)
		}
	}

	seq := snap.seq + 1
	var sb strings.Builder
	var changes []Change
	var last ByteOffset
	var delta ByteOffset
	for _, e := range ordered {
		if e.IsNoOp() {
			continue
		}
		sb.WriteString(snap.content[last:e.Range.Start])
		sb.WriteString(e.NewText)
		last = e.Range.End

		// Record the change in the coordinates that held when it
		// was applied, so replaying changes in order transforms an
		// offset correctly.
		shifted := Range{Start: e.Range.Start + delta, End: e.Range.End + delta}
		changes = append(changes, Change{
			Seq:   seq,
			Range: shifted,
			NewRange: Range{
				Start: shifted.Start,
				End:   shifted.Start + ByteOffset(len(e.NewText)),
			},
		})
		delta += e.Delta()
	}
	sb.WriteString(snap.content[last:])

	if len(changes) == 0 {
		return snap, nil
	}

	b.hist.append(changes)
	b.snap = newSnapshot(sb.String(), seq, b.id, b.hist)
	return b.snap, nil
}

// Insert inserts text at the given offset.
func (b *Buffer) Insert(offset ByteOffset, text string) (*Snapshot, error) {
	return b.Apply([]Edit{NewInsert(offset, text)})
}

// Delete removes the text in [start, end).
func (b *Buffer) Delete(start, end ByteOffset) (*Snapshot, error) {
	return b.Apply([]Edit{NewDelete(start, end)})
}

// Replace replaces the text in [start, end) with newText.
func (b *Buffer) Replace(start, end ByteOffset, newText string) (*Snapshot, error) {
	return b.Apply([]Edit{NewEdit(NewRange(start, end), newText)})
}
