package text

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Revision identifies a buffer state. Revisions are assigned by a
// Buffer as a strictly increasing sequence, starting at zero for the
// initial content.
type Revision uint64

// BufferID uniquely identifies a buffer. Anchors carry the ID of the
// buffer they were created against so that resolving an anchor against
// a snapshot of an unrelated buffer can be rejected.
type BufferID = uuid.UUID

// Snapshot is an immutable view of a buffer at a specific revision.
// It is safe for concurrent access and will not change even if the
// originating buffer is edited.
type Snapshot struct {
	content    string
	lineStarts []ByteOffset
	seq        Revision
	bufferID   BufferID
	hist       *history
}

func newSnapshot(content string, seq Revision, bufferID BufferID, hist *history) *Snapshot {
	return &Snapshot{
		content:    content,
		lineStarts: indexLines(content),
		seq:        seq,
		bufferID:   bufferID,
		hist:       hist,
	}
}

// indexLines returns the byte offset of the start of every line.
// There is always at least one line; a trailing newline starts a
// final empty line.
func indexLines(content string) []ByteOffset {
	starts := []ByteOffset{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, ByteOffset(i+1))
		}
	}
	return starts
}

// Seq returns the revision this snapshot was taken at.
func (s *Snapshot) Seq() Revision {
	return s.seq
}

// BufferID returns the ID of the buffer this snapshot was taken from.
func (s *Snapshot) BufferID() BufferID {
	return s.bufferID
}

// Text returns the full snapshot content as a string.
func (s *Snapshot) Text() string {
	return s.content
}

// TextRange returns text in the given byte range, clamped to bounds.
func (s *Snapshot) TextRange(start, end ByteOffset) string {
	start = s.ClipOffset(start)
	end = s.ClipOffset(end)
	if end < start {
		end = start
	}
	return s.content[start:end]
}

// TextForRange resolves an anchor range against this snapshot and
// returns the covered text.
func (s *Snapshot) TextForRange(r AnchorRange) (string, error) {
	rng, err := r.Resolve(s)
	if err != nil {
		return "", err
	}
	return s.TextRange(rng.Start, rng.End), nil
}

// Len returns the total byte length of the snapshot.
func (s *Snapshot) Len() ByteOffset {
	return ByteOffset(len(s.content))
}

// LineCount returns the number of lines.
func (s *Snapshot) LineCount() uint32 {
	return uint32(len(s.lineStarts))
}

// LineStart returns the byte offset of the start of a line.
func (s *Snapshot) LineStart(row uint32) ByteOffset {
	if int(row) >= len(s.lineStarts) {
		return s.Len()
	}
	return s.lineStarts[row]
}

// LineEnd returns the byte offset of the end of a line, excluding its
// trailing newline.
func (s *Snapshot) LineEnd(row uint32) ByteOffset {
	if int(row)+1 < len(s.lineStarts) {
		return s.lineStarts[row+1] - 1
	}
	return s.Len()
}

// LineLen returns the length of a line in bytes, without the newline.
func (s *Snapshot) LineLen(row uint32) uint32 {
	return uint32(s.LineEnd(row) - s.LineStart(row))
}

// LineText returns the text of a line, without the newline.
func (s *Snapshot) LineText(row uint32) string {
	return s.content[s.LineStart(row):s.LineEnd(row)]
}

// OffsetToPoint converts a byte offset to a row/column point.
// The offset is clamped to the snapshot bounds.
func (s *Snapshot) OffsetToPoint(offset ByteOffset) Point {
	offset = s.ClipOffset(offset)
	row := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > offset
	}) - 1
	return Point{
		Row:    uint32(row),
		Column: uint32(offset - s.lineStarts[row]),
	}
}

// PointToOffset converts a row/column point to a byte offset.
// The point is clamped to the snapshot bounds.
func (s *Snapshot) PointToOffset(p Point) ByteOffset {
	if int(p.Row) >= len(s.lineStarts) {
		return s.Len()
	}
	offset := s.lineStarts[p.Row] + ByteOffset(p.Column)
	end := s.LineEnd(p.Row)
	if offset > end {
		offset = end
	}
	return offset
}

// MaxPoint returns the last valid point in the snapshot.
func (s *Snapshot) MaxPoint() Point {
	lastRow := uint32(len(s.lineStarts) - 1)
	return Point{Row: lastRow, Column: s.LineLen(lastRow)}
}

// ClipOffset clamps an offset to the snapshot bounds.
func (s *Snapshot) ClipOffset(offset ByteOffset) ByteOffset {
	if offset < 0 {
		return 0
	}
	if offset > s.Len() {
		return s.Len()
	}
	return offset
}

// ClipPoint clamps a point to the snapshot bounds.
func (s *Snapshot) ClipPoint(p Point) Point {
	return s.OffsetToPoint(s.PointToOffset(p))
}

// DerivedFrom reports whether this snapshot is derived from the same
// edit history as other, at the same or a later revision.
func (s *Snapshot) DerivedFrom(other *Snapshot) bool {
	return s.bufferID == other.bufferID && s.seq >= other.seq
}

// AnchorBefore returns a left-biased anchor at the given offset.
// A left-biased anchor stays before text inserted exactly at it.
func (s *Snapshot) AnchorBefore(offset ByteOffset) Anchor {
	return Anchor{
		Buffer: s.bufferID,
		Seq:    s.seq,
		Offset: s.ClipOffset(offset),
		Bias:   BiasLeft,
	}
}

// AnchorAfter returns a right-biased anchor at the given offset.
// A right-biased anchor moves after text inserted exactly at it.
func (s *Snapshot) AnchorAfter(offset ByteOffset) Anchor {
	return Anchor{
		Buffer: s.bufferID,
		Seq:    s.seq,
		Offset: s.ClipOffset(offset),
		Bias:   BiasRight,
	}
}

// AnchorRangeFor returns an anchor range spanning the given offsets,
// left-biased at the start and right-biased at the end so the range
// grows to include text inserted at either boundary.
func (s *Snapshot) AnchorRangeFor(r Range) AnchorRange {
	return AnchorRange{
		Start: s.AnchorBefore(r.Start),
		End:   s.AnchorAfter(r.End),
	}
}

// CharsAt returns an iterator-style callback over the runes starting
// at the given offset. Iteration stops when fn returns false.
func (s *Snapshot) CharsAt(offset ByteOffset, fn func(r rune) bool) {
	offset = s.ClipOffset(offset)
	for _, r := range s.content[offset:] {
		if !fn(r) {
			return
		}
	}
}

// IndexAfter returns the offset of the first occurrence of substr at
// or after the given offset, or -1 if not found.
func (s *Snapshot) IndexAfter(offset ByteOffset, substr string) ByteOffset {
	offset = s.ClipOffset(offset)
	i := strings.Index(s.content[offset:], substr)
	if i < 0 {
		return -1
	}
	return offset + ByteOffset(i)
}
