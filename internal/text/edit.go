package text

import "fmt"

// Edit represents a text edit operation.
// It specifies a range to replace and the new text.
type Edit struct {
	Range   Range  // The range to replace
	NewText string // The replacement text
}

// NewEdit creates a new Edit.
func NewEdit(r Range, newText string) Edit {
	return Edit{Range: r, NewText: newText}
}

// NewInsert creates an Edit that inserts text at a position.
func NewInsert(offset ByteOffset, text string) Edit {
	return Edit{
		Range:   Range{Start: offset, End: offset},
		NewText: text,
	}
}

// NewDelete creates an Edit that deletes a range of text.
func NewDelete(start, end ByteOffset) Edit {
	return Edit{
		Range:   Range{Start: start, End: end},
		NewText: "",
	}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	if e.Range.IsEmpty() {
		return fmt.Sprintf("Insert(%d, %q)", e.Range.Start, e.NewText)
	}
	if e.NewText == "" {
		return fmt.Sprintf("Delete%s", e.Range.String())
	}
	return fmt.Sprintf("Replace%s with %q", e.Range.String(), e.NewText)
}

// IsNoOp returns true if this edit does nothing.
func (e Edit) IsNoOp() bool {
	return e.Range.IsEmpty() && e.NewText == ""
}

// Delta returns the change in buffer length caused by this edit.
func (e Edit) Delta() ByteOffset {
	return ByteOffset(len(e.NewText)) - e.Range.Len()
}

// Change records one applied edit in terms an anchor can be carried
// across. Range is the replaced range in the coordinates of the buffer
// immediately before this change was applied; NewRange is the inserted
// text's range immediately after.
type Change struct {
	Seq      Revision // Revision produced by applying this change
	Range    Range    // Replaced range (pre-change coordinates)
	NewRange Range    // Inserted range (post-change coordinates)
}

// Delta returns the change in buffer length caused by this change.
func (c Change) Delta() ByteOffset {
	return c.NewRange.Len() - c.Range.Len()
}

// transform carries an offset forward across this change, honoring
// the given bias for positions at or inside the replaced range.
func (c Change) transform(offset ByteOffset, bias Bias) ByteOffset {
	switch {
	case offset < c.Range.Start:
		return offset
	case offset > c.Range.End:
		return offset + c.Delta()
	default:
		// At a boundary of, or strictly inside, the replaced range.
		if bias == BiasLeft {
			if offset >= c.Range.End && !c.Range.IsEmpty() {
				return c.NewRange.End
			}
			return c.NewRange.Start
		}
		if offset <= c.Range.Start && !c.Range.IsEmpty() {
			return c.NewRange.Start
		}
		return c.NewRange.End
	}
}
