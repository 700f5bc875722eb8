package text

import "testing"

func TestSnapshotLineIndex(t *testing.T) {
	buf := NewBuffer("aaa\nbb\n\nc")
	snap := buf.Snapshot()

	if snap.LineCount() != 4 {
		t.Errorf("expected 4 lines, got %d", snap.LineCount())
	}
	if snap.LineText(0) != "aaa" {
		t.Errorf("expected line 0 %q, got %q", "aaa", snap.LineText(0))
	}
	if snap.LineText(2) != "" {
		t.Errorf("expected empty line 2, got %q", snap.LineText(2))
	}
	if snap.LineText(3) != "c" {
		t.Errorf("expected line 3 %q, got %q", "c", snap.LineText(3))
	}
	if snap.LineLen(1) != 2 {
		t.Errorf("expected line 1 length 2, got %d", snap.LineLen(1))
	}
}

func TestSnapshotTrailingNewline(t *testing.T) {
	buf := NewBuffer("aaa\n")
	snap := buf.Snapshot()

	if snap.LineCount() != 2 {
		t.Errorf("expected 2 lines, got %d", snap.LineCount())
	}
	max := snap.MaxPoint()
	if max.Row != 1 || max.Column != 0 {
		t.Errorf("expected max point (1:0), got %s", max)
	}
}

func TestOffsetPointRoundTrip(t *testing.T) {
	buf := NewBuffer("hello\nworld\n!")
	snap := buf.Snapshot()

	for off := ByteOffset(0); off <= snap.Len(); off++ {
		p := snap.OffsetToPoint(off)
		back := snap.PointToOffset(p)
		if back != off {
			t.Errorf("offset %d -> %s -> %d", off, p, back)
		}
	}
}

func TestOffsetToPointClamps(t *testing.T) {
	buf := NewBuffer("ab")
	snap := buf.Snapshot()

	p := snap.OffsetToPoint(99)
	if p.Row != 0 || p.Column != 2 {
		t.Errorf("expected clamp to (0:2), got %s", p)
	}
	if snap.OffsetToPoint(-5) != (Point{}) {
		t.Errorf("expected clamp to (0:0), got %s", snap.OffsetToPoint(-5))
	}
}

func TestPointToOffsetClampsColumn(t *testing.T) {
	buf := NewBuffer("ab\ncd")
	snap := buf.Snapshot()

	// Column beyond line end clamps to the newline boundary.
	off := snap.PointToOffset(Point{Row: 0, Column: 50})
	if off != 2 {
		t.Errorf("expected offset 2, got %d", off)
	}
}

func TestSnapshotImmutable(t *testing.T) {
	buf := NewBuffer("one")
	snap := buf.Snapshot()

	if _, err := buf.Insert(3, " two"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if snap.Text() != "one" {
		t.Errorf("old snapshot changed: %q", snap.Text())
	}
	if buf.Snapshot().Text() != "one two" {
		t.Errorf("new snapshot wrong: %q", buf.Snapshot().Text())
	}
	if snap.Seq() == buf.Snapshot().Seq() {
		t.Error("revision should advance on edit")
	}
}

func TestSnapshotDerivedFrom(t *testing.T) {
	buf := NewBuffer("x")
	older := buf.Snapshot()
	if _, err := buf.Insert(0, "y"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	newer := buf.Snapshot()

	if !newer.DerivedFrom(older) {
		t.Error("newer snapshot should be derived from older")
	}
	if older.DerivedFrom(newer) {
		t.Error("older snapshot should not be derived from newer")
	}
	if newer.DerivedFrom(NewBuffer("x").Snapshot()) {
		t.Error("snapshots of different buffers are unrelated")
	}
}

func TestBufferApplyBatch(t *testing.T) {
	buf := NewBuffer("0123456789")
	snap, err := buf.Apply([]Edit{
		NewDelete(8, 9),
		NewInsert(2, "xx"),
		NewEdit(NewRange(4, 6), "Y"),
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if snap.Text() != "01xx23Y679" {
		t.Errorf("expected %q, got %q", "01xx23Y679", snap.Text())
	}
}

func TestBufferApplyRejectsOverlap(t *testing.T) {
	buf := NewBuffer("0123456789")
	_, err := buf.Apply([]Edit{
		NewDelete(2, 5),
		NewDelete(4, 7),
	})
	if err == nil {
		t.Fatal("expected overlap error")
	}
}

func TestBufferApplyRejectsOutOfRange(t *testing.T) {
	buf := NewBuffer("abc")
	if _, err := buf.Insert(10, "x"); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := buf.Apply([]Edit{{Range: Range{Start: 2, End: 1}}}); err == nil {
		t.Fatal("expected invalid range error")
	}
}

func TestBufferNoOpEditKeepsRevision(t *testing.T) {
	buf := NewBuffer("abc")
	before := buf.Snapshot().Seq()
	snap, err := buf.Apply([]Edit{NewInsert(1, "")})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if snap.Seq() != before {
		t.Errorf("no-op edit should not advance revision: %d -> %d", before, snap.Seq())
	}
}
