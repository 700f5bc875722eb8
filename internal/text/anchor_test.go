package text

import (
	"errors"
	"testing"
)

func TestAnchorBiasAtInsertion(t *testing.T) {
	buf := NewBuffer("abcdef")
	snap := buf.Snapshot()
	left := snap.AnchorBefore(3)
	right := snap.AnchorAfter(3)

	after, err := buf.Insert(3, "XY")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	off, err := left.Resolve(after)
	if err != nil {
		t.Fatalf("resolve left: %v", err)
	}
	if off != 3 {
		t.Errorf("left-biased anchor should stay at 3, got %d", off)
	}

	off, err = right.Resolve(after)
	if err != nil {
		t.Fatalf("resolve right: %v", err)
	}
	if off != 5 {
		t.Errorf("right-biased anchor should move to 5, got %d", off)
	}
}

func TestAnchorUnaffectedByLaterEdit(t *testing.T) {
	buf := NewBuffer("abcdef")
	snap := buf.Snapshot()
	a := snap.AnchorAfter(2)

	if _, err := buf.Insert(5, "zzz"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	off, err := a.Resolve(buf.Snapshot())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if off != 2 {
		t.Errorf("anchor before the edit should not move, got %d", off)
	}
}

func TestAnchorShiftedByEarlierEdit(t *testing.T) {
	buf := NewBuffer("abcdef")
	snap := buf.Snapshot()
	a := snap.AnchorBefore(4)

	if _, err := buf.Delete(0, 2); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	off, err := a.Resolve(buf.Snapshot())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if off != 2 {
		t.Errorf("anchor should shift left by 2, got %d", off)
	}
}

func TestAnchorInsideDeletedRange(t *testing.T) {
	buf := NewBuffer("abcdefgh")
	snap := buf.Snapshot()
	left := snap.AnchorBefore(4)
	right := snap.AnchorAfter(4)

	if _, err := buf.Replace(2, 6, "XY"); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	after := buf.Snapshot()

	off, err := left.Resolve(after)
	if err != nil {
		t.Fatalf("resolve left: %v", err)
	}
	if off != 2 {
		t.Errorf("left-biased anchor inside replaced range should snap to 2, got %d", off)
	}

	off, err = right.Resolve(after)
	if err != nil {
		t.Fatalf("resolve right: %v", err)
	}
	if off != 4 {
		t.Errorf("right-biased anchor inside replaced range should snap to 4, got %d", off)
	}
}

func TestAnchorAcrossManyEdits(t *testing.T) {
	buf := NewBuffer("0123456789")
	snap := buf.Snapshot()
	a := snap.AnchorBefore(5)

	if _, err := buf.Insert(0, "aa"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := buf.Delete(3, 4); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := buf.Insert(20, "!"); err == nil {
		// Offset 20 is out of range for "aa012456789"; expected to fail.
		t.Fatal("expected out of range insert to fail")
	}
	if _, err := buf.Insert(6, "b"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// "0123456789" -> "aa0123456789" (anchor at 7) -> "aa023456789"
	// (anchor at 6); the final insert lands exactly on the anchor and
	// left bias keeps it at 6.
	off, err := a.Resolve(buf.Snapshot())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if off != 6 {
		t.Errorf("expected anchor at 6, got %d", off)
	}
}

func TestAnchorStaleSnapshot(t *testing.T) {
	buf := NewBuffer("abc")
	older := buf.Snapshot()
	if _, err := buf.Insert(0, "x"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	a := buf.Snapshot().AnchorBefore(1)

	_, err := a.Resolve(older)
	var resErr *AnchorResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected AnchorResolutionError, got %v", err)
	}
	if resErr.Kind != ResolutionStaleSnapshot {
		t.Errorf("expected stale snapshot kind, got %s", resErr.Kind)
	}
}

func TestAnchorUnrelatedBuffer(t *testing.T) {
	a := NewBuffer("abc").Snapshot().AnchorBefore(1)
	other := NewBuffer("abc").Snapshot()

	_, err := a.Resolve(other)
	var resErr *AnchorResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected AnchorResolutionError, got %v", err)
	}
	if resErr.Kind != ResolutionUnrelatedBuffer {
		t.Errorf("expected unrelated buffer kind, got %s", resErr.Kind)
	}
}

func TestAnchorEvictedHistory(t *testing.T) {
	buf := NewBuffer("abcdef", WithMaxChanges(2))
	a := buf.Snapshot().AnchorBefore(3)

	for i := 0; i < 5; i++ {
		if _, err := buf.Insert(0, "x"); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	_, err := a.Resolve(buf.Snapshot())
	var resErr *AnchorResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected AnchorResolutionError, got %v", err)
	}
	if resErr.Kind != ResolutionEvictedHistory {
		t.Errorf("expected evicted history kind, got %s", resErr.Kind)
	}
}

func TestAnchorRebased(t *testing.T) {
	buf := NewBuffer("abcdef")
	a := buf.Snapshot().AnchorBefore(4)
	if _, err := buf.Delete(0, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	snap := buf.Snapshot()

	rebased, err := a.Rebased(snap)
	if err != nil {
		t.Fatalf("rebase: %v", err)
	}
	if rebased.Seq != snap.Seq() || rebased.Offset != 2 {
		t.Errorf("expected rebased anchor at 2@r%d, got %s", snap.Seq(), rebased)
	}
}

func TestCompareAnchorsRequiresSnapshot(t *testing.T) {
	buf := NewBuffer("abcdef")
	s1 := buf.Snapshot()
	a := s1.AnchorBefore(4)
	if _, err := buf.Insert(0, "xx"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s2 := buf.Snapshot()
	b := s2.AnchorBefore(5)

	// Raw offsets would order a(4) < b(5); under s2 the first anchor
	// resolved to 6 and orders after.
	cmp, err := CompareAnchors(a, b, s2)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp != 1 {
		t.Errorf("expected a > b under current snapshot, got %d", cmp)
	}
}

func TestAnchorRangeResolve(t *testing.T) {
	buf := NewBuffer("hello world")
	snap := buf.Snapshot()
	r := snap.AnchorRangeFor(NewRange(6, 11))

	if _, err := buf.Insert(0, ">> "); err != nil {
		t.Fatalf("insert: %v", err)
	}
	after := buf.Snapshot()

	rng, err := r.Resolve(after)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rng.Start != 9 || rng.End != 14 {
		t.Errorf("expected [9:14), got %s", rng)
	}
	covered, err := after.TextForRange(r)
	if err != nil {
		t.Fatalf("text for range: %v", err)
	}
	if covered != "world" {
		t.Errorf("expected %q, got %q", "world", covered)
	}
}
