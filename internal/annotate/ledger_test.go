package annotate

import (
	"strings"
	"testing"

	"github.com/dshills/textlens/internal/text"
)

func testSnapshot(t *testing.T, n int) *text.Snapshot {
	t.Helper()
	return text.NewBuffer(strings.Repeat("x", n)).Snapshot()
}

func span(snap *text.Snapshot, start, end text.ByteOffset) text.AnchorRange {
	return text.AnchorRange{Start: snap.AnchorBefore(start), End: snap.AnchorAfter(end)}
}

func resolveAll(t *testing.T, snap *text.Snapshot, ranges []text.AnchorRange) []text.Range {
	t.Helper()
	out := make([]text.Range, len(ranges))
	for i, r := range ranges {
		rr, err := r.Resolve(snap)
		if err != nil {
			t.Fatalf("resolving range %d: %v", i, err)
		}
		out[i] = rr
	}
	return out
}

func assertRanges(t *testing.T, got []text.Range, want ...text.Range) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d ranges, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("range %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestLedgerFirstQueryIsFullGap(t *testing.T) {
	snap := testSnapshot(t, 40)
	var l ledger

	gaps, err := l.removeCachedRangesFromQuery(snap, span(snap, 10, 20))
	if err != nil {
		t.Fatal(err)
	}
	assertRanges(t, resolveAll(t, snap, gaps), text.NewRange(10, 20))

	cov, err := l.coverage(snap)
	if err != nil {
		t.Fatal(err)
	}
	assertRanges(t, cov, text.NewRange(10, 20))
}

func TestLedgerWiderQueryYieldsEdgeGaps(t *testing.T) {
	snap := testSnapshot(t, 40)
	var l ledger
	if _, err := l.removeCachedRangesFromQuery(snap, span(snap, 10, 20)); err != nil {
		t.Fatal(err)
	}

	gaps, err := l.removeCachedRangesFromQuery(snap, span(snap, 5, 25))
	if err != nil {
		t.Fatal(err)
	}
	assertRanges(t, resolveAll(t, snap, gaps),
		text.NewRange(5, 10), text.NewRange(20, 25))

	// Coverage absorbed the gaps into one merged entry.
	cov, err := l.coverage(snap)
	if err != nil {
		t.Fatal(err)
	}
	assertRanges(t, cov, text.NewRange(5, 25))
}

func TestLedgerRepeatedQueryYieldsNothing(t *testing.T) {
	snap := testSnapshot(t, 40)
	var l ledger
	if _, err := l.removeCachedRangesFromQuery(snap, span(snap, 5, 25)); err != nil {
		t.Fatal(err)
	}

	gaps, err := l.removeCachedRangesFromQuery(snap, span(snap, 5, 25))
	if err != nil {
		t.Fatal(err)
	}
	if len(gaps) != 0 {
		t.Errorf("expected no gaps, got %v", resolveAll(t, snap, gaps))
	}
}

func TestLedgerGapBetweenCachedRanges(t *testing.T) {
	snap := testSnapshot(t, 40)
	var l ledger
	if _, err := l.removeCachedRangesFromQuery(snap, span(snap, 0, 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.removeCachedRangesFromQuery(snap, span(snap, 15, 30)); err != nil {
		t.Fatal(err)
	}

	gaps, err := l.removeCachedRangesFromQuery(snap, span(snap, 0, 30))
	if err != nil {
		t.Fatal(err)
	}
	assertRanges(t, resolveAll(t, snap, gaps), text.NewRange(10, 15))
}

func TestLedgerSingleByteGapTolerated(t *testing.T) {
	snap := testSnapshot(t, 40)
	var l ledger
	if _, err := l.removeCachedRangesFromQuery(snap, span(snap, 0, 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.removeCachedRangesFromQuery(snap, span(snap, 11, 30)); err != nil {
		t.Fatal(err)
	}

	// Ranges a single byte apart count as touching and are not
	// re-queried.
	gaps, err := l.removeCachedRangesFromQuery(snap, span(snap, 0, 30))
	if err != nil {
		t.Fatal(err)
	}
	if len(gaps) != 0 {
		t.Errorf("expected no gaps, got %v", resolveAll(t, snap, gaps))
	}
}

func TestLedgerInvalidateSplitsCoverage(t *testing.T) {
	snap := testSnapshot(t, 120)
	var l ledger
	if _, err := l.removeCachedRangesFromQuery(snap, span(snap, 0, 100)); err != nil {
		t.Fatal(err)
	}

	if err := l.invalidateRange(snap, span(snap, 40, 60)); err != nil {
		t.Fatal(err)
	}
	cov, err := l.coverage(snap)
	if err != nil {
		t.Fatal(err)
	}
	assertRanges(t, cov, text.NewRange(0, 40), text.NewRange(60, 100))
}

func TestLedgerInvalidateDropsAndTrims(t *testing.T) {
	snap := testSnapshot(t, 120)
	var l ledger
	for _, r := range []text.Range{{Start: 0, End: 20}, {Start: 30, End: 50}, {Start: 60, End: 80}} {
		if _, err := l.removeCachedRangesFromQuery(snap, span(snap, r.Start, r.End)); err != nil {
			t.Fatal(err)
		}
	}

	// [10,70) trims the first entry, drops the middle one, and trims
	// the last.
	if err := l.invalidateRange(snap, span(snap, 10, 70)); err != nil {
		t.Fatal(err)
	}
	cov, err := l.coverage(snap)
	if err != nil {
		t.Fatal(err)
	}
	assertRanges(t, cov, text.NewRange(0, 10), text.NewRange(70, 80))
}

func TestLedgerInvalidateEntireCoverage(t *testing.T) {
	snap := testSnapshot(t, 120)
	var l ledger
	if _, err := l.removeCachedRangesFromQuery(snap, span(snap, 0, 100)); err != nil {
		t.Fatal(err)
	}

	if err := l.invalidateRange(snap, span(snap, 0, 100)); err != nil {
		t.Fatal(err)
	}
	cov, err := l.coverage(snap)
	if err != nil {
		t.Fatal(err)
	}
	if len(cov) != 0 {
		t.Errorf("expected empty coverage, got %v", cov)
	}
}

func TestLedgerInvalidateAtExactBoundaryLeavesNoEmptyEntry(t *testing.T) {
	snap := testSnapshot(t, 120)
	var l ledger
	if _, err := l.removeCachedRangesFromQuery(snap, span(snap, 10, 50)); err != nil {
		t.Fatal(err)
	}

	// The span shares the entry's start, so the split's left piece
	// would be empty and must be discarded.
	if err := l.invalidateRange(snap, span(snap, 10, 30)); err != nil {
		t.Fatal(err)
	}
	cov, err := l.coverage(snap)
	if err != nil {
		t.Fatal(err)
	}
	assertRanges(t, cov, text.NewRange(30, 50))
}

func TestLedgerCoverageSurvivesEdits(t *testing.T) {
	buf := text.NewBuffer(strings.Repeat("x", 40))
	snap := buf.Snapshot()
	var l ledger
	if _, err := l.removeCachedRangesFromQuery(snap, span(snap, 10, 20)); err != nil {
		t.Fatal(err)
	}

	// Insert 5 bytes before the coverage; it shifts right.
	snap2, err := buf.Insert(0, "yyyyy")
	if err != nil {
		t.Fatal(err)
	}
	cov, err := l.coverage(snap2)
	if err != nil {
		t.Fatal(err)
	}
	assertRanges(t, cov, text.NewRange(15, 25))

	// The shifted coverage still deduplicates a query addressed in
	// the new coordinate space.
	gaps, err := l.removeCachedRangesFromQuery(snap2, span(snap2, 15, 25))
	if err != nil {
		t.Fatal(err)
	}
	if len(gaps) != 0 {
		t.Errorf("expected no gaps after shift, got %v", resolveAll(t, snap2, gaps))
	}
}

func TestLedgerInvertedQueryPanics(t *testing.T) {
	snap := testSnapshot(t, 40)
	var l ledger

	defer func() {
		if recover() == nil {
			t.Error("expected panic for inverted query range")
		}
	}()
	inverted := text.AnchorRange{Start: snap.AnchorBefore(20), End: snap.AnchorAfter(10)}
	_, _ = l.removeCachedRangesFromQuery(snap, inverted)
}
