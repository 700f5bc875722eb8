package annotate

import (
	"testing"

	"github.com/dshills/textlens/internal/text"
)

func TestDetermineQueryRangesTiers(t *testing.T) {
	snap := testSnapshot(t, 1000)

	q := DetermineQueryRanges(snap, text.NewRange(0, 1000), text.NewRange(400, 500))
	assertRanges(t, resolveAll(t, snap, q.BeforeVisible), text.NewRange(300, 400))
	assertRanges(t, resolveAll(t, snap, q.Visible), text.NewRange(400, 500))
	assertRanges(t, resolveAll(t, snap, q.AfterVisible), text.NewRange(500, 600))
}

func TestDetermineQueryRangesAtExcerptStart(t *testing.T) {
	snap := testSnapshot(t, 1000)

	q := DetermineQueryRanges(snap, text.NewRange(0, 1000), text.NewRange(0, 100))
	if len(q.BeforeVisible) != 0 {
		t.Errorf("expected no before tier, got %v", resolveAll(t, snap, q.BeforeVisible))
	}
	assertRanges(t, resolveAll(t, snap, q.Visible), text.NewRange(0, 100))
	assertRanges(t, resolveAll(t, snap, q.AfterVisible), text.NewRange(100, 200))
}

func TestDetermineQueryRangesClampedToExcerpt(t *testing.T) {
	snap := testSnapshot(t, 1000)

	q := DetermineQueryRanges(snap, text.NewRange(0, 1000), text.NewRange(900, 1100))
	assertRanges(t, resolveAll(t, snap, q.Visible), text.NewRange(900, 1000))
	if len(q.AfterVisible) != 0 {
		t.Errorf("expected no after tier, got %v", resolveAll(t, snap, q.AfterVisible))
	}
	assertRanges(t, resolveAll(t, snap, q.BeforeVisible), text.NewRange(800, 900))
}

func TestDetermineQueryRangesWholeExcerptVisible(t *testing.T) {
	snap := testSnapshot(t, 1000)

	q := DetermineQueryRanges(snap, text.NewRange(100, 300), text.NewRange(0, 1000))
	if len(q.BeforeVisible) != 0 || len(q.AfterVisible) != 0 {
		t.Error("expected no lookahead tiers when the excerpt is fully visible")
	}
	assertRanges(t, resolveAll(t, snap, q.Visible), text.NewRange(100, 300))
}

func TestDetermineQueryRangesEmptyVisible(t *testing.T) {
	snap := testSnapshot(t, 1000)

	q := DetermineQueryRanges(snap, text.NewRange(0, 1000), text.NewRange(500, 500))
	if !q.IsEmpty() {
		t.Errorf("expected empty query ranges, got %v", q)
	}
}

func TestQueryRangesSortedConcatenatesInOrder(t *testing.T) {
	snap := testSnapshot(t, 1000)

	q := DetermineQueryRanges(snap, text.NewRange(0, 1000), text.NewRange(400, 500))
	sorted := resolveAll(t, snap, q.Sorted())
	assertRanges(t, sorted,
		text.NewRange(300, 400), text.NewRange(400, 500), text.NewRange(500, 600))
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].End {
			t.Errorf("sorted ranges out of order: %v", sorted)
		}
	}
}
