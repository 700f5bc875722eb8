package annotate

import (
	"fmt"
	"sort"

	"github.com/dshills/textlens/internal/text"
)

// ledger tracks which buffer ranges of one excerpt have already been
// queried, plus the in-flight tasks filling the rest. Ranges are kept
// sorted and disjoint; anchors keep them aligned with the buffer as
// it is edited.
type ledger struct {
	tasks  []*queryTask
	ranges []text.AnchorRange
}

// updateTasks diffs the incoming query ranges against cached coverage
// and spawns at most one task for the uncovered remainder. When the
// strategy invalidates, in-flight tasks are cancelled and coverage is
// reset to exactly the requested ranges, so a single task re-queries
// everything.
func (l *ledger) updateTasks(snap *text.Snapshot, ranges QueryRanges, invalidate InvalidationStrategy, spawn func(QueryRanges) *queryTask) error {
	var toQuery QueryRanges
	if invalidate.ShouldInvalidate() {
		for _, t := range l.tasks {
			t.cancel()
		}
		l.tasks = l.tasks[:0]
		l.ranges = ranges.Sorted()
		toQuery = ranges
	} else {
		var err error
		toQuery.BeforeVisible, err = l.uncovered(snap, ranges.BeforeVisible)
		if err != nil {
			return err
		}
		toQuery.Visible, err = l.uncovered(snap, ranges.Visible)
		if err != nil {
			return err
		}
		toQuery.AfterVisible, err = l.uncovered(snap, ranges.AfterVisible)
		if err != nil {
			return err
		}
	}
	if toQuery.IsEmpty() {
		return nil
	}
	l.tasks = append(l.tasks, spawn(toQuery))
	return nil
}

func (l *ledger) uncovered(snap *text.Snapshot, ranges []text.AnchorRange) ([]text.AnchorRange, error) {
	var out []text.AnchorRange
	for _, r := range ranges {
		gaps, err := l.removeCachedRangesFromQuery(snap, r)
		if err != nil {
			return nil, err
		}
		out = append(out, gaps...)
	}
	return out, nil
}

// removeCachedRangesFromQuery subtracts cached coverage from one query
// range and returns the gaps that still need fetching. The cached
// entries absorb the gaps immediately, so a repeated query for the
// same range yields nothing even before results arrive. Cached ranges
// separated from each other by a single byte are treated as touching.
func (l *ledger) removeCachedRangesFromQuery(snap *text.Snapshot, query text.AnchorRange) ([]text.AnchorRange, error) {
	qr, err := query.Resolve(snap)
	if err != nil {
		return nil, err
	}
	if !assertValidRange(qr, "annotation query") {
		return nil, nil
	}

	resolved := make([]text.Range, len(l.ranges))
	for i, r := range l.ranges {
		resolved[i], err = r.Resolve(snap)
		if err != nil {
			return nil, err
		}
	}

	var gaps []text.AnchorRange
	last := -1
	for i := range l.ranges {
		if resolved[i].End < qr.Start {
			continue
		}
		if resolved[i].Start > qr.End {
			break
		}
		if last < 0 {
			if qr.Start < resolved[i].Start {
				gaps = append(gaps, text.AnchorRange{Start: query.Start, End: l.ranges[i].Start})
				l.ranges[i].Start = query.Start
				resolved[i].Start = qr.Start
			}
		} else if resolved[last].End+1 < resolved[i].Start {
			gaps = append(gaps, text.AnchorRange{Start: l.ranges[last].End, End: l.ranges[i].Start})
			l.ranges[i].Start = l.ranges[last].End
			resolved[i].Start = resolved[last].End
		}
		last = i
	}

	if last < 0 {
		gaps = append(gaps, query)
		l.insert(snap, query, qr)
		return gaps, nil
	}
	if resolved[last].End+1 < qr.End {
		gaps = append(gaps, text.AnchorRange{Start: l.ranges[last].End, End: query.End})
		l.ranges[last].End = query.End
		resolved[last].End = qr.End
	}
	return gaps, nil
}

// insert places a new coverage entry at its sorted position.
func (l *ledger) insert(snap *text.Snapshot, r text.AnchorRange, rr text.Range) {
	i := sort.Search(len(l.ranges), func(i int) bool {
		cr, err := l.ranges[i].Resolve(snap)
		return err == nil && cr.Start >= rr.Start
	})
	l.ranges = append(l.ranges, text.AnchorRange{})
	copy(l.ranges[i+1:], l.ranges[i:])
	l.ranges[i] = r
}

// invalidateRange removes a span from cached coverage so it will be
// re-queried. Entries fully inside the span are dropped, entries
// straddling an edge are trimmed, and an entry containing the span is
// split in two. Empty leftovers are discarded.
func (l *ledger) invalidateRange(snap *text.Snapshot, r text.AnchorRange) error {
	rr, err := r.Resolve(snap)
	if err != nil {
		return err
	}

	kept := l.ranges[:0]
	for _, cached := range l.ranges {
		cr, err := cached.Resolve(snap)
		if err != nil {
			return err
		}
		switch {
		case cr.Start > rr.End || cr.End < rr.Start:
			kept = append(kept, cached)
		case cr.Start >= rr.Start && cr.End <= rr.End:
			// Fully invalidated.
		case rr.Start >= cr.Start && rr.End <= cr.End:
			if cr.Start < rr.Start {
				kept = append(kept, text.AnchorRange{Start: cached.Start, End: r.Start})
			}
			if rr.End < cr.End {
				kept = append(kept, text.AnchorRange{Start: r.End, End: cached.End})
			}
		case cr.Start >= rr.Start:
			kept = append(kept, text.AnchorRange{Start: r.End, End: cached.End})
		default:
			kept = append(kept, text.AnchorRange{Start: cached.Start, End: r.Start})
		}
	}
	l.ranges = kept
	return nil
}

// coverage resolves the cached coverage under snap, for inspection.
func (l *ledger) coverage(snap *text.Snapshot) ([]text.Range, error) {
	out := make([]text.Range, 0, len(l.ranges))
	for _, r := range l.ranges {
		rr, err := r.Resolve(snap)
		if err != nil {
			return nil, fmt.Errorf("resolving cached range: %w", err)
		}
		out = append(out, rr)
	}
	return out, nil
}

func (l *ledger) cancelTasks() {
	for _, t := range l.tasks {
		t.cancel()
	}
	l.tasks = l.tasks[:0]
}
