package annotate

import (
	"github.com/dshills/textlens/internal/text"
)

// ExcerptID identifies a visible slice of a buffer inside a view.
type ExcerptID uint64

// ExcerptQuery carries the identity and intent of one annotation
// query round against a single excerpt.
type ExcerptQuery struct {
	BufferID     text.BufferID
	ExcerptID    ExcerptID
	CacheVersion uint64
	Invalidate   InvalidationStrategy
	Reason       string
}

// QueryRanges partitions the ranges of one query round into three
// priority tiers. Visible ranges are fetched first so on-screen
// annotations arrive before lookahead ones.
type QueryRanges struct {
	BeforeVisible []text.AnchorRange
	Visible       []text.AnchorRange
	AfterVisible  []text.AnchorRange
}

// IsEmpty reports whether no ranges need querying.
func (q QueryRanges) IsEmpty() bool {
	return len(q.BeforeVisible) == 0 && len(q.Visible) == 0 && len(q.AfterVisible) == 0
}

// Sorted flattens the tiers into buffer order. The tiers are already
// internally sorted and mutually ordered, so this is a concatenation.
func (q QueryRanges) Sorted() []text.AnchorRange {
	out := make([]text.AnchorRange, 0, len(q.BeforeVisible)+len(q.Visible)+len(q.AfterVisible))
	out = append(out, q.BeforeVisible...)
	out = append(out, q.Visible...)
	out = append(out, q.AfterVisible...)
	return out
}

// DetermineQueryRanges builds the three query tiers for an excerpt.
// The visible tier is the clipped visible range; the lookahead tiers
// extend one visible-range length beyond it in each direction, clamped
// to the excerpt bounds. An empty visible range yields no queries.
func DetermineQueryRanges(snap *text.Snapshot, excerpt, visible text.Range) QueryRanges {
	var out QueryRanges

	excerpt.Start = snap.ClipOffset(excerpt.Start)
	excerpt.End = snap.ClipOffset(excerpt.End)
	start := snap.ClipOffset(visible.Start)
	end := snap.ClipOffset(visible.End)
	if start < excerpt.Start {
		start = excerpt.Start
	}
	if end > excerpt.End {
		end = excerpt.End
	}
	if start >= end {
		return out
	}
	out.Visible = []text.AnchorRange{anchorSpan(snap, start, end)}
	lookahead := end - start

	if end < excerpt.End {
		afterEnd := end + lookahead
		if afterEnd > excerpt.End {
			afterEnd = excerpt.End
		}
		out.AfterVisible = []text.AnchorRange{anchorSpan(snap, end, afterEnd)}
	}
	if start > excerpt.Start {
		beforeStart := start - lookahead
		if beforeStart < excerpt.Start {
			beforeStart = excerpt.Start
		}
		out.BeforeVisible = []text.AnchorRange{anchorSpan(snap, beforeStart, start)}
	}
	return out
}

// anchorSpan anchors a query range so that coverage grows at the
// edges: left bias at the start, right bias at the end.
func anchorSpan(snap *text.Snapshot, start, end text.ByteOffset) text.AnchorRange {
	return text.AnchorRange{
		Start: snap.AnchorBefore(start),
		End:   snap.AnchorAfter(end),
	}
}
