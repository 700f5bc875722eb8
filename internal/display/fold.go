package display

import (
	"errors"
	"sort"

	"github.com/dshills/textlens/internal/text"
)

// Fold marks a buffer range as hidden. The range is anchored with a
// right-biased start and a left-biased end so text typed at either
// edge of the fold lands outside it.
type Fold struct {
	Range text.AnchorRange
}

// FoldPoint is a position in post-fold coordinates: folded ranges
// contribute their placeholder width and folded newlines collapse
// rows together.
type FoldPoint struct {
	Row    uint32
	Column uint32
}

// FoldMap maintains the set of hidden ranges for one buffer. The set
// is kept disjoint and sorted; overlapping fold requests are merged.
// Folds that merely touch are left distinct so individually created
// folds stay individually unfoldable.
type FoldMap struct {
	folds []Fold
	gen   uint64
}

// NewFoldMap creates an empty fold map.
func NewFoldMap() *FoldMap {
	return &FoldMap{}
}

// Generation returns a counter bumped on every fold set change, used
// by callers to invalidate derived state.
func (m *FoldMap) Generation() uint64 {
	return m.gen
}

// FoldCount returns the number of folds.
func (m *FoldMap) FoldCount() int {
	return len(m.folds)
}

// Fold marks the given ranges hidden. Zero-length ranges are ignored
// and out-of-bounds ranges are clamped. A request overlapping one or
// more existing folds replaces them with a single merged fold;
// touching is not overlapping.
func (m *FoldMap) Fold(snap *text.Snapshot, ranges []text.Range) error {
	resolved, err := m.resolvedRanges(snap)
	if err != nil {
		return err
	}

	for _, r := range ranges {
		r = text.Range{Start: snap.ClipOffset(r.Start), End: snap.ClipOffset(r.End)}
		if !r.IsValid() || r.IsEmpty() {
			continue
		}
		resolved = append(resolved, r)
	}
	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].Start != resolved[j].Start {
			return resolved[i].Start < resolved[j].Start
		}
		return resolved[i].End < resolved[j].End
	})

	var merged []text.Range
	for _, r := range resolved {
		if n := len(merged); n > 0 && merged[n-1].Overlaps(r) {
			if r.End > merged[n-1].End {
				merged[n-1].End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}

	m.setFolds(snap, merged)
	return nil
}

// Unfold removes hidden status from any fold intersecting the given
// ranges. A partially covered fold is split, keeping the
// non-overlapping remainder hidden. Unfolding a never-folded range is
// a no-op.
func (m *FoldMap) Unfold(snap *text.Snapshot, ranges []text.Range) error {
	resolved, err := m.resolvedRanges(snap)
	if err != nil {
		return err
	}

	var kept []text.Range
	for _, f := range resolved {
		pieces := []text.Range{f}
		for _, u := range ranges {
			u = text.Range{Start: snap.ClipOffset(u.Start), End: snap.ClipOffset(u.End)}
			if !u.IsValid() {
				continue
			}
			var next []text.Range
			for _, p := range pieces {
				if !p.Overlaps(u) {
					next = append(next, p)
					continue
				}
				if p.Start < u.Start {
					next = append(next, text.Range{Start: p.Start, End: u.Start})
				}
				if u.End < p.End {
					next = append(next, text.Range{Start: u.End, End: p.End})
				}
			}
			pieces = next
		}
		kept = append(kept, pieces...)
	}

	m.setFolds(snap, kept)
	return nil
}

// resolvedRanges resolves the stored folds against snap, dropping any
// whose anchors can no longer be resolved and any that collapsed to
// zero length. The result is sorted.
func (m *FoldMap) resolvedRanges(snap *text.Snapshot) ([]text.Range, error) {
	resolved := make([]text.Range, 0, len(m.folds))
	for _, f := range m.folds {
		r, err := f.Range.Resolve(snap)
		if err != nil {
			var resErr *text.AnchorResolutionError
			if errors.As(err, &resErr) && resErr.Kind == text.ResolutionEvictedHistory {
				continue
			}
			return nil, err
		}
		if r.IsEmpty() || !r.IsValid() {
			continue
		}
		resolved = append(resolved, r)
	}
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].Start < resolved[j].Start
	})
	return resolved, nil
}

// setFolds re-anchors the given resolved ranges against snap and
// replaces the fold set.
func (m *FoldMap) setFolds(snap *text.Snapshot, ranges []text.Range) {
	folds := make([]Fold, 0, len(ranges))
	for _, r := range ranges {
		folds = append(folds, Fold{Range: text.AnchorRange{
			Start: snap.AnchorAfter(r.Start),
			End:   snap.AnchorBefore(r.End),
		}})
	}
	m.folds = folds
	m.gen++
}

// foldRegion is one fold resolved against a specific snapshot.
type foldRegion struct {
	bufRange  text.Range
	bufStart  text.Point
	bufEnd    text.Point
	foldStart FoldPoint
}

// foldView is the fold set resolved against one snapshot. All
// conversions on a view are pure and allocation-light.
type foldView struct {
	snap             *text.Snapshot
	regions          []foldRegion
	placeholderWidth uint32
}

// view builds a foldView for the given snapshot.
func (m *FoldMap) view(snap *text.Snapshot, placeholderWidth uint32) (*foldView, error) {
	resolved, err := m.resolvedRanges(snap)
	if err != nil {
		return nil, err
	}

	v := &foldView{snap: snap, placeholderWidth: placeholderWidth}
	base := text.Point{}
	resume := FoldPoint{}
	for _, r := range resolved {
		start := snap.OffsetToPoint(r.Start)
		end := snap.OffsetToPoint(r.End)
		if n := len(v.regions); n > 0 && r.Start < v.regions[n-1].bufRange.End {
			// Resolved folds are disjoint; anchors cannot reorder
			// under edits.
			continue
		}
		var foldStart FoldPoint
		if start.Row == base.Row {
			foldStart = FoldPoint{Row: resume.Row, Column: resume.Column + (start.Column - base.Column)}
		} else {
			foldStart = FoldPoint{Row: resume.Row + (start.Row - base.Row), Column: start.Column}
		}
		v.regions = append(v.regions, foldRegion{
			bufRange:  r,
			bufStart:  start,
			bufEnd:    end,
			foldStart: foldStart,
		})
		base = end
		resume = FoldPoint{Row: foldStart.Row, Column: foldStart.Column + placeholderWidth}
	}
	return v, nil
}

// toFoldPoint converts a buffer point to post-fold coordinates. A
// point inside a hidden range maps to the fold's collapsed position;
// bias picks the side of the placeholder.
func (v *foldView) toFoldPoint(p text.Point, bias text.Bias) FoldPoint {
	base := text.Point{}
	resume := FoldPoint{}
	for i := range v.regions {
		r := &v.regions[i]
		if p.Before(r.bufStart) {
			break
		}
		if p.Before(r.bufEnd) {
			if bias == text.BiasRight {
				return FoldPoint{Row: r.foldStart.Row, Column: r.foldStart.Column + v.placeholderWidth}
			}
			return r.foldStart
		}
		base = r.bufEnd
		resume = FoldPoint{Row: r.foldStart.Row, Column: r.foldStart.Column + v.placeholderWidth}
	}
	if p.Row == base.Row {
		return FoldPoint{Row: resume.Row, Column: resume.Column + (p.Column - base.Column)}
	}
	return FoldPoint{Row: resume.Row + (p.Row - base.Row), Column: p.Column}
}

// toBufferPoint converts a post-fold point back to buffer
// coordinates. A point on a fold placeholder maps to the fold's start
// (BiasLeft) or end (BiasRight).
func (v *foldView) toBufferPoint(fp FoldPoint, bias text.Bias) text.Point {
	base := text.Point{}
	resume := FoldPoint{}
	for i := range v.regions {
		r := &v.regions[i]
		if fp.Row < r.foldStart.Row ||
			(fp.Row == r.foldStart.Row && fp.Column < r.foldStart.Column) {
			break
		}
		onPlaceholder := fp.Row == r.foldStart.Row &&
			fp.Column < r.foldStart.Column+v.placeholderWidth
		if onPlaceholder {
			if bias == text.BiasRight {
				return r.bufEnd
			}
			return r.bufStart
		}
		base = r.bufEnd
		resume = FoldPoint{Row: r.foldStart.Row, Column: r.foldStart.Column + v.placeholderWidth}
	}
	var p text.Point
	if fp.Row == resume.Row {
		p = text.Point{Row: base.Row, Column: base.Column + (fp.Column - resume.Column)}
	} else {
		p = text.Point{Row: base.Row + (fp.Row - resume.Row), Column: fp.Column}
	}
	return v.snap.ClipPoint(p)
}

// maxPoint returns the last valid post-fold point.
func (v *foldView) maxPoint() FoldPoint {
	return v.toFoldPoint(v.snap.MaxPoint(), text.BiasLeft)
}

// isRowFolded reports whether the given post-fold row carries a fold
// placeholder.
func (v *foldView) isRowFolded(row uint32) bool {
	for i := range v.regions {
		if v.regions[i].foldStart.Row == row {
			return true
		}
		if v.regions[i].foldStart.Row > row {
			break
		}
	}
	return false
}

// rowChunk is a run of visible row content: either literal buffer
// text or a fold placeholder.
type rowChunk struct {
	text string
	fold bool
}

// rowChunks assembles the visible content of a post-fold row. At most
// maxBytes of buffer text are scanned; truncated reports whether the
// cap was hit.
func (v *foldView) rowChunks(row uint32, maxBytes int) (chunks []rowChunk, truncated bool) {
	start := v.toBufferPoint(FoldPoint{Row: row}, text.BiasLeft)
	off := v.snap.PointToOffset(start)

	idx := sort.Search(len(v.regions), func(i int) bool {
		return v.regions[i].bufRange.End > off
	})
	budget := maxBytes
	for {
		if idx < len(v.regions) && v.regions[idx].bufRange.Start <= off {
			chunks = append(chunks, rowChunk{text: "", fold: true})
			off = v.regions[idx].bufRange.End
			idx++
			continue
		}
		rowEnd := v.snap.LineEnd(v.snap.OffsetToPoint(off).Row)
		segEnd := rowEnd
		if idx < len(v.regions) && v.regions[idx].bufRange.Start < segEnd {
			segEnd = v.regions[idx].bufRange.Start
		}
		capped := false
		if int(segEnd-off) > budget {
			segEnd = off + text.ByteOffset(budget)
			capped = true
		}
		if segEnd > off {
			chunks = append(chunks, rowChunk{text: v.snap.TextRange(off, segEnd)})
			budget -= int(segEnd - off)
		}
		if capped {
			return chunks, true
		}
		if segEnd == rowEnd {
			return chunks, false
		}
		off = segEnd
	}
}
