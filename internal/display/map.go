package display

import (
	"sync"

	"github.com/dshills/textlens/internal/text"
)

const (
	// DefaultMaxRowBytes caps the buffer bytes scanned for a single
	// display row so pathologically long lines cannot stall a repaint.
	DefaultMaxRowBytes = 4096

	// DefaultFoldPlaceholder is the rune shown in place of a folded
	// range.
	DefaultFoldPlaceholder = '…'

	// Ellipsis marks a row truncated at the scan cap.
	Ellipsis = '…'
)

// DisplayPoint is a final display coordinate: folds collapsed and
// tabs expanded. Display points are derived values; they are never
// stored and always recomputed for a specific snapshot and fold set.
type DisplayPoint struct {
	Row    uint32
	Column uint32
}

// MapOption configures a Map.
type MapOption func(*Map)

// WithTabSize sets the tab stop width.
func WithTabSize(size uint32) MapOption {
	return func(m *Map) {
		if size > 0 {
			m.tabSize = size
		}
	}
}

// WithMaxRowBytes caps the bytes scanned per display row.
func WithMaxRowBytes(n int) MapOption {
	return func(m *Map) {
		if n > 0 {
			m.maxRowBytes = n
		}
	}
}

// WithFoldPlaceholder sets the rune rendered for a folded range.
// Passing 0 gives folds zero display width.
func WithFoldPlaceholder(r rune) MapOption {
	return func(m *Map) {
		m.placeholder = r
	}
}

// WithRowCacheSize sets the maximum number of cached display rows.
func WithRowCacheSize(n int) MapOption {
	return func(m *Map) {
		m.cache = NewRowCache(n)
	}
}

// Map composes the fold and tab layers over a buffer snapshot:
// DisplayPoint = Tab(Fold(Point)). A Map is bound to one snapshot at
// a time; SetSnapshot rebinds it after an edit.
type Map struct {
	mu          sync.Mutex
	snap        *text.Snapshot
	folds       *FoldMap
	view        *foldView
	tabSize     uint32
	maxRowBytes int
	placeholder rune
	cache       *RowCache
}

// NewMap creates a display map bound to the given snapshot.
func NewMap(snap *text.Snapshot, opts ...MapOption) *Map {
	m := &Map{
		snap:        snap,
		folds:       NewFoldMap(),
		tabSize:     DefaultTabSize,
		maxRowBytes: DefaultMaxRowBytes,
		placeholder: DefaultFoldPlaceholder,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cache == nil {
		m.cache = NewRowCache(DefaultRowCacheSize)
	}
	// The initial view cannot fail: the fold set is empty.
	m.view, _ = m.folds.view(snap, m.placeholderWidth())
	return m
}

func (m *Map) placeholderWidth() uint32 {
	if m.placeholder == 0 {
		return 0
	}
	return 1
}

// Snapshot returns the snapshot the map is currently bound to.
func (m *Map) Snapshot() *text.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// TabSize returns the configured tab stop width.
func (m *Map) TabSize() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tabSize
}

// SetSnapshot rebinds the map to a new snapshot, re-resolving all
// folds against it and invalidating cached rows.
func (m *Map) SetSnapshot(snap *text.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	view, err := m.folds.view(snap, m.placeholderWidth())
	if err != nil {
		return err
	}
	m.snap = snap
	m.view = view
	m.cache.Clear()
	return nil
}

// Fold marks the given buffer ranges hidden.
func (m *Map) Fold(ranges []text.Range) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.folds.Fold(m.snap, ranges); err != nil {
		return err
	}
	return m.rebuildView()
}

// Unfold removes hidden status from folds intersecting the given
// ranges.
func (m *Map) Unfold(ranges []text.Range) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.folds.Unfold(m.snap, ranges); err != nil {
		return err
	}
	return m.rebuildView()
}

func (m *Map) rebuildView() error {
	view, err := m.folds.view(m.snap, m.placeholderWidth())
	if err != nil {
		return err
	}
	m.view = view
	m.cache.Clear()
	return nil
}

// FoldedRanges returns the folded buffer ranges resolved against the
// current snapshot, in buffer order.
func (m *Map) FoldedRanges() ([]text.Range, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.folds.resolvedRanges(m.snap)
}

// FoldCount returns the number of folds.
func (m *Map) FoldCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.folds.FoldCount()
}

// IsLineFolded reports whether the given display row carries a fold.
func (m *Map) IsLineFolded(displayRow uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view.isRowFolded(displayRow)
}

// ToDisplayPoint converts a buffer point to display coordinates. A
// point inside a folded range maps to the fold's collapsed position.
func (m *Map) ToDisplayPoint(p text.Point) DisplayPoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	fp := m.view.toFoldPoint(p, text.BiasLeft)
	chunks, _ := m.view.rowChunks(fp.Row, m.maxRowBytes)
	return DisplayPoint{Row: fp.Row, Column: m.expandColumn(chunks, fp.Column)}
}

// ToBufferPoint converts a display point back to buffer coordinates.
// When the display column lands strictly inside a tab's expansion
// span, bias decides the side to snap to: BiasLeft stops before the
// tab and reports the distance into its visual span as remainder;
// BiasRight snaps after the tab with remainder zero.
func (m *Map) ToBufferPoint(dp DisplayPoint, bias text.Bias) (text.Point, uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunks, _ := m.view.rowChunks(dp.Row, m.maxRowBytes)
	foldCol, remainder := m.collapseColumn(chunks, dp.Column, bias)
	return m.view.toBufferPoint(FoldPoint{Row: dp.Row, Column: foldCol}, bias), remainder
}

// MaxPoint returns the last valid display point.
func (m *Map) MaxPoint() DisplayPoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	fp := m.view.maxPoint()
	chunks, _ := m.view.rowChunks(fp.Row, m.maxRowBytes)
	return DisplayPoint{Row: fp.Row, Column: m.expandColumn(chunks, fp.Column)}
}

// RowCount returns the number of display rows.
func (m *Map) RowCount() uint32 {
	return m.MaxPoint().Row + 1
}

// Row returns the rendered cells for a display row: folds collapsed
// to their placeholder, tabs expanded to aligned spaces, and an
// ellipsis cell appended when the row scan cap was hit.
func (m *Map) Row(displayRow uint32) []Cell {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunks, truncated := m.view.rowChunks(displayRow, m.maxRowBytes)
	if cells, ok := m.cache.Get(displayRow, chunks, truncated); ok {
		return cells
	}
	cells := m.renderChunks(chunks, truncated)
	m.cache.Put(displayRow, chunks, truncated, cells)
	return cells
}

// RowText returns the rendered text of a display row.
func (m *Map) RowText(displayRow uint32) string {
	cells := m.Row(displayRow)
	runes := make([]rune, 0, len(cells))
	for _, c := range cells {
		if !c.IsContinuation() {
			runes = append(runes, c.Rune)
		}
	}
	return string(runes)
}

// CacheStats returns row cache statistics.
func (m *Map) CacheStats() RowCacheStats {
	return m.cache.Stats()
}

// expandColumn converts a post-fold column to a display column by
// expanding tabs. Fold placeholders are opaque single-width units,
// never tab stops.
func (m *Map) expandColumn(chunks []rowChunk, target uint32) uint32 {
	var expanded, consumed uint32
	pw := m.placeholderWidth()
	for _, ch := range chunks {
		if consumed >= target {
			break
		}
		if ch.fold {
			consumed += pw
			expanded += pw
			continue
		}
		n := uint32(len(ch.text))
		take := target - consumed
		if take > n {
			take = n
		}
		for i := uint32(0); i < take; i++ {
			if ch.text[i] == '\t' {
				expanded += m.tabSize - expanded%m.tabSize
			} else {
				expanded++
			}
		}
		consumed += take
	}
	return expanded + (target - consumed)
}

// collapseColumn is the inverse of expandColumn, mapping a display
// column back to a post-fold column with tab-span bias snapping.
func (m *Map) collapseColumn(chunks []rowChunk, target uint32, bias text.Bias) (foldCol, remainder uint32) {
	var expanded uint32
	pw := m.placeholderWidth()
	for _, ch := range chunks {
		if ch.fold {
			if expanded >= target {
				return foldCol, 0
			}
			expanded += pw
			foldCol += pw
			continue
		}
		for i := 0; i < len(ch.text); i++ {
			if expanded >= target {
				return foldCol, 0
			}
			var width uint32 = 1
			if ch.text[i] == '\t' {
				width = m.tabSize - expanded%m.tabSize
			}
			if expanded+width > target {
				if bias == text.BiasLeft {
					return foldCol, target - expanded
				}
				return foldCol + 1, 0
			}
			expanded += width
			foldCol++
		}
	}
	return foldCol + (target - expanded), 0
}

// renderChunks materializes row chunks into display cells.
func (m *Map) renderChunks(chunks []rowChunk, truncated bool) []Cell {
	var cells []Cell
	var col uint32
	for _, ch := range chunks {
		if ch.fold {
			if m.placeholder != 0 {
				cells = append(cells, Cell{Rune: m.placeholder, Width: 1})
				col++
			}
			continue
		}
		for _, r := range ch.text {
			if r == '\t' {
				stop := col + m.tabSize - col%m.tabSize
				for col < stop {
					cells = append(cells, Cell{Rune: ' ', Width: 1})
					col++
				}
				continue
			}
			w := RuneWidth(r)
			cells = append(cells, Cell{Rune: r, Width: w})
			col++
			if w == 2 {
				cells = append(cells, ContinuationCell())
			}
		}
	}
	if truncated {
		cells = append(cells, Cell{Rune: Ellipsis, Width: 1})
	}
	return cells
}
