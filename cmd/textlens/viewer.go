package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/textlens/internal/annotate"
	"github.com/dshills/textlens/internal/config"
	"github.com/dshills/textlens/internal/display"
	"github.com/dshills/textlens/internal/text"
)

const mainExcerpt annotate.ExcerptID = 1

// viewer renders one file through the display map: folds collapsed,
// tabs expanded, annotations from the cache in the status line.
type viewer struct {
	screen tcell.Screen
	logger *slog.Logger

	settings config.Settings
	watcher  *config.Watcher

	path string
	buf  *text.Buffer
	dmap *display.Map
	anns *annotate.Cache

	topRow uint32
	cursor display.DisplayPoint
	inited bool
}

func newViewer(opts options, logger *slog.Logger) (*viewer, error) {
	settings, err := config.Load(configPath(opts))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(opts.File)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", opts.File, err)
	}

	buf := text.NewBuffer(string(data), text.WithMaxChanges(settings.Buffer.HistoryLimit))
	snap := buf.Snapshot()

	v := &viewer{
		logger:   logger,
		settings: settings,
		path:     opts.File,
		buf:      buf,
		dmap:     newDisplayMap(snap, settings),
		anns:     annotate.NewCache(&todoProvider{buf: buf}, annotate.WithLogger(logger)),
	}

	v.screen, err = tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating terminal: %w", err)
	}

	if path := configPath(opts); path != "" {
		v.watcher, err = config.NewWatcher(path, func(s config.Settings) {
			_ = v.screen.PostEvent(tcell.NewEventInterrupt(s))
		}, config.WithWatcherLogger(logger))
		if err != nil {
			logger.Warn("config watch disabled", slog.Any("error", err))
		}
	}
	return v, nil
}

func configPath(opts options) string {
	if opts.ConfigPath != "" {
		return opts.ConfigPath
	}
	return config.DefaultPath()
}

func newDisplayMap(snap *text.Snapshot, settings config.Settings) *display.Map {
	return display.NewMap(snap,
		display.WithTabSize(uint32(settings.Editor.TabSize)),
		display.WithMaxRowBytes(settings.Editor.MaxRowBytes),
		display.WithFoldPlaceholder(settings.Editor.PlaceholderRune()),
		display.WithRowCacheSize(settings.Editor.RowCacheSize),
	)
}

// Run starts the event loop. It returns when the user quits.
func (v *viewer) Run() error {
	if err := v.screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	v.inited = true

	v.refreshAnnotations(annotate.InvalidateNone, "open")
	for {
		v.render()
		switch ev := v.screen.PollEvent().(type) {
		case *tcell.EventResize:
			v.screen.Sync()
		case *tcell.EventInterrupt:
			if s, ok := ev.Data().(config.Settings); ok {
				v.applySettings(s)
				continue
			}
			return nil
		case *tcell.EventKey:
			if v.handleKey(ev) {
				return nil
			}
		}
	}
}

// Quit unblocks the event loop from another goroutine.
func (v *viewer) Quit() {
	_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Shutdown restores the terminal and stops background work.
func (v *viewer) Shutdown() {
	if v.watcher != nil {
		v.watcher.Close()
	}
	if v.inited {
		v.screen.Fini()
		v.inited = false
	}
	v.anns.Wait()
}

func (v *viewer) handleKey(ev *tcell.EventKey) (quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		v.moveCursor(-1, 0)
	case tcell.KeyDown:
		v.moveCursor(1, 0)
	case tcell.KeyLeft:
		v.moveCursor(0, -1)
	case tcell.KeyRight:
		v.moveCursor(0, 1)
	case tcell.KeyPgUp:
		v.moveCursor(-int(v.pageSize()), 0)
	case tcell.KeyPgDn:
		v.moveCursor(int(v.pageSize()), 0)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'f':
			v.foldParagraph()
		case 'u':
			v.unfoldAtCursor()
		case 'r':
			v.refreshAnnotations(annotate.InvalidateRefreshRequested, "manual refresh")
		}
	}
	return false
}

func (v *viewer) pageSize() uint32 {
	_, h := v.screen.Size()
	if h <= 1 {
		return 1
	}
	return uint32(h - 1)
}

func (v *viewer) moveCursor(dRow, dCol int) {
	row := int(v.cursor.Row) + dRow
	if row < 0 {
		row = 0
	}
	if maxRow := int(v.dmap.RowCount()) - 1; row > maxRow {
		row = maxRow
	}
	col := int(v.cursor.Column) + dCol
	if col < 0 {
		col = 0
	}
	// Snap to a position that maps cleanly back to the buffer.
	p, _ := v.dmap.ToBufferPoint(display.DisplayPoint{Row: uint32(row), Column: uint32(col)}, text.BiasLeft)
	v.cursor = v.dmap.ToDisplayPoint(p)
	if v.cursor.Row != uint32(row) {
		v.cursor.Row = uint32(row)
	}

	if v.cursor.Row < v.topRow {
		v.topRow = v.cursor.Row
	} else if page := v.pageSize(); v.cursor.Row >= v.topRow+page {
		v.topRow = v.cursor.Row - page + 1
	}
	v.refreshAnnotations(annotate.InvalidateNone, "scroll")
}

// foldParagraph folds from the cursor's buffer line through the line
// before the next blank line.
func (v *viewer) foldParagraph() {
	snap := v.dmap.Snapshot()
	p, _ := v.dmap.ToBufferPoint(v.cursor, text.BiasLeft)
	end := p.Row
	for end+1 < snap.LineCount() && snap.LineLen(end+1) > 0 {
		end++
	}
	r := text.Range{Start: snap.LineStart(p.Row), End: snap.LineEnd(end)}
	if r.IsEmpty() {
		return
	}
	if err := v.dmap.Fold([]text.Range{r}); err != nil {
		v.logger.Warn("fold failed", slog.Any("error", err))
	}
}

func (v *viewer) unfoldAtCursor() {
	snap := v.dmap.Snapshot()
	p, _ := v.dmap.ToBufferPoint(v.cursor, text.BiasLeft)
	r := text.Range{Start: snap.LineStart(p.Row), End: snap.LineEnd(p.Row)}
	if err := v.dmap.Unfold([]text.Range{r}); err != nil {
		v.logger.Warn("unfold failed", slog.Any("error", err))
	}
}

func (v *viewer) applySettings(s config.Settings) {
	folded, err := v.dmap.FoldedRanges()
	if err != nil {
		v.logger.Warn("carrying folds across reload failed", slog.Any("error", err))
		folded = nil
	}
	v.settings = s
	v.dmap = newDisplayMap(v.dmap.Snapshot(), s)
	if len(folded) > 0 {
		if err := v.dmap.Fold(folded); err != nil {
			v.logger.Warn("restoring folds failed", slog.Any("error", err))
		}
	}
	v.screen.Sync()
}

// visibleRange returns the buffer byte range covered by the rows on
// screen.
func (v *viewer) visibleRange() text.Range {
	snap := v.dmap.Snapshot()
	bottom := v.topRow + v.pageSize() - 1
	if max := v.dmap.RowCount() - 1; bottom > max {
		bottom = max
	}
	start, _ := v.dmap.ToBufferPoint(display.DisplayPoint{Row: v.topRow}, text.BiasLeft)
	end, _ := v.dmap.ToBufferPoint(display.DisplayPoint{Row: bottom}, text.BiasLeft)
	return text.Range{Start: snap.LineStart(start.Row), End: snap.LineEnd(end.Row)}
}

func (v *viewer) refreshAnnotations(strategy annotate.InvalidationStrategy, reason string) {
	if !v.settings.Annotations.Enabled {
		return
	}
	snap := v.dmap.Snapshot()
	excerpt := text.Range{Start: 0, End: snap.Len()}
	if err := v.anns.Refresh(snap, mainExcerpt, excerpt, v.visibleRange(), strategy, reason); err != nil {
		v.logger.Warn("annotation refresh failed", slog.Any("error", err))
	}
}

func (v *viewer) render() {
	v.screen.Clear()
	w, h := v.screen.Size()
	viewH := h - 1
	if viewH < 0 {
		viewH = 0
	}

	rowCount := v.dmap.RowCount()
	for y := 0; y < viewH; y++ {
		row := v.topRow + uint32(y)
		if row >= rowCount {
			break
		}
		style := tcell.StyleDefault
		if v.dmap.IsLineFolded(row) {
			style = style.Foreground(tcell.ColorAqua)
		}
		x := 0
		for _, cell := range v.dmap.Row(row) {
			if x >= w {
				break
			}
			if cell.IsContinuation() {
				x++
				continue
			}
			v.screen.SetContent(x, y, cell.Rune, nil, style)
			x += cell.Width
		}
	}

	v.renderStatus(w, h-1)
	v.screen.ShowCursor(int(v.cursor.Column), int(v.cursor.Row-v.topRow))
	v.screen.Show()
}

func (v *viewer) renderStatus(w, y int) {
	if y < 0 {
		return
	}
	p, _ := v.dmap.ToBufferPoint(v.cursor, text.BiasLeft)
	visible, err := v.anns.AnnotationsInRange(mainExcerpt, v.visibleRange())
	if err != nil {
		v.logger.Warn("listing annotations failed", slog.Any("error", err))
	}
	status := fmt.Sprintf(" %s  %d:%d  folds:%d  notes:%d ",
		v.path, p.Row+1, p.Column, v.dmap.FoldCount(), len(visible))
	if len(visible) > 0 {
		status += "| " + visible[0].Label
	}

	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range status {
		if x >= w {
			break
		}
		v.screen.SetContent(x, y, r, nil, style)
		x += display.RuneWidth(r)
	}
	for ; x < w; x++ {
		v.screen.SetContent(x, y, ' ', nil, style)
	}
}
