package annotate

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/textlens/internal/text"
)

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the structured logger used for task lifecycle and
// merge diagnostics. The default discards everything.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// Cache stores annotations fetched from a Provider, keyed by excerpt.
// Fetches run on background goroutines; a version counter rejects
// results that were superseded by an invalidating refresh while they
// were in flight.
type Cache struct {
	provider Provider
	logger   *slog.Logger

	mu       sync.Mutex
	version  uint64
	excerpts map[ExcerptID]*excerptState
	wg       sync.WaitGroup
}

type excerptState struct {
	// snap is the newest snapshot seen for this excerpt's buffer.
	// Cached anchors are always resolved against it.
	snap        *text.Snapshot
	ledger      ledger
	annotations []Annotation
}

type queryTask struct {
	id     uuid.UUID
	cancel context.CancelFunc
}

// NewCache returns an empty cache backed by provider.
func NewCache(provider Provider, opts ...CacheOption) *Cache {
	c := &Cache{
		provider: provider,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		excerpts: make(map[ExcerptID]*excerptState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Version returns the current cache version. It advances on every
// invalidating refresh; in-flight results tagged with an older
// version are discarded on arrival.
func (c *Cache) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Refresh issues a query round for one excerpt. The visible range is
// queried first, then one visible-range length of lookahead on each
// side, all clamped to the excerpt. Already-covered spans are skipped
// unless the strategy invalidates, in which case in-flight tasks are
// cancelled and coverage is rebuilt from scratch.
func (c *Cache) Refresh(snap *text.Snapshot, excerptID ExcerptID, excerpt, visible text.Range, invalidate InvalidationStrategy, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.excerpts[excerptID]
	if st == nil {
		st = &excerptState{snap: snap}
		c.excerpts[excerptID] = st
	} else if snap.DerivedFrom(st.snap) {
		st.snap = snap
	}

	if invalidate.ShouldInvalidate() {
		c.version++
	}
	query := ExcerptQuery{
		BufferID:     snap.BufferID(),
		ExcerptID:    excerptID,
		CacheVersion: c.version,
		Invalidate:   invalidate,
		Reason:       reason,
	}

	ranges := DetermineQueryRanges(snap, excerpt, visible)
	if ranges.IsEmpty() {
		return nil
	}

	return st.ledger.updateTasks(snap, ranges, invalidate, func(toQuery QueryRanges) *queryTask {
		return c.spawnTask(query, toQuery)
	})
}

func (c *Cache) spawnTask(query ExcerptQuery, ranges QueryRanges) *queryTask {
	ctx, cancel := context.WithCancel(context.Background())
	t := &queryTask{id: uuid.New(), cancel: cancel}
	c.logger.Debug("annotation task spawned",
		slog.String("task", t.id.String()),
		slog.Uint64("excerpt", uint64(query.ExcerptID)),
		slog.Uint64("version", query.CacheVersion),
		slog.String("reason", query.Reason))
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.runTask(ctx, query, ranges)
	}()
	return t
}

// runTask fetches the visible tier first so on-screen annotations
// arrive before lookahead ones. Only the visible tier of an
// invalidating refresh drops stale cached annotations.
func (c *Cache) runTask(ctx context.Context, query ExcerptQuery, ranges QueryRanges) {
	for _, r := range ranges.Visible {
		c.fetchRange(ctx, query, r, query.Invalidate.ShouldInvalidate())
	}
	for _, r := range ranges.BeforeVisible {
		c.fetchRange(ctx, query, r, false)
	}
	for _, r := range ranges.AfterVisible {
		c.fetchRange(ctx, query, r, false)
	}
}

func (c *Cache) fetchRange(ctx context.Context, query ExcerptQuery, rng text.AnchorRange, invalidate bool) {
	results, err := c.provider.FetchAnnotations(ctx, query, rng)

	c.mu.Lock()
	defer c.mu.Unlock()
	if query.CacheVersion < c.version {
		c.logger.Debug("annotation result discarded as stale",
			slog.Uint64("result_version", query.CacheVersion),
			slog.Uint64("cache_version", c.version))
		return
	}
	st := c.excerpts[query.ExcerptID]
	if st == nil {
		return
	}
	if err != nil {
		c.logger.Warn("annotation fetch failed",
			slog.Uint64("excerpt", uint64(query.ExcerptID)),
			slog.Any("error", err))
		if ierr := st.ledger.invalidateRange(st.snap, rng); ierr != nil {
			c.logger.Warn("uncovering failed range", slog.Any("error", ierr))
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	c.mergeLocked(st, results, invalidate)
}

type annotationKey struct {
	offset text.ByteOffset
	label  string
	kind   string
}

// mergeLocked folds fetched annotations into the excerpt. Annotations
// are identified by resolved position, label, and kind, so applying
// the same results twice, or two result sets in either order, yields
// the same cache. An invalidating merge additionally drops cached
// annotations the new results did not confirm.
func (c *Cache) mergeLocked(st *excerptState, results []Annotation, invalidate bool) {
	snap := st.snap

	existing := make(map[annotationKey]struct{}, len(st.annotations))
	for _, a := range st.annotations {
		if off, err := a.Position.Resolve(snap); err == nil {
			existing[annotationKey{off, a.Label, a.Kind}] = struct{}{}
		}
	}

	seen := make(map[annotationKey]struct{}, len(results))
	var added []Annotation
	for _, a := range results {
		off, err := a.Position.Resolve(snap)
		if err != nil {
			c.logger.Warn("dropping unresolvable annotation",
				slog.String("label", a.Label), slog.Any("error", err))
			continue
		}
		k := annotationKey{off, a.Label, a.Kind}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := existing[k]; !ok {
			added = append(added, a)
		}
	}

	if invalidate {
		kept := st.annotations[:0]
		for _, a := range st.annotations {
			off, err := a.Position.Resolve(snap)
			if err != nil {
				continue
			}
			if _, confirmed := seen[annotationKey{off, a.Label, a.Kind}]; confirmed {
				kept = append(kept, a)
			}
		}
		st.annotations = kept
	}
	st.annotations = append(st.annotations, added...)
	sortAnnotations(st.annotations, snap)
}

func sortAnnotations(anns []Annotation, snap *text.Snapshot) {
	sort.SliceStable(anns, func(i, j int) bool {
		oi, erri := anns[i].Position.Resolve(snap)
		oj, errj := anns[j].Position.Resolve(snap)
		if erri != nil || errj != nil {
			return errj != nil && erri == nil
		}
		if oi != oj {
			return oi < oj
		}
		if anns[i].Label != anns[j].Label {
			return anns[i].Label < anns[j].Label
		}
		return anns[i].Kind < anns[j].Kind
	})
}

// Annotations returns the cached annotations for an excerpt, sorted
// by buffer position.
func (c *Cache) Annotations(excerptID ExcerptID) []Annotation {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.excerpts[excerptID]
	if st == nil {
		return nil
	}
	out := make([]Annotation, len(st.annotations))
	copy(out, st.annotations)
	return out
}

// AnnotationsInRange returns the cached annotations whose positions
// fall inside r, resolved against the excerpt's newest snapshot.
func (c *Cache) AnnotationsInRange(excerptID ExcerptID, r text.Range) ([]Annotation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.excerpts[excerptID]
	if st == nil {
		return nil, nil
	}
	var out []Annotation
	for _, a := range st.annotations {
		off, err := a.Position.Resolve(st.snap)
		if err != nil {
			return nil, err
		}
		if r.Contains(off) {
			out = append(out, a)
		}
	}
	return out, nil
}

// CoveredRanges resolves the excerpt's queried coverage, for tests
// and diagnostics.
func (c *Cache) CoveredRanges(excerptID ExcerptID) ([]text.Range, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.excerpts[excerptID]
	if st == nil {
		return nil, nil
	}
	return st.ledger.coverage(st.snap)
}

// RemoveExcerpts drops the cached state for excerpts that left the
// view, cancelling their in-flight tasks.
func (c *Cache) RemoveExcerpts(ids ...ExcerptID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if st := c.excerpts[id]; st != nil {
			st.ledger.cancelTasks()
			delete(c.excerpts, id)
		}
	}
}

// Clear drops all cached state and cancels all in-flight tasks. The
// version advances so late results from before the clear are
// rejected.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range c.excerpts {
		st.ledger.cancelTasks()
	}
	c.excerpts = make(map[ExcerptID]*excerptState)
	c.version++
}

// Wait blocks until all in-flight fetch tasks have finished. Useful
// for shutdown and deterministic tests.
func (c *Cache) Wait() {
	c.wg.Wait()
}
