// Package text provides the buffer snapshot adapter and stable
// position primitives used by the display and annotation layers.
//
// A Buffer is a single-writer text store that produces immutable
// Snapshots. Snapshots support byte-offset and row/column addressing
// and are safe to share across goroutines without locking.
//
// An Anchor is a stable reference to a position: it records the
// revision it was created at, a byte offset, and a bias. Resolving an
// anchor against a later snapshot replays the edits in between,
// yielding the position the anchored text moved to. The bias decides
// which side of text inserted exactly at the anchor the anchor stays
// on:
//
//	snap := buf.Snapshot()
//	a := snap.AnchorBefore(10)
//	buf.Insert(10, "xyz")
//	off, _ := a.Resolve(buf.Snapshot()) // still 10; AnchorAfter gives 13
//
// Resolution against a snapshot older than the anchor, from a
// different buffer, or beyond the retained change history fails with
// an AnchorResolutionError rather than clamping; callers must
// re-anchor against the current snapshot.
package text
