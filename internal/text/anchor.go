package text

import "fmt"

// ResolutionErrorKind categorizes why an anchor failed to resolve.
type ResolutionErrorKind uint8

const (
	// ResolutionStaleSnapshot means the anchor was created at a later
	// revision than the snapshot it was resolved against.
	ResolutionStaleSnapshot ResolutionErrorKind = iota

	// ResolutionEvictedHistory means the changes between the anchor's
	// revision and the snapshot's revision are no longer retained.
	ResolutionEvictedHistory

	// ResolutionUnrelatedBuffer means the anchor belongs to a
	// different buffer than the snapshot.
	ResolutionUnrelatedBuffer
)

// String returns a string representation of the kind.
func (k ResolutionErrorKind) String() string {
	switch k {
	case ResolutionStaleSnapshot:
		return "stale snapshot"
	case ResolutionEvictedHistory:
		return "evicted history"
	case ResolutionUnrelatedBuffer:
		return "unrelated buffer"
	default:
		return "unknown"
	}
}

// AnchorResolutionError reports a failed anchor resolution. Callers
// must re-anchor against the current snapshot; the offset is never
// silently clamped, since that would corrupt coordinate math.
type AnchorResolutionError struct {
	Kind        ResolutionErrorKind
	AnchorSeq   Revision
	SnapshotSeq Revision
}

// Error implements the error interface.
func (e *AnchorResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve anchor from revision %d against snapshot at revision %d: %s",
		e.AnchorSeq, e.SnapshotSeq, e.Kind)
}

// Anchor is a stable position reference into a buffer. It pairs the
// revision it was created at with a byte offset and a bias, and can
// be resolved against any later snapshot of the same buffer. Anchors
// are value types, freely copyable, and never mutated in place.
type Anchor struct {
	Buffer BufferID
	Seq    Revision
	Offset ByteOffset
	Bias   Bias
}

// String returns a human-readable representation of the anchor.
func (a Anchor) String() string {
	return fmt.Sprintf("anchor(%d@r%d,%s)", a.Offset, a.Seq, a.Bias)
}

// Resolve returns the anchor's offset in the given snapshot, carrying
// it forward across every edit between the anchor's revision and the
// snapshot's revision. An anchor never moves backward relative to
// edits that do not touch it.
func (a Anchor) Resolve(snap *Snapshot) (ByteOffset, error) {
	if a.Buffer != snap.bufferID {
		return 0, &AnchorResolutionError{
			Kind:        ResolutionUnrelatedBuffer,
			AnchorSeq:   a.Seq,
			SnapshotSeq: snap.seq,
		}
	}
	if a.Seq > snap.seq {
		return 0, &AnchorResolutionError{
			Kind:        ResolutionStaleSnapshot,
			AnchorSeq:   a.Seq,
			SnapshotSeq: snap.seq,
		}
	}
	changes, ok := snap.hist.changesBetween(a.Seq, snap.seq)
	if !ok {
		return 0, &AnchorResolutionError{
			Kind:        ResolutionEvictedHistory,
			AnchorSeq:   a.Seq,
			SnapshotSeq: snap.seq,
		}
	}
	offset := a.Offset
	for _, c := range changes {
		offset = c.transform(offset, a.Bias)
	}
	return snap.ClipOffset(offset), nil
}

// ResolvePoint resolves the anchor to a row/column point.
func (a Anchor) ResolvePoint(snap *Snapshot) (Point, error) {
	offset, err := a.Resolve(snap)
	if err != nil {
		return Point{}, err
	}
	return snap.OffsetToPoint(offset), nil
}

// Rebased returns a new anchor at this anchor's position in the given
// snapshot, so later resolutions start from the snapshot's revision.
func (a Anchor) Rebased(snap *Snapshot) (Anchor, error) {
	offset, err := a.Resolve(snap)
	if err != nil {
		return Anchor{}, err
	}
	rebased := a
	rebased.Seq = snap.seq
	rebased.Offset = offset
	return rebased, nil
}

// CompareAnchors orders two anchors under the given snapshot. Anchors
// captured at different revisions are only comparable through a
// snapshot; comparing their raw offsets is undefined.
func CompareAnchors(a, b Anchor, snap *Snapshot) (int, error) {
	offA, err := a.Resolve(snap)
	if err != nil {
		return 0, err
	}
	offB, err := b.Resolve(snap)
	if err != nil {
		return 0, err
	}
	switch {
	case offA < offB:
		return -1, nil
	case offA > offB:
		return 1, nil
	default:
		return 0, nil
	}
}

// AnchorRange is a range delimited by two anchors.
type AnchorRange struct {
	Start Anchor
	End   Anchor
}

// Resolve resolves both ends against the given snapshot.
func (r AnchorRange) Resolve(snap *Snapshot) (Range, error) {
	start, err := r.Start.Resolve(snap)
	if err != nil {
		return Range{}, err
	}
	end, err := r.End.Resolve(snap)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// String returns a human-readable representation of the range.
func (r AnchorRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start, r.End)
}
