package annotate

// InvalidationStrategy decides what happens to cached coverage when a
// new round of annotation queries is issued.
type InvalidationStrategy uint8

const (
	// InvalidateNone is a pure view change (scroll, new excerpt). No
	// cached coverage is dropped; queries only fill gaps.
	InvalidateNone InvalidationStrategy = iota

	// InvalidateBufferEdited means a local edit touched the region.
	// Coverage must be re-queried; ranges outside the edit may be
	// kept until fresh results arrive.
	InvalidateBufferEdited

	// InvalidateRefreshRequested is a producer-driven reset: all
	// cached coverage is dropped and re-queried.
	InvalidateRefreshRequested
)

// ShouldInvalidate reports whether cached coverage is dropped before
// re-querying.
func (s InvalidationStrategy) ShouldInvalidate() bool {
	return s == InvalidateBufferEdited || s == InvalidateRefreshRequested
}

// String returns a string representation of the strategy.
func (s InvalidationStrategy) String() string {
	switch s {
	case InvalidateNone:
		return "none"
	case InvalidateBufferEdited:
		return "buffer-edited"
	case InvalidateRefreshRequested:
		return "refresh-requested"
	default:
		return "unknown"
	}
}
