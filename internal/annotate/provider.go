package annotate

import (
	"context"

	"github.com/dshills/textlens/internal/text"
)

// Annotation is one positioned label produced by a provider. Position
// is an anchor, so annotations stay attached to their text across
// edits until fresh results replace them.
type Annotation struct {
	Position text.Anchor
	Label    string
	Kind     string
}

// Provider produces annotations for a range of a buffer. Fetches run
// on background goroutines; implementations must honor ctx
// cancellation. Returning an error marks the range as uncovered so a
// later query retries it.
type Provider interface {
	FetchAnnotations(ctx context.Context, query ExcerptQuery, rng text.AnchorRange) ([]Annotation, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, query ExcerptQuery, rng text.AnchorRange) ([]Annotation, error)

// FetchAnnotations calls f.
func (f ProviderFunc) FetchAnnotations(ctx context.Context, query ExcerptQuery, rng text.AnchorRange) ([]Annotation, error) {
	return f(ctx, query, rng)
}
