package main

import (
	"context"
	"strings"

	"github.com/dshills/textlens/internal/annotate"
	"github.com/dshills/textlens/internal/text"
)

var todoMarkers = []string{"TODO", "FIXME"}

// todoProvider annotates TODO and FIXME markers found in the fetched
// range, labeled with the rest of their line.
type todoProvider struct {
	buf *text.Buffer
}

func (p *todoProvider) FetchAnnotations(ctx context.Context, _ annotate.ExcerptQuery, rng text.AnchorRange) ([]annotate.Annotation, error) {
	snap := p.buf.Snapshot()
	rr, err := rng.Resolve(snap)
	if err != nil {
		return nil, err
	}

	var out []annotate.Annotation
	for _, marker := range todoMarkers {
		for off := rr.Start; ; {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			idx := snap.IndexAfter(off, marker)
			if idx < 0 || idx >= rr.End {
				break
			}
			row := snap.OffsetToPoint(idx).Row
			label := strings.TrimSpace(snap.TextRange(idx, snap.LineEnd(row)))
			out = append(out, annotate.Annotation{
				Position: snap.AnchorBefore(idx),
				Label:    label,
				Kind:     strings.ToLower(marker),
			})
			off = idx + text.ByteOffset(len(marker))
		}
	}
	return out, nil
}
