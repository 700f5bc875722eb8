package main

import (
	"context"
	"testing"

	"github.com/dshills/textlens/internal/annotate"
	"github.com/dshills/textlens/internal/text"
)

func TestTodoProviderFindsMarkers(t *testing.T) {
	buf := text.NewBuffer("a\n// TODO fix parsing\nb\n// FIXME handle EOF\n")
	snap := buf.Snapshot()
	p := &todoProvider{buf: buf}

	rng := text.AnchorRange{Start: snap.AnchorBefore(0), End: snap.AnchorAfter(snap.Len())}
	anns, err := p.FetchAnnotations(context.Background(), annotate.ExcerptQuery{}, rng)
	if err != nil {
		t.Fatal(err)
	}
	if len(anns) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(anns))
	}

	byKind := make(map[string]string)
	for _, a := range anns {
		byKind[a.Kind] = a.Label
	}
	if byKind["todo"] != "TODO fix parsing" {
		t.Errorf("unexpected todo label %q", byKind["todo"])
	}
	if byKind["fixme"] != "FIXME handle EOF" {
		t.Errorf("unexpected fixme label %q", byKind["fixme"])
	}
}

func TestTodoProviderRespectsRange(t *testing.T) {
	buf := text.NewBuffer("TODO one\nTODO two\n")
	snap := buf.Snapshot()
	p := &todoProvider{buf: buf}

	// Only the first line is queried.
	rng := text.AnchorRange{Start: snap.AnchorBefore(0), End: snap.AnchorAfter(9)}
	anns, err := p.FetchAnnotations(context.Background(), annotate.ExcerptQuery{}, rng)
	if err != nil {
		t.Fatal(err)
	}
	if len(anns) != 1 {
		t.Fatalf("expected 1 annotation, got %d", len(anns))
	}
	if anns[0].Label != "TODO one" {
		t.Errorf("unexpected label %q", anns[0].Label)
	}
}
