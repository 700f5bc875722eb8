//go:build release

package annotate

import "github.com/dshills/textlens/internal/text"

func assertValidRange(r text.Range, _ string) bool {
	return r.IsValid()
}
