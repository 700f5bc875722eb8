//go:build !release

package annotate

import (
	"fmt"

	"github.com/dshills/textlens/internal/text"
)

// assertValidRange panics on an inverted range in development builds.
// Release builds (-tags release) turn the bad range into a no-op so a
// caller bug degrades to a skipped query instead of a crash.
func assertValidRange(r text.Range, what string) bool {
	if !r.IsValid() {
		panic(fmt.Sprintf("annotate: inverted %s range %s", what, r))
	}
	return true
}
