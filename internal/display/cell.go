package display

// Cell is a single rendered display cell.
type Cell struct {
	Rune  rune
	Width int
}

// IsContinuation returns true if this is a continuation cell
// (second cell of a wide character).
func (c Cell) IsContinuation() bool {
	return c.Width == 0 && c.Rune == 0
}

// ContinuationCell returns a continuation cell for wide characters.
func ContinuationCell() Cell {
	return Cell{}
}

// RuneWidth returns the display width of a rune.
// Returns 0 for control characters, 1 for normal characters,
// and 2 for wide (CJK) characters.
func RuneWidth(r rune) int {
	if r < 32 || r == 0x7F {
		return 0
	}
	if isWideRune(r) {
		return 2
	}
	return 1
}

// isWideRune checks if a rune is a wide (double-width) character,
// covering the common CJK ranges.
func isWideRune(r rune) bool {
	switch {
	case r >= 0x1100 && r <= 0x115F: // Hangul Jamo
		return true
	case r >= 0x2E80 && r <= 0x9FFF: // CJK Unified Ideographs and related
		return true
	case r >= 0xAC00 && r <= 0xD7A3: // Hangul Syllables
		return true
	case r >= 0xF900 && r <= 0xFAFF: // CJK Compatibility Ideographs
		return true
	case r >= 0xFE10 && r <= 0xFE1F: // Vertical forms
		return true
	case r >= 0xFE30 && r <= 0xFE6F: // CJK Compatibility Forms
		return true
	case r >= 0xFF00 && r <= 0xFF60: // Fullwidth Forms
		return true
	case r >= 0xFFE0 && r <= 0xFFE6: // Fullwidth symbol variants
		return true
	case r >= 0x1F300 && r <= 0x1F64F: // Emoji
		return true
	case r >= 0x20000 && r <= 0x2FFFD: // CJK Extension B and beyond
		return true
	}
	return false
}
