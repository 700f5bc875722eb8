package display

import "github.com/dshills/textlens/internal/text"

// DefaultTabSize is the tab stop width used when none is configured.
const DefaultTabSize = 4

// ExpandTabs converts a source column within a line to its expanded
// column. Each non-tab byte contributes one column; each tab advances
// to the next multiple of tabSize. A targetColumn beyond the end of
// the line extrapolates one column per byte.
func ExpandTabs(line string, targetColumn uint32, tabSize uint32) uint32 {
	if tabSize == 0 {
		tabSize = DefaultTabSize
	}
	var expanded uint32
	n := targetColumn
	if n > uint32(len(line)) {
		n = uint32(len(line))
	}
	for i := uint32(0); i < n; i++ {
		if line[i] == '\t' {
			expanded += tabSize - expanded%tabSize
		} else {
			expanded++
		}
	}
	return expanded + (targetColumn - n)
}

// CollapseTabs is the inverse of ExpandTabs: it converts an expanded
// column back to a source column. When targetExpanded lands strictly
// inside a tab's expansion span, the result depends on bias: BiasLeft
// returns the column of the tab itself with remainder set to the
// distance into the tab's visual span; BiasRight snaps to the column
// after the tab with remainder zero.
func CollapseTabs(line string, targetExpanded uint32, bias text.Bias, tabSize uint32) (column, remainder uint32) {
	if tabSize == 0 {
		tabSize = DefaultTabSize
	}
	var expanded uint32
	var col uint32
	for int(col) < len(line) {
		if expanded >= targetExpanded {
			return col, 0
		}
		var width uint32 = 1
		if line[col] == '\t' {
			width = tabSize - expanded%tabSize
		}
		if expanded+width > targetExpanded {
			if bias == text.BiasLeft {
				return col, targetExpanded - expanded
			}
			return col + 1, 0
		}
		expanded += width
		col++
	}
	return col + (targetExpanded - expanded), 0
}
