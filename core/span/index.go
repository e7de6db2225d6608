package span

import "sort"

// Index resolves byte offsets to line/column positions for one source text.
// Build it once per source when rendering diagnostics; parsing itself never
// needs positions.
type Index struct {
	source     string
	lineStarts []int
}

// NewIndex scans the source once and records line start offsets.
func NewIndex(source string) *Index {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Index{source: source, lineStarts: starts}
}

// Position converts a byte offset into a 1-based line/column pair.
// Offsets past the end of the source map to the final line.
func (ix *Index) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(ix.source) {
		offset = len(ix.source)
	}
	line := sort.Search(len(ix.lineStarts), func(i int) bool {
		return ix.lineStarts[i] > offset
	}) - 1
	return Position{Line: line + 1, Column: offset - ix.lineStarts[line] + 1}
}

// LineCount returns the number of lines in the source. An empty source has
// one (empty) line.
func (ix *Index) LineCount() int {
	return len(ix.lineStarts)
}

// Line returns the 1-based line's text without its trailing newline.
func (ix *Index) Line(line int) string {
	if line < 1 || line > len(ix.lineStarts) {
		return ""
	}
	start := ix.lineStarts[line-1]
	end := len(ix.source)
	if line < len(ix.lineStarts) {
		end = ix.lineStarts[line] - 1
	}
	if end > 0 && end <= len(ix.source) && end-1 >= start && ix.source[end-1] == '\r' {
		end--
	}
	if start > end {
		start = end
	}
	return ix.source[start:end]
}
