package types

// OffsetSpan is byte range [Start, End) - half-open interval.
type OffsetSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes in the span.
func (s OffsetSpan) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether two non-empty spans share at least one byte.
func (s OffsetSpan) Overlaps(o OffsetSpan) bool {
	if s.Len() == 0 || o.Len() == 0 {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}

// SourcePoint is line:column position (1-based).
type SourcePoint struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// SourceSpan is start-end line:column range.
type SourceSpan struct {
	Start SourcePoint `json:"start"`
	End   SourcePoint `json:"end"`
}

// Location combines byte offsets and source positions.
type Location struct {
	Offset OffsetSpan `json:"offset"`
	Source SourceSpan `json:"source"`
}

// ComputeLineColumn computes line and column numbers from a byte offset in content.
// Lines and columns are 1-indexed. Columns count bytes.
func ComputeLineColumn(content []byte, byteOffset int) (line, column int) {
	line = 1
	column = 1
	for i := 0; i < byteOffset && i < len(content); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// ComputeLocation resolves an offset span to a full Location.
func ComputeLocation(content []byte, span OffsetSpan) Location {
	startLine, startCol := ComputeLineColumn(content, span.Start)
	endLine, endCol := ComputeLineColumn(content, span.End)
	return Location{
		Offset: span,
		Source: SourceSpan{
			Start: SourcePoint{Line: startLine, Column: startCol},
			End:   SourcePoint{Line: endLine, Column: endCol},
		},
	}
}
