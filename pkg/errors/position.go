package errors

import "paserati-heap/pkg/source"

// Position represents a specific location in a shell script.
// Line and column are 1-based; the zero Position means "no location".
type Position struct {
	Line   int                // 1-based line number
	Column int                // 1-based column number (rune index within the line)
	Source *source.SourceFile // Reference to the source file
}
