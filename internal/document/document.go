// Package document defines the text-source boundary the rewriting
// engine edits through, plus an in-memory implementation backed by a
// line slice.
package document

import "strings"

// Document is the narrow editing surface the core requires. Hosts with
// a real editor substitute their own implementation; ReplaceRange is
// the only mutation primitive.
type Document interface {
	LineCount() int
	Line(n int) string
	// ReplaceRange replaces the text between (fromLine, fromCol) and
	// (toLine, toCol) with text. Columns are byte offsets, end exclusive.
	ReplaceRange(fromLine, fromCol, toLine, toCol int, text string)
}

// Buffer is a Document over an in-memory line slice.
type Buffer struct {
	lines []string
}

// NewBuffer creates a Buffer from raw document content.
func NewBuffer(content string) *Buffer {
	return &Buffer{lines: strings.Split(content, "\n")}
}

// FromLines creates a Buffer that takes ownership of lines.
func FromLines(lines []string) *Buffer {
	return &Buffer{lines: lines}
}

// LineCount returns the number of lines in the buffer.
func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns line n, or the empty string when n is out of range.
func (b *Buffer) Line(n int) string {
	if n < 0 || n >= len(b.lines) {
		return ""
	}
	return b.lines[n]
}

// Lines returns a copy of the buffer's lines.
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// String reassembles the buffer into full document content.
func (b *Buffer) String() string { return strings.Join(b.lines, "\n") }

// ReplaceRange implements Document. A multi-line range collapses the
// covered lines into one; replacing a whole line including its trailing
// break is expressed as (n, 0, n+1, 0, "").
func (b *Buffer) ReplaceRange(fromLine, fromCol, toLine, toCol int, text string) {
	if fromLine < 0 || fromLine >= len(b.lines) {
		return
	}
	if toLine >= len(b.lines) {
		toLine = len(b.lines) - 1
		toCol = len(b.lines[toLine])
	}

	head := b.lines[fromLine]
	if fromCol > len(head) {
		fromCol = len(head)
	}
	prefix := head[:fromCol]

	// Deleting up to column 0 of a later line removes the line breaks
	// of everything in between, i.e. whole-line deletion.
	if toLine > fromLine && toCol == 0 {
		merged := prefix + text + b.lines[toLine]
		b.lines = append(b.lines[:fromLine], append([]string{merged}, b.lines[toLine+1:]...)...)
		return
	}

	tail := b.lines[toLine]
	if toCol > len(tail) {
		toCol = len(tail)
	}
	merged := prefix + text + tail[toCol:]
	b.lines = append(b.lines[:fromLine], append([]string{merged}, b.lines[toLine+1:]...)...)
}

// DeleteLine removes line n entirely, including its line break.
func (b *Buffer) DeleteLine(n int) {
	if n < 0 || n >= len(b.lines) {
		return
	}
	if n == len(b.lines)-1 {
		// Last line has no trailing break to absorb.
		b.lines = b.lines[:n]
		if len(b.lines) == 0 {
			b.lines = []string{""}
		}
		return
	}
	b.ReplaceRange(n, 0, n+1, 0, "")
}

// AllLines copies every line of any Document implementation, for code
// that scans rather than edits.
func AllLines(doc Document) []string {
	out := make([]string, doc.LineCount())
	for i := range out {
		out[i] = doc.Line(i)
	}
	return out
}
