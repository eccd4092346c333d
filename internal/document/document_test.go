package document

import "testing"

func TestReplaceRangeSameLine(t *testing.T) {
	b := NewBuffer("one two three\nfour")
	b.ReplaceRange(0, 4, 0, 7, "2")
	if got := b.String(); got != "one 2 three\nfour" {
		t.Errorf("got %q", got)
	}
}

func TestReplaceRangeMultiLineCollapses(t *testing.T) {
	b := NewBuffer("aaa\nbbb\nccc\nddd")
	b.ReplaceRange(1, 1, 2, 2, "X")
	if got := b.String(); got != "aaa\nbXc\nddd" {
		t.Errorf("got %q", got)
	}
}

func TestReplaceRangeWholeLineDeletion(t *testing.T) {
	b := NewBuffer("aaa\nbbb\nccc")
	b.ReplaceRange(1, 0, 2, 0, "")
	if got := b.String(); got != "aaa\nccc" {
		t.Errorf("got %q", got)
	}
}

func TestReplaceRangeClampsOutOfRange(t *testing.T) {
	b := NewBuffer("short")
	b.ReplaceRange(0, 2, 5, 99, "X")
	if got := b.String(); got != "shX" {
		t.Errorf("got %q", got)
	}

	// Negative or past-the-end start lines are ignored.
	b2 := NewBuffer("abc")
	b2.ReplaceRange(7, 0, 8, 0, "X")
	if got := b2.String(); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestDeleteLine(t *testing.T) {
	b := NewBuffer("aaa\nbbb\nccc")
	b.DeleteLine(1)
	if got := b.String(); got != "aaa\nccc" {
		t.Errorf("got %q", got)
	}

	b.DeleteLine(1)
	if got := b.String(); got != "aaa" {
		t.Errorf("after deleting last line: %q", got)
	}

	b.DeleteLine(0)
	if got := b.String(); got != "" {
		t.Errorf("buffer should keep one empty line, got %q", got)
	}
	if b.LineCount() != 1 {
		t.Errorf("line count = %d, want 1", b.LineCount())
	}
}

func TestLineOutOfRangeIsEmpty(t *testing.T) {
	b := NewBuffer("only")
	if b.Line(-1) != "" || b.Line(1) != "" {
		t.Error("out of range lines should read as empty")
	}
}

func TestAllLines(t *testing.T) {
	b := NewBuffer("a\nb\nc")
	got := AllLines(b)
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("got %v", got)
	}
}
