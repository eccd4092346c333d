// Package embed implements the image embed-token codec: parsing a
// ![[...]] token into its structured fields and serializing it back
// into one of the two wire encodings.
//
// Hash encoding carries a caption: ![[name#align[#dark]|caption[|w[|h]]]].
// Pipe encoding carries none:      ![[name[|dark]|align[|w[|h]]]].
// Caption presence alone selects the encoding on output.
package embed

import (
	"strconv"
	"strings"
)

// Alignment values recognized inside a token.
const (
	AlignCenter = "center"
	AlignLeft   = "left"
	AlignRight  = "right"
)

const darkKeyword = "dark"

// Token is the structured form of one embed token. It is transient:
// built from a text span, mutated, re-encoded, and discarded.
type Token struct {
	Target    string // file reference as written (may include folders)
	Alignment string // one of AlignCenter/AlignLeft/AlignRight
	Dark      bool
	Caption   string // empty means absent (pipe encoding on output)
	Width     int    // 0 means absent
	Height    int    // 0 means derive from aspect ratio
}

// HasSize reports whether the token carries an explicit pixel width.
func (t *Token) HasSize() bool { return t.Width > 0 }

// isAlignment reports whether s is one of the three alignment keywords.
func isAlignment(s string) bool {
	return s == AlignCenter || s == AlignLeft || s == AlignRight
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Decode parses a raw embed token. The second return value is false when
// the input is not a well-formed ![[...]] token; callers treat that as
// "not an embed", not as an error.
func Decode(raw string) (*Token, bool) {
	if !strings.HasPrefix(raw, "![[") || !strings.HasSuffix(raw, "]]") {
		return nil, false
	}
	inner := raw[3 : len(raw)-2]
	if inner == "" {
		return nil, false
	}

	segs := strings.Split(inner, "|")
	t := &Token{Alignment: AlignCenter}

	head := segs[0]
	if hashAt := strings.Index(head, "#"); hashAt >= 0 {
		// Hash encoding: name#align[#dark], caption in the first
		// non-numeric pipe segment, digits segments are the size.
		t.Target = head[:hashAt]
		for _, part := range strings.Split(head[hashAt+1:], "#") {
			switch {
			case isAlignment(part):
				t.Alignment = part
			case part == darkKeyword:
				t.Dark = true
			}
		}
		if t.Target == "" {
			return nil, false
		}
		sizeSeen := 0
		for _, seg := range segs[1:] {
			if isDigits(seg) {
				n, _ := strconv.Atoi(seg)
				if sizeSeen == 0 {
					t.Width = n
				} else if sizeSeen == 1 {
					t.Height = n
				}
				sizeSeen++
				continue
			}
			if t.Caption == "" {
				t.Caption = seg
			}
		}
		return t, true
	}

	// Pipe encoding: no caption slot. Segments after the name are the
	// dark flag, an alignment keyword, and up to two size numbers; any
	// other segment is ignored rather than treated as caption.
	t.Target = head
	if t.Target == "" {
		return nil, false
	}
	sizeSeen := 0
	for _, seg := range segs[1:] {
		switch {
		case seg == darkKeyword:
			t.Dark = true
		case isAlignment(seg):
			t.Alignment = seg
		case isDigits(seg):
			n, _ := strconv.Atoi(seg)
			if sizeSeen == 0 {
				t.Width = n
			} else if sizeSeen == 1 {
				t.Height = n
			}
			sizeSeen++
		}
	}
	return t, true
}

// Encode serializes the token. Hash form is produced exactly when the
// caption is non-empty; otherwise pipe form. The alignment keyword is
// always written, so decoding the output restores every field.
func (t *Token) Encode() string {
	var b strings.Builder
	b.WriteString("![[")
	b.WriteString(t.Target)

	if t.Caption != "" {
		b.WriteString("#")
		b.WriteString(t.alignmentOrDefault())
		if t.Dark {
			b.WriteString("#")
			b.WriteString(darkKeyword)
		}
		b.WriteString("|")
		b.WriteString(t.Caption)
		t.writeSize(&b)
		b.WriteString("]]")
		return b.String()
	}

	if t.Dark {
		b.WriteString("|")
		b.WriteString(darkKeyword)
	}
	b.WriteString("|")
	b.WriteString(t.alignmentOrDefault())
	t.writeSize(&b)
	b.WriteString("]]")
	return b.String()
}

func (t *Token) alignmentOrDefault() string {
	if isAlignment(t.Alignment) {
		return t.Alignment
	}
	return AlignCenter
}

func (t *Token) writeSize(b *strings.Builder) {
	if t.Width <= 0 {
		return
	}
	b.WriteString("|")
	b.WriteString(strconv.Itoa(t.Width))
	if t.Height > 0 {
		b.WriteString("|")
		b.WriteString(strconv.Itoa(t.Height))
	}
}
