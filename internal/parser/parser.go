// Package parser extracts image references (embed-bracket and
// image-markup occurrences) from Markdown content, with positions.
package parser

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	embedRe  = regexp.MustCompile(`(!?)\[\[([^\]|#]+)([^\]]*)\]\]`)
	markupRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
)

// Occurrence is one textual reference to a file, located inside one
// line of a document.
type Occurrence struct {
	// Target is the reference as written, trimmed, without the display
	// params (the #... and |... suffixes of a wikilink).
	Target string
	// Raw is the full matched text, including the leading '!' when the
	// occurrence embeds rather than links.
	Raw string
	// Embed reports whether the occurrence renders the target.
	Embed bool
	// Line is the zero-based line number; StartCol/EndCol are byte
	// offsets of Raw within the line, end exclusive.
	Line     int
	StartCol int
	EndCol   int
}

// Result holds the occurrences of one parsed document.
type Result struct {
	Occurrences []Occurrence
}

// Parse scans raw Markdown and returns every wikilink and image-markup
// occurrence outside fenced code blocks and inline code spans.
func Parse(data []byte) *Result {
	lines := strings.Split(string(data), "\n")
	res := &Result{}

	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		res.Occurrences = append(res.Occurrences, parseLine(line, i)...)
	}
	return res
}

// parseLine extracts occurrences from one line. Inline code spans are
// masked before matching so match offsets stay valid for the original.
func parseLine(line string, lineNo int) []Occurrence {
	if !strings.Contains(line, "[") {
		return nil
	}
	masked := maskInlineCode(line)

	var out []Occurrence
	for _, idx := range embedRe.FindAllStringSubmatchIndex(masked, -1) {
		target := strings.TrimSpace(line[idx[4]:idx[5]])
		if target == "" {
			continue
		}
		out = append(out, Occurrence{
			Target:   target,
			Raw:      line[idx[0]:idx[1]],
			Embed:    idx[3] > idx[2], // '!' prefix present
			Line:     lineNo,
			StartCol: idx[0],
			EndCol:   idx[1],
		})
	}
	for _, idx := range markupRe.FindAllStringSubmatchIndex(masked, -1) {
		target := strings.TrimSpace(line[idx[4]:idx[5]])
		if decoded, err := url.PathUnescape(target); err == nil {
			target = decoded
		}
		if target == "" || isExternalURL(target) {
			continue
		}
		out = append(out, Occurrence{
			Target:   target,
			Raw:      line[idx[0]:idx[1]],
			Embed:    true,
			Line:     lineNo,
			StartCol: idx[0],
			EndCol:   idx[1],
		})
	}
	return out
}

// maskInlineCode replaces backtick-delimited spans with spaces of the
// same byte length, keeping offsets aligned with the input.
func maskInlineCode(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	inCode := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if ch == '`' {
			inCode = !inCode
			b.WriteByte(' ')
			continue
		}
		if inCode {
			b.WriteByte(' ')
		} else {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func isExternalURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}
