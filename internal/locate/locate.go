// Package locate finds textual occurrences of an image reference inside
// a document's lines and narrows multiple candidates down to the one an
// edit should touch.
package locate

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
)

var (
	// embedRe matches the embed-bracket form ![[target|params]].
	embedRe = regexp.MustCompile(`!\[\[([^\]|]+)(\|[^\]]+)?\]\]`)
	// markupRe matches the image-markup form ![alt](url).
	markupRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	// linkRe matches both bracket forms; group 1 captures the leading
	// '!' so plain wikilinks can be told apart from embeds.
	linkRe = regexp.MustCompile(`(!?)\[\[([^\]|#]+)([#|][^\]]*)?\]\]`)
)

// Match is one textual occurrence of a target file within one line.
// Matches are recomputed per operation; the document may have changed
// since the last scan.
type Match struct {
	Line     int    // zero-based line number
	LineText string
	Span     string // matched text, exactly as it appears
	From     int    // byte offset of Span within LineText
	To       int    // byte offset just past Span
}

// targetKeys holds the derived comparison keys for one target path.
// Embeds commonly omit folder prefixes, so the bare filename and the
// extensionless base name both count as references.
type targetKeys struct {
	full string
	file string
	base string
}

func keysFor(targetPath string) targetKeys {
	file := path.Base(targetPath)
	base := strings.TrimSuffix(file, path.Ext(file))
	return targetKeys{
		full: strings.ToLower(targetPath),
		file: strings.ToLower(file),
		base: strings.ToLower(base),
	}
}

// matches reports whether a written link target refers to the file.
func (k targetKeys) matches(written string) bool {
	w := strings.ToLower(strings.TrimSpace(written))
	// Hash suffixes carry display params, not part of the reference.
	if i := strings.Index(w, "#"); i >= 0 {
		w = w[:i]
	}
	if w == k.full || w == k.file || w == k.base {
		return true
	}
	// Written form may carry its own folder prefix.
	wb := path.Base(w)
	return wb == k.file || wb == k.base
}

// FindOccurrences returns every occurrence of targetPath across all
// lines, in document order. A line may contribute several matches.
func FindOccurrences(lines []string, targetPath string) []Match {
	keys := keysFor(targetPath)
	var out []Match
	for i, line := range lines {
		out = append(out, findInLine(line, i, keys)...)
	}
	return out
}

// findInLine scans one line for both textual forms.
func findInLine(line string, lineNo int, keys targetKeys) []Match {
	// Cheap pre-filter; the regexes re-validate.
	if !strings.Contains(line, "![") {
		return nil
	}

	var out []Match
	for _, idx := range embedRe.FindAllStringSubmatchIndex(line, -1) {
		written := line[idx[2]:idx[3]]
		if !keys.matches(written) {
			continue
		}
		out = append(out, Match{
			Line:     lineNo,
			LineText: line,
			Span:     line[idx[0]:idx[1]],
			From:     idx[0],
			To:       idx[1],
		})
	}
	for _, idx := range markupRe.FindAllStringSubmatchIndex(line, -1) {
		target := line[idx[4]:idx[5]]
		if decoded, err := url.PathUnescape(target); err == nil {
			target = decoded
		}
		if !keys.matches(target) {
			continue
		}
		out = append(out, Match{
			Line:     lineNo,
			LineText: line,
			Span:     line[idx[0]:idx[1]],
			From:     idx[0],
			To:       idx[1],
		})
	}
	// The two regex passes interleave on mixed-form lines; callers
	// rely on offset order within a line.
	sort.Slice(out, func(a, b int) bool { return out[a].From < out[b].From })
	return out
}

// FindWikilinks returns plain, non-embed wikilink occurrences of
// targetPath, in document order. Rename follows link-form references
// too; display rewrites only touch embeds and ignore these.
func FindWikilinks(lines []string, targetPath string) []Match {
	keys := keysFor(targetPath)
	var out []Match
	for i, line := range lines {
		if !strings.Contains(line, "[[") {
			continue
		}
		for _, idx := range linkRe.FindAllStringSubmatchIndex(line, -1) {
			if idx[3] > idx[2] {
				// Leading '!': embed form, owned by findInLine.
				continue
			}
			written := line[idx[4]:idx[5]]
			if !keys.matches(written) {
				continue
			}
			out = append(out, Match{
				Line:     i,
				LineText: line,
				Span:     line[idx[0]:idx[1]],
				From:     idx[0],
				To:       idx[1],
			})
		}
	}
	return out
}

// BlockKind identifies the structural block a line belongs to.
type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockTable
	BlockCallout
)

// BlockKindAt classifies the line at anchor. Table rows start with an
// optionally indented pipe; callout/blockquote lines start with '>'.
func BlockKindAt(lines []string, anchor int) BlockKind {
	if anchor < 0 || anchor >= len(lines) {
		return BlockNone
	}
	line := lines[anchor]
	switch {
	case strings.HasPrefix(strings.TrimLeft(line, " \t"), "|"):
		return BlockTable
	case strings.HasPrefix(line, ">"):
		return BlockCallout
	default:
		return BlockNone
	}
}

func blockPrefixMatch(line string, kind BlockKind) bool {
	switch kind {
	case BlockTable:
		return strings.HasPrefix(strings.TrimLeft(line, " \t"), "|")
	case BlockCallout:
		return strings.HasPrefix(line, ">")
	default:
		return false
	}
}

// FindInBlock widens the search to the whole structural block around
// anchor: the maximal contiguous run of lines sharing the block's
// prefix pattern. Blank lines and headers end the run only because they
// fail the prefix test. When the anchor is not inside a table or
// callout, only the anchor line itself is scanned.
func FindInBlock(lines []string, targetPath string, anchor int, kind BlockKind) []Match {
	if anchor < 0 || anchor >= len(lines) {
		return nil
	}
	keys := keysFor(targetPath)

	if kind != BlockTable && kind != BlockCallout {
		return findInLine(lines[anchor], anchor, keys)
	}

	start, end := anchor, anchor
	for start > 0 && blockPrefixMatch(lines[start-1], kind) {
		start--
	}
	for end+1 < len(lines) && blockPrefixMatch(lines[end+1], kind) {
		end++
	}

	var out []Match
	for i := start; i <= end; i++ {
		out = append(out, findInLine(lines[i], i, keys)...)
	}
	return out
}
