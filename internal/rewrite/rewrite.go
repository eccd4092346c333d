// Package rewrite applies single-field edits to an embed token inside a
// document: locate the occurrence, decode it, change one field,
// re-encode, and replace exactly that character range.
package rewrite

import (
	"fmt"

	"github.com/Ryanu9/albus-imagine/internal/apperr"
	"github.com/Ryanu9/albus-imagine/internal/document"
	"github.com/Ryanu9/albus-imagine/internal/embed"
	"github.com/Ryanu9/albus-imagine/internal/locate"
)

// Result reports where an edit landed and whether the occurrence was
// chosen by the ambiguous first-match fallback. Callers must surface a
// warning to the user when Ambiguous is set.
type Result struct {
	Line      int
	Ambiguous bool
}

// Rewriter holds no state; it exists so the surface reads as one
// collaborator and is easy to substitute in callers.
type Rewriter struct{}

// New creates a Rewriter.
func New() *Rewriter { return &Rewriter{} }

// SetAlignment locates targetPath in doc and rewrites its alignment.
func (r *Rewriter) SetAlignment(doc document.Document, targetPath string, hint locate.Hint, alignment string) (Result, error) {
	return r.apply(doc, targetPath, hint, func(raw string) (string, bool) {
		return embed.WithAlignment(raw, alignment)
	})
}

// SetDarkMode locates targetPath in doc and rewrites its dark flag.
func (r *Rewriter) SetDarkMode(doc document.Document, targetPath string, hint locate.Hint, dark bool) (Result, error) {
	return r.apply(doc, targetPath, hint, func(raw string) (string, bool) {
		return embed.WithDarkMode(raw, dark)
	})
}

// SetCaption locates targetPath in doc and rewrites its caption. An
// empty caption downgrades the token to pipe encoding.
func (r *Rewriter) SetCaption(doc document.Document, targetPath string, hint locate.Hint, caption string) (Result, error) {
	return r.apply(doc, targetPath, hint, func(raw string) (string, bool) {
		return embed.WithCaption(raw, caption)
	})
}

// SetSize locates targetPath in doc and rewrites its pixel size.
// Width 0 removes the size suffix; height 0 keeps the aspect ratio.
func (r *Rewriter) SetSize(doc document.Document, targetPath string, hint locate.Hint, width, height int) (Result, error) {
	return r.apply(doc, targetPath, hint, func(raw string) (string, bool) {
		return embed.WithSize(raw, width, height)
	})
}

// apply runs the shared locate → pick → mutate → replace pipeline. The
// whole read-then-write is synchronous against the document; no state
// is retained between calls.
func (r *Rewriter) apply(doc document.Document, targetPath string, hint locate.Hint, mutate func(string) (string, bool)) (Result, error) {
	lines := document.AllLines(doc)

	var matches []locate.Match
	if hint.Valid {
		if kind := locate.BlockKindAt(lines, hint.Line); kind != locate.BlockNone {
			matches = locate.FindInBlock(lines, targetPath, hint.Line, kind)
		}
	}
	if matches == nil {
		matches = locate.FindOccurrences(lines, targetPath)
	}

	m, ambiguous, ok := locate.Pick(matches, hint)
	if !ok {
		return Result{}, fmt.Errorf("rewrite: %s: %w", targetPath, apperr.ErrNotFound)
	}

	// A markdown-image span is not an embed token; a malformed span is
	// treated the same as not found, and the document stays untouched.
	updated, ok := mutate(m.Span)
	if !ok {
		return Result{}, fmt.Errorf("rewrite: %s: token %q: %w", targetPath, m.Span, apperr.ErrNotFound)
	}
	doc.ReplaceRange(m.Line, m.From, m.Line, m.To, updated)
	return Result{Line: m.Line, Ambiguous: ambiguous}, nil
}
