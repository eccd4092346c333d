package assets

import (
	"fmt"

	"github.com/Ryanu9/albus-imagine/internal/document"
	"github.com/Ryanu9/albus-imagine/internal/embed"
	"github.com/Ryanu9/albus-imagine/internal/locate"
	"github.com/Ryanu9/albus-imagine/internal/rewrite"
)

// RewriteOutcome reports one applied embed-parameter edit.
type RewriteOutcome struct {
	Doc  string `json:"doc"`
	Line int    `json:"line"`
	// Ambiguous is set when several occurrences matched and the first
	// one was edited as a best-effort fallback; callers must surface a
	// warning so the user can verify.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// rewriteFunc applies one codec edit to a loaded document.
type rewriteFunc func(doc document.Document) (rewrite.Result, error)

// SetAlignment rewrites the alignment of targetPath's embed in docPath.
func (s *Service) SetAlignment(docPath, targetPath string, hint locate.Hint, alignment string) (RewriteOutcome, error) {
	return s.applyRewrite(docPath, func(doc document.Document) (rewrite.Result, error) {
		return s.rewriter.SetAlignment(doc, targetPath, hint, alignment)
	})
}

// SetDarkMode rewrites the dark-mode flag of targetPath's embed.
func (s *Service) SetDarkMode(docPath, targetPath string, hint locate.Hint, dark bool) (RewriteOutcome, error) {
	return s.applyRewrite(docPath, func(doc document.Document) (rewrite.Result, error) {
		return s.rewriter.SetDarkMode(doc, targetPath, hint, dark)
	})
}

// SetCaption rewrites the caption of targetPath's embed. An empty
// caption downgrades the token to pipe encoding.
func (s *Service) SetCaption(docPath, targetPath string, hint locate.Hint, caption string) (RewriteOutcome, error) {
	return s.applyRewrite(docPath, func(doc document.Document) (rewrite.Result, error) {
		return s.rewriter.SetCaption(doc, targetPath, hint, caption)
	})
}

// SetSize rewrites the pixel size of targetPath's embed. Width 0
// removes the size suffix; height 0 derives from aspect ratio.
func (s *Service) SetSize(docPath, targetPath string, hint locate.Hint, width, height int) (RewriteOutcome, error) {
	return s.applyRewrite(docPath, func(doc document.Document) (rewrite.Result, error) {
		return s.rewriter.SetSize(doc, targetPath, hint, width, height)
	})
}

// applyRewrite loads the document, applies one edit, persists it, and
// reindexes. The document is written back only when the edit succeeds.
func (s *Service) applyRewrite(docPath string, fn rewriteFunc) (RewriteOutcome, error) {
	data, err := s.store.Read(docPath)
	if err != nil {
		return RewriteOutcome{}, fmt.Errorf("assets: load %s: %w", docPath, err)
	}
	buf := document.NewBuffer(string(data))

	res, err := fn(buf)
	if err != nil {
		return RewriteOutcome{}, err
	}

	content := []byte(buf.String())
	if err := s.store.Write(docPath, content); err != nil {
		return RewriteOutcome{}, fmt.Errorf("assets: save %s: %w", docPath, err)
	}
	if err := s.reindex(docPath, content); err != nil {
		return RewriteOutcome{}, err
	}
	return RewriteOutcome{Doc: docPath, Line: res.Line, Ambiguous: res.Ambiguous}, nil
}

// BuildEmbed returns a fresh embed token for inserting name into a
// document with the given layout.
func (s *Service) BuildEmbed(name string, opts embed.BuildOptions) string {
	return embed.Build(name, opts)
}
