// Package assets coordinates storage, the occurrence index, and the
// rewriting engine for the managed-image collection: scanning the image
// folder into descriptors, reference checks, rename and delete with
// reference updates, and embed-parameter rewrites addressed by
// document.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/Ryanu9/albus-imagine/internal/apperr"
	"github.com/Ryanu9/albus-imagine/internal/checksum"
	"github.com/Ryanu9/albus-imagine/internal/document"
	"github.com/Ryanu9/albus-imagine/internal/embed"
	"github.com/Ryanu9/albus-imagine/internal/index"
	"github.com/Ryanu9/albus-imagine/internal/locate"
	"github.com/Ryanu9/albus-imagine/internal/models"
	"github.com/Ryanu9/albus-imagine/internal/parser"
	"github.com/Ryanu9/albus-imagine/internal/refs"
	"github.com/Ryanu9/albus-imagine/internal/rewrite"
	"github.com/Ryanu9/albus-imagine/internal/storage"
)

// Service is the application-facing surface over the image collection.
type Service struct {
	store       storage.Provider
	db          index.OccurrenceIndex
	checker     *refs.Checker
	rewriter    *rewrite.Rewriter
	imageFolder string
	logger      *slog.Logger
}

// NewService creates a Service. imageFolder is the vault-relative
// folder scanned for managed images; empty means the whole vault.
func NewService(store storage.Provider, db index.OccurrenceIndex, checker *refs.Checker, imageFolder string, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		db:          db,
		checker:     checker,
		rewriter:    rewrite.New(),
		imageFolder: imageFolder,
		logger:      logger,
	}
}

// ImageFolder returns the vault-relative folder new images land in.
func (s *Service) ImageFolder() string { return s.imageFolder }

// Scan enumerates the image folder into fresh descriptors, sorted by
// path. References are not resolved here; CheckReferences fills them.
func (s *Service) Scan(_ context.Context) ([]*models.ImageDescriptor, error) {
	paths, err := s.store.ListImages(s.imageFolder)
	if err != nil {
		return nil, fmt.Errorf("assets: scan: %w", err)
	}
	sort.Strings(paths)

	out := make([]*models.ImageDescriptor, 0, len(paths))
	for _, p := range paths {
		st, err := s.store.Stat(p)
		if err != nil {
			s.logger.Warn("scan: stat failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		d := &models.ImageDescriptor{
			Path: p,
			Name: path.Base(p),
			Stat: st,
		}
		if !storage.IsRasterPath(p) {
			d.DisplayPath = s.displayCompanion(p)
		}
		out = append(out, d)
	}
	return out, nil
}

// displayCompanion finds the cover image rendered in place of a
// non-raster source: a sibling file with the same name plus a raster
// extension.
func (s *Service) displayCompanion(p string) string {
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".webp"} {
		if candidate := p + ext; s.store.Exists(candidate) {
			return candidate
		}
	}
	return ""
}

// CheckReferences resolves reference lists for the given descriptors,
// batched, with optional progress reporting.
func (s *Service) CheckReferences(ctx context.Context, descriptors []*models.ImageDescriptor, onProgress refs.ProgressFunc) ([]*models.ImageDescriptor, error) {
	return s.checker.CheckReferences(ctx, descriptors, onProgress)
}

// InvalidateTargets drops cached reference entries whose image matches
// one of the changed target keys. Keys are lowercased bare filenames,
// the same normalization the index uses.
func (s *Service) InvalidateTargets(keys []string) {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	cache := s.checker.Cache()
	for _, cached := range cache.Keys() {
		file := strings.ToLower(path.Base(cached))
		base := strings.TrimSuffix(file, path.Ext(file))
		if _, ok := set[file]; ok {
			cache.Delete(cached)
			continue
		}
		if _, ok := set[base]; ok {
			cache.Delete(cached)
		}
	}
}

// ClearReferenceCache drops every cached reference entry; used on
// explicit refresh.
func (s *Service) ClearReferenceCache() {
	s.checker.Cache().Clear()
}

// Rename moves the image to newName inside its current folder, rewrites
// every referencing document, and moves the cached reference entry.
func (s *Service) Rename(ctx context.Context, oldPath, newName string) (string, error) {
	if newName == "" || strings.ContainsAny(newName, "/\\") {
		return "", fmt.Errorf("assets: invalid name %q", newName)
	}
	if !s.store.Exists(oldPath) {
		return "", fmt.Errorf("assets: rename %s: %w", oldPath, apperr.ErrNotFound)
	}
	dir := path.Dir(oldPath)
	newPath := newName
	if dir != "." {
		newPath = dir + "/" + newName
	}
	if newPath == oldPath {
		return oldPath, nil
	}
	if s.store.Exists(newPath) {
		return "", fmt.Errorf("assets: rename to %s: %w", newPath, apperr.ErrAlreadyExists)
	}

	occs, err := s.db.Backlinks(ctx, oldPath)
	if err != nil {
		return "", fmt.Errorf("assets: rename %s: %w", oldPath, err)
	}

	if err := s.store.Rename(oldPath, newPath); err != nil {
		return "", err
	}

	for _, source := range sourcesOf(occs) {
		if err := s.renameInDocument(source, oldPath, newName); err != nil {
			s.logger.Warn("rename: document update failed",
				slog.String("doc", source),
				slog.String("error", err.Error()))
		}
	}

	s.checker.Cache().UpdateKey(oldPath, newPath)
	return newPath, nil
}

// renameInDocument replaces every occurrence of the old image name in
// one document and reindexes it.
func (s *Service) renameInDocument(docPath, oldPath, newName string) error {
	data, err := s.store.Read(docPath)
	if err != nil {
		return err
	}
	lines := document.NewBuffer(string(data)).Lines()
	matches := locate.FindOccurrences(lines, oldPath)
	matches = append(matches, locate.FindWikilinks(lines, oldPath)...)
	if len(matches) == 0 {
		return nil
	}
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Line != matches[b].Line {
			return matches[a].Line < matches[b].Line
		}
		return matches[a].From < matches[b].From
	})

	// Rewrite back-to-front so earlier spans keep their offsets.
	buf := document.FromLines(lines)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		updated, ok := renameSpan(m.Span, oldPath, newName)
		if !ok {
			continue
		}
		buf.ReplaceRange(m.Line, m.From, m.Line, m.To, updated)
	}

	content := []byte(buf.String())
	if err := s.store.Write(docPath, content); err != nil {
		return err
	}
	return s.reindex(docPath, content)
}

// renameSpan rewrites the target inside one matched span, preserving
// every display parameter and the written form's folder prefix and
// extension style.
func renameSpan(span, oldPath, newName string) (string, bool) {
	if tok, ok := embed.Decode(span); ok {
		tok.Target = renameWrittenTarget(tok.Target, newName)
		// A bare token stays bare instead of gaining explicit defaults.
		if !strings.ContainsAny(span, "|#") {
			return "![[" + tok.Target + "]]", true
		}
		return tok.Encode(), true
	}
	// Plain wikilink [[target|...]].
	if strings.HasPrefix(span, "[[") && strings.HasSuffix(span, "]]") {
		inner := span[2 : len(span)-2]
		rest := ""
		if i := strings.IndexAny(inner, "#|"); i >= 0 {
			inner, rest = inner[:i], inner[i:]
		}
		return "[[" + renameWrittenTarget(inner, newName) + rest + "]]", true
	}
	// Image-markup form ![alt](url).
	if open := strings.Index(span, "]("); open >= 0 && strings.HasSuffix(span, ")") {
		url := span[open+2 : len(span)-1]
		renamed := renameWrittenTarget(url, newName)
		if strings.Contains(url, "%20") {
			renamed = strings.ReplaceAll(renamed, " ", "%20")
		}
		return span[:open+2] + renamed + ")", true
	}
	return "", false
}

// renameWrittenTarget swaps the filename portion of a written target.
// A written form without an extension keeps dropping it when the new
// name shares the old extension shape.
func renameWrittenTarget(written, newName string) string {
	w := strings.TrimSpace(written)
	dir := path.Dir(w)
	base := path.Base(w)
	replacement := newName
	if path.Ext(base) == "" {
		// Written as bare base name; keep that style.
		replacement = strings.TrimSuffix(newName, path.Ext(newName))
	}
	if dir == "." {
		return replacement
	}
	return dir + "/" + replacement
}

// Delete removes the image file. When removeReferences is set, every
// line embedding the image is deleted from its documents first.
func (s *Service) Delete(ctx context.Context, imagePath string, removeReferences bool) error {
	if !s.store.Exists(imagePath) {
		return fmt.Errorf("assets: delete %s: %w", imagePath, apperr.ErrNotFound)
	}

	if removeReferences {
		occs, err := s.db.Backlinks(ctx, imagePath)
		if err != nil {
			return fmt.Errorf("assets: delete %s: %w", imagePath, err)
		}
		for _, source := range sourcesOf(occs) {
			if err := s.removeFromDocument(source, imagePath); err != nil {
				s.logger.Warn("delete: document update failed",
					slog.String("doc", source),
					slog.String("error", err.Error()))
			}
		}
	}

	if err := s.store.Delete(imagePath); err != nil {
		return err
	}
	s.checker.Cache().Delete(imagePath)
	return nil
}

// DeleteMany deletes several images, collecting per-file failures into
// one error.
func (s *Service) DeleteMany(ctx context.Context, paths []string, removeReferences bool) error {
	var failed []string
	for _, p := range paths {
		if err := s.Delete(ctx, p, removeReferences); err != nil {
			if errors.Is(err, os.ErrNotExist) || errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			failed = append(failed, p)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("assets: delete failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

// removeFromDocument deletes every line of docPath that embeds the
// image, whole lines including their breaks, and reindexes.
func (s *Service) removeFromDocument(docPath, imagePath string) error {
	data, err := s.store.Read(docPath)
	if err != nil {
		return err
	}
	buf := document.NewBuffer(string(data))
	matches := locate.FindOccurrences(buf.Lines(), imagePath)
	if len(matches) == 0 {
		return nil
	}

	// Collect distinct lines, delete bottom-up.
	lines := make([]int, 0, len(matches))
	seen := make(map[int]struct{})
	for _, m := range matches {
		if _, ok := seen[m.Line]; ok {
			continue
		}
		seen[m.Line] = struct{}{}
		lines = append(lines, m.Line)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lines)))
	for _, n := range lines {
		buf.DeleteLine(n)
	}

	content := []byte(buf.String())
	if err := s.store.Write(docPath, content); err != nil {
		return err
	}
	return s.reindex(docPath, content)
}

// sourcesOf returns the distinct source documents of a backlink list,
// in first-seen order.
func sourcesOf(occs []refs.Occurrence) []string {
	seen := make(map[string]struct{}, len(occs))
	var out []string
	for _, o := range occs {
		if _, ok := seen[o.SourcePath]; ok {
			continue
		}
		seen[o.SourcePath] = struct{}{}
		out = append(out, o.SourcePath)
	}
	return out
}

// reindex re-parses an edited document into the occurrence index.
func (s *Service) reindex(docPath string, content []byte) error {
	res := parser.Parse(content)
	return s.db.UpsertDocument(docPath, checksum.Sum(content), res.Occurrences)
}
