package refs

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/Ryanu9/albus-imagine/internal/apperr"
	"github.com/Ryanu9/albus-imagine/internal/models"
)

// DefaultBatchSize is used when the configured batch size is not
// positive. Batch size is a tuning constant, not a correctness knob.
const DefaultBatchSize = 20

// Occurrence is one backlink record as the resolver reports it.
type Occurrence struct {
	SourcePath string
	Raw        string
	Position   *models.Position
}

// BacklinkResolver is the host-index collaborator: for a target file it
// returns every document occurrence referencing it.
type BacklinkResolver interface {
	Backlinks(ctx context.Context, targetPath string) ([]Occurrence, error)
}

// ProgressFunc receives (processed, total) after each batch. It is for
// feedback only; it never influences control flow.
type ProgressFunc func(processed, total int)

// Checker fills descriptor reference lists from the resolver, consulting
// the cache first. One Checker instance shares one cache across all the
// descriptor collections it processes.
type Checker struct {
	resolver  BacklinkResolver
	cache     *Cache
	batchSize int
	running   atomic.Bool
}

// NewChecker creates a Checker over the given resolver and cache.
func NewChecker(resolver BacklinkResolver, cache *Cache, batchSize int) *Checker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Checker{resolver: resolver, cache: cache, batchSize: batchSize}
}

// Cache exposes the checker's cache for invalidation on rename/delete.
func (c *Checker) Cache() *Cache { return c.cache }

// CheckReferences resolves references for every descriptor in place and
// returns the same slice. Descriptors are processed in batches, with
// context checked and onProgress invoked between batches. Only one pass
// may run at a time; a second concurrent call gets ErrBusy.
//
// A cache hit short-circuits the resolver. A miss writes the cache as
// soon as it resolves, so a subsequent pass observes it immediately. On
// resolver failure the error propagates and the cache keeps no partial
// entry for the failed path.
func (c *Checker) CheckReferences(ctx context.Context, descriptors []*models.ImageDescriptor, onProgress ProgressFunc) ([]*models.ImageDescriptor, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, apperr.ErrBusy
	}
	defer c.running.Store(false)

	total := len(descriptors)
	for start := 0; start < total; start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + c.batchSize
		if end > total {
			end = total
		}
		for _, d := range descriptors[start:end] {
			if err := c.checkOne(ctx, d); err != nil {
				return nil, err
			}
		}
		if onProgress != nil {
			onProgress(end, total)
		}
	}
	return descriptors, nil
}

// checkOne fills a single descriptor from cache or resolver.
func (c *Checker) checkOne(ctx context.Context, d *models.ImageDescriptor) error {
	if e, ok := c.cache.Get(d.Path); ok {
		d.References = e.References
		d.ReferenceCount = e.Count
		d.Checked = true
		return nil
	}

	occs, err := c.resolver.Backlinks(ctx, d.ResolutionTarget())
	if err != nil {
		return fmt.Errorf("refs: resolve %s: %w", d.Path, err)
	}

	references := make([]models.ReferenceInfo, 0, len(occs))
	for _, occ := range occs {
		references = append(references, models.ReferenceInfo{
			SourcePath: occ.SourcePath,
			Kind:       ClassifyOccurrence(occ.Raw),
			Raw:        occ.Raw,
			Position:   occ.Position,
		})
	}

	entry := Entry{References: references, Count: len(references)}
	c.cache.Set(d.Path, entry)

	d.References = entry.References
	d.ReferenceCount = entry.Count
	d.Checked = true
	return nil
}

// ClassifyOccurrence derives the reference kind from the occurrence
// text. The classification is per occurrence: one document can both
// link and embed the same target.
func ClassifyOccurrence(raw string) models.ReferenceKind {
	if strings.HasPrefix(raw, "!") {
		return models.RefEmbed
	}
	return models.RefLink
}
