package index

import (
	"context"

	"github.com/Ryanu9/albus-imagine/internal/parser"
	"github.com/Ryanu9/albus-imagine/internal/refs"
)

// OccurrenceIndex defines the interface for occurrence indexing.
// Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with mocks.
type OccurrenceIndex interface {
	UpsertDocument(path, checksum string, occs []parser.Occurrence) error
	DeleteDocument(path string) error
	AllChecksums() (map[string]string, error)
	Backlinks(ctx context.Context, targetPath string) ([]refs.Occurrence, error)
	TargetsOf(path string) ([]string, error)
	Close() error
}

// Verify *DB satisfies OccurrenceIndex at compile time.
var _ OccurrenceIndex = (*DB)(nil)
