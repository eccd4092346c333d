// Package testutil provides shared test helpers for setting up vaults
// and occurrence databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ryanu9/albus-imagine/internal/index"
	"github.com/Ryanu9/albus-imagine/internal/storage"
)

// Discard is an io.Writer for silencing test loggers.
type Discard struct{}

func (Discard) Write(p []byte) (int, error) { return len(p), nil }

// Vault bundles a temporary vault directory with its storage provider
// and occurrence database.
type Vault struct {
	Dir   string
	Store *storage.FS
	DB    *index.DB
}

// NewVault creates a temporary vault and database, both cleaned up with
// the test.
func NewVault(t *testing.T) *Vault {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "albus-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return &Vault{Dir: dir, Store: store, DB: db}
}

// WriteFile writes a raw file into the vault without indexing it.
func (v *Vault) WriteFile(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(v.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// WriteDoc writes a Markdown document and indexes its occurrences.
func (v *Vault) WriteDoc(t *testing.T, rel, content string) {
	t.Helper()
	v.WriteFile(t, rel, content)
	if err := index.IndexDocument(v.DB, rel, []byte(content)); err != nil {
		t.Fatal(err)
	}
}

// ReadDoc returns a document's current content.
func (v *Vault) ReadDoc(t *testing.T, rel string) string {
	t.Helper()
	data, err := v.Store.Read(rel)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
