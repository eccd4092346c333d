package index

import (
	"context"
	"os"
	"testing"

	"github.com/Ryanu9/albus-imagine/internal/parser"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "albus-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func indexDoc(t *testing.T, db *DB, path, content string) {
	t.Helper()
	if err := IndexDocument(db, path, []byte(content)); err != nil {
		t.Fatal(err)
	}
}

func TestBacklinks_MatchesFileAndBaseName(t *testing.T) {
	db := testDB(t)
	indexDoc(t, db, "a.md", "![[Photo.png|left]]\n")
	indexDoc(t, db, "b.md", "embed without ext ![[photo]] here\n")
	indexDoc(t, db, "c.md", "with folder ![[assets/photo.png]]\n")
	indexDoc(t, db, "d.md", "unrelated ![[other.png]]\n")

	occs, err := db.Backlinks(context.Background(), "assets/photo.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(occs) != 3 {
		t.Fatalf("occurrences = %d, want 3", len(occs))
	}
	for _, o := range occs {
		if o.SourcePath == "d.md" {
			t.Error("unrelated document matched")
		}
		if o.Position == nil {
			t.Error("missing position")
		}
	}
}

func TestBacklinks_PerOccurrenceNotPerDocument(t *testing.T) {
	db := testDB(t)
	indexDoc(t, db, "a.md", "![[img.png]] and [[img.png]] and again ![[img.png]]\n")

	occs, err := db.Backlinks(context.Background(), "img.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(occs) != 3 {
		t.Fatalf("occurrences = %d, want 3", len(occs))
	}
	// Raw text distinguishes embed vs link per occurrence.
	if occs[0].Raw[0] != '!' || occs[1].Raw[0] == '!' {
		t.Errorf("raw = %q, %q", occs[0].Raw, occs[1].Raw)
	}
}

func TestUpsertDocument_ReplacesOccurrences(t *testing.T) {
	db := testDB(t)
	indexDoc(t, db, "a.md", "![[one.png]]\n")
	indexDoc(t, db, "a.md", "![[two.png]]\n")

	if occs, _ := db.Backlinks(context.Background(), "one.png"); len(occs) != 0 {
		t.Errorf("stale occurrence survived upsert: %v", occs)
	}
	if occs, _ := db.Backlinks(context.Background(), "two.png"); len(occs) != 1 {
		t.Errorf("new occurrence missing")
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	indexDoc(t, db, "a.md", "![[img.png]]\n")
	if err := db.DeleteDocument("a.md"); err != nil {
		t.Fatal(err)
	}
	if occs, _ := db.Backlinks(context.Background(), "img.png"); len(occs) != 0 {
		t.Error("occurrences survived document delete")
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if len(checksums) != 0 {
		t.Errorf("checksums = %v, want empty", checksums)
	}
}

func TestTargetsOf(t *testing.T) {
	db := testDB(t)
	indexDoc(t, db, "a.md", "![[One.png]] text ![[two.png]] text ![[one.png]]\n")

	keys, err := db.TargetsOf("a.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v, want 2 distinct", keys)
	}
}

func TestParserIntegration_PositionsRoundTrip(t *testing.T) {
	db := testDB(t)
	content := "intro\nhere ![[img.png|200]] tail\n"
	indexDoc(t, db, "a.md", content)

	occs, err := db.Backlinks(context.Background(), "img.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(occs) != 1 {
		t.Fatalf("occurrences = %d, want 1", len(occs))
	}
	res := parser.Parse([]byte(content))
	if len(res.Occurrences) != 1 {
		t.Fatal("parser disagreement")
	}
	want := res.Occurrences[0]
	got := occs[0]
	if got.Position.StartLine != want.Line || got.Position.StartCol != want.StartCol || got.Position.EndCol != want.EndCol {
		t.Errorf("position = %+v, want line %d cols %d-%d", got.Position, want.Line, want.StartCol, want.EndCol)
	}
}
