package refs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Ryanu9/albus-imagine/internal/apperr"
	"github.com/Ryanu9/albus-imagine/internal/models"
)

// fakeResolver counts calls per target and serves canned occurrences.
type fakeResolver struct {
	mu    sync.Mutex
	calls map[string]int
	occs  map[string][]Occurrence
	err   error
	block chan struct{} // when non-nil, Backlinks waits on it
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{calls: make(map[string]int), occs: make(map[string][]Occurrence)}
}

func (f *fakeResolver) Backlinks(ctx context.Context, target string) ([]Occurrence, error) {
	f.mu.Lock()
	f.calls[target]++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.occs[target], nil
}

func (f *fakeResolver) callCount(target string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[target]
}

func desc(path string) *models.ImageDescriptor {
	return &models.ImageDescriptor{Path: path, Name: path}
}

func TestCheckReferences_FillsAndClassifies(t *testing.T) {
	r := newFakeResolver()
	r.occs["img.png"] = []Occurrence{
		{SourcePath: "a.md", Raw: "![[img.png]]"},
		{SourcePath: "a.md", Raw: "[[img.png]]"},
		{SourcePath: "b.md", Raw: "![alt](img.png)"},
	}
	c := NewChecker(r, NewCache(), 10)

	d := desc("img.png")
	if _, err := c.CheckReferences(context.Background(), []*models.ImageDescriptor{d}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ReferenceCount != 3 || !d.Checked {
		t.Fatalf("count = %d checked = %v", d.ReferenceCount, d.Checked)
	}
	kinds := []models.ReferenceKind{models.RefEmbed, models.RefLink, models.RefEmbed}
	for i, want := range kinds {
		if d.References[i].Kind != want {
			t.Errorf("ref %d kind = %s, want %s", i, d.References[i].Kind, want)
		}
	}
}

func TestCheckReferences_CacheHitSkipsResolver(t *testing.T) {
	r := newFakeResolver()
	r.occs["img.png"] = []Occurrence{{SourcePath: "a.md", Raw: "![[img.png]]"}}
	c := NewChecker(r, NewCache(), 10)

	for i := 0; i < 2; i++ {
		d := desc("img.png")
		if _, err := c.CheckReferences(context.Background(), []*models.ImageDescriptor{d}, nil); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
		if d.ReferenceCount != 1 {
			t.Errorf("pass %d: count = %d", i, d.ReferenceCount)
		}
	}
	if got := r.callCount("img.png"); got != 1 {
		t.Errorf("resolver calls = %d, want 1", got)
	}
}

func TestCheckReferences_DisplayTargetResolution(t *testing.T) {
	r := newFakeResolver()
	r.occs["doc.pdf.png"] = []Occurrence{{SourcePath: "n.md", Raw: "![[doc.pdf.png]]"}}
	c := NewChecker(r, NewCache(), 10)

	d := desc("doc.pdf")
	d.DisplayPath = "doc.pdf.png"
	if _, err := c.CheckReferences(context.Background(), []*models.ImageDescriptor{d}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.callCount("doc.pdf.png") != 1 {
		t.Error("resolver not queried for display target")
	}
	// Cache entry is stored under the descriptor's own path.
	if _, ok := c.Cache().Get("doc.pdf"); !ok {
		t.Error("cache entry missing for descriptor path")
	}
}

func TestCheckReferences_ProgressPerBatch(t *testing.T) {
	r := newFakeResolver()
	descriptors := make([]*models.ImageDescriptor, 5)
	for i := range descriptors {
		descriptors[i] = desc(string(rune('a'+i)) + ".png")
	}
	c := NewChecker(r, NewCache(), 2)

	var progress [][2]int
	_, err := c.CheckReferences(context.Background(), descriptors, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][2]int{{2, 5}, {4, 5}, {5, 5}}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %v, want %v", i, progress[i], want[i])
		}
	}
}

func TestCheckReferences_ResolverFailureLeavesCacheUntouched(t *testing.T) {
	r := newFakeResolver()
	r.err = errors.New("index offline")
	cache := NewCache()
	c := NewChecker(r, cache, 10)

	_, err := c.CheckReferences(context.Background(), []*models.ImageDescriptor{desc("x.png")}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if cache.Len() != 0 {
		t.Errorf("cache len = %d, want 0", cache.Len())
	}
}

func TestCheckReferences_ReentrancyGuard(t *testing.T) {
	r := newFakeResolver()
	r.block = make(chan struct{})
	c := NewChecker(r, NewCache(), 1)

	done := make(chan error, 1)
	go func() {
		_, err := c.CheckReferences(context.Background(), []*models.ImageDescriptor{desc("a.png")}, nil)
		done <- err
	}()

	// Wait for the first pass to reach the resolver, then race a second.
	for r.callCount("a.png") == 0 {
		time.Sleep(time.Millisecond)
	}
	_, err := c.CheckReferences(context.Background(), []*models.ImageDescriptor{desc("b.png")}, nil)
	if !errors.Is(err, apperr.ErrBusy) {
		t.Errorf("concurrent pass err = %v, want ErrBusy", err)
	}

	close(r.block)
	if err := <-done; err != nil {
		t.Errorf("first pass err = %v", err)
	}
}

func TestCache_UpdateKeyMovesEntry(t *testing.T) {
	cache := NewCache()
	cache.Set("old.png", Entry{Count: 2})

	cache.UpdateKey("old.png", "new.png")

	if e, ok := cache.Get("new.png"); !ok || e.Count != 2 {
		t.Errorf("new key entry = %+v ok=%v", e, ok)
	}
	if _, ok := cache.Get("old.png"); ok {
		t.Error("old key still present")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	cache := NewCache()
	cache.Set("a.png", Entry{Count: 1})
	cache.Set("b.png", Entry{Count: 1})

	cache.Delete("a.png")
	if _, ok := cache.Get("a.png"); ok {
		t.Error("deleted entry still present")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("len after clear = %d", cache.Len())
	}
}
