package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ryanu9/albus-imagine/internal/assets"
	"github.com/Ryanu9/albus-imagine/internal/refs"
	"github.com/Ryanu9/albus-imagine/internal/resize"
	"github.com/Ryanu9/albus-imagine/internal/testutil"
)

// testEnv sets up a temp vault, SQLite index, service, and router.
// An empty authToken means auth is disabled.
func testEnv(t *testing.T, authToken string) (*testutil.Vault, http.Handler) {
	t.Helper()

	v := testutil.NewVault(t)
	checker := refs.NewChecker(v.DB, refs.NewCache(), 10)
	logger := slog.New(slog.NewTextHandler(testutil.Discard{}, nil))
	svc := assets.NewService(v.Store, v.DB, checker, "assets", logger)

	cfg := resize.Config{Interval: 50 * time.Millisecond, SnapStep: 10, MinWidth: 50}
	router := NewRouter(svc, v.Store, "assets", cfg, nil, authToken != "", authToken, nil)
	return v, router
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListImages(t *testing.T) {
	v, router := testEnv(t, "")
	v.WriteFile(t, "assets/a.png", "x")
	v.WriteFile(t, "assets/b.jpg", "y")
	v.WriteFile(t, "note.md", "not an image")

	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp ImageListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
}

func TestCheckReferences(t *testing.T) {
	v, router := testEnv(t, "")
	v.WriteFile(t, "assets/pic.png", "x")
	v.WriteDoc(t, "a.md", "![[pic.png]]\nand [[pic.png]] again\n")

	w := postJSON(t, router, "/images/check", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp ImageListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(resp.Images))
	}
	img := resp.Images[0]
	if !img.Checked || img.ReferenceCount != 2 {
		t.Errorf("checked = %v count = %d, want checked with 2 refs", img.Checked, img.ReferenceCount)
	}
}

func TestRenameImage(t *testing.T) {
	v, router := testEnv(t, "")
	v.WriteFile(t, "assets/old.png", "x")
	v.WriteDoc(t, "a.md", "![[old.png]]\n")

	w := postJSON(t, router, "/images/rename", RenameImageRequest{Path: "assets/old.png", NewName: "new.png"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp RenameImageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Path != "assets/new.png" {
		t.Errorf("path = %q, want assets/new.png", resp.Path)
	}
	if got := v.ReadDoc(t, "a.md"); got != "![[new.png]]\n" {
		t.Errorf("doc = %q", got)
	}
}

func TestRenameMissingImage(t *testing.T) {
	_, router := testEnv(t, "")

	w := postJSON(t, router, "/images/rename", RenameImageRequest{Path: "assets/ghost.png", NewName: "new.png"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteImages(t *testing.T) {
	v, router := testEnv(t, "")
	v.WriteFile(t, "assets/gone.png", "x")
	v.WriteDoc(t, "a.md", "keep\n![[gone.png]]\n")

	w := postJSON(t, router, "/images/delete", DeleteImagesRequest{
		Paths:            []string{"assets/gone.png"},
		RemoveReferences: true,
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if v.Store.Exists("assets/gone.png") {
		t.Error("image still exists")
	}
	if got := v.ReadDoc(t, "a.md"); got != "keep\n" {
		t.Errorf("doc = %q, want referencing line removed", got)
	}
}

func TestSetAlignment(t *testing.T) {
	v, router := testEnv(t, "")
	v.WriteFile(t, "assets/pic.png", "x")
	v.WriteDoc(t, "a.md", "![[pic.png|dark|left|300]]\n")

	w := postJSON(t, router, "/embeds/alignment", SetAlignmentRequest{
		Doc:       "a.md",
		Target:    "assets/pic.png",
		Alignment: "right",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp RewriteResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Line != 0 || resp.Ambiguous {
		t.Errorf("line = %d ambiguous = %v", resp.Line, resp.Ambiguous)
	}
	if got := v.ReadDoc(t, "a.md"); got != "![[pic.png|dark|right|300]]\n" {
		t.Errorf("doc = %q", got)
	}
}

func TestSetAlignmentRejectsUnknownValue(t *testing.T) {
	_, router := testEnv(t, "")

	w := postJSON(t, router, "/embeds/alignment", SetAlignmentRequest{
		Doc:       "a.md",
		Target:    "pic.png",
		Alignment: "justify",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSetCaptionMissingEmbed(t *testing.T) {
	v, router := testEnv(t, "")
	v.WriteDoc(t, "a.md", "no embeds here\n")

	w := postJSON(t, router, "/embeds/caption", SetCaptionRequest{
		Doc:     "a.md",
		Target:  "pic.png",
		Caption: "hello",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSetSizeWithLineHint(t *testing.T) {
	v, router := testEnv(t, "")
	v.WriteFile(t, "assets/pic.png", "x")
	v.WriteDoc(t, "a.md", "![[pic.png]]\n\n![[pic.png]]\n")

	line := 2
	w := postJSON(t, router, "/embeds/size", SetSizeRequest{
		Doc:    "a.md",
		Target: "assets/pic.png",
		Line:   &line,
		Width:  240,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := v.ReadDoc(t, "a.md"); got != "![[pic.png]]\n\n![[pic.png|center|240]]\n" {
		t.Errorf("doc = %q", got)
	}
}

func TestBuildEmbed(t *testing.T) {
	_, router := testEnv(t, "")

	w := postJSON(t, router, "/embeds/build", BuildEmbedRequest{
		Name:      "pic.png",
		Alignment: "left",
		Caption:   "a diagram",
		Width:     300,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp BuildEmbedResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Token != "![[pic.png#left|a diagram|300]]" {
		t.Errorf("token = %q", resp.Token)
	}
}

func TestResizeWidth(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/resize/width?start=300&delta=27", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp ResizeWidthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Width != 320 {
		t.Errorf("width = %d, want 320 (snapped to step 10)", resp.Width)
	}
}

func TestResizeWidthBadQuery(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/resize/width?start=abc&delta=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUploadAndServe(t *testing.T) {
	v, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "shot.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("fake png bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/images/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp UploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Path != "assets/shot.png" {
		t.Errorf("path = %q", resp.Path)
	}
	if resp.Token != "![[shot.png]]" {
		t.Errorf("token = %q", resp.Token)
	}
	if !v.Store.Exists("assets/shot.png") {
		t.Error("uploaded file missing from vault")
	}

	req = httptest.NewRequest(http.MethodGet, "/files/assets/shot.png", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("serve status = %d", w.Code)
	}
	if w.Body.String() != "fake png bytes" {
		t.Errorf("served body = %q", w.Body.String())
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "payload.exe")
	_, _ = fw.Write([]byte("x"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/images/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	_, router := testEnv(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/images", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("with token status = %d, want 200", w.Code)
	}
}
