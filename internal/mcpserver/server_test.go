package mcpserver

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Ryanu9/albus-imagine/internal/assets"
	"github.com/Ryanu9/albus-imagine/internal/refs"
	"github.com/Ryanu9/albus-imagine/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.Vault) {
	t.Helper()

	v := testutil.NewVault(t)
	checker := refs.NewChecker(v.DB, refs.NewCache(), 10)
	logger := slog.New(slog.NewTextHandler(testutil.Discard{}, nil))
	svc := assets.NewService(v.Store, v.DB, checker, "assets", logger)

	return New(svc, v.Store), v
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_images":
		result, err = srv.listImages(ctx, req)
	case "image_references":
		result, err = srv.imageReferences(ctx, req)
	case "rename_image":
		result, err = srv.renameImage(ctx, req)
	case "delete_image":
		result, err = srv.deleteImage(ctx, req)
	case "set_image_alignment":
		result, err = srv.setAlignment(ctx, req)
	case "set_image_caption":
		result, err = srv.setCaption(ctx, req)
	case "set_image_size":
		result, err = srv.setSize(ctx, req)
	case "build_embed":
		result, err = srv.buildEmbed(ctx, req)
	case "get_embed_contract":
		result, err = srv.getEmbedContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListImagesTool(t *testing.T) {
	srv, v := testServer(t)
	v.WriteFile(t, "assets/a.png", "x")
	v.WriteFile(t, "assets/b.jpg", "y")

	r := callTool(t, srv, "list_images", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "assets/a.png") || !strings.Contains(text, "assets/b.jpg") {
		t.Errorf("list result = %q", text)
	}
}

func TestImageReferencesTool(t *testing.T) {
	srv, v := testServer(t)
	v.WriteFile(t, "assets/pic.png", "x")
	v.WriteDoc(t, "a.md", "![[pic.png]]\n")

	r := callTool(t, srv, "image_references", map[string]interface{}{"path": "assets/pic.png"})
	text := resultText(r)
	if !strings.Contains(text, `"reference_count": 1`) {
		t.Errorf("references result = %q", text)
	}
	if !strings.Contains(text, `"source_path": "a.md"`) {
		t.Errorf("references result missing source: %q", text)
	}
}

func TestImageReferencesMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "image_references", map[string]interface{}{"path": "assets/nope.png"})
	if !r.IsError {
		t.Error("expected error for missing image")
	}
}

func TestRenameImageTool(t *testing.T) {
	srv, v := testServer(t)
	v.WriteFile(t, "assets/old.png", "x")
	v.WriteDoc(t, "a.md", "![[old.png|left]]\n")

	r := callTool(t, srv, "rename_image", map[string]interface{}{
		"path":     "assets/old.png",
		"new_name": "new.png",
	})
	if text := resultText(r); text != "renamed: assets/new.png" {
		t.Errorf("rename result = %q", text)
	}
	if got := v.ReadDoc(t, "a.md"); got != "![[new.png|left]]\n" {
		t.Errorf("doc = %q", got)
	}
}

func TestDeleteImageTool(t *testing.T) {
	srv, v := testServer(t)
	v.WriteFile(t, "assets/gone.png", "x")
	v.WriteDoc(t, "a.md", "keep\n![[gone.png]]\n")

	r := callTool(t, srv, "delete_image", map[string]interface{}{
		"path":              "assets/gone.png",
		"remove_references": true,
	})
	if r.IsError {
		t.Fatalf("delete failed: %q", resultText(r))
	}
	if v.Store.Exists("assets/gone.png") {
		t.Error("image still exists")
	}
	if got := v.ReadDoc(t, "a.md"); got != "keep\n" {
		t.Errorf("doc = %q", got)
	}
}

func TestSetAlignmentTool(t *testing.T) {
	srv, v := testServer(t)
	v.WriteFile(t, "assets/pic.png", "x")
	v.WriteDoc(t, "a.md", "![[pic.png|center|300]]\n")

	r := callTool(t, srv, "set_image_alignment", map[string]interface{}{
		"doc":       "a.md",
		"target":    "assets/pic.png",
		"alignment": "right",
	})
	if text := resultText(r); text != "updated line 0" {
		t.Errorf("result = %q", text)
	}
	if got := v.ReadDoc(t, "a.md"); got != "![[pic.png|right|300]]\n" {
		t.Errorf("doc = %q", got)
	}
}

func TestSetCaptionToolMissingEmbed(t *testing.T) {
	srv, v := testServer(t)
	v.WriteDoc(t, "a.md", "nothing here\n")

	r := callTool(t, srv, "set_image_caption", map[string]interface{}{
		"doc":     "a.md",
		"target":  "pic.png",
		"caption": "hello",
	})
	if !r.IsError {
		t.Error("expected error for missing embed")
	}
}

func TestBuildEmbedTool(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "build_embed", map[string]interface{}{
		"name":      "pic.png",
		"alignment": "left",
		"width":     300,
	})
	if text := resultText(r); text != "![[pic.png|left|300]]" {
		t.Errorf("token = %q", text)
	}
}

func TestGetEmbedContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_embed_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "Pipe encoding") {
		t.Error("contract missing pipe encoding section")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"shot.png":     "shot.png",
		"../shot.png":  "shot.png",
		"my photo.png": "my_photo.png",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeDataURI(t *testing.T) {
	// "hi" base64-encoded with a png media type.
	data, ext, err := decodeDataURI("data:image/png;base64,aGk=")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hi" || ext != ".png" {
		t.Errorf("data = %q ext = %q", data, ext)
	}

	if _, _, err := decodeDataURI("data:text/plain;base64,aGk="); err == nil {
		t.Error("expected error for unsupported MIME type")
	}
}
