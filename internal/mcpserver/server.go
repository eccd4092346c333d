// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes image management tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Ryanu9/albus-imagine/internal/assets"
	"github.com/Ryanu9/albus-imagine/internal/embed"
	"github.com/Ryanu9/albus-imagine/internal/locate"
	"github.com/Ryanu9/albus-imagine/internal/models"
	"github.com/Ryanu9/albus-imagine/internal/storage"
)

// Server wraps the MCP server with image tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *assets.Service
	store storage.Provider
}

// New creates a new MCP server with all image tools registered.
func New(svc *assets.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Albus Imagine",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_images",
		mcp.WithDescription("List every image in the vault with file stats."),
	), s.listImages)

	s.mcp.AddTool(mcp.NewTool("image_references",
		mcp.WithDescription("Find every document occurrence that embeds or links the image."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative image path (e.g. assets/pic.png)")),
	), s.imageReferences)

	s.mcp.AddTool(mcp.NewTool("rename_image",
		mcp.WithDescription("Rename an image file and rewrite every reference to it "+
			"across the vault, preserving display parameters."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Current vault-relative image path")),
		mcp.WithString("new_name", mcp.Required(), mcp.Description("New file name (no folders)")),
	), s.renameImage)

	s.mcp.AddTool(mcp.NewTool("delete_image",
		mcp.WithDescription("Delete an image file, optionally removing the document lines that embed it."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative image path")),
		mcp.WithBoolean("remove_references", mcp.Description("Also delete referencing lines (default false)")),
	), s.deleteImage)

	s.mcp.AddTool(mcp.NewTool("set_image_alignment",
		mcp.WithDescription("Set the alignment of one embed occurrence. "+
			"Read the embed syntax first via the get_embed_contract tool or the "+
			"albus://embed-syntax resource."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Document containing the embed")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Embedded image path")),
		mcp.WithString("alignment", mcp.Required(), mcp.Description("center, left or right")),
		mcp.WithNumber("line", mcp.Description("Zero-based line to disambiguate repeated embeds")),
	), s.setAlignment)

	s.mcp.AddTool(mcp.NewTool("set_image_caption",
		mcp.WithDescription("Set or clear the caption of one embed occurrence. An empty caption removes it."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Document containing the embed")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Embedded image path")),
		mcp.WithString("caption", mcp.Description("Caption text; empty clears")),
		mcp.WithNumber("line", mcp.Description("Zero-based line to disambiguate repeated embeds")),
	), s.setCaption)

	s.mcp.AddTool(mcp.NewTool("set_image_size",
		mcp.WithDescription("Set the rendered pixel size of one embed occurrence. Zero width clears the size."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Document containing the embed")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Embedded image path")),
		mcp.WithNumber("width", mcp.Required(), mcp.Description("Pixel width; 0 clears")),
		mcp.WithNumber("height", mcp.Description("Pixel height; 0 keeps the aspect ratio")),
		mcp.WithNumber("line", mcp.Description("Zero-based line to disambiguate repeated embeds")),
	), s.setSize)

	s.mcp.AddTool(mcp.NewTool("build_embed",
		mcp.WithDescription("Generate an embed token ready to paste into a document. "+
			"Follows the syntax in the albus://embed-syntax resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Image file name or path")),
		mcp.WithString("alignment", mcp.Description("center, left or right (default center)")),
		mcp.WithBoolean("dark", mcp.Description("Invert in dark mode")),
		mcp.WithString("caption", mcp.Description("Caption text")),
		mcp.WithNumber("width", mcp.Description("Pixel width")),
		mcp.WithNumber("height", mcp.Description("Pixel height")),
	), s.buildEmbed)

	s.mcp.AddTool(mcp.NewTool("get_embed_contract",
		mcp.WithDescription("Returns the canonical embed token syntax. "+
			"Call this before writing or editing embed tokens."),
	), s.getEmbedContract)

	s.mcp.AddTool(mcp.NewTool("upload_image",
		mcp.WithDescription("Download an image from a URL or data URI into the vault. "+
			"Returns the saved path and a ready-to-paste embed token."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or base64 data URI")),
		mcp.WithString("filename", mcp.Description("Optional target file name")),
	), s.uploadImage)

	// Resource: embed token syntax.
	s.mcp.AddResource(
		mcp.NewResource("albus://embed-syntax", "Embed Token Syntax",
			mcp.WithResourceDescription("Canonical image embed token syntax used in vault documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEmbedSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// hintArg reads the optional line argument into a locator hint.
func hintArg(req mcp.CallToolRequest) locate.Hint {
	if line, err := req.RequireInt("line"); err == nil {
		return locate.Hint{Line: line, Valid: true}
	}
	return locate.NoHint
}

func (s *Server) listImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	images, err := s.svc.Scan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(images, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) imageReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	images, err := s.svc.Scan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for _, d := range images {
		if d.Path != path {
			continue
		}
		checked, err := s.svc.CheckReferences(ctx, []*models.ImageDescriptor{d}, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, _ := json.MarshalIndent(checked[0], "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	}
	return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
}

func (s *Server) renameImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newName, err := req.RequireString("new_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newPath, err := s.svc.Rename(ctx, path, newName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s", newPath)), nil
}

func (s *Server) deleteImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removeRefs := false
	if v, bErr := req.RequireBool("remove_references"); bErr == nil {
		removeRefs = v
	}
	if err := s.svc.Delete(ctx, path, removeRefs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", path)), nil
}

func (s *Server) setAlignment(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	alignment, err := req.RequireString("alignment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.SetAlignment(doc, target, hintArg(req), alignment)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return rewriteResult(out), nil
}

func (s *Server) setCaption(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	caption := ""
	if v, cErr := req.RequireString("caption"); cErr == nil {
		caption = v
	}
	out, err := s.svc.SetCaption(doc, target, hintArg(req), caption)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return rewriteResult(out), nil
}

func (s *Server) setSize(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	width, err := req.RequireInt("width")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	height := 0
	if v, hErr := req.RequireInt("height"); hErr == nil {
		height = v
	}
	out, err := s.svc.SetSize(doc, target, hintArg(req), width, height)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return rewriteResult(out), nil
}

func rewriteResult(out assets.RewriteOutcome) *mcp.CallToolResult {
	if out.Ambiguous {
		return mcp.NewToolResultText(fmt.Sprintf("updated line %d (ambiguous: several occurrences matched, first one edited)", out.Line))
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated line %d", out.Line))
}

func (s *Server) buildEmbed(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := embed.BuildOptions{}
	if v, oErr := req.RequireString("alignment"); oErr == nil {
		opts.Alignment = v
	}
	if v, oErr := req.RequireBool("dark"); oErr == nil {
		opts.Dark = v
	}
	if v, oErr := req.RequireString("caption"); oErr == nil {
		opts.Caption = v
	}
	if v, oErr := req.RequireInt("width"); oErr == nil {
		opts.Width = v
	}
	if v, oErr := req.RequireInt("height"); oErr == nil {
		opts.Height = v
	}
	return mcp.NewToolResultText(s.svc.BuildEmbed(name, opts)), nil
}

func (s *Server) getEmbedContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EmbedSyntaxContract), nil
}

func (s *Server) readEmbedSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "albus://embed-syntax",
			MIMEType: "text/markdown",
			Text:     EmbedSyntaxContract,
		},
	}, nil
}
