// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only garden tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/grove/internal/garden"
	"github.com/starford/grove/internal/graph"
	"github.com/starford/grove/internal/render"
)

// ContractURI is the resource URI of the note format contract.
const ContractURI = "grove://note-format"

// Server wraps the MCP server with garden tools.
type Server struct {
	mcp *server.MCPServer
	svc *garden.Service
}

// New creates a new MCP server with all garden tools registered.
func New(svc *garden.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Grove",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through published note titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the raw Markdown body of a published note."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Note slug or title (e.g. leverage-points)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("render_note",
		mcp.WithDescription("Render a published note to HTML with wikilinks resolved."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Note slug or title")),
		mcp.WithString("mode", mcp.Description("Render path: inline or tree"), mcp.Enum("inline", "tree")),
	), s.renderNote)

	s.mcp.AddTool(mcp.NewTool("resolve_wikilinks",
		mcp.WithDescription("Replace every [[wikilink]] in the given text with its HTML anchor. "+
			"Other text is returned unchanged."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text containing [[wikilinks]]")),
	), s.resolveWikilinks)

	s.mcp.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Return the knowledge graph of published notes."),
		mcp.WithString("format", mcp.Description("json (default) or dot"), mcp.Enum("json", "dot")),
	), s.getGraph)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all published notes that link to the specified note."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the garden note format contract. "+
			"Call this before drafting notes to ensure correct frontmatter."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Note Format Contract",
			mcp.WithResourceDescription("Frontmatter schema and wikilink syntax every garden note follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Lookup(key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", key)), nil
	}
	return mcp.NewToolResultText("# " + n.Title + "\n\n" + n.Body), nil
}

func (s *Server) renderNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := render.ParseMode(req.GetString("mode", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.Note(key, mode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", key)), nil
	}
	return mcp.NewToolResultText(d.Content), nil
}

func (s *Server) resolveWikilinks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(render.Substitute(text, s.svc.Renderer().Resolver())), nil
}

func (s *Server) getGraph(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.svc.Graph()
	switch req.GetString("format", "json") {
	case "dot":
		return mcp.NewToolResultText(graph.ToDOT(g)), nil
	case "json", "":
		return jsonResult(g)
	default:
		return mcp.NewToolResultError("format must be json or dot"), nil
	}
}

func (s *Server) getBacklinks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Lookup(key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", key)), nil
	}
	bl, err := s.svc.Backlinks(n.Slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	lines := make([]string, len(bl))
	for i, b := range bl {
		kinds := make([]string, len(b.Kinds))
		for j, k := range b.Kinds {
			kinds[j] = string(k)
		}
		lines[i] = b.Slug + " (" + strings.Join(kinds, ",") + ")"
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
