package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/einvtw/einvoice-filer/internal/config"
	"github.com/einvtw/einvoice-filer/internal/history"
	"github.com/einvtw/einvoice-filer/internal/pdfsource"
)

// Server exposes the invoice extraction operations over MCP.
type Server struct {
	config    *config.Config
	pdfs      *pdfsource.Service
	store     *history.Store
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance. The store may be nil; parses
// then run without staging.
func NewServer(cfg *config.Config, pdfs *pdfsource.Service, store *history.Store) (*Server, error) {
	if pdfs == nil {
		return nil, fmt.Errorf("pdf service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		pdfs:      pdfs,
		store:     store,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	parseTool := mcp.NewTool(
		"invoice_parse_file",
		mcp.WithDescription("Extract Taiwanese e-invoice fields (number, date, parties, amounts, line items) from a PDF file and stage the result"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the invoice PDF, absolute or relative to the invoice directory"),
		),
	)
	s.mcpServer.AddTool(parseTool, s.handleParseFile)

	validateTool := mcp.NewTool(
		"invoice_validate_file",
		mcp.WithDescription("Validate if a file is a readable PDF"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF, absolute or relative to the invoice directory"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateFile)

	searchTool := mcp.NewTool(
		"invoice_search_directory",
		mcp.WithDescription("List invoice PDF files in a directory, optionally filtered by filename substring"),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses the invoice directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional filename filter"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchDirectory)

	infoTool := mcp.NewTool(
		"invoice_server_info",
		mcp.WithDescription("Get server information, available tools, and usage guidance"),
	)
	s.mcpServer.AddTool(infoTool, s.handleServerInfo)
}

// resolvePath anchors relative paths at the configured invoice directory.
func (s *Server) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.config.InvoiceDirectory, path)
}

// Handler functions
func (s *Server) handleParseFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path = s.resolvePath(path)

	rec, err := s.pdfs.ParseFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Parsed invoice PDF: %s\n\n", path)
	responseText += rec.Summary()

	if s.store != nil {
		id, err := s.store.Save(ctx, path, rec)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("record parsed but staging failed: %v", err)), nil
		}
		responseText += fmt.Sprintf("\nStaged as record %d\n", id)
	}

	payload, err := json.MarshalIndent(rec.Serialize(), "", "  ")
	if err == nil {
		responseText += "\nJSON:\n" + string(payload)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdfsource.ValidateRequest{Path: s.resolvePath(path)}
	result, err := s.pdfs.Validate(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable", result.Path)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	directory := s.config.InvoiceDirectory // default
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}

	query := ""
	if q, ok := args["query"].(string); ok {
		query = q
	}

	result, err := s.pdfs.SearchDirectory(pdfsource.SearchRequest{
		Directory: directory,
		Query:     query,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.Count == 0 {
		responseText := fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if query != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", query)
		}
		return mcp.NewToolResultText(responseText), nil
	}

	return mcp.NewToolResultText(s.formatSearchResult(result, query)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Invoice Directory: %s\n", s.config.InvoiceDirectory)
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	if s.store != nil {
		text += "Staging: enabled\n"
	} else {
		text += "Staging: disabled\n"
	}

	text += "\nAvailable Tools:\n"
	text += "• invoice_parse_file - extract e-invoice fields from a PDF and stage them\n"
	text += "• invoice_validate_file - check that a file is a readable PDF\n"
	text += "• invoice_search_directory - list invoice PDFs in a directory\n"
	text += "• invoice_server_info - this summary\n"

	text += "\nTypical flow: invoice_search_directory to find PDFs, invoice_validate_file on a\n"
	text += "candidate, then invoice_parse_file to extract and stage its fields for filing.\n"

	return mcp.NewToolResultText(text), nil
}

// Formatting methods
func (s *Server) formatSearchResult(result *pdfsource.SearchResult, query string) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.Count, result.Directory)
	if query != "" {
		text += fmt.Sprintf("Search query: %s\n", query)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.Mode == config.ModeServer {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting e-invoice MCP server in stdio mode")
		log.Printf("Invoice directory: %s", s.config.InvoiceDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server over HTTP with SSE transport until the
// context is canceled.
func (s *Server) runServerMode(ctx context.Context) error {
	log.Printf("Starting e-invoice MCP server on %s", s.config.Address())

	sseServer := server.NewSSEServer(s.mcpServer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sseServer.Start(s.config.Address())
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	}
}
