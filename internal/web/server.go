// Package web serves the upload UI: drop an invoice PDF in the browser,
// get the extracted fields back, and keep the parse staged for filing.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/einvtw/einvoice-filer/internal/config"
	"github.com/einvtw/einvoice-filer/internal/history"
	"github.com/einvtw/einvoice-filer/internal/pdfsource"
)

// Server is the HTTP upload surface.
type Server struct {
	cfg    *config.Config
	pdfs   *pdfsource.Service
	store  *history.Store
	engine *gin.Engine
}

// NewServer wires the routes. The store may be nil; uploads then parse
// without staging.
func NewServer(cfg *config.Config, pdfs *pdfsource.Service, store *history.Store) *Server {
	if !cfg.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		pdfs:   pdfs,
		store:  store,
		engine: gin.New(),
	}
	s.engine.Use(gin.Logger(), gin.Recovery())
	s.engine.MaxMultipartMemory = cfg.MaxFileSize

	s.engine.GET("/", s.index)
	s.engine.GET("/health", s.health)
	s.engine.POST("/upload", s.upload)
	s.engine.POST("/api/parse", s.parse)
	s.engine.GET("/api/history", s.listHistory)
	s.engine.GET("/api/history/:id", s.getHistory)

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured address until the listener fails or the
// context is canceled; cancellation drains in-flight requests first.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

const indexPage = `<!DOCTYPE html>
<html lang="zh-Hant">
<head><meta charset="utf-8"><title>電子發票擷取</title></head>
<body>
<h1>電子發票擷取</h1>
<form action="/upload" method="post" enctype="multipart/form-data">
  <input type="file" name="invoice" accept="application/pdf">
  <button type="submit">上傳</button>
</form>
</body>
</html>
`

func (s *Server) index(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, indexPage)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"name":    s.cfg.ServerName,
		"version": s.cfg.Version,
	})
}

// upload accepts a multipart PDF, parses it, and stages the result.
func (s *Server) upload(c *gin.Context) {
	file, err := c.FormFile("invoice")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'invoice' file field"})
		return
	}
	if file.Size > s.cfg.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file too large: %d bytes (max: %d bytes)", file.Size, s.cfg.MaxFileSize),
		})
		return
	}

	// The PDF readers work from paths, so the upload lands in a scratch
	// file first.
	tmpDir, err := os.MkdirTemp("", "einvoice-upload-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create scratch directory"})
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(file.Filename))
	if filepath.Ext(tmpPath) == "" {
		tmpPath += ".pdf"
	}
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store upload"})
		return
	}

	s.respondWithParse(c, tmpPath, file.Filename)
}

type parseRequest struct {
	Path string `json:"path" binding:"required"`
}

// parse extracts a PDF already on disk under the configured directory.
func (s *Server) parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must carry a 'path' field"})
		return
	}

	path := req.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cfg.InvoiceDirectory, path)
	}
	resolved, err := filepath.Abs(path)
	if err != nil || !withinDirectory(resolved, s.cfg.InvoiceDirectory) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path escapes the invoice directory"})
		return
	}

	s.respondWithParse(c, resolved, resolved)
}

func (s *Server) respondWithParse(c *gin.Context, path, sourceName string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("file does not exist: %s", sourceName)})
		return
	}

	rec, err := s.pdfs.ParseFile(path)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{"record": rec.Serialize()}
	if s.store != nil {
		id, err := s.store.Save(c.Request.Context(), sourceName, rec)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "record parsed but staging failed"})
			return
		}
		response["staged_id"] = id
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) listHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "staging store disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func (s *Server) getHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "staging store disabled"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	entry, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func withinDirectory(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}
