package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// TemplateHandler serves the blank intake templates users fill in.
type TemplateHandler struct {
	dir        string
	extensions []string
}

// NewTemplateHandler creates a TemplateHandler serving files with one of
// extensions from dir. An empty dir serves nothing.
func NewTemplateHandler(dir string, extensions []string) *TemplateHandler {
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		exts = append(exts, strings.ToLower(e))
	}
	return &TemplateHandler{dir: dir, extensions: exts}
}

// TemplateFile is one downloadable template.
type TemplateFile struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// List handles GET /api/v1/templates
func (h *TemplateHandler) List(c *gin.Context) {
	files := []TemplateFile{}
	if h.dir == "" {
		RespondOK(c, files)
		return
	}
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			RespondOK(c, files)
			return
		}
		HandleError(c, err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !h.served(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, TemplateFile{Name: e.Name(), SizeBytes: info.Size()})
	}
	RespondOK(c, files)
}

// Download handles GET /api/v1/templates/:name
func (h *TemplateHandler) Download(c *gin.Context) {
	name := c.Param("name")
	if h.dir == "" || name != filepath.Base(name) || !h.served(name) {
		RespondError(c, http.StatusNotFound, "NOT_FOUND", "template not found")
		return
	}
	full := filepath.Join(h.dir, name)
	if info, err := os.Stat(full); err != nil || info.IsDir() {
		RespondError(c, http.StatusNotFound, "NOT_FOUND", "template not found")
		return
	}
	c.FileAttachment(full, name)
}

func (h *TemplateHandler) served(name string) bool {
	return slices.Contains(h.extensions, strings.ToLower(filepath.Ext(name)))
}
