package handler

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"salesintake/internal/listview"
	"salesintake/internal/port"
)

// UploadHandler serves the recent uploads list and file downloads.
type UploadHandler struct {
	registry port.UploadRegistry
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(registry port.UploadRegistry) *UploadHandler {
	return &UploadHandler{registry: registry}
}

// Recent handles GET /api/v1/uploads/recent?search=&sort=&order=&offset=&limit=
func (h *UploadHandler) Recent(c *gin.Context) {
	_, cred, ok := extractSession(c)
	if !ok {
		return
	}
	uploads, err := h.registry.RecentUploads(c.Request.Context(), cred)
	if err != nil {
		HandleError(c, err)
		return
	}
	page := listview.Apply(uploads, listview.RecentUploadFields, parseListQuery(c))
	RespondPaginated(c, page.Items, PagMeta{Total: page.Total, Offset: page.Offset, Limit: page.Limit})
}

// Download handles GET /api/v1/uploads/download/*key
func (h *UploadHandler) Download(c *gin.Context) {
	_, cred, ok := extractSession(c)
	if !ok {
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "download key is required")
		return
	}

	dl, err := h.registry.DownloadUpload(c.Request.Context(), cred, key)
	if err != nil {
		HandleError(c, err)
		return
	}
	defer dl.Body.Close()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, dl.ContentLength, contentType, dl.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	})
}
