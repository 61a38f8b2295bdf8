package handler

import (
	"github.com/gin-gonic/gin"

	"salesintake/internal/domain"
	"salesintake/internal/port"
)

// AdminHandler exposes operational views for administrators.
type AdminHandler struct {
	journal port.UploadJournal
}

// NewAdminHandler creates a new AdminHandler. journal is nil when the upload
// journal is disabled.
func NewAdminHandler(journal port.UploadJournal) *AdminHandler {
	return &AdminHandler{journal: journal}
}

// Orphans handles GET /api/v1/admin/orphans: blobs that were stored but
// never registered with the backend.
func (h *AdminHandler) Orphans(c *gin.Context) {
	offset, limit := parsePagination(c)
	if h.journal == nil {
		RespondPaginated(c, []domain.JournalEntry{}, PagMeta{Offset: offset, Limit: limit})
		return
	}
	entries, total, err := h.journal.ListOrphaned(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	RespondPaginated(c, entries, PagMeta{Total: total, Offset: offset, Limit: limit})
}
