package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salesintake/internal/domain"
	"salesintake/internal/handler"
	"salesintake/mocks"
)

func TestAdminHandler_Orphans(t *testing.T) {
	journal := new(mocks.MockUploadJournal)
	entry := domain.JournalEntry{ID: uuid.New(), BlobKey: "2026/03/01/x.csv", Filename: "x.csv", Status: domain.JournalStatusOrphaned, Error: "status 500"}
	journal.On("ListOrphaned", mock.Anything, 20, 10).Return([]domain.JournalEntry{entry}, 21, nil)
	h := handler.NewAdminHandler(journal)

	c, w := sessionContext(admin, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orphans?offset=20&limit=10", nil))
	h.Orphans(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var rows []domain.JournalEntry
	resp := decodeResponse(t, w, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, entry.ID, rows[0].ID)
	assert.Equal(t, 21, resp.Meta.Total)
}

func TestAdminHandler_Orphans_JournalDisabled(t *testing.T) {
	h := handler.NewAdminHandler(nil)

	c, w := sessionContext(admin, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orphans", nil))
	h.Orphans(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var rows []domain.JournalEntry
	resp := decodeResponse(t, w, &rows)
	assert.Empty(t, rows)
	assert.Equal(t, 0, resp.Meta.Total)
}

func TestAdminHandler_Orphans_Error(t *testing.T) {
	journal := new(mocks.MockUploadJournal)
	journal.On("ListOrphaned", mock.Anything, 0, 20).Return(nil, 0, errors.New("db down"))
	h := handler.NewAdminHandler(journal)

	c, w := sessionContext(admin, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orphans", nil))
	h.Orphans(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
