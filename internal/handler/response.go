package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salesintake/internal/domain"
	"salesintake/internal/listview"
	"salesintake/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHORIZED", "authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUploadsDisabled):
		return http.StatusServiceUnavailable, "UPLOADS_DISABLED", "uploads are disabled: storage is not configured"
	case errors.Is(err, domain.ErrNoActiveItem):
		return http.StatusNotFound, "NO_ACTIVE_ITEM", "no file staged for upload"
	case errors.Is(err, domain.ErrItemNotUploadable):
		return http.StatusConflict, "ITEM_NOT_UPLOADABLE", "file cannot be uploaded"
	case errors.Is(err, domain.ErrUploadInProgress):
		return http.StatusConflict, "UPLOAD_IN_PROGRESS", "upload already in progress"
	case errors.Is(err, domain.ErrBusinessPartnerOnly):
		return http.StatusForbidden, "BUSINESS_PARTNER_ONLY", "action is available to business partners only"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusBadGateway, "UPLOAD_FAILED", "file upload to storage failed"
	case errors.Is(err, domain.ErrRegistrationFailed):
		return http.StatusBadGateway, "REGISTRATION_FAILED", "upload registration failed"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusBadGateway, "BACKEND_UNAVAILABLE", "backend unavailable"
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadGateway, "BACKEND_INVALID_RESPONSE", "backend returned an invalid payload"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
// Server-side failures are attached to the context for the request logger.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		_ = c.Error(err)
	}
	RespondError(c, status, code, msg)
}

// HandleOperationError is HandleError for failures the user must read
// verbatim, such as a failed transfer.
func HandleOperationError(c *gin.Context, err error) {
	status, code, _ := MapDomainError(err)
	if status >= 500 {
		_ = c.Error(err)
	}
	RespondError(c, status, code, err.Error())
}

// extractSession returns the principal and credential set by the guard.
// Returns false if the session is missing (error response already written).
func extractSession(c *gin.Context) (*domain.Principal, domain.Credential, bool) {
	p, err := middleware.GetPrincipal(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing session context")
		return nil, domain.Credential{}, false
	}
	return p, middleware.GetCredential(c), true
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(listview.DefaultLimit)))
	q := listview.Query{Offset: offset, Limit: limit}.Normalize()
	return q.Offset, q.Limit
}

func parseListQuery(c *gin.Context) listview.Query {
	offset, limit := parsePagination(c)
	return listview.Query{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Desc:   c.Query("order") == "desc",
		Offset: offset,
		Limit:  limit,
	}
}
