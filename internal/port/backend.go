package port

import (
	"context"
	"io"
	"net/http"

	"salesintake/internal/domain"
)

// Download is a streamed backend file.
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// UploadRegistry is the backend's authoritative record of uploads.
type UploadRegistry interface {
	RegisterUpload(ctx context.Context, cred domain.Credential, input domain.RegisterUploadInput) error
	RecentUploads(ctx context.Context, cred domain.Credential) ([]domain.RecentUpload, error)
	DownloadUpload(ctx context.Context, cred domain.Credential, key string) (*Download, error)
}

// ForwardRequest describes a pass-through call to a backend list/CRUD endpoint.
type ForwardRequest struct {
	Method   string
	Path     string
	RawQuery string
	Body     io.Reader
}

// ReportGateway serves the administrative dashboards.
type ReportGateway interface {
	ListReports(ctx context.Context, cred domain.Credential) ([]domain.ReportSummary, error)
	// Forward relays a request verbatim; the caller closes the response body.
	Forward(ctx context.Context, cred domain.Credential, req ForwardRequest) (*http.Response, error)
}
