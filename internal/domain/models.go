package domain

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated user and its authorization attributes.
type Principal struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Username    string   `json:"username,omitempty"`
	Email       string   `json:"email,omitempty"`
	UserType    UserType `json:"user_type"`
	Role        string   `json:"role,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	BPCode      string   `json:"bp_code,omitempty"`
}

// IsInternal reports whether the principal is staff.
func (p *Principal) IsInternal() bool {
	return p != nil && p.UserType == UserTypeInternal
}

// UploaderName is the identity recorded against uploads.
func (p *Principal) UploaderName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.DisplayName
}

// HasRole reports whether the principal's role matches any of roles, ignoring case.
func (p *Principal) HasRole(roles ...string) bool {
	if p == nil || p.Role == "" {
		return false
	}
	for _, r := range roles {
		if strings.EqualFold(p.Role, r) {
			return true
		}
	}
	return false
}

// SessionState is the result of a session resolution.
type SessionState struct {
	Status    SessionStatus `json:"status"`
	Principal *Principal    `json:"user,omitempty"`
	// Rejected is set when the credential itself is known to be dead: the
	// identity endpoint refused it, or the user logged out. An outage or a
	// timeout leaves it false.
	Rejected bool `json:"-"`
}

// Unknown returns the in-flight state.
func Unknown() SessionState { return SessionState{Status: SessionUnknown} }

// Unauthenticated returns the signed-out state.
func Unauthenticated() SessionState { return SessionState{Status: SessionUnauthenticated} }

// Rejected returns the signed-out state for a credential that must not be reused.
func Rejected() SessionState {
	return SessionState{Status: SessionUnauthenticated, Rejected: true}
}

// Authenticated returns the signed-in state for p.
func Authenticated(p *Principal) SessionState {
	return SessionState{Status: SessionAuthenticated, Principal: p}
}

// Credential is what the portal forwards to the backend to identify a session.
type Credential struct {
	Kind  CredentialKind `json:"kind"`
	Name  string         `json:"name,omitempty"`
	Value string         `json:"value"`
}

// Empty reports whether no credential was presented.
func (c Credential) Empty() bool { return c.Value == "" }

// Apply attaches the credential to an outgoing request.
func (c Credential) Apply(req *http.Request) {
	if c.Empty() {
		return
	}
	switch c.Kind {
	case CredentialBearer:
		req.Header.Set("Authorization", "Bearer "+c.Value)
	default:
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
}

// ValidationReport is the business-rule outcome for one parsed file.
type ValidationReport struct {
	OK       bool     `json:"ok"`
	Errors   []string `json:"errors"`
	RowCount int      `json:"row_count"`
}

// NewValidationReport builds a report whose OK flag always agrees with errors.
func NewValidationReport(errs []string, rowCount int) *ValidationReport {
	if errs == nil {
		errs = []string{}
	}
	return &ValidationReport{OK: len(errs) == 0, Errors: errs, RowCount: rowCount}
}

// Preview is a bounded slice of the parsed sheet.
type Preview struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// IntakeItem is one candidate file moving through parse, validate and upload.
type IntakeItem struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	SizeBytes   int64             `json:"size_bytes"`
	ContentType string            `json:"content_type,omitempty"`
	Status      ItemStatus        `json:"status"`
	Progress    int               `json:"progress"`
	Validation  *ValidationReport `json:"validation,omitempty"`
	Preview     *Preview          `json:"preview,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`

	// Cause classifies a rejection, e.g. ErrUnsupportedFileType or
	// ErrFileTooLarge. Error carries the message shown to the user.
	Cause error `json:"-"`

	// Content is the file body; nil when the file was rejected before decoding.
	Content []byte `json:"-"`
}

// Uploadable reports whether the item was parsed and is not mid-transfer.
func (i *IntakeItem) Uploadable() bool {
	if i.Content == nil || i.Validation == nil {
		return false
	}
	return i.Status == ItemStatusReady || i.Status == ItemStatusError
}

// CheckUploadable returns nil if the item may be uploaded, otherwise
// ErrItemNotUploadable joined with the rejection cause, if any.
func (i *IntakeItem) CheckUploadable() error {
	if i.Uploadable() {
		return nil
	}
	if i.Cause != nil {
		return fmt.Errorf("%w: %w", ErrItemNotUploadable, i.Cause)
	}
	return ErrItemNotUploadable
}

// HasValidationIssues reports whether validation produced any error.
func (i *IntakeItem) HasValidationIssues() bool {
	return i.Validation != nil && len(i.Validation.Errors) > 0
}

// Disclosure is what a principal may see of validation results. It is
// derived per request and never stored.
type Disclosure struct {
	CanViewValidationDetails bool `json:"can_view_validation_details"`
	CanViewPreview           bool `json:"can_view_preview"`
}

// UploadResult describes a completed upload-and-register cycle.
type UploadResult struct {
	ItemID           uuid.UUID `json:"item_id"`
	Filename         string    `json:"filename"`
	BlobKey          string    `json:"blob_key,omitempty"`
	Location         string    `json:"location,omitempty"`
	ReportType       string    `json:"report_type"`
	ValidationIssues int       `json:"validation_issues"`
	Notified         bool      `json:"notified"`
}

// RegisterUploadInput is the registration call payload.
type RegisterUploadInput struct {
	Filename   string `json:"filename"`
	ReportType string `json:"report_type"`
	Note       string `json:"note"`
}

// AccountingNotice carries validation failures to accounting staff.
type AccountingNotice struct {
	FileName   string   `json:"fileName"`
	UploadedBy string   `json:"uploadedBy"`
	Errors     []string `json:"errors"`
}

// RecentUpload is one row of the recent uploads list.
type RecentUpload struct {
	Filename       string     `json:"filename"`
	UploadedByName string     `json:"uploaded_by_name"`
	UploadedAt     *time.Time `json:"uploaded_at_utc,omitempty"`
	DownloadKey    string     `json:"download_key"`
}

// ReportSummary is one row of the reports dashboard.
type ReportSummary struct {
	ReportNumber int64      `json:"report_number"`
	Filename     string     `json:"filename"`
	UploadedBy   string     `json:"uploaded_by"`
	Status       string     `json:"status"`
	ReportType   string     `json:"report_type"`
	UploadedAt   *time.Time `json:"uploaded_at_utc,omitempty"`
}

// JournalEntry tracks one blob between transfer and registration.
type JournalEntry struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	BlobKey    string        `db:"blob_key" json:"blob_key"`
	Filename   string        `db:"filename" json:"filename"`
	UploaderID string        `db:"uploader_id" json:"uploader_id"`
	Status     JournalStatus `db:"status" json:"status"`
	Error      string        `db:"error" json:"error"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}
