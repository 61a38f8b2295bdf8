package backend

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"salesintake/internal/domain"
)

// flexID accepts identifiers the backend emits either as strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type userPayload struct {
	ID          flexID   `json:"id"`
	DisplayName string   `json:"display_name" validate:"required_without_all=Username Email"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	UserType    string   `json:"user_type" validate:"omitempty,max=32"`
	Role        string   `json:"role" validate:"omitempty,max=128"`
	Groups      []string `json:"groups"`
	BPCode      string   `json:"bp_code" validate:"omitempty,max=64"`
}

func (u *userPayload) toPrincipal() *domain.Principal {
	p := &domain.Principal{
		ID:          string(u.ID),
		DisplayName: u.DisplayName,
		Username:    u.Username,
		Email:       u.Email,
		UserType:    domain.ParseUserType(u.UserType),
		Role:        strings.TrimSpace(u.Role),
		Groups:      u.Groups,
		BPCode:      strings.TrimSpace(u.BPCode),
	}
	if p.DisplayName == "" {
		if p.Username != "" {
			p.DisplayName = p.Username
		} else {
			p.DisplayName = p.Email
		}
	}
	if p.ID == "" {
		if p.Username != "" {
			p.ID = p.Username
		} else {
			p.ID = p.Email
		}
	}
	return p
}

type meResponse struct {
	User *userPayload `json:"user" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *userPayload `json:"user" validate:"required"`
}

type logoutResponse struct {
	Redirect string `json:"redirect"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorResponse) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

type recentUploadPayload struct {
	Filename       string `json:"filename" validate:"required"`
	UploadedByName string `json:"uploaded_by_name"`
	UploadedBy     string `json:"uploaded_by"`
	UploadedAt     string `json:"uploaded_at_utc"`
	BlobKey        string `json:"blob_key"`
}

func (r *recentUploadPayload) toDomain() domain.RecentUpload {
	out := domain.RecentUpload{
		Filename:       r.Filename,
		UploadedByName: r.UploadedByName,
		UploadedAt:     parseTimestamp(r.UploadedAt),
		DownloadKey:    r.BlobKey,
	}
	if out.UploadedByName == "" {
		out.UploadedByName = r.UploadedBy
	}
	if out.DownloadKey == "" {
		out.DownloadKey = r.Filename
	}
	return out
}

type recentUploadsResponse struct {
	Items []recentUploadPayload `json:"items" validate:"dive"`
}

type reportPayload struct {
	ReportNumber flexID `json:"report_number" validate:"required"`
	Filename     string `json:"filename"`
	UploadedBy   string `json:"uploaded_by"`
	Status       string `json:"status"`
	ReportType   string `json:"report_type"`
	UploadedAt   string `json:"uploaded_at_utc"`
}

type reportsResponse struct {
	Reports []reportPayload `json:"reports" validate:"dive"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp reads the backend's UTC timestamps; unparseable values yield nil.
func parseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
