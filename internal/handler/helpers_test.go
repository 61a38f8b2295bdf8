package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"salesintake/internal/config"
	"salesintake/internal/disclosure"
	"salesintake/internal/domain"
	"salesintake/internal/handler"
	"salesintake/internal/intake"
	"salesintake/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	partner = &domain.Principal{ID: "bp-7", Username: "acme", DisplayName: "Acme Co", UserType: domain.UserTypeBusinessPartner, BPCode: "BP100"}
	staff   = &domain.Principal{ID: "st-1", Username: "dana", DisplayName: "Dana", UserType: domain.UserTypeInternal, Role: "Sales"}
	admin   = &domain.Principal{ID: "ad-1", Username: "root", DisplayName: "Root", UserType: domain.UserTypeInternal, Role: "Admin"}

	cookieCred = domain.Credential{Kind: domain.CredentialCookie, Name: "connect.sid", Value: "s3cr3t"}
	authCfg    = config.AuthConfig{Mode: config.AuthModeCookie, SessionCookie: "connect.sid"}
)

func testPolicy() *disclosure.Policy {
	return disclosure.NewPolicy(config.DisclosureConfig{ElevatedRoles: []string{"admin", "accounting", "ssp_admins"}})
}

func testPipeline() *intake.Pipeline {
	return intake.NewPipeline(config.IntakeConfig{
		AcceptedExtensions: []string{".xlsx", ".xls", ".csv"},
		MaxFileSizeMB:      1,
		PreviewRows:        5,
		RequiredFields:     config.DefaultRequiredFields,
		ReportType:         "Members",
	}, zap.NewNop())
}

// memberCSV builds a member sheet with one data row per cafDollars value.
func memberCSV(cafDollars ...string) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(config.DefaultRequiredFields, ","))
	b.WriteString("\n")
	for _, cd := range cafDollars {
		vals := make([]string, len(config.DefaultRequiredFields))
		for i, f := range config.DefaultRequiredFields {
			switch f {
			case "purchase_dollars":
				vals[i] = "100"
			case "caf":
				vals[i] = "0.05"
			case "caf_dollars":
				vals[i] = cd
			default:
				vals[i] = "x"
			}
		}
		b.WriteString(strings.Join(vals, ","))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func multipartRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// sessionContext returns a test context carrying p as the resolved principal.
func sessionContext(p *domain.Principal, req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if p != nil {
		middleware.SetSession(c, p, cookieCred)
	}
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, data any) handler.APIResponse {
	t.Helper()
	var raw struct {
		handler.APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.APIResponse
}
