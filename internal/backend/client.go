package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"salesintake/internal/config"
	"salesintake/internal/domain"
	"salesintake/internal/port"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 4096

// Client is the typed gateway to the backend REST API. It implements
// port.IdentityGateway, port.UploadRegistry, port.ReportGateway and
// port.AccountingNotifier.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	validate      *validator.Validate
	sessionCookie string
	logger        *zap.Logger
}

var (
	_ port.IdentityGateway    = (*Client)(nil)
	_ port.UploadRegistry     = (*Client)(nil)
	_ port.ReportGateway      = (*Client)(nil)
	_ port.AccountingNotifier = (*Client)(nil)
)

// New creates a backend client. sessionCookie names the cookie that carries
// the backend session in cookie auth mode.
func New(cfg config.BackendConfig, sessionCookie string, logger *zap.Logger) *Client {
	return NewWithHTTPClient(cfg.APIBase, &http.Client{Timeout: cfg.Timeout}, sessionCookie, logger)
}

// NewWithHTTPClient creates a backend client around an existing http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client, sessionCookie string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    hc,
		validate:      validator.New(),
		sessionCookie: sessionCookie,
		logger:        logger,
	}
}

// Me returns the principal behind cred.
func (c *Client) Me(ctx context.Context, cred domain.Credential) (*domain.Principal, error) {
	if cred.Empty() {
		return nil, domain.ErrUnauthenticated
	}
	var out meResponse
	if err := c.doJSON(ctx, cred, http.MethodGet, "/me", nil, &out); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("backend.Me: %w", err)
	}
	return out.User.toPrincipal(), nil
}

// Login exchanges username and password for a backend session.
func (c *Client) Login(ctx context.Context, username, password string) (*port.LoginResult, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("backend.Login: %w", err)
	}
	resp, err := c.send(ctx, domain.Credential{}, http.MethodPost, "/auth/sql/login", "", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("backend.Login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domain.ErrInvalidCredentials
	}
	if err := statusError(resp); err != nil {
		return nil, fmt.Errorf("backend.Login: %w", err)
	}

	var out loginResponse
	if err := c.decode(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("backend.Login: %w", err)
	}

	result := &port.LoginResult{
		Principal: out.User.toPrincipal(),
		Cookies:   resp.Cookies(),
	}
	if out.Token != "" {
		result.Credential = domain.Credential{Kind: domain.CredentialBearer, Value: out.Token}
	} else {
		for _, ck := range result.Cookies {
			if ck.Name == c.sessionCookie {
				result.Credential = domain.Credential{Kind: domain.CredentialCookie, Name: ck.Name, Value: ck.Value}
				break
			}
		}
	}
	if result.Credential.Empty() {
		return nil, fmt.Errorf("backend.Login: no session issued: %w", domain.ErrInvalidPayload)
	}
	return result, nil
}

// Logout ends the backend session and returns the suggested redirect, if any.
func (c *Client) Logout(ctx context.Context, cred domain.Credential) (string, error) {
	resp, err := c.send(ctx, cred, http.MethodPost, "/auth/logout", "", nil)
	if err != nil {
		return "", fmt.Errorf("backend.Logout: %w", err)
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return "", fmt.Errorf("backend.Logout: %w", err)
	}

	// The body is optional; an empty or non-JSON reply just means no redirect.
	var out logoutResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out.Redirect, nil
}

// SSOLoginURL is where browsers start the identity-provider login.
func (c *Client) SSOLoginURL() string {
	return c.baseURL + "/auth/saml/login"
}

// RegisterUpload records an upload with the backend.
func (c *Client) RegisterUpload(ctx context.Context, cred domain.Credential, input domain.RegisterUploadInput) error {
	if err := c.doJSON(ctx, cred, http.MethodPost, "/uploads/register", input, nil); err != nil {
		return fmt.Errorf("backend.RegisterUpload: %w", err)
	}
	return nil
}

// RecentUploads lists the uploads visible to cred.
func (c *Client) RecentUploads(ctx context.Context, cred domain.Credential) ([]domain.RecentUpload, error) {
	var out recentUploadsResponse
	if err := c.doJSON(ctx, cred, http.MethodGet, "/uploads/recent", nil, &out); err != nil {
		return nil, fmt.Errorf("backend.RecentUploads: %w", err)
	}
	uploads := make([]domain.RecentUpload, 0, len(out.Items))
	for i := range out.Items {
		uploads = append(uploads, out.Items[i].toDomain())
	}
	return uploads, nil
}

// DownloadUpload streams a previously uploaded file. The caller closes Body.
func (c *Client) DownloadUpload(ctx context.Context, cred domain.Credential, key string) (*port.Download, error) {
	resp, err := c.send(ctx, cred, http.MethodGet, "/uploads/download/"+url.PathEscape(key), "", nil)
	if err != nil {
		return nil, fmt.Errorf("backend.DownloadUpload: %w", err)
	}
	if err := statusError(resp); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("backend.DownloadUpload: %w", err)
	}
	return &port.Download{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

// NotifyAccounting asks the backend to email accounting about validation failures.
func (c *Client) NotifyAccounting(ctx context.Context, cred domain.Credential, notice domain.AccountingNotice) error {
	if err := c.doJSON(ctx, cred, http.MethodPost, "/notify-accounting", notice, nil); err != nil {
		return fmt.Errorf("backend.NotifyAccounting: %w", err)
	}
	return nil
}

// ListReports returns the reports dashboard rows.
func (c *Client) ListReports(ctx context.Context, cred domain.Credential) ([]domain.ReportSummary, error) {
	var out reportsResponse
	if err := c.doJSON(ctx, cred, http.MethodGet, "/reports/list", nil, &out); err != nil {
		return nil, fmt.Errorf("backend.ListReports: %w", err)
	}
	reports := make([]domain.ReportSummary, 0, len(out.Reports))
	for _, r := range out.Reports {
		n, err := strconv.ParseInt(string(r.ReportNumber), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("backend.ListReports: report number %q: %w", r.ReportNumber, domain.ErrInvalidPayload)
		}
		reports = append(reports, domain.ReportSummary{
			ReportNumber: n,
			Filename:     r.Filename,
			UploadedBy:   r.UploadedBy,
			Status:       r.Status,
			ReportType:   r.ReportType,
			UploadedAt:   parseTimestamp(r.UploadedAt),
		})
	}
	return reports, nil
}

// Forward relays a request to the backend and returns its response untouched.
func (c *Client) Forward(ctx context.Context, cred domain.Credential, req port.ForwardRequest) (*http.Response, error) {
	resp, err := c.send(ctx, cred, req.Method, req.Path, req.RawQuery, req.Body)
	if err != nil {
		return nil, fmt.Errorf("backend.Forward: %w", err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, cred domain.Credential, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	resp, err := c.send(ctx, cred, method, path, "", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return c.decode(resp.Body, out)
}

func (c *Client) send(ctx context.Context, cred domain.Credential, method, path, rawQuery string, body io.Reader) (*http.Response, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cred.Apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s %s: %v: %w", method, path, err, domain.ErrBackendUnavailable)
	}
	c.logger.Debug("backend.send: response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return resp, nil
}

// decode parses and schema-checks a JSON payload.
func (c *Client) decode(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidPayload)
	}
	if err := c.validate.Struct(out); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidPayload)
	}
	return nil
}

// statusError maps a non-2xx response onto the domain error taxonomy.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.text() != "" {
		msg = er.text()
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		sentinel = domain.ErrUnauthenticated
	case http.StatusForbidden:
		sentinel = domain.ErrForbidden
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	default:
		sentinel = domain.ErrBackendUnavailable
	}
	if msg == "" {
		return fmt.Errorf("status %d: %w", resp.StatusCode, sentinel)
	}
	return fmt.Errorf("status %d: %s: %w", resp.StatusCode, msg, sentinel)
}
