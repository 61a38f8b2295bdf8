package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintake/internal/config"
	"salesintake/internal/disclosure"
	"salesintake/internal/domain"
)

// fakeBackend serves the identity endpoints for a single bearer token.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	user := `{"id":42,"display_name":"Acme Co","username":"acme","user_type":"bp","bp_code":"BP100"}`
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/sql/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-1","user":` + user + `}`))
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":` + user + `}`))
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestSessionLifecycle(t *testing.T) {
	srv := fakeBackend(t)
	t.Setenv("SALESINTAKE_BACKEND_API_BASE", srv.URL)
	cache := filepath.Join(t.TempDir(), "session.json")

	out, err := execute(t, "--session-file", cache, "login", "-u", "acme", "-p", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Acme Co (bp, BP BP100)")

	info, err := os.Stat(cache)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err = execute(t, "--session-file", cache, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Co")

	// The backend refuses the logout; the local session is still forgotten.
	out, err = execute(t, "--session-file", cache, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: backend logout failed")
	_, err = os.Stat(cache)
	assert.True(t, os.IsNotExist(err))

	_, err = execute(t, "--session-file", cache, "whoami")
	assert.ErrorContains(t, err, "not logged in")
}

func TestValidateOffline(t *testing.T) {
	t.Setenv("SALESINTAKE_BACKEND_API_BASE", "http://127.0.0.1:1")
	dir := t.TempDir()
	file := filepath.Join(dir, "march.csv")
	header := strings.Join(config.DefaultRequiredFields, ",")
	row := make([]string, len(config.DefaultRequiredFields))
	for i, f := range config.DefaultRequiredFields {
		switch f {
		case "purchase_dollars":
			row[i] = "100"
		case "caf":
			row[i] = "0.05"
		case "caf_dollars":
			row[i] = "6"
		default:
			row[i] = "x"
		}
	}
	require.NoError(t, os.WriteFile(file, []byte(header+"\n"+strings.Join(row, ",")+"\n"), 0o644))

	out, err := execute(t, "--session-file", filepath.Join(dir, "s.json"), "validate", "--offline", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation found 1 issue(s) in 1 row(s)")
	assert.Contains(t, out, "Row 2: CAF Dollars mismatch (expected 5, got 6)")
	assert.Contains(t, out, "Preview:")

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o644))
	out, err = execute(t, "--session-file", filepath.Join(dir, "s.json"), "validate", "--offline", notes)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	assert.Contains(t, out, "Unsupported file type")
}

func TestRender_HidesUndisclosedDetails(t *testing.T) {
	item := &domain.IntakeItem{
		Name:       "march.csv",
		SizeBytes:  10,
		Status:     domain.ItemStatusReady,
		Validation: domain.NewValidationReport([]string{"Row 2: Missing value for caf"}, 1),
		Preview:    &domain.Preview{Headers: []string{"caf"}, Rows: [][]string{{""}}},
		Content:    []byte("x"),
	}
	var out bytes.Buffer

	render(&out, disclosure.View(item, domain.Disclosure{}, true))

	assert.Contains(t, out.String(), "Status: ready")
	assert.NotContains(t, out.String(), "Missing value")
	assert.NotContains(t, out.String(), "Preview")
}
