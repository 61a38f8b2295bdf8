package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintake/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SALESINTAKE_BACKEND_API_BASE", "https://api.example.com/")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Backend.APIBase)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, config.AuthModeCookie, cfg.Auth.Mode)
	assert.Equal(t, 5*time.Second, cfg.Auth.SessionTimeout)
	assert.Equal(t, []string{".xlsx", ".xls", ".csv"}, cfg.Intake.AcceptedExtensions)
	assert.Equal(t, int64(50), cfg.Intake.MaxFileSizeMB)
	assert.Equal(t, 5, cfg.Intake.PreviewRows)
	assert.Equal(t, config.DefaultRequiredFields, cfg.Intake.RequiredFields)
	assert.Equal(t, []string{"admin", "accounting", "ssp_admins"}, cfg.Disclosure.ElevatedRoles)
	assert.False(t, cfg.Storage.Enabled())
	assert.Equal(t, "noop", cfg.Notify.Provider)
	assert.Equal(t, 5*time.Second, cfg.DB.ConnectTimeout)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, "db/migrations", cfg.DB.MigrationsDir)
}

func TestLoadDatabase_SkipsPortalSettings(t *testing.T) {
	t.Setenv("SALESINTAKE_BACKEND_API_BASE", "")
	t.Setenv("SALESINTAKE_DB_MIGRATIONS_DIR", "/srv/migrations")

	_, err := config.Load()
	require.Error(t, err)

	cfg, err := config.LoadDatabase()
	require.NoError(t, err)
	assert.Equal(t, "/srv/migrations", cfg.DB.MigrationsDir)

	t.Setenv("SALESINTAKE_DB_PORT", "0")
	_, err = config.LoadDatabase()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.port must be positive")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SALESINTAKE_BACKEND_API_BASE", "https://api.example.com")
	t.Setenv("SALESINTAKE_STORAGE_BUCKET", "member-uploads")
	t.Setenv("SALESINTAKE_INTAKE_ACCEPTED_EXTENSIONS", "XLSX, csv")
	t.Setenv("SALESINTAKE_INTAKE_MAX_FILE_SIZE_MB", "10")
	t.Setenv("SALESINTAKE_AUTH_MODE", "Token")
	t.Setenv("SALESINTAKE_AUTH_TOKEN_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Storage.Enabled())
	assert.Equal(t, []string{".xlsx", ".csv"}, cfg.Intake.AcceptedExtensions)
	assert.Equal(t, int64(10), cfg.Intake.MaxFileSizeMB)
	assert.Equal(t, config.AuthModeToken, cfg.Auth.Mode)
}

func TestLoad_PlatformPort(t *testing.T) {
	t.Setenv("SALESINTAKE_BACKEND_API_BASE", "https://api.example.com")
	t.Setenv("PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_MissingAPIBase(t *testing.T) {
	t.Setenv("SALESINTAKE_BACKEND_API_BASE", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.api_base is required")
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Backend: config.BackendConfig{APIBase: "https://api.example.com"},
			Auth: config.AuthConfig{
				Mode:           config.AuthModeCookie,
				SessionCookie:  "connect.sid",
				SessionTimeout: time.Second,
			},
			Intake: config.IntakeConfig{
				AcceptedExtensions: []string{".csv"},
				MaxFileSizeMB:      1,
				PreviewRows:        5,
				RequiredFields:     []string{"caf"},
			},
			Notify: config.NotifyConfig{Provider: "noop"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *config.Config) {}},
		{name: "unknown auth mode", mutate: func(c *config.Config) { c.Auth.Mode = "saml" }, wantErr: "auth.mode"},
		{name: "token mode without secret", mutate: func(c *config.Config) { c.Auth.Mode = config.AuthModeToken }, wantErr: "auth.token.secret"},
		{name: "zero size limit", mutate: func(c *config.Config) { c.Intake.MaxFileSizeMB = 0 }, wantErr: "max_file_size_mb"},
		{name: "zero preview rows", mutate: func(c *config.Config) { c.Intake.PreviewRows = 0 }, wantErr: "preview_rows"},
		{name: "unknown notifier", mutate: func(c *config.Config) { c.Notify.Provider = "smtp" }, wantErr: "notify.provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDBConfig_DSN(t *testing.T) {
	db := config.DBConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", db.DSN())
}
