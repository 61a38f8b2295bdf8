package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Auth modes.
const (
	AuthModeCookie = "cookie"
	AuthModeToken  = "token"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Backend    BackendConfig
	Auth       AuthConfig
	Storage    StorageConfig
	Intake     IntakeConfig
	Disclosure DisclosureConfig
	Notify     NotifyConfig
	Pipeline   PipelineConfig
	Journal    JournalConfig
	DB         DBConfig
	Log        LogConfig
	CORS       CORSConfig
	Templates  TemplatesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// BackendConfig holds the external REST API settings.
type BackendConfig struct {
	APIBase string        `mapstructure:"api_base"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TokenConfig holds bearer-token verification settings (token auth mode only).
type TokenConfig struct {
	Secret          string `mapstructure:"secret"`
	Issuer          string `mapstructure:"issuer"`
	ClientID        string `mapstructure:"client_id"`
	TenantID        string `mapstructure:"tenant_id"`
	DefaultUserType string `mapstructure:"default_user_type"`
}

// AuthConfig selects and tunes the session resolution strategy.
type AuthConfig struct {
	Mode           string        `mapstructure:"mode"`
	SessionCookie  string        `mapstructure:"session_cookie"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
	Token          TokenConfig   `mapstructure:"token"`
}

// StorageConfig holds blob storage settings. An empty Bucket disables uploads.
type StorageConfig struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	SourceTag string `mapstructure:"source_tag"`
}

// Enabled reports whether a storage target is configured.
func (s *StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// IntakeConfig holds file intake limits and the expected sheet schema.
type IntakeConfig struct {
	AcceptedExtensions []string `mapstructure:"accepted_extensions"`
	MaxFileSizeMB      int64    `mapstructure:"max_file_size_mb"`
	PreviewRows        int      `mapstructure:"preview_rows"`
	RequiredFields     []string `mapstructure:"required_fields"`
	ReportType         string   `mapstructure:"report_type"`
}

// DisclosureConfig lists the roles allowed to see itemized validation results.
type DisclosureConfig struct {
	ElevatedRoles []string `mapstructure:"elevated_roles"`
}

// NotifyConfig holds accounting notification settings.
type NotifyConfig struct {
	Provider             string   `mapstructure:"provider"`
	Region               string   `mapstructure:"region"`
	FromAddress          string   `mapstructure:"from_address"`
	FromName             string   `mapstructure:"from_name"`
	AccountingRecipients []string `mapstructure:"accounting_recipients"`
}

// PipelineConfig holds the optional external pipeline trigger.
type PipelineConfig struct {
	TriggerURL string `mapstructure:"trigger_url"`
}

// JournalConfig toggles the upload journal.
type JournalConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`

	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Validate checks the settings needed to reach the database.
func (d *DBConfig) Validate() error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, errors.New("db.host is required"))
	}
	if d.Port <= 0 {
		errs = append(errs, errors.New("db.port must be positive"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("db.name is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid database configuration: %w", errors.Join(errs...))
	}
	return nil
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// TemplatesConfig points at downloadable intake templates.
type TemplatesConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// DefaultRequiredFields are the member sheet columns every upload must carry.
var DefaultRequiredFields = []string{
	"customer_id",
	"member_number",
	"member_name",
	"member_address",
	"member_city",
	"member_state",
	"member_zip",
	"ship_to",
	"ship_to_address",
	"ship_to_city",
	"ship_to_state",
	"ship_to_zip",
	"purchase_dollars",
	"caf",
	"caf_dollars",
}

// Load reads configuration from environment variables with the SALESINTAKE_ prefix.
func Load() (*Config, error) {
	cfg := read()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads configuration for tools that only talk to the journal
// database. Portal settings are read but not validated.
func LoadDatabase() (*Config, error) {
	cfg := read()
	if err := cfg.DB.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read() *Config {
	v := viper.New()
	v.SetEnvPrefix("SALESINTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// Backend defaults
	v.SetDefault("backend.api_base", "")
	v.SetDefault("backend.timeout", "30s")

	// Auth defaults
	v.SetDefault("auth.mode", AuthModeCookie)
	v.SetDefault("auth.session_cookie", "connect.sid")
	v.SetDefault("auth.session_timeout", "5s")
	v.SetDefault("auth.token.secret", "")
	v.SetDefault("auth.token.issuer", "")
	v.SetDefault("auth.token.client_id", "")
	v.SetDefault("auth.token.tenant_id", "")
	v.SetDefault("auth.token.default_user_type", "internal")

	// Storage defaults
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.source_tag", "excel-ui")

	// Intake defaults
	v.SetDefault("intake.accepted_extensions", ".xlsx,.xls,.csv")
	v.SetDefault("intake.max_file_size_mb", 50)
	v.SetDefault("intake.preview_rows", 5)
	v.SetDefault("intake.required_fields", strings.Join(DefaultRequiredFields, ","))
	v.SetDefault("intake.report_type", "Members")

	// Disclosure defaults
	v.SetDefault("disclosure.elevated_roles", "admin,accounting,ssp_admins")

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "us-east-1")
	v.SetDefault("notify.from_address", "noreply@example.com")
	v.SetDefault("notify.from_name", "Sales Intake")
	v.SetDefault("notify.accounting_recipients", "")

	// Pipeline defaults
	v.SetDefault("pipeline.trigger_url", "")

	// Journal / DB defaults
	v.SetDefault("journal.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "salesintake")
	v.SetDefault("db.password", "salesintake_secret")
	v.SetDefault("db.name", "salesintake")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.connect_timeout", "5s")
	v.SetDefault("db.migrations_dir", "db/migrations")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173")

	v.SetDefault("templates.base_path", "/templates")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                     "SALESINTAKE_SERVER_PORT",
		"server.read_timeout":             "SALESINTAKE_SERVER_READ_TIMEOUT",
		"server.write_timeout":            "SALESINTAKE_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":         "SALESINTAKE_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":              "SALESINTAKE_SERVER_ENVIRONMENT",
		"backend.api_base":                "SALESINTAKE_BACKEND_API_BASE",
		"backend.timeout":                 "SALESINTAKE_BACKEND_TIMEOUT",
		"auth.mode":                       "SALESINTAKE_AUTH_MODE",
		"auth.session_cookie":             "SALESINTAKE_AUTH_SESSION_COOKIE",
		"auth.session_timeout":            "SALESINTAKE_AUTH_SESSION_TIMEOUT",
		"auth.token.secret":               "SALESINTAKE_AUTH_TOKEN_SECRET",
		"auth.token.issuer":               "SALESINTAKE_AUTH_TOKEN_ISSUER",
		"auth.token.client_id":            "SALESINTAKE_AUTH_TOKEN_CLIENT_ID",
		"auth.token.tenant_id":            "SALESINTAKE_AUTH_TOKEN_TENANT_ID",
		"auth.token.default_user_type":    "SALESINTAKE_AUTH_TOKEN_DEFAULT_USER_TYPE",
		"storage.region":                  "SALESINTAKE_STORAGE_REGION",
		"storage.bucket":                  "SALESINTAKE_STORAGE_BUCKET",
		"storage.endpoint":                "SALESINTAKE_STORAGE_ENDPOINT",
		"storage.access_key":              "SALESINTAKE_STORAGE_ACCESS_KEY",
		"storage.secret_key":              "SALESINTAKE_STORAGE_SECRET_KEY",
		"storage.source_tag":              "SALESINTAKE_STORAGE_SOURCE_TAG",
		"intake.accepted_extensions":      "SALESINTAKE_INTAKE_ACCEPTED_EXTENSIONS",
		"intake.max_file_size_mb":         "SALESINTAKE_INTAKE_MAX_FILE_SIZE_MB",
		"intake.preview_rows":             "SALESINTAKE_INTAKE_PREVIEW_ROWS",
		"intake.required_fields":          "SALESINTAKE_INTAKE_REQUIRED_FIELDS",
		"intake.report_type":              "SALESINTAKE_INTAKE_REPORT_TYPE",
		"disclosure.elevated_roles":       "SALESINTAKE_DISCLOSURE_ELEVATED_ROLES",
		"notify.provider":                 "SALESINTAKE_NOTIFY_PROVIDER",
		"notify.region":                   "SALESINTAKE_NOTIFY_REGION",
		"notify.from_address":             "SALESINTAKE_NOTIFY_FROM_ADDRESS",
		"notify.from_name":                "SALESINTAKE_NOTIFY_FROM_NAME",
		"notify.accounting_recipients":    "SALESINTAKE_NOTIFY_ACCOUNTING_RECIPIENTS",
		"pipeline.trigger_url":            "SALESINTAKE_PIPELINE_TRIGGER_URL",
		"journal.enabled":                 "SALESINTAKE_JOURNAL_ENABLED",
		"db.host":                         "SALESINTAKE_DB_HOST",
		"db.port":                         "SALESINTAKE_DB_PORT",
		"db.user":                         "SALESINTAKE_DB_USER",
		"db.password":                     "SALESINTAKE_DB_PASSWORD",
		"db.name":                         "SALESINTAKE_DB_NAME",
		"db.sslmode":                      "SALESINTAKE_DB_SSLMODE",
		"db.max_open":                     "SALESINTAKE_DB_MAX_OPEN",
		"db.max_idle":                     "SALESINTAKE_DB_MAX_IDLE",
		"db.conn_max_lifetime":            "SALESINTAKE_DB_CONN_MAX_LIFETIME",
		"db.connect_timeout":              "SALESINTAKE_DB_CONNECT_TIMEOUT",
		"db.migrations_dir":               "SALESINTAKE_DB_MIGRATIONS_DIR",
		"log.level":                       "SALESINTAKE_LOG_LEVEL",
		"log.format":                      "SALESINTAKE_LOG_FORMAT",
		"cors.allowed_origins":            "SALESINTAKE_CORS_ALLOWED_ORIGINS",
		"templates.base_path":             "SALESINTAKE_TEMPLATES_BASE_PATH",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if SALESINTAKE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SALESINTAKE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.Backend = BackendConfig{
		APIBase: strings.TrimRight(strings.TrimSpace(v.GetString("backend.api_base")), "/"),
		Timeout: v.GetDuration("backend.timeout"),
	}
	cfg.Auth = AuthConfig{
		Mode:           strings.ToLower(strings.TrimSpace(v.GetString("auth.mode"))),
		SessionCookie:  v.GetString("auth.session_cookie"),
		SessionTimeout: v.GetDuration("auth.session_timeout"),
		Token: TokenConfig{
			Secret:          v.GetString("auth.token.secret"),
			Issuer:          v.GetString("auth.token.issuer"),
			ClientID:        v.GetString("auth.token.client_id"),
			TenantID:        v.GetString("auth.token.tenant_id"),
			DefaultUserType: v.GetString("auth.token.default_user_type"),
		},
	}
	cfg.Storage = StorageConfig{
		Region:    v.GetString("storage.region"),
		Bucket:    strings.TrimSpace(v.GetString("storage.bucket")),
		Endpoint:  v.GetString("storage.endpoint"),
		AccessKey: v.GetString("storage.access_key"),
		SecretKey: v.GetString("storage.secret_key"),
		SourceTag: v.GetString("storage.source_tag"),
	}
	cfg.Intake = IntakeConfig{
		AcceptedExtensions: normalizeExtensions(splitList(v.GetString("intake.accepted_extensions"))),
		MaxFileSizeMB:      v.GetInt64("intake.max_file_size_mb"),
		PreviewRows:        v.GetInt("intake.preview_rows"),
		RequiredFields:     splitList(v.GetString("intake.required_fields")),
		ReportType:         v.GetString("intake.report_type"),
	}
	cfg.Disclosure = DisclosureConfig{
		ElevatedRoles: splitList(v.GetString("disclosure.elevated_roles")),
	}
	cfg.Notify = NotifyConfig{
		Provider:             v.GetString("notify.provider"),
		Region:               v.GetString("notify.region"),
		FromAddress:          v.GetString("notify.from_address"),
		FromName:             v.GetString("notify.from_name"),
		AccountingRecipients: splitList(v.GetString("notify.accounting_recipients")),
	}
	cfg.Pipeline = PipelineConfig{
		TriggerURL: strings.TrimSpace(v.GetString("pipeline.trigger_url")),
	}
	cfg.Journal = JournalConfig{
		Enabled: v.GetBool("journal.enabled"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),

		ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		ConnectTimeout:  v.GetDuration("db.connect_timeout"),
		MigrationsDir:   v.GetString("db.migrations_dir"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Templates = TemplatesConfig{
		BasePath: v.GetString("templates.base_path"),
	}
	return cfg
}

// Validate fails fast on configuration that would silently point the portal
// at the wrong environment.
func (c *Config) Validate() error {
	var errs []error
	if c.Backend.APIBase == "" {
		errs = append(errs, errors.New("backend.api_base is required"))
	}
	switch c.Auth.Mode {
	case AuthModeCookie:
		if c.Auth.SessionCookie == "" {
			errs = append(errs, errors.New("auth.session_cookie is required in cookie mode"))
		}
	case AuthModeToken:
		if c.Auth.Token.Secret == "" {
			errs = append(errs, errors.New("auth.token.secret is required in token mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be %q or %q, got %q", AuthModeCookie, AuthModeToken, c.Auth.Mode))
	}
	if c.Auth.SessionTimeout <= 0 {
		errs = append(errs, errors.New("auth.session_timeout must be positive"))
	}
	if c.Intake.MaxFileSizeMB <= 0 {
		errs = append(errs, errors.New("intake.max_file_size_mb must be positive"))
	}
	if c.Intake.PreviewRows <= 0 {
		errs = append(errs, errors.New("intake.preview_rows must be positive"))
	}
	if len(c.Intake.AcceptedExtensions) == 0 {
		errs = append(errs, errors.New("intake.accepted_extensions must not be empty"))
	}
	if len(c.Intake.RequiredFields) == 0 {
		errs = append(errs, errors.New("intake.required_fields must not be empty"))
	}
	switch c.Notify.Provider {
	case "noop", "ses":
	default:
		errs = append(errs, fmt.Errorf("notify.provider must be \"noop\" or \"ses\", got %q", c.Notify.Provider))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
