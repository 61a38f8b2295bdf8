package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesintake/internal/backend"
	"salesintake/internal/config"
	"salesintake/internal/domain"
	"salesintake/internal/logger"
	"salesintake/internal/session"
)

var (
	cachePath string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "intake",
	Short:         "Member sales intake",
	Long:          `Validate and upload member sales spreadsheets from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cachePath, "session-file", "", "session cache file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(loginCmd, whoamiCmd, logoutCmd)
	rootCmd.AddCommand(validateCmd, uploadCmd, zeroSalesCmd)
}

// app holds what every command needs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *backend.Client
	cache    *session.FileCache
	resolver session.Resolver
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := config.LogConfig{Level: "warn", Format: "console"}
	if verbose {
		logCfg.Level = "debug"
	}
	zl, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}

	path := cachePath
	if path == "" {
		if path, err = session.DefaultCachePath(); err != nil {
			return nil, err
		}
	}

	client := backend.New(cfg.Backend, cfg.Auth.SessionCookie, zl)
	return &app{
		cfg:    cfg,
		logger: zl,
		client: client,
		cache:  session.NewFileCache(path, zl),
		// The backend is the authority for CLI sessions in either auth mode.
		resolver: session.WithTimeout(session.NewGatewayResolver(client, zl), cfg.Auth.SessionTimeout),
	}, nil
}

// cachedCredential returns the credential saved by login.
func (a *app) cachedCredential() (domain.Credential, error) {
	cs, err := a.cache.Load()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Credential{}, errors.New("not logged in: run `intake login`")
		}
		return domain.Credential{}, err
	}
	return cs.Credential, nil
}

// authenticate revalidates the cached credential with the backend and keeps
// the cache in step with the outcome.
func (a *app) authenticate(cmd *cobra.Command) (*domain.Principal, domain.Credential, error) {
	cred, err := a.cachedCredential()
	if err != nil {
		return nil, cred, err
	}
	store := session.NewStore()
	stop := a.cache.Track(store, cred)
	defer stop()

	st := store.Refresh(cmd.Context(), a.resolver, cred)
	if st.Status != domain.SessionAuthenticated {
		if !st.Rejected {
			return nil, cred, errors.New("could not verify session with the backend, try again later")
		}
		return nil, cred, errors.New("session expired: run `intake login`")
	}
	return st.Principal, cred, nil
}
