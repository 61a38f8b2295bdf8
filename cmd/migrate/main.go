// Command migrate manages the upload journal schema.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesintake/internal/config"
	"salesintake/internal/logger"
)

var (
	migrationsDir string
	databaseURL   string
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Apply or roll back upload journal migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrate.Migrate, zl *zap.Logger, _ []string) error {
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		zl.Info("migrations applied")
		return nil
	}),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrate.Migrate, zl *zap.Logger, _ []string) error {
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		zl.Info("migrations reverted")
		return nil
	}),
}

var stepsCmd = &cobra.Command{
	Use:   "steps N",
	Short: "Apply N migrations, or roll back -N",
	Args:  intArg,
	RunE: withMigrator(func(m *migrate.Migrate, zl *zap.Logger, args []string) error {
		n, _ := strconv.Atoi(args[0])
		if err := ignoreNoChange(m.Steps(n)); err != nil {
			return fmt.Errorf("migrate steps %d: %w", n, err)
		}
		zl.Info("migration steps applied", zap.Int("steps", n))
		return nil
	}),
}

var forceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Mark VERSION as applied and clear the dirty flag",
	Args:  intArg,
	RunE: withMigrator(func(m *migrate.Migrate, zl *zap.Logger, args []string) error {
		v, _ := strconv.Atoi(args[0])
		if err := m.Force(v); err != nil {
			return fmt.Errorf("migrate force %d: %w", v, err)
		}
		zl.Info("migration version forced", zap.Int("version", v))
		return nil
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied migration version",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migrate.Migrate, _ *zap.Logger, _ []string) error {
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Fprintln(os.Stdout, "version: none")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrate version: %w", err)
		}
		fmt.Fprintf(os.Stdout, "version: %d, dirty: %v\n", v, dirty)
		return nil
	}),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&migrationsDir, "dir", "d", "", "migrations directory (default from SALESINTAKE_DB_MIGRATIONS_DIR)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "postgres URL overriding the SALESINTAKE_DB_* settings")
	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, forceCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// intArg accepts exactly one integer argument.
func intArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if _, err := strconv.Atoi(args[0]); err != nil {
		return fmt.Errorf("%s: %q is not an integer", cmd.Name(), args[0])
	}
	return nil
}

func withMigrator(fn func(*migrate.Migrate, *zap.Logger, []string) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		cfg, err := config.LoadDatabase()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		zl, err := logger.New(cfg.Log)
		if err != nil {
			return err
		}
		defer func() { _ = zl.Sync() }()

		source, dsn := migrationTarget(cfg.DB)
		m, err := migrate.New(source, dsn)
		if err != nil {
			return fmt.Errorf("opening migrations at %s: %w", source, err)
		}
		defer func() {
			if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
				zl.Warn("migrate: close failed", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
			}
		}()

		zl.Debug("migrate: target", zap.String("source", source), zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))
		return fn(m, zl, args)
	}
}

// migrationTarget resolves the source and database URLs, letting the
// command-line flags override configuration.
func migrationTarget(db config.DBConfig) (source, dsn string) {
	dir := db.MigrationsDir
	if migrationsDir != "" {
		dir = migrationsDir
	}
	if dir == "" {
		dir = "db/migrations"
	}
	dsn = db.DSN()
	if databaseURL != "" {
		dsn = databaseURL
	}
	return "file://" + filepath.ToSlash(dir), dsn
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
