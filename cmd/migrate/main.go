// Command migrate manages the PostgreSQL schema of the CheckMaster backend.
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/checkmaster/backend/internal/infrastructure/config"
	"github.com/checkmaster/backend/internal/infrastructure/logger"
	"github.com/checkmaster/backend/internal/infrastructure/migration"
	"github.com/checkmaster/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the CheckMaster database schema",
		Long:         "Apply, revert and inspect the versioned SQL schema embedded in the binary. Connection settings come from config.toml and CHK_ environment variables.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	withMigrator := func(fn func(*migration.Migrator, []string) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			m, closeDB, err := openMigrator(log)
			if err != nil {
				return err
			}
			defer closeDB()
			defer func() {
				if err := m.Close(); err != nil {
					log.Warn("Failed to close migrator", zap.Error(err))
				}
			}()
			return fn(m, args)
		}
	}

	var confirmDown bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert every applied migration",
		RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
			if !confirmDown {
				return errors.New("down drops every table; pass --yes to confirm")
			}
			return m.Down()
		}),
	}
	down.Flags().BoolVar(&confirmDown, "yes", false, "confirm reverting the whole schema")

	var dir string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(dir, args[0])
			if err != nil {
				return err
			}
			cmd.Printf("created %s\ncreated %s\n", mf.UpPath, mf.DownPath)
			return nil
		},
	}
	create.Flags().StringVar(&dir, "dir", "migrations", "migrations directory")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
				return m.Up()
			}),
		},
		down,
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations, or revert them when N is negative",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Printf("version %d (dirty: %t)\n", version, dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied without running it",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(version)
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the embedded migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				list, err := migration.ListMigrations(migrations.FS)
				if err != nil {
					return err
				}
				for _, m := range list {
					status := "ok"
					if !m.Complete() {
						status = "incomplete"
					}
					cmd.Printf("%06d  %-40s %s\n", m.Version, m.Name, status)
				}
				return nil
			},
		},
		create,
	)
	return root
}

func openMigrator(log *zap.Logger) (*migration.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return nil, nil, fmt.Errorf("database.driver is %q: only postgres uses SQL migrations, sqlite schemas are created by the server", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	m, err := migration.New(db, migrations.FS, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return m, func() { _ = db.Close() }, nil
}
