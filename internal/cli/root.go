// Package cli implements portalctl, the operator command line for the portal store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dukemzone/kpi-portal/internal/config"
	"github.com/dukemzone/kpi-portal/internal/database"
	"github.com/dukemzone/kpi-portal/internal/store"
)

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// Opener loads the portal store and returns a function releasing it
type Opener func(ctx context.Context, opts *RootOptions) (*store.Store, func(), error)

// RootOptions holds global flags for all commands
type RootOptions struct {
	DatabaseURL string
	Format      string // "json" | "text"
	Verbose     bool

	open   Opener
	logger *logrus.Logger
}

// NewRootCommand creates the root command. A nil opener reads the configured database.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = openDatabase
	}
	opts := &RootOptions{open: open, logger: logrus.New()}

	cmd := &cobra.Command{
		Use:   "portalctl",
		Short: "Operate the DIZ KPI portal store",
		Long:  "Export, import and inspect the Dukem Industry Zone KPI portal data and manage passcodes without running the server.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.logger.SetOutput(cmd.ErrOrStderr())
			opts.logger.SetLevel(logrus.WarnLevel)
			if opts.Verbose {
				opts.logger.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", "", "database URL (overrides DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewUsersCommand(opts))
	cmd.AddCommand(NewBackupsCommand(opts))
	cmd.AddCommand(NewPasscodeCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func openDatabase(ctx context.Context, opts *RootOptions) (*store.Store, func(), error) {
	cfg, err := config.Load()
	dbCfg := config.DatabaseConfig{URL: opts.DatabaseURL, MaxConnections: 2, MaxIdleConnections: 1}
	if err == nil && dbCfg.URL == "" {
		dbCfg = cfg.Database
	}
	if dbCfg.URL == "" {
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil, nil, fmt.Errorf("DATABASE_URL is not set and --database-url was not provided")
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		return nil, nil, err
	}

	s, err := store.Open(ctx, database.NewCollectionRepository(db), opts.logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return s, func() { db.Close() }, nil
}

// withStore opens the store for the duration of fn
func withStore(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, s *store.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, release, err := opts.open(ctx, opts)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx, s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
