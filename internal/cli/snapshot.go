package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dukemzone/kpi-portal/internal/services"
	"github.com/dukemzone/kpi-portal/internal/store"
)

// NewExportCommand creates the export command
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of every collection",
		Long: `Write a snapshot document of every portal collection.

Without --dir the document is printed to stdout. With --dir it is written
to a DIZ_Snapshot_<timestamp>.json file inside that directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(ctx context.Context, s *store.Store) error {
				data, err := s.Export()
				if err != nil {
					return fmt.Errorf("failed to export snapshot: %w", err)
				}

				entry, err := s.AppendBackupLog(ctx, services.BackupStatusExported)
				if err != nil {
					return fmt.Errorf("failed to record backup: %w", err)
				}

				if dir == "" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}

				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
				path := filepath.Join(dir, services.SnapshotFilename(entry.Date))
				if err := os.WriteFile(path, data, 0o600); err != nil {
					return fmt.Errorf("failed to write snapshot: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory to write the snapshot file into")
	return cmd
}

// NewImportCommand creates the import command
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <snapshot.json|->",
		Short: "Replace collections from a snapshot document",
		Long: `Replace the collections present in a snapshot document.

Collections missing from the document are left untouched. A malformed
document changes nothing and exits with an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			return withStore(cmd, rootOpts, func(ctx context.Context, s *store.Store) error {
				ok, err := s.Import(ctx, data)
				if err != nil {
					return fmt.Errorf("failed to import snapshot: %w", err)
				}

				status := services.BackupStatusImported
				if !ok {
					status = services.BackupStatusImportFailed
				}
				if _, err := s.AppendBackupLog(ctx, status); err != nil {
					return fmt.Errorf("failed to record backup: %w", err)
				}

				if !ok {
					return fmt.Errorf("%s is not a valid snapshot document", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Snapshot imported")
				return nil
			})
		},
	}

	return cmd
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
