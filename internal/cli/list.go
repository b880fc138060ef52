package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukemzone/kpi-portal/internal/services"
	"github.com/dukemzone/kpi-portal/internal/store"
)

// NewUsersCommand creates the users command
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List portal accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(_ context.Context, s *store.Store) error {
				users := s.ListUsers()
				if role != "" {
					filtered := users[:0]
					for _, u := range users {
						if string(u.Role) == role {
							filtered = append(filtered, u)
						}
					}
					users = filtered
				}

				if rootOpts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), users)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROLE\tSUPERVISOR")
				for _, u := range users {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Name, u.Role, u.SupervisorID)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "only list this role (STAFF, CSM, MANAGER)")
	return cmd
}

// NewBackupsCommand creates the backups command
func NewBackupsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "Show the backup trail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(_ context.Context, s *store.Store) error {
				logs := s.ListBackupLogs()
				if rootOpts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), logs)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tSTATUS")
				for _, l := range logs {
					fmt.Fprintf(w, "%s\t%s\n", l.Date.UTC().Format(time.RFC3339), l.Status)
				}
				return w.Flush()
			})
		},
	}

	cmd.AddCommand(newSyncCommand(rootOpts))
	return cmd
}

func newSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Write a scheduled-style snapshot file now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(ctx context.Context, s *store.Store) error {
				path, err := services.NewBackupService(s, s, dir, rootOpts.logger).Sync(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "backups", "directory to write the snapshot file into")
	return cmd
}
