package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukemzone/kpi-portal/internal/services"
	"github.com/dukemzone/kpi-portal/internal/store"
)

// NewPasscodeCommand creates the passcode command
func NewPasscodeCommand(rootOpts *RootOptions) *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "passcode <username>",
		Short: "Set or reset a user's passcode",
		Long: `Read a passcode from the first line of stdin and store it for the user.

Use this to give accounts their first passcode when AUTH_ALLOW_LEGACY_DEFAULTS
is off, or to reset a forgotten one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passcode, err := readPasscode(cmd)
			if err != nil {
				return err
			}

			return withStore(cmd, rootOpts, func(ctx context.Context, s *store.Store) error {
				user, err := s.GetUserByUsername(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("unknown user %q: %w", args[0], err)
				}

				auth := services.NewAuthService(s, nil, services.AuthOptions{BcryptCost: cost}, rootOpts.logger)
				if err := auth.AssignPasscode(ctx, user.ID, passcode); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "passcode stored for %s\n", user.Username)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 12, "bcrypt cost")
	return cmd
}

func readPasscode(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	passcode := strings.TrimRight(line, "\r\n")
	if passcode == "" {
		if err != nil {
			return "", fmt.Errorf("failed to read passcode from stdin: %w", err)
		}
		return "", fmt.Errorf("passcode is empty")
	}
	return passcode, nil
}
