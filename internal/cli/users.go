package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"lernapp-service/internal/auth"
	"lernapp-service/internal/config"

	"github.com/spf13/cobra"
)

// NewUsersCmd groups account administration commands.
func NewUsersCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage registered accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := accountService(cmd, *configPath)
			if err != nil {
				return err
			}
			defer closeFn()
			accounts, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			return printAccounts(cmd.OutOrStdout(), accounts)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := accountService(cmd, *configPath)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func accountService(cmd *cobra.Command, configPath string) (*auth.Service, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Postgres.URL == "" {
		return nil, nil, fmt.Errorf("postgres url not configured")
	}
	logger := newLogger(cfg)
	b, err := openBackends(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return auth.NewService(b.accounts(), newMailer(cfg, logger), 0, logger), b.Close, nil
}

func printAccounts(w io.Writer, accounts []auth.Account) error {
	if len(accounts) == 0 {
		_, err := fmt.Fprintln(w, "no accounts")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tEMAIL\tCREATED")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Username, a.Email, a.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
