package main

import (
	"fmt"
	"time"

	authService "github.com/reshetovitsme/askanon/internal/modules/auth/service"
	"github.com/spf13/cobra"
)

func newTokenCmd(opts *options) *cobra.Command {
	var (
		email string
		admin bool
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint an HS256 identity token signed with auth_hmac_secret",
		Example: `  askctl token alice --admin --email alice@example.com
  askctl token bob --ttl 15m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			minter, err := authService.NewMinter(cfg)
			if err != nil {
				return err
			}

			token, err := minter.Mint(args[0], email, admin, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().BoolVar(&admin, "admin", false, "set the admin claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
