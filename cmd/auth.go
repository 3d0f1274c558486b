package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage user and kitchen tokens",
	}

	cmd.AddCommand(
		newAuthSetTokenCmd(app, "set-token", "Store the user token used to place orders", app.tokens.SetUserToken),
		newAuthSetTokenCmd(app, "set-admin-token", "Store the admin token used by the kitchen display", app.tokens.SetAdminToken),
		newAuthStatusCmd(app),
		newAuthLogoutCmd(app),
	)

	return cmd
}

func newAuthSetTokenCmd(app *app, use string, short string, store func(ctx context.Context, token string) error) *cobra.Command {
	var token string
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fromStdin {
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 16<<10))
				if err != nil {
					return fmt.Errorf("read token from stdin: %w", err)
				}
				token = string(data)
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("token is required (use --token or --stdin)")
			}
			if err := store(cmd.Context(), token); err != nil {
				return err
			}
			app.logger.Debug("token stored", "kind", use)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "token saved")
			return err
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Token value")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the token from stdin")
	cmd.MarkFlagsMutuallyExclusive("token", "stdin")

	return cmd
}

func newAuthStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which tokens are configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := tokenState(app.tokens.Token(cmd.Context()))
			if err != nil {
				return err
			}
			admin, err := tokenState(app.tokens.AdminToken(cmd.Context()))
			if err != nil {
				return err
			}
			if app.cfg.AdminToken != "" {
				admin = "set (FF_ADMIN_TOKEN)"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "user token: %s\nadmin token: %s\n", user, admin)
			return err
		},
	}
}

func tokenState(_ string, err error) (string, error) {
	switch {
	case err == nil:
		return "set", nil
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "missing", nil
	default:
		return "", err
	}
}

func newAuthLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.tokens.Logout(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return err
		},
	}
}
