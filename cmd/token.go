package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/todosync/internal/google"
	"github.com/teemow/todosync/internal/logging"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage stored access tokens",
		Long: `Store, inspect and remove the OAuth2 access token of an account.

todosync does not run an OAuth flow. Obtain an access token with the
` + google.TasksScope + ` scope elsewhere and save it here.`,
	}

	cmd.AddCommand(
		newTokenSaveCmd(opts),
		newTokenShowCmd(opts),
		newTokenDeleteCmd(opts),
	)

	return cmd
}

func newTokenSaveCmd(opts *rootOptions) *cobra.Command {
	var (
		token        string
		refreshToken string
		expiresIn    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Store an access token for the account",
		Long:  "Store an access token for the account. Without --token the token is read from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				var err error
				token, err = readToken(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			tok := &oauth2.Token{
				AccessToken:  token,
				TokenType:    "Bearer",
				RefreshToken: refreshToken,
			}
			if expiresIn > 0 {
				tok.Expiry = time.Now().Add(expiresIn)
			}

			if err := google.SaveTokenForAccount(opts.cfg.Account, tok); err != nil {
				return err
			}

			logging.WithAccount(opts.logger, opts.cfg.Account).
				Debug("stored access token", "token", logging.SanitizeToken(token))
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token for account %s\n", opts.cfg.Account)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token (read from stdin when empty)")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Refresh token to keep alongside the access token")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Lifetime of the access token, e.g. 1h (0 for no expiry)")

	return cmd
}

func newTokenShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored token of the account without revealing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := google.LoadTokenForAccount(opts.cfg.Account)
			if err != nil {
				return opts.authError(err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Account: %s\n", opts.cfg.Account)
			fmt.Fprintf(w, "Type:    %s\n", tok.Type())
			fmt.Fprintf(w, "Token:   %s\n", logging.SanitizeToken(tok.AccessToken))
			if tok.RefreshToken != "" {
				fmt.Fprintf(w, "Refresh: %s\n", logging.SanitizeToken(tok.RefreshToken))
			}
			switch {
			case tok.Expiry.IsZero():
				fmt.Fprintln(w, "Expiry:  none")
			case tok.Expiry.Before(time.Now()):
				fmt.Fprintf(w, "Expiry:  %s (expired)\n", tok.Expiry.Format(time.RFC3339))
			default:
				fmt.Fprintf(w, "Expiry:  %s\n", tok.Expiry.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newTokenDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored token of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := google.DeleteTokenForAccount(opts.cfg.Account); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted token for account %s\n", opts.cfg.Account)
			return nil
		},
	}
}

// readToken takes the first non-empty line of r.
func readToken(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return "", errors.New("no token given: pass --token or pipe it on stdin")
}
