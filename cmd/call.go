package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/todosync/internal/google"
	"github.com/teemow/todosync/internal/gtasks"
)

func newCallCmd(opts *rootOptions) *cobra.Command {
	var (
		body   string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "call METHOD FUNCTION",
		Short: "Issue a raw Tasks API call and print the response body",
		Long: `Issue one authorized request against the Tasks API and print the body.

FUNCTION is the resource path relative to the API base, for example
"users/@me/lists" or "lists/<id>/tasks". --body sends a JSON document; when
it is set, --param values are not sent.`,
		Example: `  todosync call GET users/@me/lists
  todosync call GET lists/abc/tasks --param maxResults=10 --param showCompleted=false
  todosync call POST users/@me/lists --body '{"title":"Groceries"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ts := google.TokenSource(ctx, opts.tokenProvider(), opts.cfg.Account)
			svc := opts.service(gtasks.WithTokenSource(ts))

			call := svc.Call(ctx, gtasks.Request{
				Method:   strings.ToUpper(args[0]),
				Function: args[1],
				Content:  body,
				Params:   parsed,
			})

			out, err := svc.CallFunctionFinish(call)
			if err != nil {
				if gtasks.IsPermissionDenied(err) {
					return fmt.Errorf("%w (the access token was rejected)", err)
				}
				return opts.authError(err)
			}

			w := cmd.OutOrStdout()
			if _, err := w.Write(out); err != nil {
				return err
			}
			if len(out) > 0 && out[len(out)-1] != '\n' {
				fmt.Fprintln(w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "JSON request body")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Query parameter as name=value (repeatable, order is kept)")

	return cmd
}

// parseParams turns name=value pairs into parameters, keeping their order.
func parseParams(values []string) ([]gtasks.Parameter, error) {
	params := make([]gtasks.Parameter, 0, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", v)
		}
		params = append(params, gtasks.NewParameter(name, value))
	}
	return params, nil
}
