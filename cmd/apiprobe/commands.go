package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/apiguard/apiclient"
	"github.com/kbukum/apiguard/credential"
	"github.com/kbukum/apiguard/version"
)

// requestCmd builds the subcommand for one HTTP method.
func requestCmd(env *Env, method string) *cobra.Command {
	var (
		headers  map[string]string
		query    map[string]string
		data     string
		noAuth   bool
		noRetry  bool
		timeout  time.Duration
		fallback string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " <path>",
		Short: fmt.Sprintf("Send a %s request", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			opts := []apiclient.RequestOption{
				apiclient.WithHeaders(headers),
				apiclient.WithQuery(query),
			}
			if noAuth {
				opts = append(opts, apiclient.WithoutAuth())
			}
			if noRetry {
				opts = append(opts, apiclient.WithoutRetry())
			}
			if timeout > 0 {
				opts = append(opts, apiclient.WithTimeout(timeout))
			}
			if fallback != "" {
				opts = append(opts, apiclient.WithFallbackMessage(fallback))
			}

			var body any
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("invalid argument: --data is not valid JSON")
				}
				body = json.RawMessage(data)
			}

			resp, err := s.client.Do(ctx, apiclient.Request{Method: method, Path: args[0], Body: body}, opts...)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp, verbose)
		},
	}

	cmd.Flags().StringToStringVarP(&headers, "header", "H", nil, "request header (key=value)")
	cmd.Flags().StringToStringVarP(&query, "query", "q", nil, "query parameter (key=value)")
	if method != "GET" {
		cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	}
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "do not attach the stored token")
	cmd.Flags().BoolVar(&noRetry, "no-retry", false, "disable retries")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-attempt timeout (default from config)")
	cmd.Flags().StringVar(&fallback, "fallback-message", "", "message shown for unclassified failures")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print status, request id and headers")
	return cmd
}

func printResponse(cmd *cobra.Command, resp *apiclient.Response, verbose bool) error {
	out := cmd.OutOrStdout()
	if verbose {
		fmt.Fprintf(out, "HTTP %d (request %s, attempt %d, %s)\n",
			resp.StatusCode, resp.RequestID, resp.Attempt, resp.Duration.Round(time.Millisecond))
		for k, v := range resp.Headers {
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
		fmt.Fprintln(out)
	}
	if len(resp.Body) == 0 {
		return nil
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp.Body, "", "  "); err != nil {
		_, err = out.Write(resp.Body)
		return err
	}
	pretty.WriteByte('\n')
	_, err := pretty.WriteTo(out)
	return err
}

// tokenCmd manages the token held by the configured credential store.
func tokenCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored bearer token",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <token>",
		Short: "Store a bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer s.close(ctx)
			if err := s.store.SetToken(ctx, args[0]); err != nil {
				return err
			}
			if exp, ok := credential.ExpiresAt(args[0]); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "token stored (expires %s)\n", exp.UTC().Format(time.RFC3339))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token stored")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer s.close(ctx)
			if err := s.store.ClearToken(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token cleared")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether a token is stored and when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer s.close(ctx)
			tok, err := s.store.GetToken(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch exp, ok := credential.ExpiresAt(tok); {
			case tok == "":
				fmt.Fprintln(out, "no token stored")
			case !ok:
				fmt.Fprintln(out, "token stored (no expiry)")
			case credential.Expired(tok, time.Now()):
				fmt.Fprintf(out, "token expired at %s\n", exp.UTC().Format(time.RFC3339))
			default:
				fmt.Fprintf(out, "token valid until %s\n", exp.UTC().Format(time.RFC3339))
			}
			return nil
		},
	})
	return cmd
}

func versionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetVersionInfo()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "apiprobe %s (%s)\n", version.GetShortVersion(), info.GoVersion)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
