// Command apiprobe issues single requests through the guarded API client,
// printing the response or the user-facing error message.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	apierrors "github.com/kbukum/apiguard/errors"
	"github.com/kbukum/apiguard/version"
)

// Exit codes.
const (
	ExitOK             = 0
	ExitGeneral        = 1
	ExitUsage          = 2
	ExitNetwork        = 3
	ExitAuthentication = 4
	ExitAuthorization  = 5
	ExitValidation     = 6
	ExitServer         = 7
	ExitInterrupt      = 130
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(defaultEnv())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		cancel()
		os.Exit(exitCode(err))
	}
}

func newRootCmd(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "apiprobe",
		Short:         "Send requests through the guarded API client",
		Version:       version.GetShortVersion(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&env.ConfigFile, "config", "", "config file (default: ./apiprobe.yaml or ./config/apiprobe.yaml)")
	root.PersistentFlags().StringVar(&env.EnvFile, "env-file", "", "env file loaded before the environment")
	root.PersistentFlags().StringVar(&env.BaseURL, "base-url", "", "override client.base_url")
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)

	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		root.AddCommand(requestCmd(env, m))
	}
	root.AddCommand(tokenCmd(env))
	root.AddCommand(versionCmd())
	return root
}

// describe returns the text printed for a failed command. Request failures
// only ever show their user message.
func describe(err error) string {
	if ee, ok := apierrors.AsEnriched(err); ok {
		return ee.UserMessage
	}
	return err.Error()
}

func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}
	if ee, ok := apierrors.AsEnriched(err); ok {
		switch ee.Kind {
		case apierrors.KindNetwork:
			return ExitNetwork
		case apierrors.KindAuthentication:
			return ExitAuthentication
		case apierrors.KindAuthorization:
			return ExitAuthorization
		case apierrors.KindValidation:
			return ExitValidation
		case apierrors.KindServer:
			return ExitServer
		}
		return ExitGeneral
	}
	if isUsageError(err) {
		return ExitUsage
	}
	return ExitGeneral
}

// Cobra has no typed usage errors.
var usageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
}

func isUsageError(err error) bool {
	msg := err.Error()
	for _, p := range usageErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
