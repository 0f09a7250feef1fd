// Package commands implements the gogo command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

// Execute runs the gogo command line with ctx and returns its exit error.
func Execute(ctx context.Context) error {
	cmd, a := newRootCmd(os.Stdout, os.Stderr)
	defer a.close()
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(out, errOut io.Writer) (*cobra.Command, *app) {
	a := &app{v: viper.New(), out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "gogo",
		Short: "Client for the gogo session service",
		Long: `gogo manages agent sessions on a remote session service: create, inspect,
update and delete sessions, chat within them, and browse their history.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file path (default ~/.config/gogo/config.yaml)")
	flags.String("base-url", "", "session service base URL")
	flags.String("api-key", "", "API key sent as a bearer token")
	flags.String("mode", "", "transport mode: HTTP or MOCK")
	flags.String("streaming", "", "streaming transport: sse or websocket")
	flags.Duration("timeout", 0, "timeout of non-streaming requests")
	flags.Int("max-concurrency", 0, "concurrent calls for bulk commands")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.StringP("format", "o", "pretty", "output format: pretty or json")

	// Every flag can also come from GOGO_<FLAG> in the environment.
	a.v.SetEnvPrefix("GOGO")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("bind flags: %v", err))
	}

	rootCmd.AddCommand(newSessionCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd, a
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Needs no configuration or connection.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gogo %s\n", Version)
		},
	}
}
