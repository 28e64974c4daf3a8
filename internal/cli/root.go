// Package cli implements the celerix-apiforge command line tool.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-apiforge/pkg/sdk"
)

// Version is stamped at build time.
var Version = "dev"

// RootCmd creates the root command with every subcommand registered.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "celerix-apiforge",
		Short: "Compile and manage user API definitions",
		Long: `celerix-apiforge turns field-description trees into document schemas.

Compile a tree locally, push it to a running celerix-apiforged daemon,
inspect or delete stored APIs, and migrate records between storage backends.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to the configuration file")
	cmd.PersistentFlags().String("addr", "", fmt.Sprintf("Daemon address (default $%s or %s)", sdk.AddrEnv, sdk.DefaultAddr))

	cmd.AddCommand(CompileCmd())
	cmd.AddCommand(PushCmd())
	cmd.AddCommand(GetCmd())
	cmd.AddCommand(ListCmd())
	cmd.AddCommand(DeleteCmd())
	cmd.AddCommand(MigrateCmd())

	return cmd
}

// clientFor builds an SDK client from the --addr flag or the environment.
func clientFor(cmd *cobra.Command) *sdk.Client {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		return sdk.New()
	}
	return sdk.NewClient(addr)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
