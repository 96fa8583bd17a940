package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "fundsheet",
		Short: "Import, search and export company funding spreadsheets",
		Long: `fundsheet works against the same database as the HTTP server.

Configuration is read from the environment (DATABASE_URL, DB_DRIVER, DB_TABLE,
UPLOAD_HEADER_ROWS, ...) after loading the file named by --env-file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadEnvFile(envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")

	rootCmd.AddCommand(
		newInitDBCmd(),
		newImportCmd(),
		newSearchCmd(),
		newExportCmd(),
	)
	return rootCmd
}
