package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/linemark/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "linemark",
		Short: "Line bookmarks that follow your files",
		Long: `linemark keeps bookmarks on lines of source files, follows renames,
flags bookmarks whose line changed and persists them to SQLite or Redis,
optionally encrypted.

Without a subcommand it serves the control API.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control API",
		RunE:  runServe,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Re-check every bookmark against the files on disk",
		RunE:  runCheck,
	}
	checkCmd.Flags().Bool("json", false, "Print the report as JSON")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export bookmarks",
		RunE:  runExport,
	}
	exportCmd.Flags().StringP("format", "f", "markdown", "Export format: markdown|csv|json|txt")
	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import bookmarks, skipping locations already bookmarked",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().StringP("format", "f", "", "Import format (default: from the file extension)")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move bookmarks to another storage scope",
		RunE:  runMigrate,
	}
	migrateCmd.Flags().String("to", "", "Target scope: global|per-workspace")
	_ = migrateCmd.MarkFlagRequired("to")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get())
		},
	}

	rootCmd.AddCommand(serveCmd, checkCmd, exportCmd, importCmd, migrateCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ linemark: %v\n", err)
		os.Exit(1)
	}
}
