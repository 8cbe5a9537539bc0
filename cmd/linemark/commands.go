package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/linemark/internal/app"
	"github.com/MrSnakeDoc/linemark/internal/config"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/exchange"
	"github.com/MrSnakeDoc/linemark/internal/logger"
	"github.com/MrSnakeDoc/linemark/internal/utils"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	a, err := app.New(cmd.Context(), cfg, loggerClient)
	if err != nil {
		return err
	}
	return a.Run()
}

// withApp runs fn against a started app and always performs the final
// save. One-shot commands log warnings and errors only.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg := config.Load()
	level := cfg.LogLevel
	if level == "info" {
		level = "warn"
	}
	loggerClient := logger.New(level, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, loggerClient)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.Close(ctx)
		return err
	}

	runErr := fn(ctx, a)
	if err := a.Close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func runCheck(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		report := a.Service().Check(ctx)
		out := cmd.OutOrStdout()
		if asJSON {
			return json.NewEncoder(out).Encode(report)
		}
		fmt.Fprintf(out, "checked %d bookmarks: %d stale, %d unreachable\n",
			report.Checked, report.Stale, report.Unreachable)
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	rawFormat, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	f, err := exchange.ParseFormat(rawFormat)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		var w io.Writer = cmd.OutOrStdout()
		if output != "" {
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer utils.Close(file)
			w = file
		}
		return a.Service().Export(w, f)
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	rawFormat, _ := cmd.Flags().GetString("format")

	var (
		f   exchange.Format
		err error
	)
	if rawFormat != "" {
		f, err = exchange.ParseFormat(rawFormat)
	} else {
		f, err = exchange.FormatFromPath(path)
	}
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer utils.Close(file)

		added, err := a.Service().Import(file, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d bookmarks\n", len(added))
		return nil
	})
}

func runMigrate(cmd *cobra.Command, args []string) error {
	rawScope, _ := cmd.Flags().GetString("to")
	scope, err := domain.ParseScope(rawScope)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		moved, err := a.Service().Migrate(ctx, scope)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "moved %d bookmarks to %s\n", moved, a.Service().Key())
		return nil
	})
}
