/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package cmd provides the CLI commands of the dashboard.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kentakayama/comedores-dashboard/internal/config"
	"github.com/kentakayama/comedores-dashboard/internal/dashboard"
	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/source"
)

// Version information, set by main before Execute.
var (
	Version = "dev"
	Commit  = "none"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Dashboard de Comedores Comunitarios",
	Long: `Dashboard de Comedores Comunitarios reads the survey answers of the
community kitchens from Google Sheets (or an exported XLSX workbook) and
serves the analyses, charts and downloads over HTTP.

Without a subcommand it starts the HTTP server, same as "dashboard serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (default dashboard.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file loaded before the environment (default .env)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", Version, Commit)
	rootCmd.SetVersionTemplate("dashboard {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Root returns the root command for testing purposes.
func Root() *cobra.Command {
	return rootCmd
}

func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// loadConfig reads the configuration and attaches a console logger on the
// command's error stream.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.Options{Path: configPath, EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.App.Debug)
	cfg.Logger = &logger
	return cfg, nil
}

// newLoader builds the configured source. A source that cannot be built is
// replaced by one that reports the failure on every load, so the caller
// still gets a working service.
func newLoader(ctx context.Context, cfg *config.Config) source.Loader {
	if cfg.Source.Kind == config.SourceXLSX {
		return source.NewXLSXLoader(cfg.Source.XLSXPath, cfg.Source.Worksheet)
	}
	l, err := source.NewSheetsLoader(ctx, cfg.Source.SheetID, cfg.Source.Worksheet,
		source.CredentialsOption(cfg.Source.CredentialsPath, cfg.Source.CredentialsJSON))
	if err != nil {
		cfg.Logger.Warn().Err(err).Msg("google sheets client unavailable")
		return source.Unavailable(fmt.Sprintf("sheets:%s/%s", cfg.Source.SheetID, cfg.Source.Worksheet), err)
	}
	return l
}

// openService wires the dashboard service with its state database and the
// default hub entries. The caller closes it.
func openService(ctx context.Context, cfg *config.Config) (*dashboard.Service, error) {
	svc := dashboard.New(newLoader(ctx, cfg), dashboard.Options{
		TTL:          cfg.Cache.TTL,
		ConfigIssues: cfg.Issues(),
		Logger:       cfg.Logger,
	})
	if err := svc.InitWithPath(cfg.Database.Path); err != nil {
		return nil, err
	}
	if err := svc.EnsureDefaultDashboards(); err != nil {
		svc.Close()
		return nil, fmt.Errorf("failed to seed dashboards: %w", err)
	}
	return svc, nil
}

// addFilterFlags registers one flag per sidebar filter.
func addFilterFlags(cmd *cobra.Command) {
	for _, sf := range dataset.SidebarFilters {
		cmd.Flags().String(sf.Key, "", fmt.Sprintf("filter on %s", sf.Column))
	}
}

func filtersFromFlags(cmd *cobra.Command) dataset.Filters {
	return dataset.FiltersFromKeys(func(key string) string {
		v, _ := cmd.Flags().GetString(key)
		return v
	})
}

// filteredData loads the dataset and applies the filter flags.
func filteredData(cmd *cobra.Command, svc *dashboard.Service) (*dataset.Dataset, error) {
	res, err := svc.Data(cmd.Context())
	if err != nil {
		return nil, err
	}
	if res.Stale {
		cmd.PrintErrf("⚠️ Datos desde caché (%s): la fuente no respondió\n", res.LoadedAt.Format(time.RFC3339))
	}
	return res.Dataset.Filter(filtersFromFlags(cmd)), nil
}
