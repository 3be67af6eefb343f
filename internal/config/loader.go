/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is read when present and no path is given.
	DefaultConfigPath = "dashboard.yaml"
	DefaultEnvFile    = ".env"
	EnvPrefix         = "DASHBOARD"
)

// envBindings maps a config key to the environment variables that set it,
// in order of preference. The unprefixed names are the ones deployments of
// the dashboard have always used.
var envBindings = map[string][]string{
	"app.title":                     {"DASHBOARD_APP_TITLE", "APP_TITLE"},
	"app.debug":                     {"DASHBOARD_DEBUG_MODE", "DASHBOARD_APP_DEBUG", "DEBUG_MODE"},
	"source.kind":                   {"DASHBOARD_SOURCE_KIND"},
	"source.sheet_id":               {"DASHBOARD_GOOGLE_SHEET_ID", "DASHBOARD_SOURCE_SHEET_ID", "GOOGLE_SHEET_ID"},
	"source.worksheet":              {"DASHBOARD_WORKSHEET_NAME", "DASHBOARD_SOURCE_WORKSHEET", "WORKSHEET_NAME"},
	"source.credentials_path":       {"DASHBOARD_CREDENTIALS_PATH", "DASHBOARD_SOURCE_CREDENTIALS_PATH", "CREDENTIALS_PATH"},
	"source.credentials_json":       {"DASHBOARD_CREDENTIALS_JSON", "DASHBOARD_SOURCE_CREDENTIALS_JSON"},
	"source.xlsx_path":              {"DASHBOARD_XLSX_PATH", "DASHBOARD_SOURCE_XLSX_PATH"},
	"cache.ttl":                     {"DASHBOARD_CACHE_TTL", "CACHE_TTL"},
	"analysis.max_categories_pie":   {"DASHBOARD_ANALYSIS_MAX_CATEGORIES_PIE"},
	"analysis.min_records_analysis": {"DASHBOARD_ANALYSIS_MIN_RECORDS_ANALYSIS"},
	"analysis.crosstab_top_n":       {"DASHBOARD_ANALYSIS_CROSSTAB_TOP_N"},
	"export.date_format":            {"DASHBOARD_EXPORT_DATE_FORMAT"},
	"export.prefix":                 {"DASHBOARD_EXPORT_PREFIX"},
	"server.addr":                   {"DASHBOARD_SERVER_ADDR", "DASHBOARD_ADDR"},
	"server.read_timeout":           {"DASHBOARD_SERVER_READ_TIMEOUT"},
	"server.write_timeout":          {"DASHBOARD_SERVER_WRITE_TIMEOUT"},
	"server.shutdown_timeout":       {"DASHBOARD_SERVER_SHUTDOWN_TIMEOUT"},
	"database.path":                 {"DASHBOARD_DATABASE_PATH", "DASHBOARD_DB"},
}

// Options tune where Load looks for its inputs.
type Options struct {
	// Path of the YAML file. Empty means DefaultConfigPath when it exists.
	Path string
	// EnvFile is loaded into the process environment when it exists.
	// Variables already set are not overridden.
	EnvFile string
}

// LoadError reports a configuration that could not be read or is invalid.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load builds the configuration from the defaults, the YAML file, the .env
// file and the environment, in increasing order of precedence.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Path: envFile, Message: "failed to read env file", Err: err}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, NewConfig())
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, &LoadError{Path: key, Message: "failed to bind environment", Err: err}
		}
	}

	path := opts.Path
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, &LoadError{Path: path, Message: "config file not found", Err: err}
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &LoadError{Path: path, Message: "failed to read config file", Err: err}
		}
	}

	cfg := NewConfig()
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to parse configuration", Err: err}
	}
	cfg.ApplyDebug()
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Path: path, Message: "configuration validation failed", Err: err}
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("app.title", cfg.App.Title)
	v.SetDefault("app.debug", cfg.App.Debug)
	v.SetDefault("source.kind", string(cfg.Source.Kind))
	v.SetDefault("source.sheet_id", cfg.Source.SheetID)
	v.SetDefault("source.worksheet", cfg.Source.Worksheet)
	v.SetDefault("source.credentials_path", cfg.Source.CredentialsPath)
	v.SetDefault("source.credentials_json", cfg.Source.CredentialsJSON)
	v.SetDefault("source.xlsx_path", cfg.Source.XLSXPath)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("analysis.max_categories_pie", cfg.Analysis.MaxCategoriesPie)
	v.SetDefault("analysis.min_records_analysis", cfg.Analysis.MinRecordsAnalysis)
	v.SetDefault("analysis.crosstab_top_n", cfg.Analysis.CrosstabTopN)
	v.SetDefault("export.date_format", cfg.Export.DateFormat)
	v.SetDefault("export.prefix", cfg.Export.Prefix)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("database.path", cfg.Database.Path)
}

func decodeHook(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		boolHookFunc(),
	)
}

// secondsToDurationHookFunc reads bare numbers as seconds, so CACHE_TTL=300
// keeps meaning five minutes.
func secondsToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch from.Kind() {
		case reflect.String:
			s := strings.TrimSpace(data.(string))
			if n, err := strconv.Atoi(s); err == nil {
				return time.Duration(n) * time.Second, nil
			}
			return s, nil
		case reflect.Int, reflect.Int32, reflect.Int64:
			if d, ok := data.(time.Duration); ok {
				return d, nil
			}
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		case reflect.Float64:
			return time.Duration(data.(float64) * float64(time.Second)), nil
		}
		return data, nil
	}
}

// boolHookFunc accepts the spellings DEBUG_MODE has been given over time.
func boolHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
			return data, nil
		}
		return parseBool(data.(string)), nil
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
