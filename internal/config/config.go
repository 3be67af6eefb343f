package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// SourceKind selects where the survey answers are read from.
type SourceKind string

const (
	SourceSheets SourceKind = "sheets"
	SourceXLSX   SourceKind = "xlsx"
)

const (
	DefaultSheetID         = "1fbs-J474JbvV3USg5aQlLUW9sNqkBjcd63qBU1nJeeI"
	DefaultWorksheet       = "Respuestas de formulario 1"
	DefaultCredentialsPath = "credentials/service_account.json"
	DefaultAppTitle        = "Dashboard Comedores Comunitarios"
	DefaultCacheTTL        = 300 * time.Second
	DebugCacheTTL          = 60 * time.Second
	DefaultAddr            = ":8501"
	DefaultDatabasePath    = "dashboard_state.db"
	DefaultDateFormat      = "20060102_150405"
	DefaultExportPrefix    = "comedores_filtrados"
)

// Config captures the tunables required to start the dashboard.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Source   SourceConfig   `mapstructure:"source"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Export   ExportConfig   `mapstructure:"export"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`

	Logger *zerolog.Logger `mapstructure:"-"`
}

type AppConfig struct {
	Title string `mapstructure:"title"`
	Debug bool   `mapstructure:"debug"`
}

type SourceConfig struct {
	Kind            SourceKind `mapstructure:"kind"`
	SheetID         string     `mapstructure:"sheet_id"`
	Worksheet       string     `mapstructure:"worksheet"`
	CredentialsPath string     `mapstructure:"credentials_path"`
	// CredentialsJSON holds the service account key inline and wins over
	// CredentialsPath.
	CredentialsJSON string `mapstructure:"credentials_json"`
	XLSXPath        string `mapstructure:"xlsx_path"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type AnalysisConfig struct {
	MaxCategoriesPie   int `mapstructure:"max_categories_pie"`
	MinRecordsAnalysis int `mapstructure:"min_records_analysis"`
	CrosstabTopN       int `mapstructure:"crosstab_top_n"`
}

type ExportConfig struct {
	DateFormat string `mapstructure:"date_format"`
	Prefix     string `mapstructure:"prefix"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// NewConfig returns a Config populated with the defaults.
func NewConfig() *Config {
	return &Config{
		App: AppConfig{Title: DefaultAppTitle},
		Source: SourceConfig{
			Kind:            SourceSheets,
			SheetID:         DefaultSheetID,
			Worksheet:       DefaultWorksheet,
			CredentialsPath: DefaultCredentialsPath,
		},
		Cache: CacheConfig{TTL: DefaultCacheTTL},
		Analysis: AnalysisConfig{
			MaxCategoriesPie:   15,
			MinRecordsAnalysis: 5,
			CrosstabTopN:       8,
		},
		Export: ExportConfig{
			DateFormat: DefaultDateFormat,
			Prefix:     DefaultExportPrefix,
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: DefaultDatabasePath},
	}
}

// ApplyDebug shortens the cache lifetime in debug mode.
func (c *Config) ApplyDebug() {
	if c.App.Debug {
		c.Cache.TTL = DebugCacheTTL
	}
}

// Issues lists the configuration problems that keep the dashboard from
// loading data. An empty list means the configuration is usable.
func (c *Config) Issues() []string {
	var issues []string
	switch c.Source.Kind {
	case SourceSheets:
		if c.Source.SheetID == "" {
			issues = append(issues, "GOOGLE_SHEET_ID no está configurado")
		}
		if c.Source.Worksheet == "" {
			issues = append(issues, "WORKSHEET_NAME no está configurado")
		}
		if c.Source.CredentialsJSON == "" {
			if _, err := os.Stat(c.Source.CredentialsPath); err != nil {
				issues = append(issues, fmt.Sprintf("Archivo de credenciales no encontrado: %s", c.Source.CredentialsPath))
			}
		}
	case SourceXLSX:
		if c.Source.XLSXPath == "" {
			issues = append(issues, "source.xlsx_path no está configurado")
		} else if _, err := os.Stat(c.Source.XLSXPath); err != nil {
			issues = append(issues, fmt.Sprintf("Archivo XLSX no encontrado: %s", c.Source.XLSXPath))
		}
	default:
		issues = append(issues, fmt.Sprintf("fuente de datos desconocida: %q", c.Source.Kind))
	}
	if c.Cache.TTL <= 0 {
		issues = append(issues, "cache.ttl debe ser positivo")
	}
	if c.Analysis.MaxCategoriesPie < 2 {
		issues = append(issues, "analysis.max_categories_pie debe ser al menos 2")
	}
	if c.Analysis.MinRecordsAnalysis < 0 {
		issues = append(issues, "analysis.min_records_analysis no puede ser negativo")
	}
	if c.Analysis.CrosstabTopN < 1 {
		issues = append(issues, "analysis.crosstab_top_n debe ser al menos 1")
	}
	return issues
}

// Validate reports the structural problems that make the configuration
// unusable regardless of the environment. Missing credentials are not among
// them; they surface through Issues and the status command.
func (c *Config) Validate() error {
	var errs ValidationErrors
	if c.Source.Kind != SourceSheets && c.Source.Kind != SourceXLSX {
		errs = append(errs, fmt.Sprintf("source.kind must be %q or %q, got %q", SourceSheets, SourceXLSX, c.Source.Kind))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, "cache.ttl must be positive")
	}
	if c.Analysis.MaxCategoriesPie < 2 {
		errs = append(errs, "analysis.max_categories_pie must be at least 2")
	}
	if c.Analysis.CrosstabTopN < 1 {
		errs = append(errs, "analysis.crosstab_top_n must be at least 1")
	}
	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidationErrors collects every structural problem found by Validate.
type ValidationErrors []string

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0]
	}
	msg := fmt.Sprintf("%d configuration errors:", len(e))
	for _, s := range e {
		msg += "\n  - " + s
	}
	return msg
}
