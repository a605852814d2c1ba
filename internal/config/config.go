package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	LogLevel  string
	LogFormat string

	// Filesystem layout.
	OutputDir     string
	RawDir        string
	RasterDir     string
	BoundariesDir string
	WPPFile       string

	// Target country as spelled by each source.
	TargetCountry     string
	TargetCountryCode string

	// Upstream sources.
	WorldBankBaseURL string
	DHSBaseURL       string
	WorldPopBaseURL  string
	WorldPopStartID  int
	WorldPopEndID    int
	BoundariesURL    string
	HTTPTimeout      time.Duration
	FetchCacheSize   int

	WorldBankYears   domain.YearRange
	EducationYears   domain.YearRange
	IndicatorCatalog string

	// FailurePolicy overrides the per-pipeline default when set.
	FailurePolicy domain.FailurePolicy

	MetricsFile string
	// MetricsAddr enables the health and metrics server when set.
	MetricsAddr string

	// Optional Kafka sink; disabled when KafkaBrokers is empty.
	KafkaBrokers    []string
	KafkaTopic      string
	ShutdownTimeout time.Duration
}

// KafkaEnabled reports whether written tables are also published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("HTTP_TIMEOUT", "120s"))
	if err != nil || httpTimeout <= 0 {
		return nil, errors.New("invalid HTTP_TIMEOUT")
	}

	ints := map[string]int{}
	for name, def := range map[string]int{
		"WORLDPOP_START_ID":    73172,
		"WORLDPOP_END_ID":      73157,
		"WORLDBANK_YEAR_START": 1970,
		"WORLDBANK_YEAR_END":   2023,
		"EDUCATION_YEAR_START": 1960,
		"EDUCATION_YEAR_END":   2024,
		"FETCH_CACHE_SIZE":     64,
	} {
		v, err := envInt(name, def)
		if err != nil {
			return nil, err
		}
		ints[name] = v
	}

	var policy domain.FailurePolicy
	if s := os.Getenv("FAILURE_POLICY"); s != "" {
		policy, err = domain.ParseFailurePolicy(s)
		if err != nil {
			return nil, fmt.Errorf("invalid FAILURE_POLICY: %w", err)
		}
	}

	var brokers []string
	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}

	outputDir := sharedcfg.EnvOrDefault("OUTPUT_DIR", "data/processed")
	rawDir := sharedcfg.EnvOrDefault("RAW_DIR", "data/raw")

	cfg := &Config{
		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),

		OutputDir:     outputDir,
		RawDir:        rawDir,
		RasterDir:     sharedcfg.EnvOrDefault("RASTER_DIR", rawDir+"/worldpop"),
		BoundariesDir: sharedcfg.EnvOrDefault("BOUNDARIES_DIR", rawDir+"/boundaries"),
		WPPFile:       sharedcfg.EnvOrDefault("WPP_FILE", rawDir+"/WPP2024_GEN_F01_DEMOGRAPHIC_INDICATORS_FULL.xlsx"),

		TargetCountry:     sharedcfg.EnvOrDefault("TARGET_COUNTRY", "Benin"),
		TargetCountryCode: sharedcfg.EnvOrDefault("TARGET_COUNTRY_CODE", "BJ"),

		WorldBankBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("WORLDBANK_BASE_URL", "https://api.worldbank.org/v2/en/indicator"), "/"),
		DHSBaseURL:       strings.TrimRight(sharedcfg.EnvOrDefault("DHS_BASE_URL", "https://api.dhsprogram.com/rest/dhs"), "/"),
		WorldPopBaseURL:  sharedcfg.EnvOrDefault("WORLDPOP_BASE_URL", "https://hub.worldpop.org/geodata/summary"),
		WorldPopStartID:  ints["WORLDPOP_START_ID"],
		WorldPopEndID:    ints["WORLDPOP_END_ID"],
		BoundariesURL:    sharedcfg.EnvOrDefault("BOUNDARIES_URL", "https://naturalearth.s3.amazonaws.com/10m_cultural/ne_10m_admin_1_states_provinces.zip"),
		HTTPTimeout:      httpTimeout,
		FetchCacheSize:   ints["FETCH_CACHE_SIZE"],

		WorldBankYears:   domain.YearRange{Start: ints["WORLDBANK_YEAR_START"], End: ints["WORLDBANK_YEAR_END"]},
		EducationYears:   domain.YearRange{Start: ints["EDUCATION_YEAR_START"], End: ints["EDUCATION_YEAR_END"]},
		IndicatorCatalog: os.Getenv("INDICATOR_CATALOG"),

		FailurePolicy: policy,
		MetricsFile:   os.Getenv("METRICS_FILE"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),

		KafkaBrokers:    brokers,
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "benin-demographics"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.TargetCountry == "" {
		return nil, errors.New("TARGET_COUNTRY is required")
	}
	if cfg.FetchCacheSize <= 0 {
		return nil, errors.New("FETCH_CACHE_SIZE must be positive")
	}
	if err := cfg.WorldBankYears.Validate(); err != nil {
		return nil, fmt.Errorf("invalid WORLDBANK_YEAR_START/WORLDBANK_YEAR_END: %w", err)
	}
	if err := cfg.EducationYears.Validate(); err != nil {
		return nil, fmt.Errorf("invalid EDUCATION_YEAR_START/EDUCATION_YEAR_END: %w", err)
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// PolicyOr returns the configured failure policy, or def when none is set.
func (c *Config) PolicyOr(def domain.FailurePolicy) domain.FailurePolicy {
	if c.FailurePolicy == "" {
		return def
	}
	return c.FailurePolicy
}

func envInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}
