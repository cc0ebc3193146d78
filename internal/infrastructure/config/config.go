package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
	"github.com/Jeninefer/Commercial-View-sub000/internal/infrastructure/observability"
)

// Config represents the complete planning-engine configuration.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"     yaml:"logging"`
	IO          IOConfig          `mapstructure:"io"          yaml:"io"`
	Engine      EngineConfig      `mapstructure:"engine"      yaml:"engine"`
	Constraints ConstraintsConfig `mapstructure:"constraints" yaml:"constraints"`
	Alerts      AlertsConfig      `mapstructure:"alerts"      yaml:"alerts"`
	Limits      LimitsConfig      `mapstructure:"limits"      yaml:"limits"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// IOConfig holds the input table locations and output directory used by the
// file collaborators. The engine itself never touches these.
type IOConfig struct {
	RequestsPath  string `mapstructure:"requests_path"  yaml:"requests_path"`
	PortfolioPath string `mapstructure:"portfolio_path" yaml:"portfolio_path"`
	SchedulePath  string `mapstructure:"schedule_path"  yaml:"schedule_path"`
	PaymentsPath  string `mapstructure:"payments_path"  yaml:"payments_path"`
	OutputDir     string `mapstructure:"output_dir"     yaml:"output_dir"`
	// AlertsPath is an optional JSON-lines alert feed; alerts always go to
	// the log regardless.
	AlertsPath string `mapstructure:"alerts_path" yaml:"alerts_path"`
}

// EngineConfig holds every classification and reconciliation threshold. All
// thresholds travel through this struct; nothing hides in package globals.
type EngineConfig struct {
	APRBuckets              []float64 `mapstructure:"apr_buckets"                yaml:"apr_buckets"`
	LineBuckets             []float64 `mapstructure:"line_buckets"               yaml:"line_buckets"`
	PayerGradeBounds        []float64 `mapstructure:"payer_grade_bounds"         yaml:"payer_grade_bounds"`
	DPDBuckets              []int     `mapstructure:"dpd_buckets"                yaml:"dpd_buckets"`
	DPDDefaultThresholdDays int       `mapstructure:"dpd_default_threshold_days" yaml:"dpd_default_threshold_days"`
	StartupRevenueMax       float64   `mapstructure:"startup_revenue_max"        yaml:"startup_revenue_max"`
	GrowingRevenueMax       float64   `mapstructure:"growing_revenue_max"        yaml:"growing_revenue_max"`
	StartupYearsMax         float64   `mapstructure:"startup_years_max"          yaml:"startup_years_max"`
	ScoreWeightPayer        float64   `mapstructure:"score_weight_payer"         yaml:"score_weight_payer"`
	ScoreWeightDPD          float64   `mapstructure:"score_weight_dpd"           yaml:"score_weight_dpd"`
}

// ConstraintsConfig holds the disbursement risk-mix limits.
type ConstraintsConfig struct {
	PayerAMin        float64            `mapstructure:"payer_a_min"        yaml:"payer_a_min"`
	PayerDMax        float64            `mapstructure:"payer_d_max"        yaml:"payer_d_max"`
	IndustryMaxShare float64            `mapstructure:"industry_max_share" yaml:"industry_max_share"`
	TopClientMax     float64            `mapstructure:"top_client_max"     yaml:"top_client_max"`
	TargetAPRMix     map[string]float64 `mapstructure:"target_apr_mix"     yaml:"target_apr_mix"`
	MixTolerance     float64            `mapstructure:"mix_tolerance"      yaml:"mix_tolerance"`
	MixBoost         float64            `mapstructure:"mix_boost"          yaml:"mix_boost"`
}

// AlertsConfig holds the run-level alerting thresholds.
type AlertsConfig struct {
	CashUtilizationWarn float64 `mapstructure:"cash_utilization_warn" yaml:"cash_utilization_warn"`
	DefaultRateWarn     float64 `mapstructure:"default_rate_warn"     yaml:"default_rate_warn"`
}

// LimitsConfig bounds batch size so one oversized planning cycle cannot blow
// the batch window.
type LimitsConfig struct {
	MaxCandidates int `mapstructure:"max_candidates"  yaml:"max_candidates"`
	MaxLedgerRows int `mapstructure:"max_ledger_rows" yaml:"max_ledger_rows"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.cview/config.yaml (home directory)
//  3. /etc/cview/config.yaml (system)
//
// A .env file in the working directory is loaded first. Environment
// variables override config file values, format CVIEW_<SECTION>_<KEY>,
// e.g. CVIEW_IO_OUTPUT_DIR.
func Load() (*Config, error) {
	// Local override file; absence is normal.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".cview"))
	v.AddConfigPath("/etc/cview")

	v.SetEnvPrefix("CVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; defaults plus env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("CVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets the production defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// IO defaults
	v.SetDefault("io.requests_path", "data/loan_requests.csv")
	v.SetDefault("io.portfolio_path", "data/portfolio.csv")
	v.SetDefault("io.schedule_path", "data/payment_schedule.csv")
	v.SetDefault("io.payments_path", "data/payments.csv")
	v.SetDefault("io.output_dir", "out")
	v.SetDefault("io.alerts_path", "")

	// Engine defaults
	v.SetDefault("engine.apr_buckets", []float64{0, 15, 20, 25, 30})
	v.SetDefault("engine.line_buckets", []float64{0, 100_000, 250_000, 500_000, 1_000_000, 5_000_000})
	v.SetDefault("engine.payer_grade_bounds", []float64{0, 5, 15, 30})
	v.SetDefault("engine.dpd_buckets", []int{0, 1, 31, 61, 91, 121, 181})
	v.SetDefault("engine.dpd_default_threshold_days", 90)
	v.SetDefault("engine.startup_revenue_max", 5_000_000)
	v.SetDefault("engine.growing_revenue_max", 50_000_000)
	v.SetDefault("engine.startup_years_max", 3)
	v.SetDefault("engine.score_weight_payer", 0.55)
	v.SetDefault("engine.score_weight_dpd", 0.45)

	// Constraint defaults
	v.SetDefault("constraints.payer_a_min", 0.2)
	v.SetDefault("constraints.payer_d_max", 0.15)
	v.SetDefault("constraints.industry_max_share", 0.6)
	v.SetDefault("constraints.top_client_max", 0.25)
	v.SetDefault("constraints.target_apr_mix", map[string]float64{})
	v.SetDefault("constraints.mix_tolerance", 0.1)
	v.SetDefault("constraints.mix_boost", 0)

	// Alerting defaults
	v.SetDefault("alerts.cash_utilization_warn", 0.9)
	v.SetDefault("alerts.default_rate_warn", 0.1)

	// Batch guard defaults
	v.SetDefault("limits.max_candidates", 25_000)
	v.SetDefault("limits.max_ledger_rows", 1_000_000)
}

// Validate enforces the cross-field configuration rules.
func (c *Config) Validate() error {
	if err := ascending(c.Engine.APRBuckets); err != nil {
		return fmt.Errorf("engine.apr_buckets: %w", err)
	}
	if err := ascending(c.Engine.LineBuckets); err != nil {
		return fmt.Errorf("engine.line_buckets: %w", err)
	}
	if err := ascending(c.Engine.PayerGradeBounds); err != nil {
		return fmt.Errorf("engine.payer_grade_bounds: %w", err)
	}
	if len(c.Engine.PayerGradeBounds) != 4 {
		return fmt.Errorf("engine.payer_grade_bounds: need exactly 4 bounds for grades A-D, got %d", len(c.Engine.PayerGradeBounds))
	}
	if len(c.Engine.DPDBuckets) == 0 || c.Engine.DPDBuckets[0] != 0 {
		return fmt.Errorf("engine.dpd_buckets: bounds must start at 0, got %v", c.Engine.DPDBuckets)
	}
	for i := 1; i < len(c.Engine.DPDBuckets); i++ {
		if c.Engine.DPDBuckets[i] <= c.Engine.DPDBuckets[i-1] {
			return fmt.Errorf("engine.dpd_buckets: bounds must be strictly ascending, got %v", c.Engine.DPDBuckets)
		}
	}
	switch c.Engine.DPDDefaultThresholdDays {
	case 90, 120, 180:
	default:
		return fmt.Errorf("engine.dpd_default_threshold_days must be 90, 120 or 180, got %d", c.Engine.DPDDefaultThresholdDays)
	}
	// Epsilon matches service.NewRiskScorer: validation must be at least
	// as strict as engine construction.
	if sum := c.Engine.ScoreWeightPayer + c.Engine.ScoreWeightDPD; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("engine score weights must sum to 1, got %v", sum)
	}

	shares := map[string]float64{
		"constraints.payer_a_min":        c.Constraints.PayerAMin,
		"constraints.payer_d_max":        c.Constraints.PayerDMax,
		"constraints.industry_max_share": c.Constraints.IndustryMaxShare,
		"constraints.top_client_max":     c.Constraints.TopClientMax,
		"alerts.cash_utilization_warn":   c.Alerts.CashUtilizationWarn,
		"alerts.default_rate_warn":       c.Alerts.DefaultRateWarn,
	}
	for name, s := range shares {
		if s < 0 || s > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, s)
		}
	}
	for bucket, share := range c.Constraints.TargetAPRMix {
		if share < 0 || share > 1 {
			return fmt.Errorf("constraints.target_apr_mix[%s] must be within [0,1], got %v", bucket, share)
		}
	}
	if c.Constraints.MixTolerance < 0 {
		return fmt.Errorf("constraints.mix_tolerance must be non-negative, got %v", c.Constraints.MixTolerance)
	}

	if c.Limits.MaxCandidates <= 0 {
		return fmt.Errorf("limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.MaxLedgerRows <= 0 {
		return fmt.Errorf("limits.max_ledger_rows must be positive, got %d", c.Limits.MaxLedgerRows)
	}
	return nil
}

// ascending enforces the bound rules the bucket tables require: non-empty
// and strictly increasing. NaN never fails an ordering comparison, so it
// gets its own check.
func ascending(bounds []float64) error {
	if len(bounds) == 0 {
		return fmt.Errorf("need at least one bound")
	}
	for i, b := range bounds {
		if math.IsNaN(b) {
			return fmt.Errorf("bound %d is NaN", i)
		}
		if i > 0 && b <= bounds[i-1] {
			return fmt.Errorf("bounds must be strictly ascending, bound %d (%v) <= bound %d (%v)", i, b, i-1, bounds[i-1])
		}
	}
	return nil
}

// ------- domain bridges -------

// ClassifierConfig maps the engine section onto the classifier's config.
func (c EngineConfig) ClassifierConfig() service.ClassifierConfig {
	return service.ClassifierConfig{
		APRBounds:         c.APRBuckets,
		LineBounds:        c.LineBuckets,
		PayerBounds:       c.PayerGradeBounds,
		StartupRevenueMax: decimal.NewFromFloat(c.StartupRevenueMax),
		GrowingRevenueMax: decimal.NewFromFloat(c.GrowingRevenueMax),
		StartupYearsMax:   c.StartupYearsMax,
	}
}

// ReconcilerConfig maps the engine section onto the reconciler's config.
func (c EngineConfig) ReconcilerConfig() service.ReconcilerConfig {
	return service.ReconcilerConfig{
		DPDBounds:            c.DPDBuckets,
		DefaultThresholdDays: c.DPDDefaultThresholdDays,
	}
}

// ScorerWeights maps the engine section onto the scorer's weights.
func (c EngineConfig) ScorerWeights() service.ScorerWeights {
	return service.ScorerWeights{Payer: c.ScoreWeightPayer, DPD: c.ScoreWeightDPD}
}

// Constraints maps the constraints section onto the optimizer's limits.
func (c ConstraintsConfig) Constraints() service.Constraints {
	return service.Constraints{
		PayerAMin:        c.PayerAMin,
		PayerDMax:        c.PayerDMax,
		IndustryMaxShare: c.IndustryMaxShare,
		TopClientMax:     c.TopClientMax,
		TargetAPRMix:     c.TargetAPRMix,
		MixTolerance:     c.MixTolerance,
		MixBoost:         c.MixBoost,
	}
}

// Thresholds maps the alerts section onto the alert engine's thresholds.
func (c AlertsConfig) Thresholds() service.AlertThresholds {
	return service.AlertThresholds{
		CashUtilizationWarn: c.CashUtilizationWarn,
		DefaultRateWarn:     c.DefaultRateWarn,
	}
}

// LogConfig maps the logging section onto the logger initialization config.
func (c LoggingConfig) LogConfig() observability.LogConfig {
	return observability.LogConfig{Level: c.Level, Format: c.Format}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
