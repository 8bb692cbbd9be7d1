package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"memeconomy/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Sim       SimConfig       `mapstructure:"sim"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Crash     CrashConfig     `mapstructure:"crash"`
	History   HistoryConfig   `mapstructure:"history"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Activity  ActivityConfig  `mapstructure:"activity"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Migrate         bool          `mapstructure:"migrate"`
}

// TierConfig bounds the percentage move allowed for one price band.
// A zero PriceThreshold marks the unbounded top band.
type TierConfig struct {
	PriceThreshold float64 `mapstructure:"price_threshold"`
	Min            float64 `mapstructure:"min"`
	Max            float64 `mapstructure:"max"`
}

// RangeConfig is an inclusive numeric interval for random draws.
type RangeConfig struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// SimConfig governs the random-walk price simulation.
type SimConfig struct {
	TickInterval        time.Duration `mapstructure:"tick_interval"`
	StableInterval      time.Duration `mapstructure:"stable_interval"`
	UpwardBias          float64       `mapstructure:"upward_bias"`
	CrashPriceThreshold float64       `mapstructure:"crash_price_threshold"`
	Tiers               []TierConfig  `mapstructure:"tiers"`
	InitialPrice        RangeConfig   `mapstructure:"initial_price"`
	InitialSupply       RangeConfig   `mapstructure:"initial_supply"`
	StableSymbol        string        `mapstructure:"stable_symbol"`
	StableDefaultPrice  float64       `mapstructure:"stable_default_price"`
	StableDefaultSupply float64       `mapstructure:"stable_default_supply"`
}

// LedgerConfig tunes trade settlement.
type LedgerConfig struct {
	TaxRate float64 `mapstructure:"tax_rate"`
}

// CrashConfig governs crashed-token cleanup.
type CrashConfig struct {
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	Retention     time.Duration `mapstructure:"retention"`
}

// GranularityConfig schedules one price-history table.
type GranularityConfig struct {
	RollupInterval time.Duration `mapstructure:"rollup_interval"`
	PruneInterval  time.Duration `mapstructure:"prune_interval"`
	Keep           int           `mapstructure:"keep"`
}

// HistoryConfig holds the per-granularity retention settings.
type HistoryConfig struct {
	Minute GranularityConfig `mapstructure:"minute"`
	Hourly GranularityConfig `mapstructure:"hourly"`
	Daily  GranularityConfig `mapstructure:"daily"`
	Weekly GranularityConfig `mapstructure:"weekly"`
}

// PortfolioConfig governs portfolio snapshotting.
type PortfolioConfig struct {
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
	RetentionDays    int           `mapstructure:"retention_days"`
}

// DiscordConfig routes crash and alert notifications.
type DiscordConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BotToken       string `mapstructure:"bot_token"`
	CrashChannelID string `mapstructure:"crash_channel_id"`
}

// ActivityConfig locates the server-activity metrics feed that drives the
// stable utility token.
type ActivityConfig struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Weight         float64       `mapstructure:"weight"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MEMECONOMY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "memeconomy")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("sim.tick_interval", "30s")
	v.SetDefault("sim.stable_interval", "10m")
	v.SetDefault("sim.upward_bias", 0.505)
	v.SetDefault("sim.crash_price_threshold", 0.002)
	v.SetDefault("sim.tiers", []map[string]any{
		{"price_threshold": 1.0, "min": 0.005, "max": 0.03},
		{"price_threshold": 1000.0, "min": 0.01, "max": 0.1},
		{"price_threshold": 0.0, "min": 0.02, "max": 0.3},
	})
	v.SetDefault("sim.initial_price.min", 0.01)
	v.SetDefault("sim.initial_price.max", 10.0)
	v.SetDefault("sim.initial_supply.min", 1_000_000.0)
	v.SetDefault("sim.initial_supply.max", 1_000_000_000.0)
	v.SetDefault("sim.stable_symbol", "CRED")
	v.SetDefault("sim.stable_default_price", 1.0)
	v.SetDefault("sim.stable_default_supply", 1_000_000_000.0)

	v.SetDefault("ledger.tax_rate", 0.03)

	v.SetDefault("crash.purge_interval", "30m")
	v.SetDefault("crash.retention", "24h")

	v.SetDefault("history.minute.prune_interval", "1h")
	v.SetDefault("history.minute.keep", 1440)
	v.SetDefault("history.hourly.rollup_interval", "1h")
	v.SetDefault("history.hourly.prune_interval", "6h")
	v.SetDefault("history.hourly.keep", 720)
	v.SetDefault("history.daily.rollup_interval", "24h")
	v.SetDefault("history.daily.prune_interval", "24h")
	v.SetDefault("history.daily.keep", 365)
	v.SetDefault("history.weekly.rollup_interval", "168h")
	v.SetDefault("history.weekly.prune_interval", "168h")
	v.SetDefault("history.weekly.keep", 520)

	v.SetDefault("portfolio.snapshot_interval", "6h")
	v.SetDefault("portfolio.retention_days", 90)

	v.SetDefault("discord.enabled", false)

	v.SetDefault("activity.request_timeout", "10s")
	v.SetDefault("activity.weight", 0.05)
	v.SetDefault("activity.user_agent", "memeconomy/1.0")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrate", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Sim.TickInterval <= 0 {
		return fmt.Errorf("sim.tick_interval must be greater than zero")
	}
	if c.Sim.StableInterval <= 0 {
		return fmt.Errorf("sim.stable_interval must be greater than zero")
	}
	if c.Sim.UpwardBias < 0 || c.Sim.UpwardBias > 1 {
		return fmt.Errorf("sim.upward_bias must be within [0, 1]")
	}
	if c.Sim.CrashPriceThreshold < 0 {
		return fmt.Errorf("sim.crash_price_threshold cannot be negative")
	}
	if len(c.Sim.Tiers) == 0 {
		return fmt.Errorf("sim.tiers must define at least one volatility band")
	}
	for i, tier := range c.Sim.Tiers {
		if tier.Min < 0 || tier.Max < tier.Min {
			return fmt.Errorf("sim.tiers[%d]: bounds must satisfy 0 <= min <= max", i)
		}
	}
	if err := validateRange("sim.initial_price", c.Sim.InitialPrice); err != nil {
		return err
	}
	if err := validateRange("sim.initial_supply", c.Sim.InitialSupply); err != nil {
		return err
	}
	if c.Ledger.TaxRate < 0 || c.Ledger.TaxRate >= 1 {
		return fmt.Errorf("ledger.tax_rate must be within [0, 1)")
	}
	if c.Crash.Retention <= 0 {
		return fmt.Errorf("crash.retention must be greater than zero")
	}
	if c.Portfolio.RetentionDays <= 0 {
		return fmt.Errorf("portfolio.retention_days must be greater than zero")
	}
	for name, g := range map[string]GranularityConfig{
		"minute": c.History.Minute,
		"hourly": c.History.Hourly,
		"daily":  c.History.Daily,
		"weekly": c.History.Weekly,
	} {
		if g.Keep <= 0 {
			return fmt.Errorf("history.%s.keep must be greater than zero", name)
		}
	}
	if c.Discord.Enabled {
		if c.Discord.BotToken == "" {
			return fmt.Errorf("discord.bot_token is required when discord is enabled")
		}
		if c.Discord.CrashChannelID == "" {
			return fmt.Errorf("discord.crash_channel_id is required when discord is enabled")
		}
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

func validateRange(name string, r RangeConfig) error {
	if r.Min <= 0 || r.Max < r.Min {
		return fmt.Errorf("%s: bounds must satisfy 0 < min <= max", name)
	}
	return nil
}

// Granularity returns the retention settings for a named history table.
func (c *HistoryConfig) Granularity(name string) (GranularityConfig, bool) {
	switch name {
	case "minute":
		return c.Minute, true
	case "hourly":
		return c.Hourly, true
	case "daily":
		return c.Daily, true
	case "weekly":
		return c.Weekly, true
	}
	return GranularityConfig{}, false
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
