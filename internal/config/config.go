package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the backtester.
// The values are read by viper from a config file or environment variables.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Backtest BacktestConfig
	Data     DataConfig
	Database DatabaseConfig
	Feed     FeedConfig
}

// BacktestConfig defines the trading pair, participating venues and fees.
type BacktestConfig struct {
	Pair   string             `mapstructure:"pair"`
	Venues []string           `mapstructure:"venues"`
	Fees   map[string]float64 `mapstructure:"fees"` // maker fee as a fraction of notional, per venue
}

// DataConfig locates the per-venue, per-day quote stores.
type DataConfig struct {
	Dir       string `mapstructure:"dir"`
	StartDate string `mapstructure:"start_date"` // YYYY-MM-DD, inclusive
	EndDate   string `mapstructure:"end_date"`   // YYYY-MM-DD, inclusive
}

// DatabaseConfig defines the optional postgres trade sink.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// FeedConfig defines the optional websocket trade feed.
type FeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// URL builds the postgres connection string.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.DBName)
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	err = config.Validate()
	return
}

// Validate checks that the configuration is complete enough to run a backtest.
// A participating venue without a fee rate is a data-integrity error: fees feed
// directly into the profitability threshold, so the run must not start.
func (c Config) Validate() error {
	if c.Backtest.Pair == "" {
		return fmt.Errorf("config: backtest.pair is required")
	}
	if len(c.Backtest.Venues) < 2 {
		return fmt.Errorf("config: at least two venues are required, got %d", len(c.Backtest.Venues))
	}
	seen := make(map[string]bool, len(c.Backtest.Venues))
	for _, venue := range c.Backtest.Venues {
		if seen[venue] {
			return fmt.Errorf("config: venue %q listed twice", venue)
		}
		seen[venue] = true
		fee, ok := c.Backtest.Fees[venue]
		if !ok {
			return fmt.Errorf("config: missing maker fee for venue %q", venue)
		}
		if fee < 0 || fee >= 1 {
			return fmt.Errorf("config: maker fee for venue %q out of range: %v", venue, fee)
		}
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("config: data.dir is required")
	}
	return nil
}
