package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Input     InputConfig     `yaml:"input"`
	Estimator EstimatorConfig `yaml:"estimator"`
	Report    ReportConfig    `yaml:"report"`
	Notify    NotifyConfig    `yaml:"notify"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type InputConfig struct {
	HTMLPath string `yaml:"html_path"` // saved odds page snapshot
}

type EstimatorConfig struct {
	Workers int `yaml:"workers"` // games estimated in parallel (default: 4)
	// TierTolerance is the relative deviation of a tier's implied ticket total from
	// row 0 above which a mismatch is reported. 0 disables the check.
	TierTolerance float64 `yaml:"tier_tolerance"`
}

type ReportConfig struct {
	Views     []ViewConfig `yaml:"views"`
	Language  string       `yaml:"language"`   // BCP 47 tag used for number formatting (default: en-US)
	Detail    bool         `yaml:"detail"`     // print per-tier tables under each view
	ExportDir string       `yaml:"export_dir"` // empty disables JSON/CSV export
}

type ViewConfig struct {
	Title     string `yaml:"title"`
	SortBy    string `yaml:"sort_by"`
	Ascending bool   `yaml:"ascending"`
}

type NotifyConfig struct {
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
	TopN             int    `yaml:"top_n"` // games included in the summary (default: 5)
}

// Enabled reports whether both Telegram credentials are present.
func (n NotifyConfig) Enabled() bool {
	return n.TelegramBotToken != "" && n.TelegramChatID != 0
}

type LoggingConfig struct {
	Level   string `yaml:"level"`    // debug, info, warn, error (default: info)
	Format  string `yaml:"format"`   // text or json (default: text)
	LogFile string `yaml:"log_file"` // optional JSON log file in addition to stderr
}

// DefaultViews are the three orderings printed when none are configured.
func DefaultViews() []ViewConfig {
	return []ViewConfig{
		{Title: "Sorted by best current ratio", SortBy: "adjusted_ratio"},
		{Title: "Sorted by best original ratio", SortBy: "original_ratio"},
		{Title: "Sorted by highest expected value", SortBy: "original_ev"},
	}
}

// Default returns a configuration usable without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, and validates.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Estimator.Workers <= 0 {
		c.Estimator.Workers = 4
	}
	if len(c.Report.Views) == 0 {
		c.Report.Views = DefaultViews()
	}
	if c.Report.Language == "" {
		c.Report.Language = "en-US"
	}
	if c.Notify.TopN <= 0 {
		c.Notify.TopN = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) applyEnv() error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Notify.TelegramBotToken = token
	}
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", chatIDStr, err)
		}
		c.Notify.TelegramChatID = chatID
	}
	if path := os.Getenv("TICKETEV_HTML_PATH"); path != "" {
		c.Input.HTMLPath = path
	}
	return nil
}

// Validate checks values that defaults cannot fix.
func (c *Config) Validate() error {
	if c.Estimator.TierTolerance < 0 {
		return fmt.Errorf("estimator.tier_tolerance must be >= 0, got %v", c.Estimator.TierTolerance)
	}
	for i, v := range c.Report.Views {
		if strings.TrimSpace(v.SortBy) == "" {
			return fmt.Errorf("report.views[%d]: sort_by is required", i)
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
