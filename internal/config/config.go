package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Polymarket PolymarketConfig `yaml:"polymarket"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Tavily     TavilyConfig     `yaml:"tavily"`
	Trading    TradingConfig    `yaml:"trading"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Journal    JournalConfig    `yaml:"journal"`
	Web        WebConfig        `yaml:"web"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type PolymarketConfig struct {
	GammaHost     string `yaml:"gamma_host"`
	RPCURL        string `yaml:"rpc_url"`
	USDCAddress   string `yaml:"usdc_address"`
	FunderAddress string `yaml:"funder_address"`
}

type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

type TradingConfig struct {
	CronSpec        string  `yaml:"cron_spec"`
	MaxRetries      int     `yaml:"max_retries"`
	RetrySleepSecs  int     `yaml:"retry_sleep_seconds"`
	MaxPositionUSDC float64 `yaml:"max_position_usdc"`
	RiskFraction    float64 `yaml:"risk_fraction"`
	RecordTrades    *bool   `yaml:"record_trades"`
	CacheDir        string  `yaml:"cache_dir"`
}

type TelegramConfig struct {
	BotToken           string `yaml:"bot_token"`
	ChatID             int64  `yaml:"chat_id"`
	PollTimeoutSeconds int    `yaml:"poll_timeout_seconds"`
	BackoffSeconds     int    `yaml:"backoff_seconds"`
}

type JournalConfig struct {
	Path        string `yaml:"path"`
	HistoryPath string `yaml:"history_path"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML config at path, merges a .env file (if present) and
// environment overrides on top, applies defaults and validates. A missing
// config file is not an error so the daemons can run on env vars alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// .env is optional; ignore when missing.
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides lets operators inject secrets at deploy time without
// touching the YAML file. Names match the original agent's environment.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setInt64(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setStr(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setStr(&cfg.Tavily.APIKey, "TAVILY_API_KEY")
	setStr(&cfg.Journal.Path, "POLYAI_STATE_PATH")
	setStr(&cfg.Polymarket.RPCURL, "POLYGON_RPC_URL")
	setStr(&cfg.Polymarket.FunderAddress, "POLYMARKET_FUNDER_ADDRESS")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.Polymarket.GammaHost == "" {
		cfg.Polymarket.GammaHost = "https://gamma-api.polymarket.com"
	}
	if cfg.Polymarket.RPCURL == "" {
		cfg.Polymarket.RPCURL = "https://polygon-rpc.com"
	}
	if cfg.Polymarket.USDCAddress == "" {
		// USDC.e on Polygon, the collateral token for Polymarket markets.
		cfg.Polymarket.USDCAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 120
	}
	if cfg.Trading.CronSpec == "" {
		// Monday 09:00.
		cfg.Trading.CronSpec = "0 9 * * 1"
	}
	if cfg.Trading.MaxRetries == 0 {
		cfg.Trading.MaxRetries = 3
	}
	if cfg.Trading.RetrySleepSecs == 0 {
		cfg.Trading.RetrySleepSecs = 3
	}
	if cfg.Trading.MaxPositionUSDC == 0 {
		cfg.Trading.MaxPositionUSDC = 100
	}
	if cfg.Trading.RiskFraction == 0 {
		cfg.Trading.RiskFraction = 0.05
	}
	if cfg.Trading.RecordTrades == nil {
		t := true
		cfg.Trading.RecordTrades = &t
	}
	if cfg.Trading.CacheDir == "" {
		cfg.Trading.CacheDir = "data/decision_cache"
	}
	if cfg.Telegram.PollTimeoutSeconds == 0 {
		cfg.Telegram.PollTimeoutSeconds = 30
	}
	if cfg.Telegram.BackoffSeconds == 0 {
		cfg.Telegram.BackoffSeconds = 2
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "data/trade_journal.json"
	}
	if cfg.Journal.HistoryPath == "" {
		cfg.Journal.HistoryPath = "data/polytrader.db"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Trading.MaxRetries < 1 {
		return fmt.Errorf("trading.max_retries must be >= 1")
	}
	if c.Trading.RiskFraction < 0 || c.Trading.RiskFraction > 1 {
		return fmt.Errorf("trading.risk_fraction must be in [0, 1]")
	}
	// A bot token without a chat id is valid: the notifier stays disabled
	// and the command bot answers any chat (no allow-list).
	return nil
}

// ValidateBot enforces the stricter requirements of the command bot process,
// which cannot run without a Telegram credential.
func (c *Config) ValidateBot() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token (TELEGRAM_BOT_TOKEN) is required")
	}
	return nil
}

func (c *Config) RecordTrades() bool {
	return c.Trading.RecordTrades == nil || *c.Trading.RecordTrades
}

func (c *Config) MaxPositionUSDC() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.MaxPositionUSDC)
}

func (c *Config) RiskFraction() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.RiskFraction)
}

func (c *Config) RetrySleep() time.Duration {
	return time.Duration(c.Trading.RetrySleepSecs) * time.Second
}

func (c *Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}

func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Telegram.PollTimeoutSeconds) * time.Second
}

func (c *Config) PollBackoff() time.Duration {
	return time.Duration(c.Telegram.BackoffSeconds) * time.Second
}
