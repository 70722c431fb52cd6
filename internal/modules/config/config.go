package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV  = "CONFIG_FILE"
	defaultConfigFile  = "configs/values_local.yaml"
	defaultHTTPAddr    = ":8080"
	binanceMainnetURL  = "https://fapi.binance.com"
	binanceTestnetURL  = "https://testnet.binancefuture.com"
	defaultServiceName = "futures_bot"
)

// Config: всё, что бот читает при старте.
type Config struct {
	Binance struct {
		APIKey     string        `yaml:"api_key"`
		APISecret  string        `yaml:"api_secret"`
		Testnet    bool          `yaml:"testnet"`
		BaseURL    string        `yaml:"base_url"`
		RecvWindow int64         `yaml:"recv_window"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"binance"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	DB string `yaml:"db_dsn"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`

	Tracing struct {
		Host    string `yaml:"host"`
		Service string `yaml:"service"`
	} `yaml:"tracing"`

	Trading  Trading  `yaml:"trading"`
	Strategy Strategy `yaml:"strategy"`
	UI       UI       `yaml:"ui"`
}

// Trading: параметры цикла сделки.
type Trading struct {
	Symbols        []string      `yaml:"symbols"`
	SizingFraction float64       `yaml:"sizing_fraction"` // доля суммы под позицию
	TakeProfitPct  float64       `yaml:"take_profit_pct"` // +10 => закрываем на +10%
	StopLossPct    float64       `yaml:"stop_loss_pct"`   // -15 => закрываем на -15%
	PollInterval   time.Duration `yaml:"poll_interval"`
	CallTimeout    time.Duration `yaml:"call_timeout"`
	Timezone       string        `yaml:"timezone"` // для календаря PnL
}

// Strategy: индикаторы и пороги.
type Strategy struct {
	Interval   string  `yaml:"interval"`
	Limit      int     `yaml:"limit"`
	RSIPeriod  int     `yaml:"rsi_period"`
	MACDShort  int     `yaml:"macd_short"`
	MACDLong   int     `yaml:"macd_long"`
	MACDSignal int     `yaml:"macd_signal"`
	MAWindow   int     `yaml:"ma_window"`
	RSILong    float64 `yaml:"rsi_long"`
	RSIShort   float64 `yaml:"rsi_short"`
}

// UI: настройки отображения.
type UI struct {
	LogLines int `yaml:"log_lines"`
}

// Defaults: значения, с которыми бот работает без файла.
func Defaults() Config {
	var c Config
	c.Binance.RecvWindow = 5000
	c.Binance.Timeout = 10 * time.Second
	c.HTTP.Addr = defaultHTTPAddr
	c.Log.Level = "info"
	c.Tracing.Service = defaultServiceName
	c.Trading = Trading{
		Symbols:        []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "MEMEUSDT"},
		SizingFraction: 0.4,
		TakeProfitPct:  10,
		StopLossPct:    -15,
		PollInterval:   5 * time.Second,
		CallTimeout:    10 * time.Second,
		Timezone:       "Local",
	}
	c.Strategy = Strategy{
		Interval:   "5m",
		Limit:      100,
		RSIPeriod:  14,
		MACDShort:  12,
		MACDLong:   26,
		MACDSignal: 9,
		MAWindow:   20,
		RSILong:    55,
		RSIShort:   45,
	}
	c.UI.LogLines = 200
	return c
}

// NewConfig: дефолты -> yaml-файл -> .env -> переменные окружения.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv(configFilePathENV)
	if path == "" {
		path = defaultConfigFile
	}
	return Load(path, newEnv())
}

// Load читает файл (если есть) поверх дефолтов и применяет env.
func Load(path string, env *viper.Viper) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return nil, errors.Wrapf(err, "decode config %s", path)
			}
		case os.IsNotExist(err):
			// без файла: только дефолты и env
		default:
			return nil, errors.Wrapf(err, "open config %s", path)
		}
	}

	if env != nil {
		if err := applyEnv(&cfg, env); err != nil {
			return nil, err
		}
	}

	if cfg.Binance.BaseURL == "" {
		cfg.Binance.BaseURL = binanceMainnetURL
		if cfg.Binance.Testnet {
			cfg.Binance.BaseURL = binanceTestnetURL
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func applyEnv(cfg *Config, v *viper.Viper) error {
	if s := v.GetString("BINANCE_API_KEY"); s != "" {
		cfg.Binance.APIKey = s
	}
	if s := v.GetString("BINANCE_API_SECRET"); s != "" {
		cfg.Binance.APISecret = s
	}
	if v.IsSet("BINANCE_TESTNET") {
		cfg.Binance.Testnet = v.GetBool("BINANCE_TESTNET")
	}
	if s := v.GetString("TELEGRAM_TOKEN"); s != "" {
		cfg.Telegram.Token = s
	}
	if v.IsSet("TELEGRAM_CHAT_ID") {
		cfg.Telegram.ChatID = v.GetInt64("TELEGRAM_CHAT_ID")
	}
	if s := v.GetString("DATABASE_DSN"); s != "" {
		cfg.DB = s
	}
	if s := v.GetString("HTTP_ADDR"); s != "" {
		cfg.HTTP.Addr = s
	}
	if s := v.GetString("LOG_LEVEL"); s != "" {
		cfg.Log.Level = s
	}
	if v.IsSet("SIZING_FRACTION") {
		cfg.Trading.SizingFraction = v.GetFloat64("SIZING_FRACTION")
	}
	if s := v.GetString("POLL_INTERVAL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return errors.Wrapf(err, "POLL_INTERVAL %q", s)
		}
		cfg.Trading.PollInterval = d
	}
	return nil
}

// Validate: проверка торговых параметров.
func (c *Config) Validate() error {
	t := c.Trading
	switch {
	case t.SizingFraction <= 0 || t.SizingFraction > 1:
		return errors.Errorf("trading.sizing_fraction must be in (0,1], got %v", t.SizingFraction)
	case t.TakeProfitPct <= 0:
		return errors.Errorf("trading.take_profit_pct must be > 0, got %v", t.TakeProfitPct)
	case t.StopLossPct >= 0:
		return errors.Errorf("trading.stop_loss_pct must be < 0, got %v", t.StopLossPct)
	case t.PollInterval <= 0:
		return errors.Errorf("trading.poll_interval must be > 0, got %v", t.PollInterval)
	case t.CallTimeout <= 0:
		return errors.Errorf("trading.call_timeout must be > 0, got %v", t.CallTimeout)
	}
	if c.Strategy.MACDShort >= c.Strategy.MACDLong {
		return errors.Errorf("strategy.macd_short (%d) must be < macd_long (%d)",
			c.Strategy.MACDShort, c.Strategy.MACDLong)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location: часовой пояс календаря.
func (c *Config) Location() (*time.Location, error) {
	if c.Trading.Timezone == "" || c.Trading.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Trading.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "trading.timezone %q", c.Trading.Timezone)
	}
	return loc, nil
}
