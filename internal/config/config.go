// Package config loads the bot settings from a YAML file and applies
// environment overrides for credentials. The loaded Config is immutable
// after Load and is passed explicitly to every component constructor.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Handle    string          `yaml:"handle"`
	Coin      CoinConfig      `yaml:"coin"`
	RPC       RPCConfig       `yaml:"rpc"`
	Stream    StreamConfig    `yaml:"stream"`
	Directory DirectoryConfig `yaml:"directory"`
	Notify    NotifyConfig    `yaml:"notify"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

type CoinConfig struct {
	FullName         string `yaml:"fullName"`
	ShortName        string `yaml:"shortName"`
	InvPrecision     int64  `yaml:"invPrecision"`
	MinerFee         string `yaml:"minerFee"`
	MinTip           string `yaml:"minTip"`
	MinWithdraw      string `yaml:"minWithdraw"`
	MinConfirmations int    `yaml:"minConfirmations"`
	AddressPattern   string `yaml:"addressPattern"`
	TokenPrefix      string `yaml:"tokenPrefix"`
	TokenLength      int    `yaml:"tokenLength"`
}

type RPCConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"-"`
	Password string `yaml:"-"`
}

type StreamConfig struct {
	Brokers       []string `yaml:"brokers"`
	InboundTopic  string   `yaml:"inboundTopic"`
	OutboundTopic string   `yaml:"outboundTopic"`
	GroupID       string   `yaml:"groupID"`
}

type DirectoryConfig struct {
	Backend    string `yaml:"backend"` // postgres | file
	DSN        string `yaml:"-"`
	Path       string `yaml:"path"`
	Passphrase string `yaml:"-"`
}

type NotifyConfig struct {
	SMTPHost  string `yaml:"smtpHost"`
	SMTPPort  int    `yaml:"smtpPort"`
	From      string `yaml:"from"`
	Recipient string `yaml:"recipient"`
	Username  string `yaml:"-"`
	Password  string `yaml:"-"`
}

type RateLimitConfig struct {
	PerSenderRPS float64 `yaml:"perSenderRPS"`
	Burst        int     `yaml:"burst"`
}

// Default returns the settings that apply when the YAML file omits a key.
func Default() Config {
	return Config{
		Coin: CoinConfig{
			FullName:         "Nimiq",
			ShortName:        "NIM",
			InvPrecision:     100000,
			MinerFee:         "0.001",
			MinTip:           "0.002",
			MinWithdraw:      "0.01",
			MinConfirmations: 10,
			AddressPattern:   `NQ[0-9]{2}( ?[0-9A-HJ-NP-VX-Y]{4}){8}`,
			TokenPrefix:      "#",
			TokenLength:      8,
		},
		RPC: RPCConfig{
			Host: "127.0.0.1",
			Port: 8648,
		},
		Stream: StreamConfig{
			InboundTopic:  "tipbot.inbound",
			OutboundTopic: "tipbot.outbound",
			GroupID:       "tipbot",
		},
		Directory: DirectoryConfig{
			Backend: "file",
			Path:    "data/addresses.enc",
		},
		Notify: NotifyConfig{
			SMTPPort: 587,
		},
		RateLimit: RateLimitConfig{
			PerSenderRPS: 0.2,
			Burst:        3,
		},
	}
}

// Load reads the YAML file at path, merges it over the defaults, applies
// environment overrides and validates the result. A missing file is an
// error: the bot refuses to start on guesswork.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	ApplyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnvOverrides fills credentials and connection secrets from the
// environment. Secrets never live in the YAML file.
func ApplyEnvOverrides(cfg *Config) {
	setIfPresent(&cfg.Handle, "TIPBOT_HANDLE")
	setIfPresent(&cfg.RPC.Username, "TIPBOT_RPC_USER")
	setIfPresent(&cfg.RPC.Password, "TIPBOT_RPC_PASS")
	setIfPresent(&cfg.Directory.DSN, "TIPBOT_DATABASE_URL")
	setIfPresent(&cfg.Directory.Passphrase, "TIPBOT_STORE_PASSPHRASE")
	setIfPresent(&cfg.Notify.Username, "TIPBOT_SMTP_USER")
	setIfPresent(&cfg.Notify.Password, "TIPBOT_SMTP_PASS")
	setIfPresent(&cfg.Notify.Recipient, "TIPBOT_NOTIFY_ADDRESS")
}

func setIfPresent(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Handle) == "" {
		return errors.New("config: handle is required")
	}
	if c.Coin.InvPrecision <= 0 {
		return fmt.Errorf("config: invPrecision must be positive, got %d", c.Coin.InvPrecision)
	}
	if c.Coin.MinConfirmations < 0 {
		return fmt.Errorf("config: minConfirmations must not be negative, got %d", c.Coin.MinConfirmations)
	}
	for _, amount := range []struct{ key, value string }{
		{"minerFee", c.Coin.MinerFee},
		{"minTip", c.Coin.MinTip},
		{"minWithdraw", c.Coin.MinWithdraw},
	} {
		d, err := decimal.NewFromString(amount.value)
		if err != nil {
			return fmt.Errorf("config: coin.%s: %w", amount.key, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("config: coin.%s must not be negative", amount.key)
		}
	}
	if _, err := regexp.Compile(c.Coin.AddressPattern); err != nil {
		return fmt.Errorf("config: coin.addressPattern: %w", err)
	}
	if c.Coin.TokenLength <= 0 {
		return fmt.Errorf("config: coin.tokenLength must be positive, got %d", c.Coin.TokenLength)
	}
	switch c.Directory.Backend {
	case "postgres":
		if strings.TrimSpace(c.Directory.DSN) == "" {
			return errors.New("config: directory.backend=postgres requires TIPBOT_DATABASE_URL")
		}
	case "file":
		if strings.TrimSpace(c.Directory.Path) == "" {
			return errors.New("config: directory.backend=file requires directory.path")
		}
	default:
		return fmt.Errorf("config: unknown directory.backend %q", c.Directory.Backend)
	}
	if strings.TrimSpace(c.RPC.Host) == "" || c.RPC.Port <= 0 {
		return errors.New("config: rpc.host and rpc.port are required")
	}
	return nil
}
