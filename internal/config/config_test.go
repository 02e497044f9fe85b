package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "twitter.yml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
handle: TipBot
coin:
  minTip: "0.005"
rpc:
  host: daemon.internal
  port: 8649
stream:
  brokers: ["kafka-1:9092"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Handle != "TipBot" {
		t.Fatalf("expected handle from file, got %q", cfg.Handle)
	}
	if cfg.Coin.MinTip != "0.005" {
		t.Fatalf("expected minTip override, got %q", cfg.Coin.MinTip)
	}
	// Keys the file omits keep their defaults.
	if cfg.Coin.MinerFee != "0.001" || cfg.Coin.InvPrecision != 100000 {
		t.Fatalf("defaults lost: fee=%q invPrecision=%d", cfg.Coin.MinerFee, cfg.Coin.InvPrecision)
	}
	if cfg.RPC.Host != "daemon.internal" || cfg.RPC.Port != 8649 {
		t.Fatalf("rpc override lost: %+v", cfg.RPC)
	}
	if cfg.Stream.InboundTopic != "tipbot.inbound" {
		t.Fatalf("expected default inbound topic, got %q", cfg.Stream.InboundTopic)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("TIPBOT_HANDLE", "RealBot")
	t.Setenv("TIPBOT_RPC_USER", "rpcuser")
	t.Setenv("TIPBOT_RPC_PASS", "rpcpass")
	t.Setenv("TIPBOT_STORE_PASSPHRASE", "hunter2")

	path := writeConfig(t, "handle: FileBot\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Handle != "RealBot" {
		t.Fatalf("environment must win over the file, got %q", cfg.Handle)
	}
	if cfg.RPC.Username != "rpcuser" || cfg.RPC.Password != "rpcpass" {
		t.Fatalf("rpc credentials not applied: %+v", cfg.RPC)
	}
	if cfg.Directory.Passphrase != "hunter2" {
		t.Fatalf("store passphrase not applied")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejections(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Handle = "TipBot"
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing handle", func(c *Config) { c.Handle = " " }, "handle is required"},
		{"zero precision", func(c *Config) { c.Coin.InvPrecision = 0 }, "invPrecision"},
		{"bad amount", func(c *Config) { c.Coin.MinTip = "lots" }, "coin.minTip"},
		{"negative amount", func(c *Config) { c.Coin.MinWithdraw = "-1" }, "must not be negative"},
		{"bad pattern", func(c *Config) { c.Coin.AddressPattern = "(" }, "addressPattern"},
		{"zero token length", func(c *Config) { c.Coin.TokenLength = 0 }, "tokenLength"},
		{"postgres without dsn", func(c *Config) { c.Directory.Backend = "postgres" }, "TIPBOT_DATABASE_URL"},
		{"unknown backend", func(c *Config) { c.Directory.Backend = "redis" }, "unknown directory.backend"},
		{"missing rpc host", func(c *Config) { c.RPC.Host = "" }, "rpc.host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDefaultValidatesWithHandle(t *testing.T) {
	cfg := Default()
	cfg.Handle = "TipBot"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
