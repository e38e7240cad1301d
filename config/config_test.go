package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MarketConfig.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %s, want BTCUSDT", cfg.MarketConfig.Symbol)
	}
	if cfg.MarketConfig.TickSize <= 0 {
		t.Error("tick size must default to a positive value")
	}
	if cfg.EngineConfig.Trade.StopMax < cfg.EngineConfig.Trade.StopMin {
		t.Error("default stop bounds are inverted")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MARKET_SYMBOL", "ETHUSDT")
	t.Setenv("ENGINE_MAX_TRADES_PER_DAY", "7")
	t.Setenv("AUTH_ACCESS_TOKEN_DURATION", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MarketConfig.Symbol != "ETHUSDT" {
		t.Errorf("symbol = %s, want ETHUSDT", cfg.MarketConfig.Symbol)
	}
	if cfg.EngineConfig.Session.MaxTradesPerDay != 7 {
		t.Errorf("max trades = %d, want 7", cfg.EngineConfig.Session.MaxTradesPerDay)
	}
	if cfg.AuthConfig.AccessTokenDuration != 30*time.Minute {
		t.Errorf("token duration = %v, want 30m", cfg.AuthConfig.AccessTokenDuration)
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg.EngineConfig.Trade.StopMin = 100
	cfg.EngineConfig.Trade.StopMax = 10
	if err := cfg.Validate(); err == nil {
		t.Error("inverted stop bounds must be rejected")
	}

	cfg.EngineConfig.Trade.StopMin = 5
	cfg.EngineConfig.Trade.StopMax = 50
	cfg.AuthConfig.Enabled = true
	cfg.AuthConfig.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Error("auth without secret must be rejected")
	}
}
