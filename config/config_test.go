package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Server.MaxUploadMB != 20 {
			t.Errorf("Server.MaxUploadMB = %d, want 20", cfg.Server.MaxUploadMB)
		}
		if cfg.Matching.AddressThreshold != 90 {
			t.Errorf("Matching.AddressThreshold = %v, want 90", cfg.Matching.AddressThreshold)
		}
		if cfg.Matching.QuantityTolerance != 0 {
			t.Errorf("Matching.QuantityTolerance = %v, want 0", cfg.Matching.QuantityTolerance)
		}
		if !cfg.Reader.ValidatePDF {
			t.Error("Reader.ValidatePDF = false, want true")
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 60 || cfg.RateLimit.Burst != 10 {
			t.Errorf("RateLimit = %+v, want per_ip 60 burst 10", cfg.RateLimit)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("Log = %+v, want info/json", cfg.Log)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("TICKETCHECK_SERVER_PORT", "9090")
		t.Setenv("TICKETCHECK_SERVER_ENVIRONMENT", "production")
		t.Setenv("TICKETCHECK_MATCHING_QUANTITY_TOLERANCE", "2")
		t.Setenv("TICKETCHECK_MATCHING_ADDRESS_THRESHOLD", "85")
		t.Setenv("TICKETCHECK_MATCHING_ENABLE_DEBUG_LOGGING", "true")
		t.Setenv("TICKETCHECK_CACHE_TTL", "2h")
		t.Setenv("TICKETCHECK_RATELIMIT_PER_IP", "120")
		t.Setenv("TICKETCHECK_LOG_FORMAT", "text")
		t.Setenv("TICKETCHECK_LOG_LEVEL", "debug")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Matching.QuantityTolerance != 2 {
			t.Errorf("Matching.QuantityTolerance = %v, want 2", cfg.Matching.QuantityTolerance)
		}
		if cfg.Matching.AddressThreshold != 85 {
			t.Errorf("Matching.AddressThreshold = %v, want 85", cfg.Matching.AddressThreshold)
		}
		if !cfg.Matching.EnableDebugLogging {
			t.Error("Matching.EnableDebugLogging = false, want true")
		}
		if cfg.Cache.TTL != 2*time.Hour {
			t.Errorf("Cache.TTL = %v, want 2h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 120 {
			t.Errorf("RateLimit.PerIP = %d, want 120", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Format != "text" || cfg.Log.Level != "debug" {
			t.Errorf("Log = %+v, want debug/text", cfg.Log)
		}
	})

	t.Run("rejects invalid environment values", func(t *testing.T) {
		t.Setenv("TICKETCHECK_MATCHING_ADDRESS_THRESHOLD", "150")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for threshold 150")
		}
	})
}

func validConfig() Config {
	return Config{
		Server:    ServerConfig{Port: "8080", MaxUploadMB: 20},
		Matching:  MatchingConfig{AddressThreshold: 90},
		RateLimit: RateLimitConfig{PerIP: 60, Burst: 10},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "port"},
		{name: "zero upload limit", mutate: func(c *Config) { c.Server.MaxUploadMB = 0 }, wantErr: "upload"},
		{name: "negative tolerance", mutate: func(c *Config) { c.Matching.QuantityTolerance = -1 }, wantErr: "tolerance"},
		{name: "threshold above 100", mutate: func(c *Config) { c.Matching.AddressThreshold = 101 }, wantErr: "threshold"},
		{name: "threshold below 0", mutate: func(c *Config) { c.Matching.AddressThreshold = -5 }, wantErr: "threshold"},
		{name: "threshold zero", mutate: func(c *Config) { c.Matching.AddressThreshold = 0 }, wantErr: "threshold"},
		{name: "threshold 100", mutate: func(c *Config) { c.Matching.AddressThreshold = 100 }},
		{name: "zero burst", mutate: func(c *Config) { c.RateLimit.Burst = 0 }, wantErr: "rate limit"},
		{name: "unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log format"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := validate(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := ServerConfig{MaxUploadMB: 2}
	if got := cfg.MaxUploadBytes(); got != 2<<20 {
		t.Errorf("MaxUploadBytes() = %d, want %d", got, 2<<20)
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json formatter", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

		if logger.GetLevel() != logrus.WarnLevel {
			t.Errorf("level = %v, want warn", logger.GetLevel())
		}
		logger.Info("hidden")
		logger.WithField("report_id", "r1").Warn("shown")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info entry written at warn level: %s", out)
		}
		if !strings.Contains(out, `"report_id":"r1"`) {
			t.Errorf("output %q is not JSON with fields", out)
		}
	})

	t.Run("text formatter and fallback level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "nonsense", Format: "text"}, &buf)

		if logger.GetLevel() != logrus.InfoLevel {
			t.Errorf("level = %v, want info", logger.GetLevel())
		}
		if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
			t.Errorf("formatter = %T, want *logrus.TextFormatter", logger.Formatter)
		}
	})
}
