package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite", SQLitePath: "test.db"},
		GPS: GPSConfig{
			StaleTimeout:     5 * time.Minute,
			SweepInterval:    time.Minute,
			ProgressStrategy: "random",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid sqlite", func(*Config) {}, ""},
		{"postgres without host", func(c *Config) { c.Database.Driver = "postgres" }, "DB_HOST"},
		{"postgres complete", func(c *Config) {
			c.Database = DatabaseConfig{Driver: "postgres", Host: "db", DBName: "cargo"}
		}, ""},
		{"sqlite without path", func(c *Config) { c.Database.SQLitePath = "" }, "SQLITE_PATH"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "DB_DRIVER"},
		{"zero stale timeout", func(c *Config) { c.GPS.StaleTimeout = 0 }, "GPS_STALE_TIMEOUT"},
		{"unknown strategy", func(c *Config) { c.GPS.ProgressStrategy = "oracle" }, "GPS_PROGRESS_STRATEGY"},
		{"mqtt without broker", func(c *Config) { c.MQTT.Enabled = true }, "MQTT_BROKER"},
		{"redis without host", func(c *Config) { c.Redis.Enabled = true }, "REDIS_HOST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "tracker.db")
	t.Setenv("GPS_STALE_TIMEOUT", "2m")
	t.Setenv("GPS_PROGRESS_STRATEGY", "haversine")
	t.Setenv("MQTT_QOS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.SQLitePath != "tracker.db" {
		t.Errorf("SQLitePath = %q", cfg.Database.SQLitePath)
	}
	if cfg.GPS.StaleTimeout != 2*time.Minute {
		t.Errorf("StaleTimeout = %v, want 2m", cfg.GPS.StaleTimeout)
	}
	if cfg.GPS.SweepInterval != 60*time.Second {
		t.Errorf("SweepInterval = %v, want default 60s", cfg.GPS.SweepInterval)
	}
	if cfg.GPS.ETAHorizon != 4*time.Hour {
		t.Errorf("ETAHorizon = %v, want default 4h", cfg.GPS.ETAHorizon)
	}
	if cfg.GPS.ReportingInterval != 30 || !cfg.GPS.HighAccuracyMode {
		t.Errorf("device config = %d/%v, want 30/true", cfg.GPS.ReportingInterval, cfg.GPS.HighAccuracyMode)
	}
	if cfg.GPS.ProgressStrategy != "haversine" {
		t.Errorf("ProgressStrategy = %q", cfg.GPS.ProgressStrategy)
	}
	if cfg.RateLimit.DeviceRPS != 2 || cfg.RateLimit.DeviceBurst != 10 {
		t.Errorf("device rate limit = %v/%d, want default 2/10", cfg.RateLimit.DeviceRPS, cfg.RateLimit.DeviceBurst)
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT QoS = %d, want 2", cfg.MQTT.QoS)
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "cargo", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=cargo sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
