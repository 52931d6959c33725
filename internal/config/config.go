// Package config owns the daemon and client configuration surface.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Mode selects whether this process owns the serial endpoint or relays
// to one that does.
const (
	ModeServer = "server"
	ModeClient = "client"
)

type Config struct {
	Name string `toml:"name"`
	Mode string `toml:"mode"`

	Serial SerialConfig `toml:"serial"`
	Proxy  ProxyConfig  `toml:"proxy"`
	Base3  Base3Config  `toml:"base3"`
	Admin  AdminConfig  `toml:"admin"`
}

type SerialConfig struct {
	Device     string `toml:"device"`
	BaudRate   int    `toml:"baud_rate"`
	ThrottleMs int    `toml:"throttle_ms"`
	QueueDepth int    `toml:"queue_depth"`
}

type ProxyConfig struct {
	Port int `toml:"port"`
	// Server is the relay target in client mode.
	Server string `toml:"server"`
}

// Base3Config points at a network-attached command base emitting PDI.
type Base3Config struct {
	Addr string `toml:"addr"`
}

type AdminConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

func (c Config) Throttle() time.Duration {
	return time.Duration(c.Serial.ThrottleMs) * time.Millisecond
}

func Load(path string) (Config, error) {
	var cfg Config
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "legacyctl"
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeServer
	}
	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = 9600
	}
	if cfg.Serial.ThrottleMs == 0 {
		cfg.Serial.ThrottleMs = 30
	}
	if cfg.Proxy.Port == 0 {
		cfg.Proxy.Port = 5110
	}
	if cfg.Admin.Addr == "" {
		cfg.Admin.Addr = ":9110"
	}
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("config missing name")
	}
	switch cfg.Mode {
	case ModeServer:
		if strings.TrimSpace(cfg.Serial.Device) == "" {
			return fmt.Errorf("server mode requires serial.device")
		}
	case ModeClient:
		if strings.TrimSpace(cfg.Proxy.Server) == "" {
			return fmt.Errorf("client mode requires proxy.server")
		}
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeServer, ModeClient, cfg.Mode)
	}
	if cfg.Serial.ThrottleMs < 0 {
		return fmt.Errorf("serial.throttle_ms must not be negative")
	}
	if cfg.Proxy.Port < 0 || cfg.Proxy.Port > 65535 {
		return fmt.Errorf("proxy.port out of range: %d", cfg.Proxy.Port)
	}
	return nil
}
