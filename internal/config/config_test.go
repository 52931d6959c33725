package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[serial]
device = "/dev/ttyUSB0"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Name != "legacyctl" || cfg.Mode != ModeServer {
		t.Fatalf("defaults missing: name=%q mode=%q", cfg.Name, cfg.Mode)
	}
	if cfg.Serial.BaudRate != 9600 || cfg.Serial.ThrottleMs != 30 {
		t.Fatalf("serial defaults missing: %+v", cfg.Serial)
	}
	if cfg.Proxy.Port != 5110 || cfg.Admin.Addr != ":9110" {
		t.Fatalf("endpoint defaults missing: %+v %+v", cfg.Proxy, cfg.Admin)
	}
	if cfg.Throttle() != 30*time.Millisecond {
		t.Fatalf("throttle %v, want 30ms", cfg.Throttle())
	}
}

func TestLoadFullServerConfig(t *testing.T) {
	path := writeConfig(t, `
name = "layout-basement"
mode = "server"

[serial]
device = "/dev/ttyUSB1"
baud_rate = 19200
throttle_ms = 50
queue_depth = 64

[proxy]
port = 6200

[base3]
addr = "base3.local:50001"

[admin]
addr = ":9200"
cors_origins = ["http://layout.local"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyUSB1" || cfg.Serial.BaudRate != 19200 {
		t.Fatalf("serial section wrong: %+v", cfg.Serial)
	}
	if cfg.Throttle() != 50*time.Millisecond || cfg.Serial.QueueDepth != 64 {
		t.Fatalf("tuning wrong: %+v", cfg.Serial)
	}
	if cfg.Base3.Addr != "base3.local:50001" {
		t.Fatalf("base3 section wrong: %+v", cfg.Base3)
	}
	if len(cfg.Admin.CorsOrigins) != 1 || cfg.Admin.CorsOrigins[0] != "http://layout.local" {
		t.Fatalf("admin section wrong: %+v", cfg.Admin)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"server without device", `mode = "server"`},
		{"client without relay", `mode = "client"`},
		{"unknown mode", `mode = "standby"` + "\n[serial]\ndevice = \"/dev/ttyUSB0\""},
		{"negative throttle", "[serial]\ndevice = \"/dev/ttyUSB0\"\nthrottle_ms = -1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTemplatesValidate(t *testing.T) {
	for _, kind := range []string{"server", "client"} {
		t.Run(kind, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), kind+".toml")
			if err := WriteTemplate(path, kind, false); err != nil {
				t.Fatalf("write template failed: %v", err)
			}
			if _, err := Load(path); err != nil {
				t.Fatalf("generated %s template does not validate: %v", kind, err)
			}
			// Without force an existing file stays untouched.
			if err := WriteTemplate(path, kind, false); err == nil {
				t.Fatalf("expected overwrite refusal")
			}
			if err := WriteTemplate(path, kind, true); err != nil {
				t.Fatalf("forced overwrite failed: %v", err)
			}
		})
	}

	if _, err := Template("bogus"); err == nil {
		t.Fatalf("expected unknown template error")
	}
}
