package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "client":
		return clientTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `name = "legacyctl"
mode = "server"

[serial]
device = "/dev/ttyUSB0"
baud_rate = 9600
throttle_ms = 30

[proxy]
port = 5110

# Uncomment to stream PDI from a network-attached command base.
# [base3]
# addr = "base3.local:50001"

[admin]
addr = ":9110"
cors_origins = ["http://localhost:3000"]
`

const clientTemplate = `name = "legacyctl-client"
mode = "client"

[proxy]
server = "trainpi.local:5110"
`
