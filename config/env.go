package config

import (
	"os"
	"strings"
)

// EnvModeKey is the environment variable selecting the config overlay.
const EnvModeKey = "GO_ENV_MODE"

// EnvMode names a deployment environment.
type EnvMode string

const (
	DevMode  EnvMode = "development"
	ProdMode EnvMode = "production"
	TestMode EnvMode = "test"
)

// ParseEnvMode accepts the common spellings; anything unknown is development.
func ParseEnvMode(env string) EnvMode {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProdMode
	case "test", "testing":
		return TestMode
	}
	return DevMode
}

// CurrentMode reads EnvModeKey from the environment.
func CurrentMode() EnvMode {
	return ParseEnvMode(os.Getenv(EnvModeKey))
}

// overlayNames lists the file base names to merge for mode, lowest
// priority first.
func overlayNames(base string, mode EnvMode) []string {
	names := []string{base, base + ".local"}
	var aliases []string
	switch mode {
	case DevMode:
		aliases = []string{"development", "dev"}
	case ProdMode:
		aliases = []string{"production", "prod"}
	case TestMode:
		aliases = []string{"test"}
	}
	for _, a := range aliases {
		names = append(names, base+"."+a, base+"."+a+".local")
	}
	return names
}
