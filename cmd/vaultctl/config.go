package main

import (
	"os"
	"path/filepath"
	"strings"
)

// cliConfig is read from VAULT_* variables.
type cliConfig struct {
	Dir      string `env:"DIR"`                              // State directory for the file backend (default ~/.vault)
	Store    string `env:"STORE" envDefault:"file"`          // Auth record backend: file, memory, redis, postgres
	Docs     string `env:"DOCS" envDefault:"local"`          // Sealed item backend: local, memory, mongo, s3
	Env      string `env:"ENV" envDefault:"development"`     // Logger preset
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`      // debug, info, warn, error
	Issuer   string `env:"ISSUER" envDefault:"Ledgy"`        // Shown in authenticator apps
	Account  string `env:"ACCOUNT_LABEL" envDefault:"vault"` // Account label in the provisioning URI
}

func (c cliConfig) stateDir() (string, error) {
	dir := c.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".vault"), nil
	}
	if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, rest), nil
	}
	return dir, nil
}
