package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/recembed/core"
)

// DefaultAPIKeyEnv is the environment variable holding the service credential.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// LoadEnv loads variables from .env files into the process environment.
// With no arguments it reads ./.env. Missing files are ignored; variables
// already set in the environment win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// APIKey reads the credential from the variable named by api_key_env.
// A missing or blank value fails with core.ErrMissingCredential.
func (e EmbedderConfig) APIKey() (string, error) {
	name := e.APIKeyEnv
	if name == "" {
		name = DefaultAPIKeyEnv
	}
	key := strings.TrimSpace(os.Getenv(name))
	if key == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", core.ErrMissingCredential, name)
	}
	return key, nil
}
