package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"CuciKilat POS"`
	}

	API struct {
		BaseURL string        `envconfig:"API_URL" default:"http://localhost:8000/api/v1"`
		Timeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
	}

	Credentials struct {
		// File holding the persisted session tokens. Empty means a
		// default under the user config dir.
		File string `envconfig:"CREDENTIALS_FILE"`
	}

	Mock struct {
		Port      int    `envconfig:"MOCK_PORT" default:"8000"`
		JWTSecret string `envconfig:"MOCK_JWT_SECRET" default:"cucikilat-dev-secret"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Credentials.File == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving user config dir: %w", err)
		}

		cfg.Credentials.File = filepath.Join(dir, "cucikilat", "credentials.json")
	}

	return &cfg, nil
}
