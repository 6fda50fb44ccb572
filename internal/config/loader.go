package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "FRB_VIEWER_"
	envConfigFile = "FRB_VIEWER_CONFIG"
	envDotenvFile = "FRB_VIEWER_ENV_FILE"
)

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. a .env file (FRB_VIEWER_ENV_FILE, else ./.env when present); it only
//     fills variables that are not already set
//  3. YAML file if FRB_VIEWER_CONFIG is set
//  4. env (prefix FRB_VIEWER_, "__" separates nested keys)
//
// CHIME_PATH_ROOT, CHIME_HOST_ROOT and FRB_VIEWER_PORT are honoured for the
// active source and the listen address when nothing more specific is set.
func Load(_ context.Context) (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// FRB_VIEWER_CLIENT__BASE_URL -> client.base_url
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// decoding mutates the map shared with base, so merge from fresh defaults
	cfg.Sources = mergeSources(New().Sources, cfg.Sources)
	applyLegacyEnv(k, &cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotenv() error {
	path := os.Getenv(envDotenvFile)
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
}

// mergeSources fills fields a layer left empty from the default source of the
// same name; koanf replaces map values wholesale.
func mergeSources(defaults, loaded map[string]SourceConfig) map[string]SourceConfig {
	out := make(map[string]SourceConfig, len(loaded))
	for name, src := range loaded {
		if def, ok := defaults[name]; ok {
			if src.IndexPath == "" {
				src.IndexPath = def.IndexPath
			}
			if src.PathTablePath == "" {
				src.PathTablePath = def.PathTablePath
			}
		}
		out[name] = src
	}
	return out
}

func applyLegacyEnv(k *koanf.Koanf, cfg *Config) {
	if port := k.String("port"); port != "" && !k.Exists("addr") {
		cfg.Addr = ":" + port
	}

	src, ok := cfg.Sources[cfg.ActiveSource]
	if !ok {
		return
	}
	if v := os.Getenv("CHIME_PATH_ROOT"); v != "" && src.PathRoot == "" {
		src.PathRoot = v
	}
	if v := os.Getenv("CHIME_HOST_ROOT"); v != "" && src.HostRoot == "" {
		src.HostRoot = v
	}
	cfg.Sources[cfg.ActiveSource] = src
}
