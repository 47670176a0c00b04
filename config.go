package debugbar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/evan-idocoding/debugbar/toolbar"
)

// LoadConfig builds the toolbar configuration from, in increasing priority:
//   - toolbar.DefaultConfig;
//   - the YAML file at path, when path is not empty (unknown keys are errors);
//   - DEBUGBAR_* environment variables.
//
// The result is validated.
func LoadConfig(path string) (toolbar.Config, error) {
	return loadConfig(path, env.Options{})
}

func loadConfig(path string, envOpts env.Options) (toolbar.Config, error) {
	cfg := toolbar.DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return toolbar.Config{}, fmt.Errorf("debugbar: read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return toolbar.Config{}, fmt.Errorf("debugbar: parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return toolbar.Config{}, fmt.Errorf("debugbar: config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return toolbar.Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *toolbar.Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
