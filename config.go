package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const defaultConfigFileName = ".docstrip.yaml"

type FileConfig struct {
	Version        int      `json:"version" yaml:"version"`
	BatchSize      int      `json:"batch_size" yaml:"batch_size"`
	Extensions     []string `json:"extensions" yaml:"extensions"`
	Exclude        []string `json:"exclude" yaml:"exclude"`
	Cache          bool     `json:"cache" yaml:"cache"`
	SkipGitIgnored bool     `json:"skip_gitignored" yaml:"skip_gitignored"`
	Report         string   `json:"report" yaml:"report"`
}

const configSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "const": 1},
    "batch_size": {"type": "integer", "minimum": 1},
    "extensions": {
      "type": "array",
      "items": {"type": "string", "pattern": "^\\.[A-Za-z0-9_+-]+$"}
    },
    "exclude": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "cache": {"type": "boolean"},
    "skip_gitignored": {"type": "boolean"},
    "report": {"type": "string"}
  }
}`

// loadConfig reads the config at path. An empty path falls back to
// .docstrip.yaml in the working directory, and to defaults when that is
// missing too.
func loadConfig(path string) (*FileConfig, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigFileName); errors.Is(err, os.ErrNotExist) {
			cfg := &FileConfig{}
			applyConfigDefaults(cfg)
			return cfg, nil
		}
		path = defaultConfigFileName
	}

	cfg, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func loadConfigFile(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	isJSON := strings.ToLower(filepath.Ext(path)) == ".json"
	if err := validateConfigDocument(b, isJSON); err != nil {
		return nil, err
	}

	var cfg FileConfig
	if isJSON {
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, err
		}
	}

	applyConfigDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyConfigDefaults(cfg *FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	for i, ext := range cfg.Extensions {
		cfg.Extensions[i] = strings.ToLower(ext)
	}
}

func validateConfig(cfg *FileConfig) error {
	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("exclude: invalid pattern %q", pattern)
		}
	}
	return nil
}

// validateConfigDocument checks the raw document against configSchema. YAML
// is normalized through JSON so the validator sees JSON value types.
func validateConfigDocument(b []byte, isJSON bool) error {
	var doc any
	if isJSON {
		if err := json.Unmarshal(b, &doc); err != nil {
			return err
		}
	} else {
		var raw any
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return err
		}
		normalized, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("config must be a mapping with string keys: %w", err)
		}
		if err := json.Unmarshal(normalized, &doc); err != nil {
			return err
		}
	}

	// An empty file decodes to null and means "all defaults"
	if doc == nil {
		doc = map[string]any{}
	}

	schema, err := compileConfigSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func compileConfigSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource("config.schema.json", strings.NewReader(configSchema)); err != nil {
		return nil, err
	}
	return c.Compile("config.schema.json")
}
