// Package production provides production integrations: definition
// persistence, telemetry publishing and visualization.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/hybridx/internal/primitives"
)

// Persister stores automaton definitions by name.
type Persister interface {
	Save(ctx context.Context, cfg *primitives.AutomatonConfig) error
	Load(ctx context.Context, name string) (*primitives.AutomatonConfig, error)
}

// JSONPersister is a file-based persister using JSON serialization.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, cfg *primitives.AutomatonConfig) error {
	return save(ctx, filepath.Join(p.dir, cfg.Name+".json"), cfg)
}

func (p *JSONPersister) Load(ctx context.Context, name string) (*primitives.AutomatonConfig, error) {
	return load(ctx, filepath.Join(p.dir, name+".json"))
}

// YAMLPersister is a file-based persister using YAML serialization.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, cfg *primitives.AutomatonConfig) error {
	return save(ctx, filepath.Join(p.dir, cfg.Name+".yaml"), cfg)
}

func (p *YAMLPersister) Load(ctx context.Context, name string) (*primitives.AutomatonConfig, error) {
	return load(ctx, filepath.Join(p.dir, name+".yaml"))
}

// Encode serializes cfg in the format implied by ext (".json", ".yaml" or
// ".yml").
func Encode(cfg *primitives.AutomatonConfig, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json marshal: %w", err)
		}
		return data, nil
	case ".yaml", ".yml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("yaml marshal: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported definition format %q", ext)
	}
}

// Decode parses and validates a definition in the format implied by ext.
func Decode(data []byte, ext string) (*primitives.AutomatonConfig, error) {
	var cfg primitives.AutomatonConfig
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported definition format %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation after load: %w", err)
	}
	return &cfg, nil
}

// LoadFile reads the definition at path.
func LoadFile(path string) (*primitives.AutomatonConfig, error) {
	return load(context.Background(), path)
}

// SaveFile writes cfg to path.
func SaveFile(path string, cfg *primitives.AutomatonConfig) error {
	return save(context.Background(), path, cfg)
}

func save(ctx context.Context, fn string, cfg *primitives.AutomatonConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(cfg, filepath.Ext(fn))
	if err != nil {
		return err
	}
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func load(ctx context.Context, fn string) (*primitives.AutomatonConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("definition %q: %w", fn, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", fn, err)
	}
	return Decode(data, filepath.Ext(fn))
}
