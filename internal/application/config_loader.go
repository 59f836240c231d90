package application

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-rubric/internal/ports"
)

// ConfigLoader parses and validates engine configuration files.
// It is safe for concurrent use.
type ConfigLoader struct {
	// validator performs struct field validation with the custom engine
	// validation tags registered.
	validator *validator.Validate
}

// NewConfigLoader creates a loader with the engine validators registered.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := RegisterEngineValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &ConfigLoader{validator: v}, nil
}

// LoadFromFile reads and validates the configuration at path. A missing
// file is reported with ports.ErrConfigNotFound.
func (cl *ConfigLoader) LoadFromFile(path string) (EngineConfig, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return EngineConfig{}, ports.NewConfigError(cleanPath, ports.ErrConfigNotFound)
		}
		return EngineConfig{}, fmt.Errorf("failed to read file: %w", err)
	}

	cfg, err := cl.Parse(data)
	if err != nil {
		return EngineConfig{}, ports.NewConfigError(cleanPath, err)
	}
	return cfg, nil
}

// LoadFromReader reads all data from r and parses it like LoadFromFile.
func (cl *ConfigLoader) LoadFromReader(r io.Reader) (EngineConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read data: %w", err)
	}
	return cl.Parse(data)
}

// Parse decodes YAML over DefaultEngineConfig in strict mode, so unknown
// keys are rejected, and validates the result. Empty input yields the
// defaults.
func (cl *ConfigLoader) Parse(data []byte) (EngineConfig, error) {
	cfg := DefaultEngineConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return EngineConfig{}, fmt.Errorf("YAML decode failed: %w", err)
	}

	if err := cl.Validate(cfg); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Validate checks struct tags and pipeline semantics.
func (cl *ConfigLoader) Validate(cfg EngineConfig) error {
	if err := cl.validator.Struct(cfg); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}
	if err := validatePipelineSemantics(cfg.Pipeline); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}
	return nil
}

// Fingerprint returns a stable SHA-256 hex digest of the normalised
// configuration, logged with every report so outputs can be traced back
// to the settings that produced them.
func Fingerprint(cfg EngineConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}
