package application

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/infrastructure/units"
	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

func newTestLoader(t *testing.T) *ConfigLoader {
	t.Helper()
	loader, err := NewConfigLoader()
	require.NoError(t, err)
	return loader
}

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()

	assert.Equal(t, ConfigVersion, cfg.Version)
	assert.True(t, cfg.Assembler.RequireBothAnalysts)
	assert.Equal(t, domain.CombinerOrderStatistic, cfg.Assembler.EpochCombiner)
	assert.Equal(t, domain.K4ModelName, cfg.Assembler.ApertureModel)
	assert.Zero(t, cfg.Assembler.DurationFallbackMinutes)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.NoError(t, newTestLoader(t).Validate(cfg))

	steps := cfg.Steps()
	require.Len(t, steps, 7)
	assert.Equal(t, units.TypeSessionPrecondition, steps[0].Type)
	assert.Equal(t, units.TypeReport, steps[6].Type)
	assert.Equal(t, true, steps[0].Parameters["require_both_analysts"])
	assert.Equal(t, domain.CombinerOrderStatistic, steps[4].Parameters["combiner"])
}

func TestEngineConfig_Steps(t *testing.T) {
	custom := []UnitConfig{
		{ID: "pre", Type: units.TypeSessionPrecondition},
		{ID: "out", Type: units.TypeReport},
	}
	cfg := DefaultEngineConfig()
	cfg.Pipeline = custom
	assert.Equal(t, custom, cfg.Steps())
}

func TestConfigLoader_Parse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
		verify  func(t *testing.T, cfg EngineConfig)
	}{
		{
			name: "empty document yields defaults",
			yaml: "",
			verify: func(t *testing.T, cfg EngineConfig) {
				assert.Equal(t, DefaultEngineConfig(), cfg)
			},
		},
		{
			name: "partial document overlays defaults",
			yaml: `
version: "1.2.0"
assembler:
  epoch_combiner: mean
  duration_fallback_minutes: 15
batch:
  concurrency: 8
`,
			verify: func(t *testing.T, cfg EngineConfig) {
				assert.Equal(t, "1.2.0", cfg.Version)
				assert.Equal(t, domain.CombinerMean, cfg.Assembler.EpochCombiner)
				assert.Equal(t, 15.0, cfg.Assembler.DurationFallbackMinutes)
				assert.Equal(t, domain.K4ModelName, cfg.Assembler.ApertureModel)
				assert.True(t, cfg.Assembler.IncludeNarrative)
				assert.Equal(t, 8, cfg.Batch.Concurrency)
				assert.Equal(t, 3, cfg.Validator.SuggestionDistance)
			},
		},
		{
			name: "validator section",
			yaml: `
validator:
  repair_malformed: true
  suggestion_distance: 0
`,
			verify: func(t *testing.T, cfg EngineConfig) {
				assert.True(t, cfg.Validator.RepairMalformed)
				assert.Zero(t, cfg.Validator.SuggestionDistance)
			},
		},
		{
			name: "custom pipeline",
			yaml: `
pipeline:
  - id: pre
    type: session_precondition
    parameters:
      require_both_analysts: false
  - id: agg
    type: epoch_aggregate
  - id: qi
    type: quality_index
  - id: combine
    type: epoch_combine
  - id: ar
    type: alignment_rate
  - id: out
    type: report
`,
			verify: func(t *testing.T, cfg EngineConfig) {
				require.Len(t, cfg.Steps(), 6)
				assert.Equal(t, false, cfg.Pipeline[0].Parameters["require_both_analysts"])
			},
		},
		{
			name:    "unknown key rejected",
			yaml:    "assembler:\n  combiner: mean\n",
			wantErr: "YAML decode failed",
		},
		{
			name:    "malformed yaml",
			yaml:    "version: [1.0.0\n",
			wantErr: "YAML decode failed",
		},
		{
			name:    "bad version",
			yaml:    `version: "v1"`,
			wantErr: "semver",
		},
		{
			name:    "unknown combiner",
			yaml:    "assembler:\n  epoch_combiner: median\n",
			wantErr: "combiner",
		},
		{
			name:    "unknown aperture model",
			yaml:    "assembler:\n  aperture_model: octahedron\n",
			wantErr: "aperturemodel",
		},
		{
			name:    "negative fallback",
			yaml:    "assembler:\n  duration_fallback_minutes: -1\n",
			wantErr: "min",
		},
		{
			name:    "zero concurrency",
			yaml:    "batch:\n  concurrency: 0\n",
			wantErr: "min",
		},
		{
			name:    "suggestion distance out of range",
			yaml:    "validator:\n  suggestion_distance: 11\n",
			wantErr: "max",
		},
		{
			name: "unknown unit type",
			yaml: `
pipeline:
  - id: pre
    type: llm_judge
`,
			wantErr: "unittype",
		},
		{
			name: "pipeline without precondition",
			yaml: `
pipeline:
  - id: qi
    type: quality_index
  - id: out
    type: report
`,
			wantErr: "must start with a session_precondition step",
		},
		{
			name: "pipeline without report",
			yaml: `
pipeline:
  - id: pre
    type: session_precondition
  - id: qi
    type: quality_index
`,
			wantErr: "must end with a report step",
		},
		{
			name: "duplicate step IDs",
			yaml: `
pipeline:
  - id: step
    type: session_precondition
  - id: step
    type: report
`,
			wantErr: `duplicate step ID "step"`,
		},
		{
			name: "repeated report step",
			yaml: `
pipeline:
  - id: pre
    type: session_precondition
  - id: early
    type: report
  - id: out
    type: report
`,
			wantErr: "may each appear only once",
		},
	}

	loader := newTestLoader(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loader.Parse([]byte(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}

func TestConfigLoader_LoadFromFile(t *testing.T) {
	loader := newTestLoader(t)

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.yaml")
		require.NoError(t, os.WriteFile(path, []byte("assembler:\n  require_both_analysts: false\n"), 0o600))

		cfg, err := loader.LoadFromFile(path)
		require.NoError(t, err)
		assert.False(t, cfg.Assembler.RequireBothAnalysts)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.ErrorIs(t, err, ports.ErrConfigNotFound)

		var cfgErr *ports.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.True(t, strings.HasSuffix(cfgErr.ConfigKey, "absent.yaml"))
	})

	t.Run("invalid contents carry the path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("batch:\n  concurrency: 1000\n"), 0o600))

		_, err := loader.LoadFromFile(path)
		var cfgErr *ports.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, path, cfgErr.ConfigKey)
	})
}

func TestConfigLoader_LoadFromReader(t *testing.T) {
	cfg, err := newTestLoader(t).LoadFromReader(strings.NewReader("assembler:\n  include_narrative: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Assembler.IncludeNarrative)
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint(DefaultEngineConfig())
	require.NoError(t, err)
	b, err := Fingerprint(DefaultEngineConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	changed := DefaultEngineConfig()
	changed.Assembler.EpochCombiner = domain.CombinerMean
	c, err := Fingerprint(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
