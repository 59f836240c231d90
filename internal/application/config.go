// Package application orchestrates report assembly: it loads engine
// configuration, builds the unit pipeline, loads session records, and runs
// report generation.
package application

import (
	"github.com/ahrav/go-rubric/infrastructure/schema"
	"github.com/ahrav/go-rubric/infrastructure/units"
	"github.com/ahrav/go-rubric/internal/domain"
)

// ConfigVersion is the engine configuration schema version written by
// DefaultEngineConfig.
const ConfigVersion = "1.0.0"

// EngineConfig is the complete engine configuration and the primary
// configuration entry point for the system. Files overlay
// DefaultEngineConfig; absent sections keep their defaults.
type EngineConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" json:"version" validate:"required,semver"`

	// Validator tunes the schema validator.
	Validator schema.Config `yaml:"validator" json:"validator"`

	// Assembler holds the report assembly options.
	Assembler AssemblerConfig `yaml:"assembler" json:"assembler"`

	// Batch controls concurrent report generation.
	Batch BatchConfig `yaml:"batch" json:"batch"`

	// Pipeline optionally replaces the default assembly steps. When empty,
	// DefaultPipeline(Assembler) is used.
	Pipeline []UnitConfig `yaml:"pipeline,omitempty" json:"pipeline,omitempty" validate:"omitempty,dive"`
}

// AssemblerConfig holds the report assembly options that feed the default
// pipeline.
type AssemblerConfig struct {
	// RequireBothAnalysts demands both analyst slots of every epoch.
	RequireBothAnalysts bool `yaml:"require_both_analysts" json:"require_both_analysts"`

	// DurationFallbackMinutes replaces a non-positive session duration for
	// the Alignment Rate. Zero disables the fallback.
	DurationFallbackMinutes float64 `yaml:"duration_fallback_minutes" json:"duration_fallback_minutes" validate:"min=0"`

	// EpochCombiner names the statistic that folds epoch values into the
	// session value: "order_statistic" or "mean".
	EpochCombiner string `yaml:"epoch_combiner" json:"epoch_combiner" validate:"required,combiner"`

	// ApertureModel names the Superintelligence Index topology.
	ApertureModel string `yaml:"aperture_model" json:"aperture_model" validate:"required,aperturemodel"`

	// IncludeNarrative copies analyst rationale into the report.
	IncludeNarrative bool `yaml:"include_narrative" json:"include_narrative"`
}

// BatchConfig controls GenerateBatch.
type BatchConfig struct {
	// Concurrency caps the number of reports generated at once.
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"min=1,max=256"`
}

// UnitConfig defines a single assembly step.
type UnitConfig struct {
	// ID is the unique identifier for this step within the pipeline.
	ID string `yaml:"id" json:"id" validate:"required,min=1,max=100"`

	// Type selects the unit implementation from the registry.
	Type string `yaml:"type" json:"type" validate:"required,unittype"`

	// Parameters contains type-specific configuration, decoded by the
	// unit's FromConfig constructor.
	Parameters map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// DefaultEngineConfig returns the strict, order-statistic configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Version:   ConfigVersion,
		Validator: schema.DefaultConfig(),
		Assembler: AssemblerConfig{
			RequireBothAnalysts:     true,
			DurationFallbackMinutes: 0,
			EpochCombiner:           domain.CombinerOrderStatistic,
			ApertureModel:           domain.K4ModelName,
			IncludeNarrative:        true,
		},
		Batch: BatchConfig{Concurrency: 4},
	}
}

// DefaultPipeline expands assembler options into the standard sequence of
// assembly steps.
func DefaultPipeline(cfg AssemblerConfig) []UnitConfig {
	return []UnitConfig{
		{
			ID:         "precondition",
			Type:       units.TypeSessionPrecondition,
			Parameters: map[string]any{"require_both_analysts": cfg.RequireBothAnalysts},
		},
		{ID: "aggregate", Type: units.TypeEpochAggregate},
		{ID: "quality", Type: units.TypeQualityIndex},
		{
			ID:         "superintelligence",
			Type:       units.TypeSuperintelligenceIndex,
			Parameters: map[string]any{"aperture_model": cfg.ApertureModel},
		},
		{
			ID:         "combine",
			Type:       units.TypeEpochCombine,
			Parameters: map[string]any{"combiner": cfg.EpochCombiner},
		},
		{
			ID:         "alignment",
			Type:       units.TypeAlignmentRate,
			Parameters: map[string]any{"duration_fallback_minutes": cfg.DurationFallbackMinutes},
		},
		{
			ID:         "report",
			Type:       units.TypeReport,
			Parameters: map[string]any{"include_narrative": cfg.IncludeNarrative},
		},
	}
}

// Steps returns the configured pipeline or the default one.
func (c EngineConfig) Steps() []UnitConfig {
	if len(c.Pipeline) > 0 {
		return c.Pipeline
	}
	return DefaultPipeline(c.Assembler)
}
