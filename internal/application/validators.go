package application

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-rubric/infrastructure/units"
	"github.com/ahrav/go-rubric/internal/domain"
)

// unitTypes lists the unit types a pipeline configuration may reference.
var unitTypes = []string{
	units.TypeSessionPrecondition,
	units.TypeEpochAggregate,
	units.TypeQualityIndex,
	units.TypeSuperintelligenceIndex,
	units.TypeEpochCombine,
	units.TypeAlignmentRate,
	units.TypeReport,
}

// RegisterEngineValidators registers the custom validation tags used by
// EngineConfig: semver, combiner, aperturemodel and unittype.
// RegisterEngineValidators returns an error if any registration fails.
func RegisterEngineValidators(v *validator.Validate) error {
	validations := map[string]validator.Func{
		"semver":        validateSemver,
		"combiner":      validateCombiner,
		"aperturemodel": validateApertureModel,
		"unittype":      validateUnitType,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

// validateSemver accepts X.Y.Z where X, Y and Z are numbers.
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3 && fmt.Sprintf("%d.%d.%d", major, minor, patch) == value
}

func validateCombiner(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	_, err := domain.NewCombiner(name)
	return err == nil
}

func validateApertureModel(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	_, err := domain.NewApertureModel(name)
	return err == nil
}

func validateUnitType(fl validator.FieldLevel) bool {
	return slices.Contains(unitTypes, fl.Field().String())
}

// validatePipelineSemantics checks rules struct tags cannot express: step
// IDs are unique, and a custom pipeline starts with the session
// precondition and ends with the report step.
func validatePipelineSemantics(steps []UnitConfig) error {
	if len(steps) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("duplicate step ID %q", step.ID)
		}
		seen[step.ID] = struct{}{}
	}

	if steps[0].Type != units.TypeSessionPrecondition {
		return fmt.Errorf("pipeline must start with a %s step, got %s", units.TypeSessionPrecondition, steps[0].Type)
	}
	if last := steps[len(steps)-1]; last.Type != units.TypeReport {
		return fmt.Errorf("pipeline must end with a %s step, got %s", units.TypeReport, last.Type)
	}
	for _, step := range steps[1 : len(steps)-1] {
		if step.Type == units.TypeReport || step.Type == units.TypeSessionPrecondition {
			return errors.New("session_precondition and report may each appear only once")
		}
	}
	return nil
}
