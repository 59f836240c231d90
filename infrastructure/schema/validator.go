// Package schema validates untrusted analyst output against the rubric
// contract and turns it into domain.AnalystEvaluation values.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
	"github.com/kaptinlin/jsonrepair"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.EvaluationValidator = (*Validator)(nil)

var validate = validator.New()

// Config tunes the validator. The zero value is the strict contract.
type Config struct {
	// RepairMalformed enables lenient parsing: when the document is not
	// valid JSON, the validator extracts the outermost object and attempts
	// a repair before giving up. A repaired document carries a warning.
	RepairMalformed bool `yaml:"repair_malformed" json:"repair_malformed" mapstructure:"repair_malformed"`

	// SuggestionDistance is the largest edit distance at which an unknown
	// pathology tag gets a "did you mean" hint. Zero disables hints.
	SuggestionDistance int `yaml:"suggestion_distance" json:"suggestion_distance" mapstructure:"suggestion_distance" validate:"min=0,max=10"`
}

// DefaultConfig returns the strict configuration with suggestions enabled.
func DefaultConfig() Config {
	return Config{
		RepairMalformed:    false,
		SuggestionDistance: 3,
	}
}

// Validator checks analyst evaluations. It holds no mutable state and is
// safe for concurrent use.
type Validator struct {
	config Config
}

// NewValidator creates a Validator with the given configuration.
func NewValidator(config Config) (*Validator, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("validator configuration invalid: %w", err)
	}
	return &Validator{config: config}, nil
}

// Validate parses raw analyst text and collects every contract violation.
// It never short-circuits after the document parses: all missing fields,
// out-of-range scores and bad pathology entries are reported together.
//
// Example:
//
//	res := v.Validate("```json\n{...}\n```", domain.CategoryFormal)
//	if !res.Valid {
//	    return res.Err()
//	}
func (v *Validator) Validate(raw string, category domain.Category) domain.ValidationResult {
	var warnings []string

	doc, err := decodeObject(stripFence(raw))
	if err != nil && v.config.RepairMalformed {
		if repaired, rerr := repairObject(raw); rerr == nil {
			doc, err = repaired, nil
			warnings = append(warnings, "document was not valid JSON and was repaired")
		}
	}
	if err != nil {
		return domain.NewValidationResult([]domain.SchemaIssue{{
			Kind:    domain.IssueMalformedInput,
			Message: err.Error(),
		}}, nil, warnings)
	}

	c := &collector{suggestionDistance: v.config.SuggestionDistance}
	eval := c.evaluation(doc, category)
	return domain.NewValidationResult(c.issues, eval, warnings)
}

// stripFence removes a Markdown code fence that wraps the whole document,
// with or without a language tag, and surrounding whitespace. Fences inside
// the document, such as code quoted in a rationale field, are kept.
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := text[3:]
	// Skip the language tag line, e.g. "json".
	if nl := strings.Index(body, "\n"); nl != -1 {
		tag := strings.TrimSpace(body[:nl])
		if tag == "" || !strings.ContainsAny(tag, "{[") {
			body = body[nl+1:]
		}
	}
	if end := strings.LastIndex(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// decodeObject parses text as a single JSON object, keeping numbers exact.
func decodeObject(text string) (map[string]any, error) {
	if text == "" {
		return nil, errors.New("empty document")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: unexpected data after the top-level value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level value must be a JSON object, got %s", jsonKind(v))
	}
	return obj, nil
}

// repairObject locates the outermost object in raw and asks jsonrepair to
// fix it.
func repairObject(raw string) (map[string]any, error) {
	text := stripFence(raw)
	if start := strings.Index(text, "{"); start != -1 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		} else {
			text = text[start:]
		}
	}

	fixed, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("repair failed: %w", err)
	}
	return decodeObject(fixed)
}

// collector accumulates issues while walking a decoded document.
type collector struct {
	issues             []domain.SchemaIssue
	suggestionDistance int
}

func (c *collector) add(kind domain.IssueKind, field string, value any, msg string) {
	issue := domain.SchemaIssue{Kind: kind, Field: field, Message: msg}
	if value != nil {
		issue.Value = jsonText(value)
	}
	c.issues = append(c.issues, issue)
}

func (c *collector) evaluation(doc map[string]any, category domain.Category) *domain.AnalystEvaluation {
	checkSpecialization := category != ""
	if checkSpecialization && !category.Valid() {
		c.add(domain.IssueMalformedInput, "", nil,
			fmt.Sprintf("unknown challenge category %q; specialization scores cannot be checked", category))
		checkSpecialization = false
	}

	for _, field := range domain.RequiredTopLevelFields {
		if _, ok := doc[field]; !ok {
			c.add(domain.IssueMissingField, field, nil, "required field is missing")
		}
	}

	eval := &domain.AnalystEvaluation{
		StructureScores:      map[string]float64{},
		BehaviorScores:       domain.BehaviorScores{},
		SpecializationScores: map[string]float64{},
		Pathologies:          []domain.Pathology{},
	}

	if group, ok := c.group(doc, domain.FieldStructureScores); ok {
		for _, name := range domain.StructureFields {
			if s, ok := c.requiredScore(group, domain.FieldStructureScores, name); ok {
				eval.StructureScores[name] = s
			}
		}
	}

	if group, ok := c.group(doc, domain.FieldBehaviorScores); ok {
		for _, name := range domain.BehaviorFields {
			if bs, ok := c.behaviorScore(group, name); ok {
				eval.BehaviorScores[name] = bs
			}
		}
	}

	if group, ok := c.group(doc, domain.FieldSpecializationScores); ok {
		if checkSpecialization {
			required := category.SpecializationFields()
			for _, name := range required {
				if s, ok := c.requiredScore(group, domain.FieldSpecializationScores, name); ok {
					eval.SpecializationScores[name] = s
				}
			}
			for _, name := range slices.Sorted(maps.Keys(group)) {
				if !slices.Contains(required, name) {
					c.add(domain.IssueUnexpectedField, domain.FieldSpecializationScores+"."+name, nil,
						fmt.Sprintf("category %s expects only %s", category, strings.Join(required, " and ")))
				}
			}
		} else {
			for _, name := range slices.Sorted(maps.Keys(group)) {
				if s, ok := c.score(domain.FieldSpecializationScores+"."+name, group[name]); ok {
					eval.SpecializationScores[name] = s
				}
			}
		}
	}

	if raw, ok := doc[domain.FieldPathologies]; ok {
		eval.Pathologies = c.pathologies(raw)
	}

	eval.Strengths = text(doc[domain.FieldStrengths])
	eval.Weaknesses = text(doc[domain.FieldWeaknesses])
	eval.Insights = text(doc[domain.FieldInsights])
	return eval
}

// group returns a score group object. A present but non-object group is a
// structural error of the whole document.
func (c *collector) group(doc map[string]any, name string) (map[string]any, bool) {
	raw, ok := doc[name]
	if !ok {
		return nil, false
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		c.add(domain.IssueMalformedInput, name, raw,
			fmt.Sprintf("must be a JSON object, got %s", jsonKind(raw)))
		return nil, false
	}
	return obj, true
}

func (c *collector) requiredScore(group map[string]any, groupName, name string) (float64, bool) {
	path := groupName + "." + name
	raw, ok := group[name]
	if !ok {
		c.add(domain.IssueMissingField, path, nil, "required field is missing")
		return 0, false
	}
	return c.score(path, raw)
}

// score checks that raw is a number in the rubric range.
func (c *collector) score(path string, raw any) (float64, bool) {
	f, ok := number(raw)
	if !ok {
		c.add(domain.IssueScoreOutOfRange, path, raw,
			fmt.Sprintf("must be a number, got %s", jsonKind(raw)))
		return 0, false
	}
	if !domain.InScoreRange(f) {
		c.add(domain.IssueScoreOutOfRange, path, raw,
			fmt.Sprintf("must be between %g and %g", domain.MinScore, domain.MaxScore))
		return 0, false
	}
	return f, true
}

func (c *collector) behaviorScore(group map[string]any, name string) (domain.BehaviorScore, bool) {
	path := domain.FieldBehaviorScores + "." + name
	raw, ok := group[name]
	if !ok {
		c.add(domain.IssueMissingField, path, nil, "required field is missing")
		return domain.BehaviorScore{}, false
	}
	if _, numeric := number(raw); !numeric && domain.IsOptionalBehavior(name) {
		return domain.NA(), true
	}
	s, ok := c.score(path, raw)
	if !ok {
		return domain.BehaviorScore{}, false
	}
	return domain.Score(s), true
}

func (c *collector) pathologies(raw any) []domain.Pathology {
	items, ok := raw.([]any)
	if !ok {
		c.add(domain.IssueInvalidPathology, domain.FieldPathologies, raw,
			fmt.Sprintf("must be an array of strings, got %s", jsonKind(raw)))
		return []domain.Pathology{}
	}

	out := make([]domain.Pathology, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s[%d]", domain.FieldPathologies, i)
		tag, ok := item.(string)
		if !ok {
			c.add(domain.IssueInvalidPathology, path, item,
				fmt.Sprintf("must be a string, got %s", jsonKind(item)))
			continue
		}
		p := domain.Pathology(tag)
		if !p.Valid() {
			c.add(domain.IssueInvalidPathology, path, item, c.unknownPathologyMessage(tag))
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *collector) unknownPathologyMessage(tag string) string {
	msg := fmt.Sprintf("unknown pathology %q", tag)
	if s, ok := suggest(tag, c.suggestionDistance); ok {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return msg
}

// suggest returns the vocabulary tag closest to tag when it lies within
// maxDistance edits.
func suggest(tag string, maxDistance int) (domain.Pathology, bool) {
	if maxDistance <= 0 {
		return "", false
	}
	lowered := strings.ToLower(strings.TrimSpace(tag))

	var best domain.Pathology
	bestDistance := maxDistance + 1
	for _, p := range domain.Pathologies() {
		if d := levenshtein.ComputeDistance(lowered, string(p)); d < bestDistance {
			best, bestDistance = p, d
		}
	}
	return best, bestDistance <= maxDistance
}

// number converts a decoded JSON number.
func number(raw any) (float64, bool) {
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// text passes strings through and renders any other value as JSON text.
func text(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return jsonText(v)
	}
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
