package domain

import "slices"

// ValidationResult is the outcome of validating one analyst evaluation blob.
type ValidationResult struct {
	// Valid is true when no issues were found.
	Valid bool `json:"valid"`

	// Parsed holds the evaluation; it is set only when Valid is true.
	Parsed *AnalystEvaluation `json:"parsed,omitempty"`

	// Errors renders every issue as text, in discovery order.
	Errors []string `json:"errors"`

	// Warnings lists non-fatal notes, such as a repaired document.
	Warnings []string `json:"warnings,omitempty"`

	issues []SchemaIssue
}

// NewValidationResult builds a result from the collected issues. parsed is
// dropped when any issue exists.
func NewValidationResult(issues []SchemaIssue, parsed *AnalystEvaluation, warnings []string) ValidationResult {
	res := ValidationResult{
		Valid:    len(issues) == 0,
		Errors:   make([]string, 0, len(issues)),
		Warnings: warnings,
		issues:   slices.Clone(issues),
	}
	for _, issue := range issues {
		res.Errors = append(res.Errors, issue.Error())
	}
	if res.Valid {
		res.Parsed = parsed
	}
	return res
}

// Issues returns the typed issues behind Errors.
func (r ValidationResult) Issues() []SchemaIssue { return slices.Clone(r.issues) }

// Err returns a *ValidationError carrying every issue, or nil when valid.
func (r ValidationResult) Err() error {
	if len(r.issues) == 0 {
		return nil
	}
	verr := NewValidationError("AnalystEvaluation")
	for _, issue := range r.issues {
		verr.AddIssue(issue)
	}
	return verr
}

// HasKind reports whether any issue is of the given kind.
func (r ValidationResult) HasKind(kind IssueKind) bool {
	return slices.ContainsFunc(r.issues, func(i SchemaIssue) bool { return i.Kind == kind })
}
