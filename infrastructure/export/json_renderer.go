// Package export serialises finished reports for external consumers.
// JSON output is checked against the embedded report schema before it is
// written; text output is meant for terminals.
package export

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

//go:embed report.schema.json
var reportSchemaJSON string

const reportSchemaName = "report.schema.json"

// schemaPrinter formats schema validation messages.
var schemaPrinter = message.NewPrinter(language.English)

// reportSchema is the compiled schema every JSON report must satisfy.
var reportSchema = mustCompileSchema(reportSchemaJSON, reportSchemaName)

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

var _ ports.ReportRenderer = (*JSONRenderer)(nil)

// JSONRenderer writes reports as JSON documents.
type JSONRenderer struct {
	// Indent pretty-prints the document with two-space indentation.
	Indent bool
}

// Format implements ports.ReportRenderer.
func (r JSONRenderer) Format() string { return "json" }

// Render implements ports.ReportRenderer. Nothing is written when the
// report does not satisfy the schema; the error wraps
// ports.ErrSchemaViolation and lists every violation.
func (r JSONRenderer) Render(w io.Writer, report *domain.Report) error {
	if report == nil {
		return fmt.Errorf("render json: %w", domain.ErrInvalidState)
	}

	var (
		data []byte
		err  error
	)
	if r.Indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}

	if violations := ValidateReportJSON(data); len(violations) > 0 {
		return fmt.Errorf("render json: %w: %s", ports.ErrSchemaViolation, strings.Join(violations, "; "))
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	return nil
}

// ValidateReportJSON checks a serialised report against the report schema
// and returns one message per violation, located by JSON pointer.
func ValidateReportJSON(data []byte) []string {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("/: invalid JSON: %v", err)}
	}

	err := reportSchema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var violations []string
	collectViolations(ve, &violations)
	return violations
}

func collectViolations(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		*out = append(*out, fmt.Sprintf("/%s: %s",
			strings.Join(ve.InstanceLocation, "/"), ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectViolations(c, out)
	}
}
