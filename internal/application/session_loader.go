package application

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

// Session record formats accepted by SessionLoader.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// SessionRecord is the on-disk form of a session. Analyst slots carry the
// raw analyst text, which is validated before it becomes an evaluation.
type SessionRecord struct {
	ID       string        `json:"id" yaml:"id" validate:"required"`
	Category string        `json:"category" yaml:"category" validate:"required"`
	Epochs   []EpochRecord `json:"epochs" yaml:"epochs" validate:"len=2,dive"`
}

// EpochRecord is one epoch of a SessionRecord.
type EpochRecord struct {
	Complete        bool            `json:"complete" yaml:"complete"`
	DurationMinutes float64         `json:"duration_minutes" yaml:"duration_minutes"`
	Turns           int             `json:"turns" yaml:"turns" validate:"min=0"`
	Analysts        []AnalystRecord `json:"analysts" yaml:"analysts" validate:"max=2,dive"`
}

// AnalystRecord is one analyst slot. An empty Status means "complete" when
// Output is present and "pending" otherwise.
type AnalystRecord struct {
	Status string `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=pending complete failed"`
	Model  string `json:"model,omitempty" yaml:"model,omitempty"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// SessionLoader decodes session records and validates the analyst output
// they carry. It is safe for concurrent use.
type SessionLoader struct {
	evaluations ports.EvaluationValidator
	validate    *validator.Validate
	logger      *slog.Logger
	metrics     ports.MetricsCollector
}

// NewSessionLoader creates a loader. logger defaults to slog.Default() and
// metrics may be nil.
func NewSessionLoader(
	evaluations ports.EvaluationValidator,
	logger *slog.Logger,
	metrics ports.MetricsCollector,
) *SessionLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionLoader{
		evaluations: evaluations,
		validate:    validator.New(),
		logger:      logger,
		metrics:     metrics,
	}
}

// FormatFromPath infers the record format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: session record %s", ports.ErrUnsupportedFormat, path)
	}
}

// LoadFile reads the session record at path; the format follows the file
// extension.
func (l *SessionLoader) LoadFile(path string) (domain.Session, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return domain.Session{}, err
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to open session record: %w", err)
	}
	defer func() { _ = f.Close() }()

	return l.load(f, format, path)
}

// Load decodes a session record from r in the given format.
func (l *SessionLoader) Load(r io.Reader, format string) (domain.Session, error) {
	return l.load(r, format, "<reader>")
}

func (l *SessionLoader) load(r io.Reader, format, path string) (domain.Session, error) {
	record, err := decodeRecord(r, format)
	if err != nil {
		return domain.Session{}, ports.NewRecordError(path, "", err)
	}
	if err := l.validate.Struct(record); err != nil {
		return domain.Session{}, ports.NewRecordError(path, "", fmt.Errorf("%w: %v", domain.ErrMalformedInput, err))
	}
	return l.build(record, path)
}

// decodeRecord rejects unknown fields in both formats.
func decodeRecord(r io.Reader, format string) (SessionRecord, error) {
	var record SessionRecord
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&record); err != nil {
			return record, fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
		}
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return record, fmt.Errorf("failed to read session record: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&record); err != nil {
			return record, fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
		}
	default:
		return record, fmt.Errorf("%w: %q", ports.ErrUnsupportedFormat, format)
	}
	return record, nil
}

// build validates every analyst output and assembles the domain session.
// All invalid slots are reported together, each as a *ports.RecordError
// naming the slot.
func (l *SessionLoader) build(record SessionRecord, path string) (domain.Session, error) {
	category, err := domain.ParseCategory(record.Category)
	if err != nil {
		return domain.Session{}, ports.NewRecordError(path, "category", err)
	}

	session := domain.Session{ID: record.ID, Category: category}
	var errs []error

	for e, epoch := range record.Epochs {
		session.Epochs[e] = domain.Epoch{
			Complete:        epoch.Complete,
			DurationMinutes: epoch.DurationMinutes,
			Turns:           epoch.Turns,
		}
		for a, analyst := range epoch.Analysts {
			slotName := domain.SlotName(e, a)
			slot, err := l.slot(analyst, category, slotName)
			if err != nil {
				errs = append(errs, ports.NewRecordError(path, slotName, err))
				continue
			}
			session.Epochs[e].Analysts[a] = slot
		}
	}

	if len(errs) > 0 {
		return domain.Session{}, errors.Join(errs...)
	}

	l.logger.Debug("session record loaded",
		"session_id", session.ID,
		"category", session.Category,
		"path", path,
	)
	return session, nil
}

func (l *SessionLoader) slot(analyst AnalystRecord, category domain.Category, slotName string) (domain.AnalystSlot, error) {
	status := domain.SlotStatus(analyst.Status)
	if status == "" {
		status = domain.SlotPending
		if strings.TrimSpace(analyst.Output) != "" {
			status = domain.SlotComplete
		}
	}

	slot := domain.AnalystSlot{Status: status, Model: analyst.Model}
	if status != domain.SlotComplete {
		return slot, nil
	}

	result := l.evaluations.Validate(analyst.Output, category)
	for _, warning := range result.Warnings {
		l.logger.Warn("analyst output accepted with warning", "slot", slotName, "warning", warning)
	}
	if !result.Valid {
		l.recordIssues(result.Issues())
		return slot, result.Err()
	}

	slot.Evaluation = result.Parsed
	return slot, nil
}

func (l *SessionLoader) recordIssues(issues []domain.SchemaIssue) {
	if l.metrics == nil {
		return
	}
	for _, issue := range issues {
		l.metrics.RecordCounter(ports.MetricValidationIssues, 1, map[string]string{"kind": string(issue.Kind)})
	}
}
