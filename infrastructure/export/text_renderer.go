package export

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.ReportRenderer = (*TextRenderer)(nil)

// TextRenderer writes a human-readable summary of a report.
type TextRenderer struct {
	// Color enables ANSI colours for the alignment category and warnings.
	Color bool
}

// Format implements ports.ReportRenderer.
func (r TextRenderer) Format() string { return "text" }

// Render implements ports.ReportRenderer.
func (r TextRenderer) Render(w io.Writer, report *domain.Report) error {
	if report == nil {
		return fmt.Errorf("render text: %w", domain.ErrInvalidState)
	}

	p := message.NewPrinter(language.English)
	title := cases.Title(language.English)
	bold := r.style(color.Bold)

	var b strings.Builder
	p.Fprintf(&b, "%s %s (%s)\n", bold("Session"), report.SessionID, title.String(string(report.Category)))
	p.Fprintf(&b, "Report %s, generated %s, combiner %s\n\n",
		report.ID, report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"), report.Combiner)

	m := report.Metrics
	p.Fprintf(&b, "%-25s %.1f\n", "Quality Index", m.QualityIndex)
	p.Fprintf(&b, "%-25s %.4f /min  %s\n", "Alignment Rate", m.AlignmentRate, r.alignment(m.AlignmentCategory))
	p.Fprintf(&b, "%-25s %.1f min\n", "Duration", m.DurationMinutes)
	if m.SIAvailable() {
		p.Fprintf(&b, "%-25s %.1f (aperture %.4f, deviation %.2f)\n",
			"Superintelligence Index", *m.SuperintelligenceIndex, *m.Aperture, *m.SIDeviation)
	} else {
		p.Fprintf(&b, "%-25s unavailable\n", "Superintelligence Index")
	}

	p.Fprintf(&b, "\n%s\n", bold("Epochs"))
	for _, e := range report.Epochs {
		si := "n/a"
		if e.SI != nil {
			si = p.Sprintf("%.1f", e.SI.SI)
		}
		p.Fprintf(&b, "  epoch %d  QI %5.1f  SI %5s  analysts %d  %.1f min\n",
			e.Epoch, e.Metrics.QualityIndex, si, e.Contributors, e.DurationMinutes)
	}

	s := report.Scores
	p.Fprintf(&b, "\n%s\n", bold(p.Sprintf("Scores (epoch %d)", s.Epoch)))
	p.Fprintf(&b, "  %-16s %s\n", "Structure", scoreList(p, domain.StructureFields, s.Structure))
	p.Fprintf(&b, "  %-16s %s\n", "Behavior", behaviorList(p, s.Behavior))
	p.Fprintf(&b, "  %-16s %s\n", "Specialization", scoreList(p, slices.Sorted(maps.Keys(s.Specialization)), s.Specialization))
	for _, field := range []struct{ name, text string }{
		{"Strengths", s.Strengths},
		{"Weaknesses", s.Weaknesses},
		{"Insights", s.Insights},
	} {
		if field.text != "" {
			p.Fprintf(&b, "  %-16s %s\n", field.name, field.text)
		}
	}

	pa := report.Pathologies
	p.Fprintf(&b, "\n%s\n", bold(p.Sprintf("Pathologies (%d evaluations, frequency %.2f)", pa.Evaluations, pa.Frequency)))
	if len(pa.Detected) == 0 {
		p.Fprintf(&b, "  none\n")
	}
	for _, tag := range pa.Detected {
		name := title.String(strings.ReplaceAll(string(tag), "_", " "))
		p.Fprintf(&b, "  %-26s %d (%.0f%%)\n", name, pa.Counts[tag], pa.TagRate(tag)*100)
	}

	if len(report.Warnings) > 0 {
		warn := r.style(color.FgYellow)
		p.Fprintf(&b, "\n%s\n", bold("Warnings"))
		for _, msg := range report.Warnings {
			p.Fprintf(&b, "  %s %s\n", warn("!"), msg)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("render text: %w", err)
	}
	return nil
}

// style returns a formatter that colours only when the renderer asks for it,
// regardless of whether stdout is a terminal.
func (r TextRenderer) style(attrs ...color.Attribute) func(a ...any) string {
	c := color.New(attrs...)
	if r.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func (r TextRenderer) alignment(category domain.AlignmentCategory) string {
	attr := color.FgGreen
	switch category {
	case domain.AlignmentSlow:
		attr = color.FgYellow
	case domain.AlignmentSuperficial:
		attr = color.FgRed
	}
	return r.style(attr, color.Bold)(string(category))
}

func scoreList(p *message.Printer, fields []string, scores map[string]float64) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if v, ok := scores[f]; ok {
			parts = append(parts, p.Sprintf("%s %.1f", f, v))
		}
	}
	return strings.Join(parts, ", ")
}

func behaviorList(p *message.Printer, scores domain.BehaviorScores) string {
	parts := make([]string, 0, len(domain.BehaviorFields))
	for _, f := range domain.BehaviorFields {
		s, ok := scores[f]
		switch {
		case !ok:
			continue
		case !s.Applicable:
			parts = append(parts, f+" "+domain.NotApplicable)
		default:
			parts = append(parts, p.Sprintf("%s %.1f", f, s.Value))
		}
	}
	return strings.Join(parts, ", ")
}
