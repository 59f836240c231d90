package export

import (
	"fmt"
	"strings"

	"github.com/ahrav/go-rubric/internal/ports"
)

// Options tune the renderers returned by NewRenderer.
type Options struct {
	Indent bool
	Color  bool
}

// Formats lists the supported output formats.
func Formats() []string { return []string{"json", "text"} }

// NewRenderer returns the renderer for format. Format names are
// case-insensitive.
func NewRenderer(format string, opts Options) (ports.ReportRenderer, error) {
	switch strings.ToLower(format) {
	case "json":
		return JSONRenderer{Indent: opts.Indent}, nil
	case "text", "":
		return TextRenderer{Color: opts.Color}, nil
	default:
		return nil, fmt.Errorf("output format %q: %w", format, ports.ErrUnsupportedFormat)
	}
}
