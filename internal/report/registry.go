package report

import (
	"legalyzer/internal/domain"
	"legalyzer/internal/port"
)

// Registry resolves a renderer by export format.
type Registry struct {
	renderers map[domain.ExportFormat]port.ReportRenderer
}

// NewRegistry indexes renderers by their format. A later renderer for the
// same format replaces an earlier one.
func NewRegistry(renderers ...port.ReportRenderer) *Registry {
	r := &Registry{renderers: make(map[domain.ExportFormat]port.ReportRenderer, len(renderers))}
	for _, rr := range renderers {
		r.renderers[rr.Format()] = rr
	}
	return r
}

// DefaultRegistry returns a registry holding every built-in renderer.
func DefaultRegistry(bands domain.RiskBands) *Registry {
	return NewRegistry(
		NewJSONRenderer(bands),
		NewPDFRenderer(bands),
		NewXLSXRenderer(bands),
		NewCSVRenderer(),
	)
}

// Renderer returns the renderer for format or domain.ErrInvalidExportFormat.
func (r *Registry) Renderer(format domain.ExportFormat) (port.ReportRenderer, error) {
	rr, ok := r.renderers[format]
	if !ok {
		return nil, domain.ErrInvalidExportFormat
	}
	return rr, nil
}

// Formats lists the registered formats in display order.
func (r *Registry) Formats() []domain.ExportFormat {
	out := make([]domain.ExportFormat, 0, len(r.renderers))
	for _, f := range domain.ExportFormats {
		if _, ok := r.renderers[f]; ok {
			out = append(out, f)
		}
	}
	return out
}
