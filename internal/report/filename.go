package report

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"legalyzer/internal/domain"
)

const maxFilenameStem = 50

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename reduces an uploaded filename to a safe stem for
// Content-Disposition: extension dropped, unsafe runs replaced with _,
// truncated to 50 chars.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	s := nonAlphanumeric.ReplaceAllString(base, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > maxFilenameStem {
		s = s[:maxFilenameStem]
	}
	if s == "" || s == "." {
		s = "document"
	}
	return s
}

var filenameSuffix = map[domain.ExportFormat]string{
	domain.ExportFormatJSON: "analysis",
	domain.ExportFormatPDF:  "report",
	domain.ExportFormatXLSX: "report",
	domain.ExportFormatCSV:  "clauses",
}

// BuildFilename returns the download name for an export of original.
// Format: {sanitized_stem}_{suffix}.{ext}
func BuildFilename(original string, format domain.ExportFormat) string {
	suffix, ok := filenameSuffix[format]
	if !ok {
		suffix = "export"
	}
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(original), suffix, format.Extension())
}
