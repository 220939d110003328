package domain

import "strings"

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypePNG  FileType = "png"
	FileTypeJPG  FileType = "jpg"
	FileTypeTIFF FileType = "tiff"
	FileTypeBMP  FileType = "bmp"
)

// IsImage reports whether the file type has no native text layer.
func (t FileType) IsImage() bool {
	return t != FileTypePDF
}

// AllowedFileTypes maps FileType to its canonical MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypePNG:  "image/png",
	FileTypeJPG:  "image/jpeg",
	FileTypeTIFF: "image/tiff",
	FileTypeBMP:  "image/bmp",
}

// AllowedContentTypes maps MIME content types back to FileType.
// Browsers disagree on a few image types, hence the aliases.
var AllowedContentTypes = map[string]FileType{
	"application/pdf":     FileTypePDF,
	"image/png":           FileTypePNG,
	"image/jpeg":          FileTypeJPG,
	"image/jpg":           FileTypeJPG,
	"image/pjpeg":         FileTypeJPG,
	"image/tiff":          FileTypeTIFF,
	"image/tif":           FileTypeTIFF,
	"image/bmp":           FileTypeBMP,
	"image/x-bmp":         FileTypeBMP,
	"image/x-ms-bmp":      FileTypeBMP,
	"image/x-windows-bmp": FileTypeBMP,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"png":  FileTypePNG,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"tiff": FileTypeTIFF,
	"tif":  FileTypeTIFF,
	"bmp":  FileTypeBMP,
}

// Importance is the attention level of a key clause.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// ParseImportance normalizes a model-supplied importance value.
// The second return is false when the value is missing or unrecognized.
func ParseImportance(s string) (Importance, bool) {
	switch Importance(strings.ToLower(strings.TrimSpace(s))) {
	case ImportanceHigh:
		return ImportanceHigh, true
	case ImportanceMedium:
		return ImportanceMedium, true
	case ImportanceLow:
		return ImportanceLow, true
	default:
		return "", false
	}
}

// Clause classifications accepted from the model.
const (
	ClassificationContractual     = "Contractual"
	ClassificationCompliance      = "Compliance"
	ClassificationFinancial       = "Financial"
	ClassificationTermination     = "Termination"
	ClassificationConfidentiality = "Confidentiality"
	ClassificationMiscellaneous   = "Miscellaneous"
)

// Classifications lists every accepted clause classification.
var Classifications = []string{
	ClassificationContractual,
	ClassificationCompliance,
	ClassificationFinancial,
	ClassificationTermination,
	ClassificationConfidentiality,
	ClassificationMiscellaneous,
}

// Provenance records where a page's text came from.
type Provenance string

const (
	ProvenanceNative Provenance = "native"
	ProvenanceOCR    Provenance = "ocr"
	ProvenanceNone   Provenance = "none"
)

// ExportStatus is the life cycle of an export task.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusReady      ExportStatus = "ready"
	ExportStatusFailed     ExportStatus = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s ExportStatus) IsTerminal() bool {
	return s == ExportStatusReady || s == ExportStatusFailed
}

// ExportFormat is an artifact format an analysis can be rendered into.
type ExportFormat string

const (
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatJSON ExportFormat = "json"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatCSV  ExportFormat = "csv"
)

// ExportFormats lists the supported export formats in display order.
var ExportFormats = []ExportFormat{
	ExportFormatPDF,
	ExportFormatJSON,
	ExportFormatXLSX,
	ExportFormatCSV,
}

// ParseExportFormat validates a format path parameter.
func ParseExportFormat(s string) (ExportFormat, error) {
	f := ExportFormat(strings.ToLower(s))
	for _, known := range ExportFormats {
		if f == known {
			return f, nil
		}
	}
	return "", ErrInvalidExportFormat
}

// ContentType returns the MIME type served on download.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatPDF:
		return "application/pdf"
	case ExportFormatJSON:
		return "application/json"
	case ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportFormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension (without dot) for the format.
func (f ExportFormat) Extension() string {
	return string(f)
}

// RiskBands maps a risk score to an importance bucket.
type RiskBands struct {
	High   float64
	Medium float64
}

// DefaultRiskBands is >=7 high, >=4 medium, else low.
var DefaultRiskBands = RiskBands{High: 7, Medium: 4}

// Bucket returns the importance for score.
func (b RiskBands) Bucket(score float64) Importance {
	switch {
	case score >= b.High:
		return ImportanceHigh
	case score >= b.Medium:
		return ImportanceMedium
	default:
		return ImportanceLow
	}
}
