// Package formatgate validates uploads against the accepted type and size policy
// before any processing happens.
package formatgate

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"legalyzer/internal/domain"
)

const maxFilenameLength = 255

// Config holds the gate policy.
type Config struct {
	MaxFileSize       int64
	AllowedExtensions []string
	MaxPDFPages       int
	MaxImageDimension int
}

// Gate enforces the upload allow-list and limits.
type Gate struct {
	maxFileSize int64
	allowed     map[string]domain.FileType
	maxPages    int
	maxDim      int
}

// New creates a Gate. Extensions not known to the domain are ignored.
func New(cfg Config) *Gate {
	allowed := make(map[string]domain.FileType)
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.TrimPrefix(strings.ToLower(ext), ".")
		if ft, ok := domain.AllowedExtensions[ext]; ok {
			allowed[ext] = ft
		}
	}
	return &Gate{
		maxFileSize: cfg.MaxFileSize,
		allowed:     allowed,
		maxPages:    cfg.MaxPDFPages,
		maxDim:      cfg.MaxImageDimension,
	}
}

// MaxFileSize returns the configured size limit in bytes.
func (g *Gate) MaxFileSize() int64 {
	return g.maxFileSize
}

// SupportedExtensions returns the allow-list as sorted ".ext" strings.
func (g *Gate) SupportedExtensions() []string {
	out := make([]string, 0, len(g.allowed))
	for ext := range g.allowed {
		out = append(out, "."+ext)
	}
	sort.Strings(out)
	return out
}

// Validate checks filename, declared MIME type and size. It returns the
// detected file type on acceptance or a *domain.ValidationError.
func (g *Gate) Validate(filename, mimeType string, size int64) (domain.FileType, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	ft, ok := g.allowed[ext]
	if !ok {
		if ext == "" {
			return "", domain.NewUnsupportedType("file has no extension; allowed: %s", strings.Join(g.SupportedExtensions(), ", "))
		}
		return "", domain.NewUnsupportedType("extension .%s is not allowed; allowed: %s", ext, strings.Join(g.SupportedExtensions(), ", "))
	}

	if declared := normalizeMIME(mimeType); declared != "" && declared != "application/octet-stream" {
		mimeFT, known := domain.AllowedContentTypes[declared]
		if !known {
			return "", domain.NewUnsupportedType("content type %s is not allowed", declared)
		}
		if mimeFT != ft {
			return "", domain.NewUnsupportedType("content type %s does not match extension .%s", declared, ext)
		}
	}

	if size <= 0 {
		return "", domain.NewUnsupportedType("file is empty")
	}
	if g.maxFileSize > 0 && size > g.maxFileSize {
		return "", domain.NewTooLarge("file is %d bytes; maximum is %d bytes", size, g.maxFileSize)
	}
	return ft, nil
}

// CheckContent verifies the bytes match the detected type and stay within the
// page and dimension limits.
func (g *Gate) CheckContent(data []byte, ft domain.FileType) error {
	if g.maxFileSize > 0 && int64(len(data)) > g.maxFileSize {
		return domain.NewTooLarge("file is %d bytes; maximum is %d bytes", len(data), g.maxFileSize)
	}
	if !matchesSignature(data, ft) {
		return domain.NewUnsupportedType("file content does not match a %s document", ft)
	}

	if ft == domain.FileTypePDF {
		if g.maxPages <= 0 {
			return nil
		}
		pages, ok := countPDFPages(data)
		if ok && pages > g.maxPages {
			return domain.NewTooLarge("document has %d pages; maximum is %d", pages, g.maxPages)
		}
		return nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.NewUnsupportedType("image could not be decoded: %v", err)
	}
	if g.maxDim > 0 && (cfg.Width > g.maxDim || cfg.Height > g.maxDim) {
		return domain.NewTooLarge("image is %dx%d; maximum dimension is %d px", cfg.Width, cfg.Height, g.maxDim)
	}
	return nil
}

var signatures = map[domain.FileType][][]byte{
	domain.FileTypePDF:  {[]byte("%PDF-")},
	domain.FileTypePNG:  {{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}},
	domain.FileTypeJPG:  {{0xFF, 0xD8}},
	domain.FileTypeBMP:  {[]byte("BM")},
	domain.FileTypeTIFF: {{'I', 'I', '*', 0x00}, {'M', 'M', 0x00, '*'}},
}

func matchesSignature(data []byte, ft domain.FileType) bool {
	for _, sig := range signatures[ft] {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

// countPDFPages returns false when the document cannot be parsed; the
// extractor reports that case with a proper error.
func countPDFPages(data []byte) (pages int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			pages, ok = 0, false
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, false
	}
	return r.NumPage(), true
}

func normalizeMIME(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return strings.ToLower(mediaType)
}

// SanitizeFilename keeps only the base name, strips control and shell-unsafe
// characters and bounds the length while preserving the extension.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"/\|?*;&$`+"`", r) {
			continue
		}
		b.WriteRune(r)
	}
	clean := strings.Trim(strings.TrimSpace(b.String()), ".")
	if clean == "" {
		return "document"
	}

	runes := []rune(clean)
	if len(runes) <= maxFilenameLength {
		return clean
	}
	ext := []rune(filepath.Ext(clean))
	if len(ext) >= maxFilenameLength {
		return string(runes[:maxFilenameLength])
	}
	base := runes[:len(runes)-len(ext)]
	return fmt.Sprintf("%s%s", string(base[:maxFilenameLength-len(ext)]), string(ext))
}
