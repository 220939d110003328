package extract_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"legalyzer/internal/domain"
	"legalyzer/internal/extract"
	"legalyzer/mocks"
)

const clauseText = "This Master Services Agreement is entered into by the parties named below."

// buildPDF writes one page per entry; an empty entry produces a blank page.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 11)
	for _, text := range pages {
		doc.AddPage()
		if text != "" {
			doc.Cell(0, 10, text)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 16, 16))))
	return buf.Bytes()
}

func TestExtract_NativePDF(t *testing.T) {
	ex := extract.New(nil, nil, extract.Config{MinNativeChars: 50})

	out, err := ex.Extract(context.Background(), buildPDF(t, clauseText, clauseText), domain.FileTypePDF)
	require.NoError(t, err)

	assert.Equal(t, 2, out.PageCount)
	assert.False(t, out.OCRUsed)
	assert.Equal(t, []domain.Provenance{domain.ProvenanceNative, domain.ProvenanceNative}, out.Provenance())
	assert.Contains(t, out.Text, "--- Page 1 ---")
	assert.Contains(t, out.Text, "--- Page 2 ---")
	assert.Contains(t, out.Text, "Master Services Agreement")
	assert.Empty(t, out.Notes)
}

func TestExtract_ScannedPageWithOCR(t *testing.T) {
	engine := new(mocks.MockOCREngine)
	raster := new(mocks.MockPageRasterizer)
	engine.On("Available").Return(true)
	raster.On("Available").Return(true)
	raster.On("RasterizePage", mock.Anything, mock.Anything, 2).
		Return(image.NewGray(image.Rect(0, 0, 10, 10)), nil)
	engine.On("Recognize", mock.Anything, mock.Anything).
		Return("IN WITNESS WHEREOF the parties have executed this Agreement.", nil)

	ex := extract.New(engine, raster, extract.Config{MinNativeChars: 50, OCRWorkers: 2})
	out, err := ex.Extract(context.Background(), buildPDF(t, clauseText, ""), domain.FileTypePDF)
	require.NoError(t, err)

	assert.True(t, out.OCRUsed)
	assert.Equal(t, []domain.Provenance{domain.ProvenanceNative, domain.ProvenanceOCR}, out.Provenance())
	assert.Contains(t, out.Text, "--- Page 2 ---\nIN WITNESS WHEREOF")
	assert.Equal(t, []string{"OCR applied to 1 pages"}, out.Notes)
	raster.AssertNotCalled(t, "RasterizePage", mock.Anything, mock.Anything, 1)
}

func TestExtract_ScannedPageWithoutOCR(t *testing.T) {
	engine := new(mocks.MockOCREngine)
	engine.On("Available").Return(false)

	ex := extract.New(engine, nil, extract.Config{MinNativeChars: 50})
	out, err := ex.Extract(context.Background(), buildPDF(t, clauseText, ""), domain.FileTypePDF)
	require.NoError(t, err)

	assert.False(t, out.OCRUsed)
	assert.Equal(t, []domain.Provenance{domain.ProvenanceNative, domain.ProvenanceNone}, out.Provenance())
	assert.NotContains(t, out.Text, "--- Page 2 ---")
	assert.Equal(t, []string{"OCR unavailable - some text may be missing"}, out.Notes)
}

func TestExtract_PageOCRFailureKeepsGoing(t *testing.T) {
	engine := new(mocks.MockOCREngine)
	raster := new(mocks.MockPageRasterizer)
	engine.On("Available").Return(true)
	raster.On("Available").Return(true)
	raster.On("RasterizePage", mock.Anything, mock.Anything, 2).Return(nil, errors.New("pdftoppm crashed"))

	ex := extract.New(engine, raster, extract.Config{MinNativeChars: 50})
	out, err := ex.Extract(context.Background(), buildPDF(t, clauseText, ""), domain.FileTypePDF)
	require.NoError(t, err)

	assert.Equal(t, domain.ProvenanceNone, out.Pages[1].Provenance)
	assert.False(t, out.OCRUsed)
	engine.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestExtract_CorruptPDF(t *testing.T) {
	ex := extract.New(nil, nil, extract.Config{})

	_, err := ex.Extract(context.Background(), []byte("%PDF-1.4\nthis is not really a pdf"), domain.FileTypePDF)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_ImageWithoutOCR(t *testing.T) {
	engine := new(mocks.MockOCREngine)
	engine.On("Available").Return(false)
	ex := extract.New(engine, nil, extract.Config{})

	_, err := ex.Extract(context.Background(), pngBytes(t), domain.FileTypePNG)
	var ocrErr *domain.OCRUnavailableError
	require.True(t, errors.As(err, &ocrErr))
	assert.Contains(t, ocrErr.Message, "tesseract")
}

func TestExtract_Image(t *testing.T) {
	engine := new(mocks.MockOCREngine)
	engine.On("Available").Return(true)
	engine.On("Recognize", mock.Anything, mock.Anything).Return("  LEASE AGREEMENT\nTenant shall pay rent.  ", nil)
	ex := extract.New(engine, nil, extract.Config{})

	out, err := ex.Extract(context.Background(), pngBytes(t), domain.FileTypePNG)
	require.NoError(t, err)
	assert.True(t, out.OCRUsed)
	assert.Equal(t, 1, out.PageCount)
	assert.Equal(t, "--- Page 1 ---\nLEASE AGREEMENT\nTenant shall pay rent.", out.Text)
}

func TestExtract_ImageRecognizedNothing(t *testing.T) {
	engine := new(mocks.MockOCREngine)
	engine.On("Available").Return(true)
	engine.On("Recognize", mock.Anything, mock.Anything).Return("   ", nil)
	ex := extract.New(engine, nil, extract.Config{})

	out, err := ex.Extract(context.Background(), pngBytes(t), domain.FileTypePNG)
	require.NoError(t, err)
	assert.Empty(t, out.Text)
	assert.Equal(t, domain.ProvenanceNone, out.Pages[0].Provenance)
}

func TestExtract_ImageOCRFailure(t *testing.T) {
	engine := new(mocks.MockOCREngine)
	engine.On("Available").Return(true)
	engine.On("Recognize", mock.Anything, mock.Anything).Return("", errors.New("exit status 1"))
	ex := extract.New(engine, nil, extract.Config{})

	_, err := ex.Extract(context.Background(), pngBytes(t), domain.FileTypePNG)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_UndecodableImage(t *testing.T) {
	engine := new(mocks.MockOCREngine)
	engine.On("Available").Return(true)
	ex := extract.New(engine, nil, extract.Config{})

	_, err := ex.Extract(context.Background(), []byte{0x89, 'P', 'N', 'G', 0, 0}, domain.FileTypePNG)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
