package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"legalyzer/internal/domain"
	"legalyzer/internal/formatgate"
	"legalyzer/internal/port"
	"legalyzer/internal/service"
	"legalyzer/internal/storage/memory"
	memstore "legalyzer/internal/store/memory"
	"legalyzer/mocks"
)

const testBucket = "test-bucket"

func testGate() *formatgate.Gate {
	return formatgate.New(formatgate.Config{
		MaxFileSize:       1 << 20,
		AllowedExtensions: []string{"pdf", "png", "jpg", "jpeg"},
		MaxPDFPages:       100,
		MaxImageDimension: 5000,
	})
}

func pdfBytes(body string) []byte {
	return []byte("%PDF-1.4\n" + body)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 20, 20))))
	return buf.Bytes()
}

func nativeExtract(text string) *domain.ExtractedText {
	return &domain.ExtractedText{
		Text:      text,
		PageCount: 1,
		Pages:     []domain.PageText{{Number: 1, Text: text, Provenance: domain.ProvenanceNative}},
	}
}

func analyzerResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		Summary:      domain.NewLegacySummary("A lease agreement."),
		KeyClauses:   []domain.KeyClause{{Type: "Rent", Content: "Rent is due monthly.", Importance: domain.ImportanceMedium, Classification: domain.ClassificationFinancial, RiskScore: 5, Confidence: 0.9}},
		DocumentType: "Lease",
		TotalPages:   1,
		Confidence:   0.8,
		WordCount:    4,
		AnalyzedAt:   time.Now().UTC(),
	}
}

type analysisFixture struct {
	svc       service.AnalysisService
	extractor *mocks.MockTextExtractor
	analyzer  *mocks.MockDocumentAnalyzer
	store     *memstore.Store
	storage   *memory.Storage
}

func newAnalysisFixture(maxConcurrent int) *analysisFixture {
	f := &analysisFixture{
		extractor: new(mocks.MockTextExtractor),
		analyzer:  new(mocks.MockDocumentAnalyzer),
		store:     memstore.New(),
		storage:   memory.New(),
	}
	f.svc = service.NewAnalysisService(testGate(), f.extractor, f.analyzer, f.store, f.storage, nil,
		service.AnalysisConfig{Bucket: testBucket, MaxConcurrent: maxConcurrent})
	return f
}

func upload(name, contentType string, data []byte) service.AnalyzeInput {
	return service.AnalyzeInput{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		File:        bytes.NewReader(data),
	}
}

func TestAnalysisService_Analyze_Success(t *testing.T) {
	f := newAnalysisFixture(5)
	data := pdfBytes("lease")

	f.extractor.On("Extract", mock.Anything, data, domain.FileTypePDF).Return(nativeExtract("The tenant pays rent monthly."), nil)
	f.analyzer.On("Analyze", mock.Anything, mock.AnythingOfType("*domain.ExtractedText"), port.DocumentMeta{
		Filename: "lease.pdf", ContentType: "application/pdf", FileType: domain.FileTypePDF,
	}).Return(analyzerResult(), nil)

	result, err := f.svc.Analyze(context.Background(), upload("../../tmp/lease.pdf", "application/pdf", data))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, result.FileID)
	assert.Equal(t, "lease.pdf", result.Filename)
	assert.False(t, result.Cached)
	assert.Equal(t, "originals/"+result.FileID.String()+".pdf", result.OriginalKey)

	stored, err := f.store.GetAnalysis(context.Background(), result.FileID)
	require.NoError(t, err)
	assert.Equal(t, result.FileHash, stored.FileHash)

	original, err := f.svc.GetOriginal(context.Background(), result.FileID)
	require.NoError(t, err)
	assert.Equal(t, data, original.Data)
	assert.Equal(t, "application/pdf", original.ContentType)
}

func TestAnalysisService_Analyze_DuplicateReturnsCached(t *testing.T) {
	f := newAnalysisFixture(5)
	data := pdfBytes("same bytes")

	f.extractor.On("Extract", mock.Anything, data, domain.FileTypePDF).Return(nativeExtract("Some contract text."), nil).Once()
	f.analyzer.On("Analyze", mock.Anything, mock.Anything, mock.Anything).Return(analyzerResult(), nil).Once()

	first, err := f.svc.Analyze(context.Background(), upload("a.pdf", "application/pdf", data))
	require.NoError(t, err)
	second, err := f.svc.Analyze(context.Background(), upload("b.pdf", "application/pdf", data))
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.FileID, second.FileID)
	f.extractor.AssertNumberOfCalls(t, "Extract", 1)
	f.analyzer.AssertNumberOfCalls(t, "Analyze", 1)
	assert.Equal(t, 1, f.storage.Len())
}

func TestAnalysisService_Analyze_UnsupportedTypeRejectedBeforeExtraction(t *testing.T) {
	f := newAnalysisFixture(5)

	_, err := f.svc.Analyze(context.Background(), upload("contract.docx", "application/msword", []byte("PK...")))

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, domain.ReasonUnsupportedType, vErr.Reason)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFileType))
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.storage.Len())
}

func TestAnalysisService_Analyze_ContentMismatchRejected(t *testing.T) {
	f := newAnalysisFixture(5)

	_, err := f.svc.Analyze(context.Background(), upload("fake.pdf", "application/pdf", []byte("not a pdf at all")))

	assert.True(t, errors.Is(err, domain.ErrUnsupportedFileType))
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalysisService_Analyze_TooLarge(t *testing.T) {
	f := newAnalysisFixture(5)
	data := pdfBytes("x")
	in := upload("big.pdf", "application/pdf", data)
	in.Size = 2 << 20

	_, err := f.svc.Analyze(context.Background(), in)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, domain.ReasonTooLarge, vErr.Reason)
}

func TestAnalysisService_Analyze_NoTextDiscardsOriginal(t *testing.T) {
	f := newAnalysisFixture(5)
	data := pdfBytes("blank")

	f.extractor.On("Extract", mock.Anything, data, domain.FileTypePDF).Return(nativeExtract("   "), nil)

	_, err := f.svc.Analyze(context.Background(), upload("blank.pdf", "application/pdf", data))

	assert.True(t, errors.Is(err, domain.ErrNoExtractableText))
	assert.True(t, errors.Is(err, domain.ErrExtraction))
	f.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.storage.Len())
	list, _ := f.store.ListAnalyses(context.Background())
	assert.Empty(t, list)
}

func TestAnalysisService_Analyze_AnalysisErrorNotCached(t *testing.T) {
	f := newAnalysisFixture(5)
	data := pdfBytes("nda")

	f.extractor.On("Extract", mock.Anything, data, domain.FileTypePDF).Return(nativeExtract("Confidential information."), nil)
	f.analyzer.On("Analyze", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &domain.AnalysisError{Kind: domain.AnalysisUpstreamError, Err: errors.New("502")})

	_, err := f.svc.Analyze(context.Background(), upload("nda.pdf", "application/pdf", data))

	var aErr *domain.AnalysisError
	require.True(t, errors.As(err, &aErr))
	assert.Equal(t, domain.AnalysisUpstreamError, aErr.Kind)
	assert.Equal(t, 0, f.storage.Len())
	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CachedAnalyses)
}

func TestAnalysisService_Analyze_ImageWithoutOCR(t *testing.T) {
	f := newAnalysisFixture(5)
	data := pngBytes(t)

	f.extractor.On("Extract", mock.Anything, data, domain.FileTypePNG).
		Return(nil, &domain.OCRUnavailableError{Message: "OCR is not available"})

	_, err := f.svc.Analyze(context.Background(), upload("scan.png", "image/png", data))

	assert.True(t, errors.Is(err, domain.ErrOCRUnavailable))
	assert.Equal(t, 0, f.storage.Len())
}

// slowAnalyzer records how many analyses overlap.
type slowAnalyzer struct {
	active atomic.Int32
	peak   atomic.Int32
	calls  atomic.Int32
}

func (a *slowAnalyzer) Analyze(_ context.Context, text *domain.ExtractedText, meta port.DocumentMeta) (*domain.AnalysisResult, error) {
	n := a.active.Add(1)
	for {
		p := a.peak.Load()
		if n <= p || a.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	a.active.Add(-1)
	a.calls.Add(1)
	r := analyzerResult()
	r.Filename = meta.Filename
	return r, nil
}

func TestAnalysisService_Analyze_ExcessRequestsQueue(t *testing.T) {
	extractor := new(mocks.MockTextExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything, domain.FileTypePDF).
		Return(nativeExtract("Clause text."), nil)
	analyzer := &slowAnalyzer{}
	store := memstore.New()
	svc := service.NewAnalysisService(testGate(), extractor, analyzer, store, memory.New(), nil,
		service.AnalysisConfig{Bucket: testBucket, MaxConcurrent: 2})

	const requests = 12
	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := pdfBytes(fmt.Sprintf("document %d", i))
			_, err := svc.Analyze(context.Background(), upload(fmt.Sprintf("doc%d.pdf", i), "application/pdf", data))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(requests), analyzer.calls.Load())
	assert.LessOrEqual(t, analyzer.peak.Load(), int32(2))
	list, err := store.ListAnalyses(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, requests)
}

func TestAnalysisService_ClearHistory(t *testing.T) {
	f := newAnalysisFixture(5)
	data := pdfBytes("lease")
	f.extractor.On("Extract", mock.Anything, data, domain.FileTypePDF).Return(nativeExtract("Rent."), nil)
	f.analyzer.On("Analyze", mock.Anything, mock.Anything, mock.Anything).Return(analyzerResult(), nil)

	result, err := f.svc.Analyze(context.Background(), upload("lease.pdf", "application/pdf", data))
	require.NoError(t, err)

	cleared, err := f.svc.ClearHistory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)
	assert.Equal(t, 0, f.storage.Len())

	_, err = f.svc.Get(context.Background(), result.FileID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cleared, err = f.svc.ClearHistory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, cleared)
}

func TestAnalysisService_SupportedFormatsAndOCRFlag(t *testing.T) {
	ocr := new(mocks.MockOCREngine)
	ocr.On("Available").Return(true)
	svc := service.NewAnalysisService(testGate(), new(mocks.MockTextExtractor), new(mocks.MockDocumentAnalyzer),
		memstore.New(), memory.New(), ocr, service.AnalysisConfig{Bucket: testBucket, MaxConcurrent: 3})

	formats := svc.SupportedFormats()
	assert.Equal(t, []string{".jpeg", ".jpg", ".pdf", ".png"}, formats.Formats)
	assert.Equal(t, int64(1), formats.MaxFileSizeMB)
	assert.Equal(t, domain.ExportFormats, formats.ExportFormats)
	assert.True(t, svc.OCREnabled())

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.MaxConcurrent)
	assert.Equal(t, 0, stats.ActiveAnalyses)
	assert.True(t, stats.OCREnabled)
}
