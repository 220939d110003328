package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentSubmission is an uploaded document before extraction.
type DocumentSubmission struct {
	Data         []byte
	DeclaredMIME string
	Filename     string
	Size         int64
	FileType     FileType
}

// PageText is the text of a single page together with where it came from.
type PageText struct {
	Number     int        `json:"number"`
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
}

// ExtractedText is the output of the text extractor for one submission.
type ExtractedText struct {
	Text      string     `json:"text"`
	PageCount int        `json:"page_count"`
	Pages     []PageText `json:"pages"`
	OCRUsed   bool       `json:"ocr_used"`
	Notes     []string   `json:"notes,omitempty"`
}

// Provenance returns the per-page provenance in page order.
func (e *ExtractedText) Provenance() []Provenance {
	out := make([]Provenance, len(e.Pages))
	for i := range e.Pages {
		out[i] = e.Pages[i].Provenance
	}
	return out
}

// KeyClause is a single clause surfaced by the analysis.
type KeyClause struct {
	Type           string     `json:"type"`
	Content        string     `json:"content"`
	Importance     Importance `json:"importance"`
	Classification string     `json:"classification"`
	RiskScore      float64    `json:"risk_score"`
	Page           *int       `json:"page,omitempty"`
	Confidence     float64    `json:"confidence"`
}

// AnalysisResult is the normalized report for one uploaded document.
type AnalysisResult struct {
	FileID          uuid.UUID   `json:"file_id"`
	Filename        string      `json:"filename"`
	ContentType     string      `json:"content_type"`
	Summary         Summary     `json:"summary"`
	KeyClauses      []KeyClause `json:"key_clauses"`
	DocumentType    string      `json:"document_type"`
	TotalPages      int         `json:"total_pages"`
	Confidence      float64     `json:"confidence"`
	ProcessingTime  float64     `json:"processing_time"`
	WordCount       int         `json:"word_count"`
	AnalyzedAt      time.Time   `json:"analyzed_at"`
	OCRUsed         bool        `json:"ocr_used"`
	ExtractionNotes []string    `json:"extraction_notes,omitempty"`
	ModelUsed       string      `json:"model_used,omitempty"`
	Cached          bool        `json:"cached"`
	FileHash        string      `json:"-"`
	OriginalKey     string      `json:"-"`
}

// Clone returns a deep copy so callers never share slices with the store.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Summary = r.Summary.clone()
	if r.KeyClauses != nil {
		c.KeyClauses = make([]KeyClause, len(r.KeyClauses))
		for i, kc := range r.KeyClauses {
			if kc.Page != nil {
				p := *kc.Page
				kc.Page = &p
			}
			c.KeyClauses[i] = kc
		}
	}
	if r.ExtractionNotes != nil {
		c.ExtractionNotes = append([]string(nil), r.ExtractionNotes...)
	}
	return &c
}

// ExportTask tracks one asynchronous export of a stored analysis.
type ExportTask struct {
	ID        uuid.UUID    `db:"id" json:"task_id"`
	FileID    uuid.UUID    `db:"file_id" json:"file_id"`
	Format    ExportFormat `db:"format" json:"format"`
	Status    ExportStatus `db:"status" json:"status"`
	BlobKey   string       `db:"blob_key" json:"-"`
	Error     string       `db:"error" json:"error,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}
