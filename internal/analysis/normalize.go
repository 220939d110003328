package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"legalyzer/internal/domain"
)

const (
	defaultDocumentType     = "Legal Document"
	defaultClauseConfidence = 0.9
	defaultClauseType       = "General"
)

// ErrEmptyResponse is returned when the model reply holds no usable text.
var ErrEmptyResponse = errors.New("model returned no usable text")

// Normalizer turns a raw model reply into the canonical result shape.
type Normalizer struct {
	Bands          domain.RiskBands
	MaxClauses     int
	MaxClauseChars int
}

// Normalized is the model-derived part of an analysis result.
type Normalized struct {
	Summary         domain.Summary
	Clauses         []domain.KeyClause
	DocumentType    string
	ModelConfidence *float64
}

// modelReply keeps key_clauses raw so one malformed clause cannot sink the
// rest of the reply.
type modelReply struct {
	Summary      json.RawMessage `json:"summary"`
	KeyClauses   json.RawMessage `json:"key_clauses"`
	DocumentType flexString      `json:"document_type"`
	Confidence   *flexFloat      `json:"confidence"`
}

type modelClause struct {
	Type           flexString `json:"type"`
	Content        flexString `json:"content"`
	Importance     flexString `json:"importance"`
	Classification flexString `json:"classification"`
	RiskScore      *flexFloat `json:"risk_score"`
	Page           *flexFloat `json:"page"`
	Confidence     *flexFloat `json:"confidence"`
}

// flexString accepts a JSON string or any scalar, which is kept as its literal
// text. Objects, arrays and null decode to the empty string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = ""
			return nil
		}
		*f = flexString(s)
	case '{', '[', 'n':
		*f = ""
	default:
		*f = flexString(data)
	}
	return nil
}

// flexFloat accepts a JSON number or a numeric string; anything else decodes to NaN.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexFloat(math.NaN())
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexFloat(v)
			return nil
		}
	}
	*f = flexFloat(math.NaN())
	return nil
}

func (f *flexFloat) value() (float64, bool) {
	if f == nil || math.IsNaN(float64(*f)) || math.IsInf(float64(*f), 0) {
		return 0, false
	}
	return float64(*f), true
}

// CleanJSON strips markdown fences and surrounding prose from a model reply,
// returning the span from the first '{' to the last '}'.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if start := strings.Index(s, "```"); start >= 0 {
		body := s[start+3:]
		body = strings.TrimPrefix(body, "json")
		body = strings.TrimPrefix(body, "JSON")
		if end := strings.Index(body, "```"); end >= 0 {
			s = strings.TrimSpace(body[:end])
		}
	}
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first < 0 || last <= first {
		return s
	}
	return s[first : last+1]
}

// Normalize parses a model reply. A reply that is not JSON, or whose JSON
// carries neither a summary nor clauses, becomes a legacy summary holding the
// whole text; only a blank reply is an error.
func (n Normalizer) Normalize(raw string) (*Normalized, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(CleanJSON(text)), &reply); err != nil {
		return legacyReply(text), nil
	}

	out := &Normalized{
		Summary:      ParseSummary(reply.Summary),
		Clauses:      n.normalizeClauses(decodeClauses(reply.KeyClauses)),
		DocumentType: strings.TrimSpace(string(reply.DocumentType)),
	}
	if out.Summary.IsEmpty() && len(out.Clauses) == 0 {
		return legacyReply(text), nil
	}
	if out.DocumentType == "" {
		out.DocumentType = defaultDocumentType
	}
	if v, ok := reply.Confidence.value(); ok {
		out.ModelConfidence = &v
	}
	return out, nil
}

func legacyReply(text string) *Normalized {
	return &Normalized{
		Summary:      domain.NewLegacySummary(text),
		Clauses:      []domain.KeyClause{},
		DocumentType: defaultDocumentType,
	}
}

// decodeClauses decodes each clause on its own and drops the ones that are
// not objects. A key_clauses value that is not an array yields no clauses.
func decodeClauses(raw json.RawMessage) []modelClause {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]modelClause, 0, len(items))
	for _, item := range items {
		var c modelClause
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ParseSummary decodes the summary field of a reply. Objects matching the
// structured shape and strings holding such an object become structured
// summaries; every other string is kept verbatim as a legacy summary.
func ParseSummary(raw json.RawMessage) domain.Summary {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.NewLegacySummary("")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return domain.NewLegacySummary(string(trimmed))
		}
		return domain.DecodeSummary(s)
	}
	return domain.DecodeSummary(string(trimmed))
}

func (n Normalizer) normalizeClauses(in []modelClause) []domain.KeyClause {
	out := make([]domain.KeyClause, 0, len(in))
	for _, c := range in {
		if n.MaxClauses > 0 && len(out) >= n.MaxClauses {
			break
		}
		content := strings.TrimSpace(string(c.Content))
		typ := strings.TrimSpace(string(c.Type))
		if content == "" && typ == "" {
			continue
		}
		if typ == "" {
			typ = defaultClauseType
		}
		out = append(out, n.normalizeClause(typ, content, c))
	}
	return out
}

func (n Normalizer) normalizeClause(typ, content string, c modelClause) domain.KeyClause {
	risk, _ := c.RiskScore.value()
	risk = ClampRisk(risk)

	importance, ok := domain.ParseImportance(string(c.Importance))
	if !ok {
		importance = n.Bands.Bucket(risk)
	}

	confidence := defaultClauseConfidence
	if v, ok := c.Confidence.value(); ok {
		confidence = math.Max(0, math.Min(1, v))
	}

	var page *int
	if v, ok := c.Page.value(); ok && v >= 1 {
		p := int(v)
		page = &p
	}

	return domain.KeyClause{
		Type:           typ,
		Content:        truncateRunes(content, n.MaxClauseChars),
		Importance:     importance,
		Classification: normalizeClassification(string(c.Classification)),
		RiskScore:      risk,
		Page:           page,
		Confidence:     confidence,
	}
}

// ClampRisk bounds a risk score to [0, 10].
func ClampRisk(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 10:
		return 10
	default:
		return v
	}
}

func normalizeClassification(s string) string {
	s = strings.TrimSpace(s)
	for _, known := range domain.Classifications {
		if strings.EqualFold(s, known) {
			return known
		}
	}
	return domain.ClassificationMiscellaneous
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
