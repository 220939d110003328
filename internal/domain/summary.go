package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// StructuredSummary is the JSON-shaped analysis summary.
type StructuredSummary struct {
	Overview        string   `json:"overview"`
	KeyPoints       []string `json:"key_points"`
	Obligations     []string `json:"obligations"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
}

// Summary is either a structured summary or a legacy plain-text one.
// Exactly one variant is set; the zero value is an empty legacy summary.
type Summary struct {
	Structured *StructuredSummary
	Legacy     string
}

// NewStructuredSummary wraps a structured summary.
func NewStructuredSummary(s StructuredSummary) Summary {
	return Summary{Structured: &s}
}

// NewLegacySummary wraps a plain-text summary, preserving the text exactly.
func NewLegacySummary(text string) Summary {
	return Summary{Legacy: text}
}

// IsStructured reports which variant is held.
func (s Summary) IsStructured() bool {
	return s.Structured != nil
}

// IsEmpty reports whether the summary carries no usable text.
func (s Summary) IsEmpty() bool {
	if s.Structured != nil {
		st := s.Structured
		return strings.TrimSpace(st.Overview) == "" && len(st.KeyPoints) == 0 &&
			len(st.Obligations) == 0 && len(st.Risks) == 0 && len(st.Recommendations) == 0
	}
	return strings.TrimSpace(s.Legacy) == ""
}

// Overview returns the structured overview or the legacy text.
func (s Summary) Overview() string {
	if s.Structured != nil {
		return s.Structured.Overview
	}
	return s.Legacy
}

func (s Summary) clone() Summary {
	if s.Structured == nil {
		return s
	}
	st := *s.Structured
	st.KeyPoints = append([]string(nil), st.KeyPoints...)
	st.Obligations = append([]string(nil), st.Obligations...)
	st.Risks = append([]string(nil), st.Risks...)
	st.Recommendations = append([]string(nil), st.Recommendations...)
	return Summary{Structured: &st}
}

// MarshalJSON writes the structured variant as an object and the legacy one as a string.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.Structured != nil {
		st := *s.Structured
		// keep arrays as [] rather than null so readers always see the full shape
		st.KeyPoints = nonNil(st.KeyPoints)
		st.Obligations = nonNil(st.Obligations)
		st.Risks = nonNil(st.Risks)
		st.Recommendations = nonNil(st.Recommendations)
		return json.Marshal(st)
	}
	return json.Marshal(s.Legacy)
}

// UnmarshalJSON accepts either variant. Objects that do not match the
// structured shape are kept verbatim as legacy text.
func (s *Summary) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*s = DecodeSummary(text)
		return nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		*s = Summary{}
		return nil
	}
	*s = DecodeSummary(string(trimmed))
	return nil
}

const summarySchema = `{
	"type": "object",
	"required": ["overview", "key_points", "obligations", "risks", "recommendations"],
	"properties": {
		"overview": {"type": "string"},
		"key_points": {"type": "array", "items": {"type": "string"}},
		"obligations": {"type": "array", "items": {"type": "string"}},
		"risks": {"type": "array", "items": {"type": "string"}},
		"recommendations": {"type": "array", "items": {"type": "string"}}
	}
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func structuredSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("summary.json", strings.NewReader(summarySchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("summary.json")
	})
	return schema, schemaErr
}

// DecodeSummary tries a structured decode of text first and falls back to a
// legacy summary holding text unchanged.
func DecodeSummary(text string) Summary {
	candidate := strings.TrimSpace(text)
	if !strings.HasPrefix(candidate, "{") {
		return NewLegacySummary(text)
	}
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return NewLegacySummary(text)
	}
	sch, err := structuredSchema()
	if err != nil || sch.Validate(v) != nil {
		return NewLegacySummary(text)
	}
	var st StructuredSummary
	if err := json.Unmarshal([]byte(candidate), &st); err != nil {
		return NewLegacySummary(text)
	}
	return NewStructuredSummary(st)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
