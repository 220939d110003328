package analysis

import "strings"

// SystemPrompt is sent as the system message by providers that support one.
const SystemPrompt = "You are a legal document analyst. You explain contracts and policies to non-lawyers " +
	"and you always answer with a single valid JSON object."

const analysisPrompt = `Analyze the legal document below and return ONLY a JSON object with this exact shape:

{
  "summary": {
    "overview": "2-3 sentences on what the document is and its main purpose",
    "key_points": ["key point in plain language", "..."],
    "obligations": ["main obligation or requirement", "..."],
    "risks": ["primary risk or concern", "..."],
    "recommendations": ["recommended action", "..."]
  },
  "key_clauses": [
    {
      "type": "clause type, e.g. Payment Terms, Termination, Confidentiality",
      "content": "text of the clause, first 500 characters if long",
      "importance": "high | medium | low",
      "classification": "Contractual | Compliance | Financial | Termination | Confidentiality | Miscellaneous",
      "risk_score": 0-10 number where 10 is the highest risk,
      "page": page number taken from the "--- Page N ---" markers, or null,
      "confidence": 0-1 number for how sure you are about this clause
    }
  ],
  "document_type": "contract, agreement, policy, lease, ...",
  "confidence": number between 0.5 and 0.98
}

Rules:
- Return valid JSON only, no markdown and no explanations.
- Every key shown above must be present.
- Write summary items in simple language, 2-4 items per list.
- List at most 10 key clauses, most important first.`

const truncatedNote = "\n- The text was truncated to fit size limits; focus on the most important clauses."

// BuildPrompt assembles the user prompt for the given document text.
func BuildPrompt(text string, truncated bool) string {
	var b strings.Builder
	b.WriteString(analysisPrompt)
	if truncated {
		b.WriteString(truncatedNote)
	}
	b.WriteString("\n\nDocument text:\n")
	b.WriteString(text)
	return b.String()
}
