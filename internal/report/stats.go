package report

import (
	"fmt"

	"legalyzer/internal/domain"
)

const maxInsights = 5

// Statistics summarizes the clause list of an analysis.
type Statistics struct {
	TotalClauses     int            `json:"total_clauses"`
	ImportanceCounts map[string]int `json:"importance_counts"`
	RiskCounts       map[string]int `json:"risk_counts"`
	TypeCounts       map[string]int `json:"type_counts"`
	MostCommonType   string         `json:"most_common_type"`
	UniqueTypes      int            `json:"unique_types"`
}

// ComputeStatistics counts clauses by importance, risk band and type.
// Ties for the most common type go to the type seen first.
func ComputeStatistics(result *domain.AnalysisResult, bands domain.RiskBands) Statistics {
	stats := Statistics{
		TotalClauses:     len(result.KeyClauses),
		ImportanceCounts: levelCounts(),
		RiskCounts:       levelCounts(),
		TypeCounts:       map[string]int{},
		MostCommonType:   "N/A",
	}

	best := 0
	for _, c := range result.KeyClauses {
		stats.ImportanceCounts[string(c.Importance)]++
		stats.RiskCounts[string(bands.Bucket(c.RiskScore))]++
		stats.TypeCounts[c.Type]++
		if n := stats.TypeCounts[c.Type]; n > best {
			best = n
			stats.MostCommonType = c.Type
		}
	}
	stats.UniqueTypes = len(stats.TypeCounts)
	return stats
}

func levelCounts() map[string]int {
	return map[string]int{
		string(domain.ImportanceHigh):   0,
		string(domain.ImportanceMedium): 0,
		string(domain.ImportanceLow):    0,
	}
}

// KeyInsights returns up to five short observations for the report header.
func KeyInsights(result *domain.AnalysisResult, stats Statistics) []string {
	var insights []string

	if n := stats.ImportanceCounts[string(domain.ImportanceHigh)]; n > 0 {
		insights = append(insights, fmt.Sprintf("Found %d high-importance clause%s requiring attention", n, plural(n)))
	}
	if n := stats.RiskCounts[string(domain.ImportanceHigh)]; n > 0 {
		insights = append(insights, fmt.Sprintf("Identified %d high-risk clause%s that may need legal review", n, plural(n)))
	}

	switch {
	case stats.TotalClauses > 10:
		insights = append(insights, "This is a complex document with numerous legal provisions")
	case stats.TotalClauses < 3:
		insights = append(insights, "This appears to be a relatively simple document")
	}

	if stats.UniqueTypes > 5 {
		insights = append(insights, "Document contains diverse clause types indicating comprehensive coverage")
	}

	switch {
	case result.Confidence < 0.7:
		insights = append(insights, "Analysis confidence is moderate - manual review recommended")
	case result.Confidence > 0.9:
		insights = append(insights, "High confidence analysis with clear document structure")
	}

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
