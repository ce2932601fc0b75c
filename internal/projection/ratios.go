package projection

import (
	"sort"

	"github.com/hpungsan/tally/internal/event"
)

// Category names used by the theory-to-practice ratio.
const (
	CategoryTheory   = "THEORY"
	CategoryPractice = "PRACTICE"
)

// CategoryCount is the share of one category across all counted lines.
type CategoryCount struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RatioAnalysis is the category statistics view.
type RatioAnalysis struct {
	Categories       []CategoryCount `json:"categories"`
	TotalEvents      int             `json:"total_events"`
	TheoryToPractice float64         `json:"theory_to_practice"`

	// SkippedLines counts lines with fewer than 2 tokens.
	SkippedLines int `json:"skipped_lines"`
}

// Ratios counts token[1] of every line with at least 2 tokens, whatever its verb.
// Categories are ordered by descending count, then by name.
//
// TheoryToPractice divides the THEORY count by the PRACTICE count, treating a
// missing PRACTICE category as 1, so a log with no PRACTICE lines reports the
// raw THEORY count.
func Ratios(lines []string) *RatioAnalysis {
	counts := make(map[string]int)
	total, skipped := 0, 0

	for i, raw := range lines {
		l := event.Classify(i, raw)
		if l.Kind == event.KindUnrecognized {
			skipped++
			continue
		}
		counts[l.Category]++
		total++
	}

	categories := make([]CategoryCount, 0, len(counts))
	for cat, n := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(n) / float64(total) * 100
		}
		categories = append(categories, CategoryCount{Category: cat, Count: n, Percentage: pct})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Count != categories[j].Count {
			return categories[i].Count > categories[j].Count
		}
		return categories[i].Category < categories[j].Category
	})

	theory := counts[CategoryTheory]
	practice, ok := counts[CategoryPractice]
	if !ok {
		practice = 1
	}

	return &RatioAnalysis{
		Categories:       categories,
		TotalEvents:      total,
		TheoryToPractice: float64(theory) / float64(practice),
		SkippedLines:     skipped,
	}
}

// RatioAnalyzer derives category statistics from a log on every call.
type RatioAnalyzer struct {
	log LineReader
}

// NewRatioAnalyzer returns an analyzer reading from r.
func NewRatioAnalyzer(r LineReader) *RatioAnalyzer {
	return &RatioAnalyzer{log: r}
}

// Analyze re-reads the log and returns the category statistics.
func (a *RatioAnalyzer) Analyze() (*RatioAnalysis, error) {
	lines, err := a.log.ReadAll()
	if err != nil {
		return nil, err
	}
	return Ratios(lines), nil
}
