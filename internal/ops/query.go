package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/tally/internal/projection"
)

// QueryInput contains parameters for the Query operation.
type QueryInput struct {
	Query string
}

// QueryResult is the envelope returned for free-text queries.
type QueryResult struct {
	Query      string `json:"query"`
	ResultType string `json:"result_type"`
	Data       any    `json:"data"`
}

// RecentData is the fallback payload: the raw log listing.
type RecentData struct {
	Events []string `json:"events"`
}

// Route picks the result type for a query string. Matching is a
// case-sensitive substring test: "ratio" wins over "session"/"timeline".
func Route(query string) string {
	switch {
	case strings.Contains(query, "ratio"):
		return ResultTypeAnalysis
	case strings.Contains(query, "session"), strings.Contains(query, "timeline"):
		return ResultTypeSessions
	default:
		return ResultTypeRecent
	}
}

// Query dispatches a free-text query to the matching projection.
func Query(ctx context.Context, store Store, input QueryInput) (*QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &QueryResult{Query: input.Query, ResultType: Route(input.Query)}

	switch result.ResultType {
	case ResultTypeAnalysis:
		analysis, err := projection.NewRatioAnalyzer(store).Analyze()
		if err != nil {
			return nil, err
		}
		result.Data = analysis
	case ResultTypeSessions:
		tl, err := projection.NewSessionProjector(store).Timeline()
		if err != nil {
			return nil, err
		}
		result.Data = tl
	default:
		lines, err := store.ReadAll()
		if err != nil {
			return nil, err
		}
		result.Data = RecentData{Events: lines}
	}

	return result, nil
}
