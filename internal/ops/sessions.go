package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/tally/internal/projection"
)

// SessionsInput contains parameters for the Sessions operation.
type SessionsInput struct {
	// Category keeps only sessions with this exact category when non-empty.
	Category string
}

// Sessions returns the session timeline, optionally filtered by category.
// Total and Active describe the returned sessions.
func Sessions(ctx context.Context, store Store, input SessionsInput) (*projection.Timeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tl, err := projection.NewSessionProjector(store).Timeline()
	if err != nil {
		return nil, err
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		return tl, nil
	}

	filtered := projection.FilterByCategory(tl.Sessions, category)
	active := 0
	for _, s := range filtered {
		if s.IsActive {
			active++
		}
	}
	return &projection.Timeline{
		Sessions:     filtered,
		Total:        len(filtered),
		Active:       active,
		SkippedLines: tl.SkippedLines,
	}, nil
}

// CurrentSession returns the active session, or nil when none exists.
func CurrentSession(ctx context.Context, store Store) (*projection.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return projection.NewSessionProjector(store).CurrentSession()
}

// Ratios returns per-category counts and the theory-to-practice ratio.
func Ratios(ctx context.Context, store Store) (*projection.RatioAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return projection.NewRatioAnalyzer(store).Analyze()
}
