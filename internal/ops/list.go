package ops

import (
	"context"
)

// ListEventsOutput contains the raw log listing.
type ListEventsOutput struct {
	Events []string `json:"events"`
	Count  int      `json:"count"`
}

// ListEvents returns every non-empty line, trimmed, in log order.
func ListEvents(ctx context.Context, store Store) (*ListEventsOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines, err := store.ReadAll()
	if err != nil {
		return nil, err
	}
	return &ListEventsOutput{Events: lines, Count: len(lines)}, nil
}
