package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/tally/internal/errors"
)

// LegacyEvent is one row of the legacy events table. NULL columns read as "".
type LegacyEvent struct {
	ID        int64
	Timestamp string
	EventType string
	Category  string
	Activity  string
}

// ListLegacyEvents returns every legacy event in insertion (id) order.
func ListLegacyEvents(ctx context.Context, database *sql.DB) ([]LegacyEvent, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id,
		       COALESCE(timestamp, ''),
		       COALESCE(event_type, ''),
		       COALESCE(category, ''),
		       COALESCE(activity, '')
		FROM events
		ORDER BY id`)
	if err != nil {
		return nil, errors.NewIO("query", fmt.Errorf("failed to list legacy events: %w", err))
	}
	defer rows.Close()

	return scanLegacyEvents(rows)
}

func scanLegacyEvents(rows *sql.Rows) ([]LegacyEvent, error) {
	events := []LegacyEvent{}
	for rows.Next() {
		var e LegacyEvent
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.EventType, &e.Category, &e.Activity); err != nil {
			return nil, errors.NewIO("scan", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("scan", err)
	}
	return events, nil
}
