package ops

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hpungsan/tally/internal/db"
	"github.com/hpungsan/tally/internal/event"
)

// DefaultLegacyCategory replaces an empty legacy category.
const DefaultLegacyCategory = "TASK"

// ImportSQLiteInput contains parameters for the ImportSQLite operation.
type ImportSQLiteInput struct {
	Path   string // legacy SQLite database, required
	DryRun bool   // convert only, append nothing
}

// ImportSQLiteOutput contains the result of the ImportSQLite operation.
type ImportSQLiteOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	DryRun   bool          `json:"dry_run"`
	Lines    []string      `json:"lines"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes a legacy row that could not be converted.
type ImportError struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportSQLite replays rows of a legacy context database into the log, one
// "VERB CATEGORY ACTIVITY" line per row in id order. Writes go through
// Store.Append only. Lines appended before a failure stay in the log.
func ImportSQLite(ctx context.Context, store Store, input ImportSQLiteInput) (*ImportSQLiteOutput, error) {
	database, err := db.OpenLegacy(ctx, input.Path)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	rows, err := db.ListLegacyEvents(ctx, database)
	if err != nil {
		return nil, err
	}

	out := &ImportSQLiteOutput{
		DryRun: input.DryRun,
		Lines:  []string{},
		Errors: []ImportError{},
	}

	for _, row := range rows {
		line, ierr := legacyLine(row)
		if ierr != nil {
			out.Skipped++
			out.Errors = append(out.Errors, *ierr)
			continue
		}
		out.Lines = append(out.Lines, line)
	}

	if input.DryRun {
		return out, nil
	}

	for _, line := range out.Lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := store.Append(line); err != nil {
			slog.Error("import stopped", "imported", out.Imported, "err", err)
			return nil, err
		}
		out.Imported++
	}

	slog.Info("legacy import finished", "path", input.Path, "imported", out.Imported, "skipped", out.Skipped)
	return out, nil
}

// legacyLine converts one legacy row into a log line.
func legacyLine(row db.LegacyEvent) (string, *ImportError) {
	verb := strings.ToUpper(strings.TrimSpace(row.EventType))
	if len(strings.Fields(verb)) != 1 {
		return "", &ImportError{ID: row.ID, Code: "INVALID_EVENT_TYPE", Message: "event_type must be a single non-empty token"}
	}
	if strings.TrimSpace(row.Activity) == "" {
		return "", &ImportError{ID: row.ID, Code: "MISSING_ACTIVITY", Message: "activity is empty"}
	}

	category := strings.Join(strings.Fields(row.Category), "_")
	if category == "" {
		category = DefaultLegacyCategory
	}

	return event.Format(verb, category, row.Activity), nil
}
