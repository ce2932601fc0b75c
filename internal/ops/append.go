package ops

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/event"
	"github.com/hpungsan/tally/internal/projection"
)

// AppendInput contains parameters for the Append operation.
type AppendInput struct {
	Event string
}

// AppendOutput contains the result of the Append operation.
type AppendOutput struct {
	ReceiptID   string              `json:"receipt_id"`
	Event       string              `json:"event"`
	Timestamp   string              `json:"timestamp"`
	SessionInfo *projection.Session `json:"session_info"`
	Recognized  bool                `json:"recognized"`
}

// Append writes one raw event line and returns the session derived right after.
// This is the only operation that mutates durable state. Once the write has
// landed the call succeeds; a failed session lookup leaves SessionInfo nil.
func Append(ctx context.Context, store Store, input AppendInput) (*AppendOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line := strings.TrimSpace(input.Event)
	if line == "" {
		return nil, errors.NewInvalidRequest("event is required")
	}

	if err := store.Append(line); err != nil {
		return nil, err
	}
	ts := now()
	recognized := event.IsVerb(strings.Fields(line)[0])
	slog.Debug("event appended", "line", line, "recognized", recognized)

	current, err := projection.NewSessionProjector(store).CurrentSession()
	if err != nil {
		slog.Warn("session lookup after append failed", "err", err)
		current = nil
	}

	return &AppendOutput{
		ReceiptID:   newReceiptID(ts),
		Event:       line,
		Timestamp:   ts.Format(time.RFC3339),
		SessionInfo: current,
		Recognized:  recognized,
	}, nil
}
