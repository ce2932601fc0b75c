package projection

import (
	"github.com/hpungsan/tally/internal/event"
)

// Session is a derived span between two consecutive START lines, or between
// the last START line and the end of the log.
type Session struct {
	Category   string `json:"category"`
	Activity   string `json:"activity"`
	StartIndex int    `json:"start_event_idx"`
	EndIndex   *int   `json:"end_event_idx"`
	IsActive   bool   `json:"is_active"`
}

// Timeline is the session view with summary counts.
type Timeline struct {
	Sessions []Session `json:"sessions"`
	Total    int       `json:"total"`
	Active   int       `json:"active"`

	// SkippedLines counts lines that are not session boundaries.
	SkippedLines int `json:"skipped_lines"`
}

// Sessions reconstructs sessions from lines in a single pass.
// A START line with at least 3 tokens closes the open session at i-1 and
// opens a new one; every other line is inert. The last session stays open.
func Sessions(lines []string) []Session {
	sessions := []Session{}
	var current *Session

	for i, raw := range lines {
		l := event.Classify(i, raw)
		if l.Kind != event.KindBoundary {
			continue
		}

		if current != nil {
			end := i - 1
			current.EndIndex = &end
			current.IsActive = false
			sessions = append(sessions, *current)
		}

		current = &Session{
			Category:   l.Tokens[1],
			Activity:   l.Tokens[2],
			StartIndex: i,
			IsActive:   true,
		}
	}

	if current != nil {
		sessions = append(sessions, *current)
	}
	return sessions
}

// Current returns the active session, or nil. At most one exists.
func Current(sessions []Session) *Session {
	for i := range sessions {
		if sessions[i].IsActive {
			s := sessions[i]
			return &s
		}
	}
	return nil
}

// BuildTimeline composes Sessions with total, active and skipped counts.
func BuildTimeline(lines []string) *Timeline {
	sessions := Sessions(lines)
	active := 0
	for _, s := range sessions {
		if s.IsActive {
			active++
		}
	}
	return &Timeline{
		Sessions:     sessions,
		Total:        len(sessions),
		Active:       active,
		SkippedLines: len(lines) - len(sessions),
	}
}

// FilterByCategory returns the sessions whose category equals category.
func FilterByCategory(sessions []Session, category string) []Session {
	out := []Session{}
	for _, s := range sessions {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// SessionProjector derives sessions from a log on every call.
type SessionProjector struct {
	log LineReader
}

// NewSessionProjector returns a projector reading from r.
func NewSessionProjector(r LineReader) *SessionProjector {
	return &SessionProjector{log: r}
}

// AllSessions re-reads the log and returns every session in order.
func (p *SessionProjector) AllSessions() ([]Session, error) {
	lines, err := p.log.ReadAll()
	if err != nil {
		return nil, err
	}
	return Sessions(lines), nil
}

// CurrentSession returns the active session, or nil when the log has no START line.
func (p *SessionProjector) CurrentSession() (*Session, error) {
	sessions, err := p.AllSessions()
	if err != nil {
		return nil, err
	}
	return Current(sessions), nil
}

// Timeline returns all sessions with total and active counts.
func (p *SessionProjector) Timeline() (*Timeline, error) {
	lines, err := p.log.ReadAll()
	if err != nil {
		return nil, err
	}
	return BuildTimeline(lines), nil
}
