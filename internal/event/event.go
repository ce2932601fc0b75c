// Package event classifies raw log lines.
//
// A line is "VERB CATEGORY ACTIVITY" separated by whitespace. Classification is
// an explicit tag so projections can count what they skip instead of dropping
// lines silently.
package event

import (
	"strings"
)

// VerbStart is the verb that opens a session.
const VerbStart = "START"

// Verbs lists every recognized verb.
var Verbs = []string{"START", "DONE", "TASK", "THEORY", "PRACTICE", "GAME", "NOTE", "GOAL"}

var verbSet = func() map[string]bool {
	m := make(map[string]bool, len(Verbs))
	for _, v := range Verbs {
		m[v] = true
	}
	return m
}()

// Kind tags how projections treat a line.
type Kind int

const (
	// KindUnrecognized lines have fewer than 2 tokens; no projection uses them.
	KindUnrecognized Kind = iota
	// KindCategory lines have at least 2 tokens; token[1] counts as a category.
	KindCategory
	// KindBoundary lines are START lines with at least 3 tokens; they open a session.
	KindBoundary
)

// String returns the kind name used in listings.
func (k Kind) String() string {
	switch k {
	case KindBoundary:
		return "boundary"
	case KindCategory:
		return "category"
	default:
		return "unrecognized"
	}
}

// Line is a classified raw line.
type Line struct {
	Index    int
	Raw      string
	Kind     Kind
	Tokens   []string
	Category string // token[1] when Kind >= KindCategory
}

// Event is a parsed line with a recognized verb and at least 3 tokens.
type Event struct {
	Verb     string `json:"verb"`
	Category string `json:"category"`
	Activity string `json:"activity"`
	Index    int    `json:"index"`
}

// Classify tags one raw line at position idx.
func Classify(idx int, raw string) Line {
	tokens := strings.Fields(raw)
	l := Line{Index: idx, Raw: raw, Tokens: tokens}

	switch {
	case len(tokens) >= 3 && tokens[0] == VerbStart:
		l.Kind = KindBoundary
		l.Category = tokens[1]
	case len(tokens) >= 2:
		l.Kind = KindCategory
		l.Category = tokens[1]
	default:
		l.Kind = KindUnrecognized
	}
	return l
}

// ClassifyAll tags every line, preserving order.
func ClassifyAll(lines []string) []Line {
	out := make([]Line, len(lines))
	for i, raw := range lines {
		out[i] = Classify(i, raw)
	}
	return out
}

// Parse returns the Event for a line, or false if the line is not an Event
// (fewer than 3 tokens or an unknown verb).
func Parse(idx int, raw string) (Event, bool) {
	tokens := strings.Fields(raw)
	if len(tokens) < 3 || !verbSet[tokens[0]] {
		return Event{}, false
	}
	return Event{
		Verb:     tokens[0],
		Category: tokens[1],
		Activity: tokens[2],
		Index:    idx,
	}, true
}

// IsVerb reports whether s is a recognized verb.
func IsVerb(s string) bool {
	return verbSet[s]
}

// Format builds a log line from its parts. Whitespace inside activity is
// replaced with underscores so it stays a single token.
func Format(verb, category, activity string) string {
	return strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(verb)),
		strings.ToUpper(strings.TrimSpace(category)),
		strings.Join(strings.Fields(activity), "_"),
	}, " ")
}
