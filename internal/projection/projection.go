// Package projection derives read-only views from the raw event log.
//
// Every view is a pure function of the line sequence; the reader-backed
// projector types re-read the log on each call and keep no state between calls.
package projection

// LineReader supplies the full log contents in order.
// *eventlog.Log satisfies it.
type LineReader interface {
	ReadAll() ([]string, error)
}
