// Package eventlog is the append-only event store: one newline-delimited text
// file, written only by Append and never rewritten, truncated or compacted.
package eventlog

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/tally/internal/errors"
)

// DefaultMaxLineBytes bounds a single line so an append stays one small write.
const DefaultMaxLineBytes = 4096

// Option configures a Log.
type Option func(*Log)

// WithMaxLineBytes sets the maximum encoded line length (newline included).
// n <= 0 disables the check.
func WithMaxLineBytes(n int) Option {
	return func(l *Log) { l.maxLineBytes = n }
}

// Log is the append-only event log at a fixed path.
// It holds no open handle between calls; every call opens the file itself.
type Log struct {
	path         string
	maxLineBytes int
}

// New returns a Log backed by the file at path. The file is created on first Append.
func New(path string, opts ...Option) *Log {
	l := &Log{
		path:         path,
		maxLineBytes: DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the backing file location.
func (l *Log) Path() string {
	return l.path
}

// Normalize trims trailing whitespace and appends exactly one newline.
// It rejects lines that are empty after trimming, contain line breaks, or are
// not valid UTF-8.
func Normalize(line string) (string, error) {
	trimmed := strings.TrimRight(line, " \t\r\n\v\f")
	if strings.TrimSpace(trimmed) == "" {
		return "", errors.NewInvalidRequest("event line must not be empty")
	}
	if strings.ContainsAny(trimmed, "\r\n") {
		return "", errors.NewInvalidRequest("event line must be a single line")
	}
	if !utf8.ValidString(trimmed) {
		return "", errors.NewInvalidRequest("event line must be valid UTF-8")
	}
	return trimmed + "\n", nil
}

// Append writes one line to the end of the log in a single write call.
// The file is opened create-if-absent and append-only; existing bytes are
// never touched.
func (l *Log) Append(line string) error {
	data, err := Normalize(line)
	if err != nil {
		return err
	}
	if l.maxLineBytes > 0 && len(data) > l.maxLineBytes {
		return errors.NewInvalidRequest(fmt.Sprintf("event line exceeds %d bytes", l.maxLineBytes))
	}

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.NewIO("open", err)
		}
	}

	f, err := openAppend(l.path)
	if err != nil {
		return errors.NewIO("open", err)
	}

	n, err := f.Write([]byte(data))
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		f.Close()
		return errors.NewIO("write", err)
	}
	if err := f.Close(); err != nil {
		return errors.NewIO("close", err)
	}
	return nil
}

// ReadAll returns every non-empty line, trimmed, in log order.
// A log that does not exist yet reads as empty.
func (l *Log) ReadAll() ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errors.NewIO("open", err)
	}
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return nil, errors.NewIO("read", err)
	}
	return lines, nil
}

// readLines splits r on '\n' with no line length limit.
func readLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	lines := []string{}
	for {
		s, err := br.ReadString('\n')
		if t := strings.TrimSpace(s); t != "" {
			lines = append(lines, t)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
