package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/event"
)

// ExportSchemaVersion is written in every export header.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path        string   // optional, default: <ExportDir>/events-<timestamp>.jsonl
	ExportDir   string   // absolute; always an allowed destination
	AllowedDirs []string // extra absolute directories Path may point into
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt string `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	TallyExport   bool   `json:"_tally_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    string `json:"exported_at"`
	Lines         int    `json:"lines"`
}

// ExportRecord is one classified log line in an export file.
type ExportRecord struct {
	Index    int    `json:"index"`
	Raw      string `json:"raw"`
	Kind     string `json:"kind"`
	Category string `json:"category,omitempty"`
	Verb     string `json:"verb,omitempty"`
	Activity string `json:"activity,omitempty"`
}

// newExportRecord classifies one line for export.
func newExportRecord(l event.Line) ExportRecord {
	rec := ExportRecord{
		Index:    l.Index,
		Raw:      l.Raw,
		Kind:     l.Kind.String(),
		Category: l.Category,
	}
	if ev, ok := event.Parse(l.Index, l.Raw); ok {
		rec.Verb = ev.Verb
		rec.Activity = ev.Activity
	}
	return rec
}

// Export writes a snapshot of the log as JSONL: a header line, then one
// classified record per line in log order. The log itself is only read.
func Export(ctx context.Context, store Store, input ExportInput) (*ExportOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.ExportDir == "" || !filepath.IsAbs(input.ExportDir) {
		return nil, errors.NewInvalidRequest("export directory must be an absolute path")
	}

	ts := now()
	exportedAt := ts.Format(time.RFC3339)

	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(input.ExportDir, fmt.Sprintf("events-%s%s", ts.Format("2006-01-02T150405"), ExportExt))
	}

	allowed := append([]string{input.ExportDir}, input.AllowedDirs...)
	if err := ValidateExportPath(exportPath, allowed); err != nil {
		return nil, err
	}

	lines, err := store.ReadAll()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewIO("mkdir", err)
	}

	// Write to a temp file, then rename, so an existing export survives a failure.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		if errors.As(err) != nil {
			return nil, err
		}
		return nil, errors.NewIO("open", err)
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	if err := enc.Encode(ExportHeader{
		TallyExport:   true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    exportedAt,
		Lines:         len(lines),
	}); err != nil {
		return nil, errors.NewIO("write", err)
	}

	for _, l := range event.ClassifyAll(lines) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := enc.Encode(newExportRecord(l)); err != nil {
			return nil, errors.NewIO("write", err)
		}
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewIO("sync", err)
	}

	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return nil, errors.NewIO("close", err)
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("export path is a symlink")
	}

	// On Windows, os.Rename fails if the destination exists; the existing file is kept.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewIO("rename", err)
	}

	success = true
	slog.Info("log exported", "path", exportPath, "lines", len(lines))
	return &ExportOutput{
		Path:       exportPath,
		Count:      len(lines),
		ExportedAt: exportedAt,
	}, nil
}
