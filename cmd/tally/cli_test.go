package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/eventlog"
	"github.com/hpungsan/tally/internal/ops"
	"github.com/hpungsan/tally/internal/projection"
)

// setupTestLog creates an event log in a temp dir, seeded with lines.
func setupTestLog(t *testing.T, lines ...string) *eventlog.Log {
	t.Helper()
	store := eventlog.New(filepath.Join(t.TempDir(), "master.log"))
	for _, line := range lines {
		if err := store.Append(line); err != nil {
			t.Fatalf("failed to seed log: %v", err)
		}
	}
	return store
}

// runCLI runs the app with stdin fed from the given text and returns stdout.
func runCLI(t *testing.T, store ops.Store, stdin string, args ...string) (string, error) {
	t.Helper()
	return runCLIWithConfig(t, store, config.DefaultConfig(), stdin, args...)
}

func runCLIWithConfig(t *testing.T, store ops.Store, cfg *config.Config, stdin string, args ...string) (string, error) {
	t.Helper()

	app := newCLIApp(store, cfg)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	oldStdin := os.Stdin
	stdinR, stdinW, _ := os.Pipe()
	os.Stdin = stdinR
	go func() {
		_, _ = stdinW.WriteString(stdin)
		stdinW.Close()
	}()

	err := app.Run(append([]string{"tally"}, args...))

	os.Stdin = oldStdin
	stdinR.Close()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"tally"}, false},
		{[]string{"tally", "append"}, true},
		{[]string{"tally", "import-sqlite"}, true},
		{[]string{"tally", "serve"}, true},
		{[]string{"tally", "export"}, true},
		{[]string{"tally", "mcp"}, true},
		{[]string{"tally", "--help"}, true},
		{[]string{"tally", "-v"}, true},
		{[]string{"tally", "bogus"}, false},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if got := isCLIMode(tt.args); got != tt.want {
				t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestIsTerminal_NonTerminalStdin(t *testing.T) {
	orig := os.Stdin
	t.Cleanup(func() { os.Stdin = orig })

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	os.Stdin = r
	if isTerminal() {
		t.Error("isTerminal() = true for a pipe")
	}

	// A closed stdin cannot be stat'ed.
	r.Close()
	if isTerminal() {
		t.Error("isTerminal() = true for a closed stdin")
	}
}

func TestSplitLines(t *testing.T) {
	lines, err := splitLines(strings.NewReader("START A x\n\n  NOTE y  \r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0] != "START A x" || lines[1] != "NOTE y" {
		t.Errorf("lines = %q", lines)
	}
}

func TestCLIAppend_Args(t *testing.T) {
	store := setupTestLog(t)

	out, err := runCLI(t, store, "", "append", "START", "THEORY", "pandas")
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	var output ops.AppendOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Event != "START THEORY pandas" {
		t.Errorf("event = %q", output.Event)
	}
	if output.SessionInfo == nil || output.SessionInfo.Activity != "pandas" {
		t.Errorf("session_info = %+v", output.SessionInfo)
	}
}

func TestCLIAppend_Stdin(t *testing.T) {
	store := setupTestLog(t)

	out, err := runCLI(t, store, "START THEORY pandas\n\nNOTE reading docs\n", "append")
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	var outputs []ops.AppendOutput
	if err := json.Unmarshal([]byte(out), &outputs); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if len(outputs) != 2 {
		t.Fatalf("got %d receipts, want 2", len(outputs))
	}
	if outputs[0].ReceiptID >= outputs[1].ReceiptID {
		t.Errorf("receipt IDs should increase: %s, %s", outputs[0].ReceiptID, outputs[1].ReceiptID)
	}

	lines, err := store.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[1] != "NOTE reading docs" {
		t.Errorf("log = %v", lines)
	}
}

func TestCLIAppend_NoInput(t *testing.T) {
	store := setupTestLog(t)

	_, err := runCLI(t, store, "", "append")
	if err == nil {
		t.Fatal("expected error for empty append")
	}
	if !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestCLIEvents(t *testing.T) {
	store := setupTestLog(t, "START A x", "NOTE y")

	out, err := runCLI(t, store, "", "events")
	if err != nil {
		t.Fatalf("events failed: %v", err)
	}

	var output ops.ListEventsOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Count != 2 || output.Events[1] != "NOTE y" {
		t.Errorf("output = %+v", output)
	}
}

func TestCLISessions(t *testing.T) {
	store := setupTestLog(t, "START THEORY pandas", "START PRACTICE rust", "START THEORY numpy")

	out, err := runCLI(t, store, "", "sessions", "--category=THEORY")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}

	var tl projection.Timeline
	if err := json.Unmarshal([]byte(out), &tl); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if tl.Total != 2 || tl.Active != 1 {
		t.Errorf("total/active = %d/%d, want 2/1", tl.Total, tl.Active)
	}
	if *tl.Sessions[0].EndIndex != 0 {
		t.Errorf("first session end = %d, want 0", *tl.Sessions[0].EndIndex)
	}
}

func TestCLICurrent(t *testing.T) {
	store := setupTestLog(t)

	out, err := runCLI(t, store, "", "current")
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if !strings.Contains(out, `"session": null`) {
		t.Errorf("output = %s, want null session", out)
	}
}

func TestCLIRatios(t *testing.T) {
	store := setupTestLog(t, "START THEORY a", "START PRACTICE b", "START PRACTICE c")

	out, err := runCLI(t, store, "", "ratios")
	if err != nil {
		t.Fatalf("ratios failed: %v", err)
	}

	var ra projection.RatioAnalysis
	if err := json.Unmarshal([]byte(out), &ra); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if ra.Categories[0].Category != "PRACTICE" || ra.TheoryToPractice != 0.5 {
		t.Errorf("analysis = %+v", ra)
	}
}

func TestCLIQuery(t *testing.T) {
	store := setupTestLog(t, "START THEORY pandas")

	out, err := runCLI(t, store, "", "query", "show", "timeline")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	var res map[string]any
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if res["query"] != "show timeline" || res["result_type"] != "sessions" {
		t.Errorf("result = %v", res)
	}
}

func TestCLIReport(t *testing.T) {
	store := setupTestLog(t, "START THEORY pandas")

	out, err := runCLI(t, store, "", "report")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.HasPrefix(out, "# Activity report") {
		t.Errorf("markdown = %q", out)
	}

	out, err = runCLI(t, store, "", "report", "--html")
	if err != nil {
		t.Fatalf("report --html failed: %v", err)
	}
	if !strings.Contains(out, "<h1>Activity report</h1>") {
		t.Errorf("html = %q", out)
	}
}

func TestCLIImportSQLite_DryRun(t *testing.T) {
	store := setupTestLog(t)
	dbPath := filepath.Join(t.TempDir(), "context.db")

	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_, err = database.Exec(`CREATE TABLE events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT,
		event_type TEXT,
		category TEXT,
		activity TEXT
	)`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = database.Exec(`INSERT INTO events (timestamp, event_type, category, activity)
		VALUES ('2024-01-01T10:00:00Z', 'start', 'theory', 'pandas')`)
	if err != nil {
		t.Fatal(err)
	}
	database.Close()

	out, err := runCLI(t, store, "", "import-sqlite", "--db="+dbPath, "--dry-run")
	if err != nil {
		t.Fatalf("import-sqlite failed: %v", err)
	}

	var output ops.ImportSQLiteOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Imported != 0 || !output.DryRun || len(output.Lines) != 1 || output.Lines[0] != "START THEORY pandas" {
		t.Errorf("output = %+v", output)
	}

	lines, err := store.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("dry run wrote %v", lines)
	}
}

func TestCLIImportSQLite_Missing(t *testing.T) {
	store := setupTestLog(t)

	_, err := runCLI(t, store, "", "import-sqlite", "--db="+filepath.Join(t.TempDir(), "nope.db"))
	if err == nil || !strings.Contains(err.Error(), "[NOT_FOUND]") {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestCLIExport(t *testing.T) {
	store := setupTestLog(t, "START THEORY pandas", "NOTE x")
	cfg := config.DefaultConfig()
	cfg.ExportDir = t.TempDir()

	exportPath := filepath.Join(cfg.ExportDir, "snap.jsonl")
	out, err := runCLIWithConfig(t, store, cfg, "", "export", "--path="+exportPath)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var output ops.ExportOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Path != exportPath || output.Count != 2 {
		t.Errorf("output = %+v", output)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 3 {
		t.Errorf("export has %d lines, want header + 2", got)
	}
}

func TestCLIExport_OutsideAllowedDir(t *testing.T) {
	store := setupTestLog(t, "START A x")
	cfg := config.DefaultConfig()
	cfg.ExportDir = t.TempDir()

	_, err := runCLIWithConfig(t, store, cfg, "", "export", "--path="+filepath.Join(t.TempDir(), "x.jsonl"))
	if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestCLI_IOError(t *testing.T) {
	store := eventlog.New(t.TempDir())

	for _, cmd := range []string{"events", "sessions", "current", "ratios", "report"} {
		t.Run(cmd, func(t *testing.T) {
			_, err := runCLI(t, store, "", cmd)
			if err == nil || !strings.Contains(err.Error(), "[IO_ERROR]") {
				t.Errorf("err = %v, want IO_ERROR", err)
			}
		})
	}
}
