package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/tally/internal/projection"
)

// ReportOutput contains the rendered activity report.
type ReportOutput struct {
	Markdown string `json:"markdown"`
}

// Report renders the current session, the session timeline and the category
// ratios as one markdown document. Both views come from a single log read.
func Report(ctx context.Context, store Store) (*ReportOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines, err := store.ReadAll()
	if err != nil {
		return nil, err
	}
	return &ReportOutput{Markdown: RenderReport(projection.BuildTimeline(lines), projection.Ratios(lines))}, nil
}

// RenderReport formats a timeline and ratio analysis as markdown.
func RenderReport(tl *projection.Timeline, ra *projection.RatioAnalysis) string {
	var b strings.Builder

	b.WriteString("# Activity report\n\n")
	fmt.Fprintf(&b, "_%d sessions, %d counted events_\n\n", tl.Total, ra.TotalEvents)

	b.WriteString("## Now\n\n")
	if cur := projection.Current(tl.Sessions); cur != nil {
		fmt.Fprintf(&b, "**%s** %s (since line %d)\n\n", cell(cur.Category), cell(cur.Activity), cur.StartIndex)
	} else {
		b.WriteString("_No active session._\n\n")
	}

	b.WriteString("## Sessions\n\n")
	if len(tl.Sessions) == 0 {
		b.WriteString("_No sessions yet._\n\n")
	} else {
		b.WriteString("| # | Category | Activity | Lines | Status |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for i, s := range tl.Sessions {
			span := fmt.Sprintf("%d-", s.StartIndex)
			status := "active"
			if s.EndIndex != nil {
				span = fmt.Sprintf("%d-%d", s.StartIndex, *s.EndIndex)
				status = "closed"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n", i+1, cell(s.Category), cell(s.Activity), span, status)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Categories\n\n")
	if len(ra.Categories) == 0 {
		b.WriteString("_No categorized events yet._\n\n")
	} else {
		b.WriteString("| Category | Count | Share |\n")
		b.WriteString("|---|---|---|\n")
		for _, c := range ra.Categories {
			fmt.Fprintf(&b, "| %s | %d | %.1f%% |\n", cell(c.Category), c.Count, c.Percentage)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Theory to practice: **%.2f**\n", ra.TheoryToPractice)
	return b.String()
}

// cell escapes a token for use inside a markdown table.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
