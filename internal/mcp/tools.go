package mcp

import "github.com/mark3labs/mcp-go/mcp"

var appendToolDef = mcp.NewTool("event_append",
	mcp.WithDescription("Append one raw line to the event log. "+
		"Lines like \"START <CATEGORY> <activity>\" open a session; any other text is kept verbatim. "+
		"Returns a receipt and the session active after the write."),
	mcp.WithString("event",
		mcp.Required(),
		mcp.Description("Raw event line, e.g. \"START THEORY pandas\""),
	),
)

var listToolDef = mcp.NewTool("event_list",
	mcp.WithDescription("List every non-empty event line in log order."),
)

var timelineToolDef = mcp.NewTool("session_timeline",
	mcp.WithDescription("Derive the session timeline from START events. "+
		"Each session closes at the line before the next START; the last one stays active."),
	mcp.WithString("category",
		mcp.Description("Only return sessions with this exact category"),
	),
)

var currentToolDef = mcp.NewTool("session_current",
	mcp.WithDescription("Return the active session, or null when the log has no sessions."),
)

var ratiosToolDef = mcp.NewTool("ratio_analyze",
	mcp.WithDescription("Count events per category (second token of each line) with percentages "+
		"and the THEORY to PRACTICE ratio."),
)

var queryToolDef = mcp.NewTool("log_query",
	mcp.WithDescription("Free-text query. Text containing \"ratio\" returns the ratio analysis, "+
		"\"session\" or \"timeline\" returns the timeline, anything else returns recent events."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Query text (matching is case-sensitive)"),
	),
)

var reportToolDef = mcp.NewTool("log_report",
	mcp.WithDescription("Render a markdown report of sessions and category ratios."),
)

var exportToolDef = mcp.NewTool("log_export",
	mcp.WithDescription("Write a JSONL snapshot of the log (header plus one classified record per line). "+
		"The file must be a .jsonl directly inside the export directory or an allowed path."),
	mcp.WithString("path",
		mcp.Description("Destination file (default: <export_dir>/events-<timestamp>.jsonl)"),
	),
)
