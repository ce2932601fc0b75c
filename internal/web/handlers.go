package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/ops"
)

// Handlers contains HTTP route handlers for the event API.
type Handlers struct {
	store    ops.Store
	version  string
	renderer *Renderer
}

// EventRequest is the body of POST /events.
type EventRequest struct {
	Event string `json:"event"`
}

// APIResponse wraps the result of a write.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// HandleRoot handles GET / with a plain-text banner.
func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "tally event API %s\n", h.version)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleCreateEvent handles POST /events by appending one raw line.
func (h *Handlers) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeBody(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	out, err := ops.Append(r.Context(), h.store, ops.AppendInput{Event: req.Event})
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, APIResponse{
		Status:  "success",
		Message: "Event logged: " + out.Event,
		Data:    out,
	})
}

// HandleListEvents handles GET /events: every raw line in log order.
func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ListEvents(r.Context(), h.store)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out.Events)
}

// HandleQuery handles POST /query (free-text dispatch).
// Any JSON value is accepted; a body without a string "query" field falls
// through to the raw listing.
func (h *Handlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var body any
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, r, err)
		return
	}
	fields, _ := body.(map[string]any)
	q, _ := fields["query"].(string)

	result, err := ops.Query(r.Context(), h.store, ops.QueryInput{Query: q})
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSessions handles GET /projections/sessions[?category=X].
func (h *Handlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	tl, err := ops.Sessions(r.Context(), h.store, ops.SessionsInput{
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, tl)
}

// HandleCurrent handles GET /projections/current.
func (h *Handlers) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	cur, err := ops.CurrentSession(r.Context(), h.store)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"session": cur})
}

// HandleRatios handles GET /projections/ratios.
func (h *Handlers) HandleRatios(w http.ResponseWriter, r *http.Request) {
	ra, err := ops.Ratios(r.Context(), h.store)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"analysis": ra})
}

// HandleReport handles GET /report. HTML by default, markdown with ?format=md.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Report(r.Context(), h.store)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out.Markdown))
		return
	}

	h.renderer.renderPage(w, "report", ReportPageData{
		Title:        "Activity report",
		Version:      h.version,
		RenderedHTML: RenderMarkdown(out.Markdown),
	})
}

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}
