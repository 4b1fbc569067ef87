package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/catalog"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/series"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const maxListed = 200

// refreshSignals is the part of the page state the server reads back.
// Selected is nil when the client never sent it, which means every item.
type refreshSignals struct {
	Selected []string `json:"selected"`
	Window   any      `json:"window"`
	Search   string   `json:"search"`
}

type SSEHandlers struct {
	session  *services.Session
	logger   *slog.Logger
	currency string
}

func NewSSEHandlers(session *services.Session, logger *slog.Logger, currency string) *SSEHandlers {
	return &SSEHandlers{
		session:  session,
		logger:   logger,
		currency: currency,
	}
}

// HandleRefresh recomputes the view for the client's selection and window,
// then patches the chart signals, the summary, the item list and the tables.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	signals, ok := h.readSignals(w, r)
	if !ok {
		return
	}
	h.recompute(w, r, h.session.SelectedOrAll(signals.Selected), signals, nil)
}

func (h *SSEHandlers) HandleSelectAll(w http.ResponseWriter, r *http.Request) {
	signals, ok := h.readSignals(w, r)
	if !ok {
		return
	}
	cat := h.session.Catalog()
	h.recompute(w, r, catalog.SelectAll(cat), signals, cat.Names())
}

func (h *SSEHandlers) HandleSelectNone(w http.ResponseWriter, r *http.Request) {
	signals, ok := h.readSignals(w, r)
	if !ok {
		return
	}
	h.recompute(w, r, catalog.SelectNone(), signals, []string{})
}

func (h *SSEHandlers) readSignals(w http.ResponseWriter, r *http.Request) (refreshSignals, bool) {
	var signals refreshSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Invalid datastar signals"), observability.GetRequestID(r.Context()))
		return signals, false
	}
	return signals, true
}

// recompute moves the session to the filtered view for sel and patches the
// page. A non-nil selected replaces the client's $selected first.
func (h *SSEHandlers) recompute(w http.ResponseWriter, r *http.Request, sel catalog.Selection, signals refreshSignals, selected []string) {
	sse := datastar.NewSSE(w, r)
	log := observability.LoggerFrom(r.Context(), h.logger)

	if h.session.State() == services.StateEmpty {
		patchComponent(r.Context(), sse, log, templates.Body(DashboardData(h.session, h.currency)))
		return
	}

	window := series.ParseWindow(windowString(signals.Window), h.session.Options().DefaultWindow)
	view, err := h.session.Recompute(r.Context(), sel, window)
	if err != nil {
		patchMessage(sse, log, errors.FromLedger(err))
		return
	}

	if selected != nil {
		if err := patchJSON(sse, map[string]any{"selected": selected}); err != nil {
			log.Error("patch selection", "error", err)
			return
		}
	}
	if err := patchJSON(sse, newChartSignals(view)); err != nil {
		log.Error("patch chart signals", "error", err)
		return
	}

	patchComponent(r.Context(), sse, log, templates.Summary(view.Rows, len(view.Selected), view.Window))
	patchComponent(r.Context(), sse, log, templates.ItemList(h.listed(signals.Search)))
	patchComponent(r.Context(), sse, log, templates.ItemTable(view.Items, h.currency))
	patchComponent(r.Context(), sse, log, templates.CountryTable(view.Countries, h.currency))
}

// listed returns the item list shown in the sidebar for a search query.
func (h *SSEHandlers) listed(search string) []string {
	matches := h.session.Catalog().Search(search, maxListed)
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	return names
}

func patchComponent(ctx context.Context, sse *datastar.ServerSentEventGenerator, log *slog.Logger, c templ.Component) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		log.Error("render fragment", "error", err)
		return
	}
	if err := sse.PatchElements(sb.String()); err != nil {
		log.Warn("patch elements", "error", err)
	}
}

func patchJSON(sse *datastar.ServerSentEventGenerator, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}
	return sse.PatchSignals(data)
}

func patchMessage(sse *datastar.ServerSentEventGenerator, log *slog.Logger, appErr *errors.AppError) {
	msg := appErr.Message
	if appErr.Details != "" {
		msg += ": " + appErr.Details
	}
	log.Warn("dashboard request failed", "error_code", appErr.Code, "cause", appErr.Cause)
	if err := patchJSON(sse, map[string]string{"message": msg}); err != nil {
		log.Error("patch message", "error", err)
	}
}

// respondUploadSSE answers a datastar upload: the whole body on success, a
// status message otherwise.
func (h *APIHandlers) respondUploadSSE(w http.ResponseWriter, r *http.Request, loadErr error) {
	sse := datastar.NewSSE(w, r)
	log := observability.LoggerFrom(r.Context(), h.logger)

	if loadErr != nil {
		patchMessage(sse, log, errors.FromLedger(loadErr))
		return
	}

	view, err := h.session.View()
	if err != nil {
		patchMessage(sse, log, errors.FromLedger(err))
		return
	}

	d := DashboardData(h.session, h.currency)
	if err := patchJSON(sse, map[string]any{
		"selected": d.Names,
		"search":   "",
	}); err != nil {
		log.Error("patch upload signals", "error", err)
		return
	}
	if err := patchJSON(sse, newChartSignals(view)); err != nil {
		log.Error("patch chart signals", "error", err)
		return
	}
	patchComponent(r.Context(), sse, log, templates.Body(d))
}

func windowString(v any) string {
	switch w := v.(type) {
	case nil:
		return ""
	case string:
		return w
	case float64:
		if w != float64(int(w)) {
			return ""
		}
		return strconv.Itoa(int(w))
	default:
		return fmt.Sprint(w)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
