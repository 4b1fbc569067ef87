package handlers

import (
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/ledger"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/series"
	"sales-dashboard/internal/services"
)

const (
	uploadMemory      = 8 << 20
	defaultSearchSize = 20
	noStore           = "no-store"
)

type APIHandlers struct {
	session  *services.Session
	logger   *slog.Logger
	currency string
}

func NewAPIHandlers(session *services.Session, logger *slog.Logger, currency string) *APIHandlers {
	return &APIHandlers{
		session:  session,
		logger:   logger,
		currency: currency,
	}
}

type uploadResult struct {
	Report ingest.Report  `json:"report"`
	Stats  map[string]any `json:"stats"`
}

// HandleUpload runs one load action over the multipart "files" field. An
// optional "variant" field overrides the configured export format. Datastar
// requests get the dashboard body patched back instead of JSON.
func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	report, err := h.load(r)
	if isDatastar(r) {
		h.respondUploadSSE(w, r, err)
		return
	}
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccessWithHeaders(w, uploadResult{Report: report, Stats: h.session.Stats()}, map[string]string{
		"Cache-Control": noStore,
	})
}

func (h *APIHandlers) load(r *http.Request) (ingest.Report, error) {
	if h.session.Loading() {
		return ingest.Report{}, ledger.ErrLoadInProgress
	}
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return ingest.Report{}, err
		}
		return ingest.Report{}, errors.BadRequestWrap(err, "Expected a multipart form with CSV files")
	}
	defer r.MultipartForm.RemoveAll()

	variant := ledger.Unset
	if raw := r.FormValue("variant"); strings.TrimSpace(raw) != "" {
		v, err := ledger.ParseVariant(raw)
		if err != nil {
			return ingest.Report{}, err
		}
		variant = v
	}

	headers := r.MultipartForm.File["files"]
	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, ingest.File{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	return h.session.Load(r.Context(), files, variant)
}

func (h *APIHandlers) HandleItems(w http.ResponseWriter, r *http.Request) {
	if err := h.requireData(); err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccessWithHeaders(w, h.session.Totals(), map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.requireData(); err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	limit := defaultSearchSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errors.WriteError(w, h.logger, errors.Validation("limit must be a positive integer"), observability.GetRequestID(r.Context()))
			return
		}
		limit = n
	}

	errors.WriteSuccess(w, h.session.Catalog().Search(r.URL.Query().Get("q"), limit))
}

// HandleSeries recomputes the view for ?selected=<name> (repeatable; absent
// means every item) and ?window=<days>.
func (h *APIHandlers) HandleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var names []string
	if vals, ok := q["selected"]; ok {
		names = nonEmpty(vals)
	}

	window := series.ParseWindow(q.Get("window"), h.session.Options().DefaultWindow)

	view, err := h.session.Recompute(r.Context(), h.session.SelectedOrAll(names), window)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccessWithHeaders(w, view, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleCountries(w http.ResponseWriter, r *http.Request) {
	if err := h.requireData(); err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccessWithHeaders(w, h.session.Countries(), map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"state":     h.session.State().String(),
		"loading":   strconv.FormatBool(h.session.Loading()),
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.session.Stats())
}

func (h *APIHandlers) requireData() error {
	if h.session.State() == services.StateEmpty {
		return ledger.ErrEmptyDataset
	}
	return nil
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
