package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "darkwatch/internal/errors"
	"darkwatch/internal/exporter"
	"darkwatch/internal/middleware"
	"darkwatch/internal/services"
	"darkwatch/pkg/contracts/domain"
)

const dateParamLayout = "2006-01-02"

// DashboardHandler serves the aggregate views over a session's working
// set.
type DashboardHandler struct {
	service      *services.DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service *services.DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.GetDashboard)
	r.Get("/table", h.GetTable)
	r.Get("/export", h.Export)
	return r
}

// dateRangeQuery holds the optional start/end query parameters.
type dateRangeQuery struct {
	Start string `validate:"omitempty,datetime=2006-01-02"`
	End   string `validate:"omitempty,datetime=2006-01-02"`
}

// GetDashboard handles GET /api/dashboard. The optional start and end
// query parameters narrow every returned view to findings whose
// timestamp falls inside the range, both ends inclusive at day
// granularity.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshot(w, r)
	if err != nil {
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"statistics":         snapshot.Statistics,
		"findings_over_time": snapshot.OverTime,
		"keyword_frequency":  snapshot.Keywords,
	})
}

// GetTable handles GET /api/dashboard/table. It returns the individual
// findings rows under the same date filter as the chart views.
func (h *DashboardHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshot(w, r)
	if err != nil {
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"rows":  snapshot.Rows,
		"count": len(snapshot.Rows),
	})
}

// Export handles GET /api/dashboard/export. It streams the filtered
// findings as a CSV or Excel download, selected by the format query
// parameter.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "Format must be csv or xlsx"))
		return
	}

	snapshot, err := h.snapshot(w, r)
	if err != nil {
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	if err := exporter.Write(w, format, snapshot.Rows); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.ErrorContext(r.Context(), "export write failed",
			slog.String("error", err.Error()),
			slog.String("format", string(format)),
		)
	}
}

// snapshot parses the date filter, fetches the session view, and writes
// the error response itself when anything fails.
func (h *DashboardHandler) snapshot(w http.ResponseWriter, r *http.Request) (*services.Snapshot, error) {
	reqID := middleware.GetReqID(r.Context())
	sessionID := middleware.GetSessionID(r.Context())

	filter, err := h.parseDateFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, err
	}

	snapshot, err := h.service.Snapshot(r.Context(), sessionID, filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build dashboard snapshot",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("session_id", sessionID),
		)
		if errors.Is(err, services.ErrSessionNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.ErrSessionNotFound)
			return nil, err
		}
		h.errorHandler.HandleError(w, r, err)
		return nil, err
	}
	return snapshot, nil
}

func (h *DashboardHandler) parseDateFilter(r *http.Request) (domain.DateFilter, error) {
	q := dateRangeQuery{
		Start: r.URL.Query().Get("start"),
		End:   r.URL.Query().Get("end"),
	}
	if err := h.validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := "start"
			if verrs[0].Field() == "End" {
				field = "end"
			}
			return domain.DateFilter{}, apierrors.ErrValidation(field, "Date must be formatted as YYYY-MM-DD")
		}
		return domain.DateFilter{}, apierrors.InvalidRequestWithError(err)
	}

	var filter domain.DateFilter
	if q.Start != "" {
		t, _ := time.Parse(dateParamLayout, q.Start)
		filter.Start = t
	}
	if q.End != "" {
		t, _ := time.Parse(dateParamLayout, q.End)
		filter.End = t
	}
	return filter, nil
}
