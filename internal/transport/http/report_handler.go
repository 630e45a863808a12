package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "campaignpulse/internal/errors"
	"campaignpulse/internal/infrastructure"
	"campaignpulse/internal/middleware"
	"campaignpulse/internal/services"
	api "campaignpulse/pkg/contracts/api/v1"
)

// ReportHandler serves the analysis results of the published run
type ReportHandler struct {
	service      ReportServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *middleware.RequestValidator
}

// NewReportHandler creates a report handler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &ReportHandler{
		service:      service,
		logger:       infrastructure.WithComponent(logger, "report_handler"),
		errorHandler: errorHandler,
		validator:    middleware.NewRequestValidator(),
	}
}

// Routes returns the report routes, meant to be mounted at /api/v1
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/cohorts/{metric}", h.GetCohortMatrix)
	r.Route("/segments", func(r chi.Router) {
		r.Get("/rfm", h.GetRFM)
		r.Get("/clusters", h.GetClusters)
	})
	r.Route("/channels", func(r chi.Router) {
		r.Get("/", h.GetChannels)
		r.Get("/significance", h.GetSignificance)
		r.Get("/recommendations", h.GetRecommendations)
	})
	r.Get("/dashboard", h.GetDashboard)

	r.NotFound(h.errorHandler.NotFound)
	r.MethodNotAllowed(h.errorHandler.MethodNotAllowed)
	return r
}

// fail maps service errors onto API errors before rendering
func (h *ReportHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrReportNotReady):
		err = apierrors.ErrReportNotFound
	case errors.Is(err, services.ErrChannelNotFound):
		err = apierrors.NotFoundError("channel")
	case errors.Is(err, services.ErrUnknownMatrix):
		err = apierrors.ErrValidation("metric", "metric must be one of: retention, conversion, roi")
	}
	h.errorHandler.HandleError(w, r, err)
}

// GetSummary handles GET /api/v1/summary
func (h *ReportHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// GetCohortMatrix handles GET /api/v1/cohorts/{metric}
func (h *ReportHandler) GetCohortMatrix(w http.ResponseWriter, r *http.Request) {
	req := api.CohortMatrixRequest{Metric: chi.URLParam(r, "metric")}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.CohortMatrix(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// GetRFM handles GET /api/v1/segments/rfm
func (h *ReportHandler) GetRFM(w http.ResponseWriter, r *http.Request) {
	limit, err := middleware.QueryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	req := api.RFMListRequest{SortBy: q.Get("sort_by"), Order: q.Get("order"), Limit: limit}
	if q.Has("limit") && limit == 0 {
		h.fail(w, r, apierrors.ErrValidation("limit", "limit must be at least 1"))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.fail(w, r, err)
		return
	}

	rows, err := h.service.RFM(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, api.NewListResponse(rows))
}

// GetClusters handles GET /api/v1/segments/clusters
func (h *ReportHandler) GetClusters(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Clusters(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

func (h *ReportHandler) channelRequest(r *http.Request) (api.ChannelListRequest, error) {
	req := api.ChannelListRequest{Channel: r.URL.Query().Get("channel")}
	return req, h.validator.ValidateStruct(req)
}

// GetChannels handles GET /api/v1/channels
func (h *ReportHandler) GetChannels(w http.ResponseWriter, r *http.Request) {
	req, err := h.channelRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	metrics, err := h.service.Channels(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, api.NewListResponse(metrics))
}

// GetSignificance handles GET /api/v1/channels/significance
func (h *ReportHandler) GetSignificance(w http.ResponseWriter, r *http.Request) {
	tests, err := h.service.Significance(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, api.NewListResponse(tests))
}

// GetRecommendations handles GET /api/v1/channels/recommendations
func (h *ReportHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	req, err := h.channelRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	recs, err := h.service.Recommendations(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, api.NewListResponse(recs))
}

// GetDashboard handles GET /api/v1/dashboard
func (h *ReportHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, ds)
}
