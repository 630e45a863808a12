package http

import (
	"net/http"

	apierrors "campaignpulse/internal/errors"
)

// MetricsHandler exposes the Prometheus registry fed by the OTel meter
// provider
type MetricsHandler struct {
	exposition   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler wraps the exposition handler; nil means metrics are
// disabled
func NewMetricsHandler(exposition http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(nil, false)
	}
	return &MetricsHandler{exposition: exposition, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exposition == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrServiceUnavailable)
		return
	}
	h.exposition.ServeHTTP(w, r)
}
