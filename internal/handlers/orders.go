package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/config"
	apperrors "github.com/juancollazo-ch/wbuy-order-resolver-service/internal/errors"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/logging"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models/serviceresponse"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/service"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/validator"
)

// requestTimeout es el tope de una resolución completa
const requestTimeout = 180 * time.Second

// Resolver es lo que los handlers necesitan del servicio.
type Resolver interface {
	Resolve(ctx context.Context, query string, opts service.ScanOptions) (service.LookupResult, error)
	ResolveByID(ctx context.Context, id string) (service.LookupResult, error)
	ResolveByTracking(ctx context.Context, code string, opts service.ScanOptions) (service.LookupResult, error)
	ResolveByDateWindow(ctx context.Context, window models.DateWindow, statuses []string, opts service.ScanOptions) (service.WindowResult, error)
	Diagnose(ctx context.Context) (service.Diagnostics, error)
}

type OrdersHandler struct {
	svc       Resolver
	cfg       *config.Config
	validator *validator.RequestValidator
	now       func() time.Time
}

func NewOrdersHandler(svc Resolver, cfg *config.Config) *OrdersHandler {
	return &OrdersHandler{
		svc:       svc,
		cfg:       cfg,
		validator: validator.NewRequestValidator(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Routes registra las rutas /api/wbuy
func (h *OrdersHandler) Routes(r chi.Router) {
	r.Route("/api/wbuy", func(r chi.Router) {
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/search", h.Search)
		r.Get("/orders/{id}", h.GetOrder)
		r.Get("/tracking/{code}", h.GetByTracking)
		r.Get("/probe", h.Probe)
	})
}

// ListOrders: GET /api/wbuy/orders?from&to&status&page_size&max_pages
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	window, err := h.validator.ParseWindow(q.Get("from"), q.Get("to"), h.now())
	if err != nil {
		writeError(ctx, w, apperrors.ErrValidation(err.Error(), nil))
		return
	}
	statuses, err := h.validator.ParseStatuses(q["status"])
	if err != nil {
		writeError(ctx, w, apperrors.ErrValidation(err.Error(), nil))
		return
	}
	opts, err := h.scanOptions(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	res, err := h.svc.ResolveByDateWindow(ctx, window, statuses, opts)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	partitions := make([]serviceresponse.Partition, 0, len(res.Partitions))
	for _, p := range res.Partitions {
		partitions = append(partitions, serviceresponse.Partition{
			Status:  p.Status,
			Pages:   p.Pages,
			Records: p.Records,
			Kept:    p.Kept,
			Stop:    p.Stop,
			Error:   p.Error,
		})
	}

	writeJSON(w, http.StatusOK, serviceresponse.OrdersResponse{
		OK:             true,
		From:           window.From.Format(models.DateLayout),
		To:             window.To.Format(models.DateLayout),
		Count:          res.Count,
		Rows:           serviceresponse.NewOrderRows(res.Records),
		Strategy:       res.Strategy,
		StatusFallback: res.StatusFallback,
		ScanUnits:      res.ScanUnits,
		Partitions:     partitions,
		Attempts:       res.Attempts,
	})
}

// GetOrder: GET /api/wbuy/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateOrderID(id); err != nil {
		writeError(ctx, w, apperrors.ErrValidation(err.Error(), nil))
		return
	}

	res, err := h.svc.ResolveByID(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse(res))
}

// GetByTracking: GET /api/wbuy/tracking/{code}?page_size&max_pages
func (h *OrdersHandler) GetByTracking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	code := chi.URLParam(r, "code")
	if err := h.validator.ValidateTrackingCode(code); err != nil {
		writeError(ctx, w, apperrors.ErrValidation(err.Error(), nil))
		return
	}
	opts, err := h.scanOptions(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	res, err := h.svc.ResolveByTracking(ctx, code, opts)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse(res))
}

// Search: GET /api/wbuy/orders/search?q= (id numérico o código de rastreo)
func (h *OrdersHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(ctx, w, apperrors.ErrValidation("q is required", nil))
		return
	}
	opts, err := h.scanOptions(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	res, err := h.svc.Resolve(ctx, query, opts)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse(res))
}

// Probe: GET /api/wbuy/probe. Devuelve la traza aun cuando el probing falla.
func (h *OrdersHandler) Probe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	diag, err := h.svc.Diagnose(ctx)
	resp := serviceresponse.ProbeResponse{
		OK:       err == nil && diag.Shape != nil,
		Shape:    diag.Shape,
		Strategy: diag.Strategy,
		Attempts: diag.Attempts,
		Trials:   diag.Trials,
	}
	if resp.Attempts == nil {
		resp.Attempts = []models.Attempt{}
	}

	status := http.StatusOK
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConfiguration) {
			writeError(ctx, w, err)
			return
		}
		resp.Error = err.Error()
		status = apperrors.GetStatusCode(err)
	}
	writeJSON(w, status, resp)
}

func (h *OrdersHandler) scanOptions(r *http.Request) (service.ScanOptions, error) {
	q := r.URL.Query()
	pageSize, err := validator.ParseBound(q.Get("page_size"), "page_size", h.cfg.DefaultPageSize, validator.MinPageSize, validator.MaxPageSize)
	if err != nil {
		return service.ScanOptions{}, apperrors.ErrValidation(err.Error(), nil)
	}
	maxPages, err := validator.ParseBound(q.Get("max_pages"), "max_pages", h.cfg.DefaultMaxPages, validator.MinMaxPages, validator.MaxMaxPages)
	if err != nil {
		return service.ScanOptions{}, apperrors.ErrValidation(err.Error(), nil)
	}
	return service.ScanOptions{PageSize: pageSize, MaxScanUnits: maxPages}, nil
}

func lookupResponse(res service.LookupResult) serviceresponse.LookupResponse {
	resp := serviceresponse.LookupResponse{
		OK:        true,
		Mode:      res.Mode,
		Query:     res.Query,
		Found:     res.Found(),
		Tier:      res.Tier,
		ScanUnits: res.ScanUnits,
		Strategy:  res.Strategy,
		Attempts:  res.Attempts,
	}
	if res.Record != nil {
		row := serviceresponse.NewOrderRow(*res.Record)
		resp.Order = &row
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError traduce un AppError a status HTTP; cualquier otro error es 500.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := zap.L().With(logging.FieldsFromContext(ctx)...)

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		logger.Error("unexpected error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, serviceresponse.ErrorResponse{Error: "internal error"})
		return
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("code", appErr.Code), zap.Error(err))
	} else {
		logger.Info("request rejected", zap.Int("code", appErr.Code), zap.String("details", appErr.Details))
	}

	writeJSON(w, appErr.StatusCode, serviceresponse.ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}
