// Package service resuelve pedidos del upstream WBuy por id, por código de
// rastreo o por ventana de fechas, descubriendo en cada consulta cómo hablarle.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/api"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/compare"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/config"
	apperrors "github.com/juancollazo-ch/wbuy-order-resolver-service/internal/errors"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/logging"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/metrics"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/pagination"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/probe"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/worker"
)

// Modos de resolución
const (
	ModeID         = "id"
	ModeTracking   = "tracking"
	ModeDateWindow = "date_window"
)

// Tiers que pueden producir un resultado
const (
	TierDetail = "detail"
	TierSearch = "search"
	TierScan   = "scan"
	TierSweep  = "sweep"
)

// ScanOptions acota los recorridos exhaustivos. Cero toma los valores por defecto
// de la configuración.
type ScanOptions struct {
	PageSize     int
	MaxScanUnits int
}

func (o ScanOptions) withDefaults(cfg *config.Config) ScanOptions {
	if o.PageSize <= 0 {
		o.PageSize = cfg.DefaultPageSize
	}
	if o.MaxScanUnits <= 0 {
		o.MaxScanUnits = cfg.DefaultMaxPages
	}
	return o
}

// LookupResult es el resultado de una búsqueda de un único pedido.
// Record nil es "no encontrado", no un error.
type LookupResult struct {
	Mode      string
	Query     string
	Record    *models.OrderRecord
	Tier      string
	ScanUnits int
	Strategy  *pagination.Strategy
	// Attempts se completa cuando el probing no encontró un shape que funcione
	Attempts []models.Attempt
}

// Found indica si se resolvió el pedido
func (r LookupResult) Found() bool {
	return r.Record != nil
}

// Diagnostics es la traza del probing y del descubrimiento de paginación.
type Diagnostics struct {
	Shape    *models.RequestShape
	Attempts []models.Attempt
	Strategy *pagination.Strategy
	Trials   []pagination.Trial
}

type OrderService struct {
	client     api.Getter
	cfg        *config.Config
	prober     *probe.Prober
	discoverer *pagination.Discoverer
	partitions *worker.Pool
}

func NewOrderService(client api.Getter, cfg *config.Config) *OrderService {
	return &OrderService{
		client:     client,
		cfg:        cfg,
		prober:     probe.NewProber(client, cfg),
		discoverer: pagination.NewDiscoverer(client),
		partitions: worker.NewPool(cfg.PartitionConcurrency),
	}
}

// Resolve clasifica la consulta: dígitos → id, código de rastreo → tracking.
// Cualquier otra cosa es un error de validación.
func (s *OrderService) Resolve(ctx context.Context, query string, opts ScanOptions) (LookupResult, error) {
	query = strings.TrimSpace(query)
	switch {
	case compare.IsNumericID(query):
		return s.ResolveByID(ctx, query)
	case compare.LooksLikeTracking(query):
		return s.ResolveByTracking(ctx, query, opts)
	default:
		return LookupResult{Query: query}, apperrors.ErrValidation("query must be a numeric order id or a tracking code like AB123456789BR", nil)
	}
}

// ResolveByID pide el detalle directo; no hay paginación ni filtro por fecha.
func (s *OrderService) ResolveByID(ctx context.Context, id string) (LookupResult, error) {
	ctx = logging.WithMode(ctx, ModeID)
	logger := zap.L().With(logging.FieldsFromContext(ctx)...)

	id = strings.TrimSpace(id)
	res := LookupResult{Mode: ModeID, Query: id}
	if id == "" {
		return res, apperrors.ErrValidation("order id is required", nil)
	}
	if err := s.requireToken(); err != nil {
		return res, s.fail(ModeID, err)
	}

	probed, err := s.prober.ProbeDetail(ctx, id)
	if err != nil {
		res.Attempts = probed.Attempts
		return res, s.fail(ModeID, err)
	}
	if !probed.Found() {
		res.Attempts = probed.Attempts
		logger.Info("order not found by id", zap.String("order_id", id), zap.Int("attempts", len(probed.Attempts)))
		return s.done(res), nil
	}

	obj, _ := probe.MatchID(probed.Body, id)
	if rec, ok := normalizeOne(obj); ok {
		res.Record = &rec
		res.Tier = TierDetail
	}
	logger.Info("order resolved by id", zap.String("order_id", id), zap.String("endpoint", probed.Shape.Endpoint))
	return s.done(res), nil
}

// Diagnose corre el probing de listado y, si hay shape, el descubrimiento de
// paginación. La traza se devuelve aun cuando hay error.
func (s *OrderService) Diagnose(ctx context.Context) (Diagnostics, error) {
	ctx = logging.WithMode(ctx, "diagnose")

	if err := s.requireToken(); err != nil {
		return Diagnostics{}, err
	}

	probed, err := s.prober.Probe(ctx)
	diag := Diagnostics{Shape: probed.Shape, Attempts: probed.Attempts}
	if err != nil || !probed.Found() {
		return diag, err
	}

	disc, err := s.discoverer.Discover(ctx, *probed.Shape)
	diag.Trials = disc.Trials
	if err != nil {
		return diag, err
	}
	diag.Strategy = &disc.Strategy
	return diag, nil
}

func (s *OrderService) requireToken() error {
	if !s.cfg.HasToken() {
		return apperrors.ErrConfiguration("WBUY_TOKEN ausente")
	}
	return nil
}

func (s *OrderService) done(res LookupResult) LookupResult {
	outcome, tier := "not_found", "none"
	if res.Found() {
		outcome, tier = "found", res.Tier
	}
	metrics.ResolutionsTotal.WithLabelValues(res.Mode, outcome, tier).Inc()
	if res.ScanUnits > 0 {
		metrics.ScanUnitsTotal.WithLabelValues(res.Mode).Add(float64(res.ScanUnits))
	}
	return res
}

func (s *OrderService) fail(mode string, err error) error {
	metrics.ResolutionsTotal.WithLabelValues(mode, "error", "none").Inc()
	return err
}
