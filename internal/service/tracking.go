package service

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/api"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/compare"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/envelope"
	apperrors "github.com/juancollazo-ch/wbuy-order-resolver-service/internal/errors"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/logging"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/normalize"
)

// ResolveByTracking busca un pedido por código de rastreo en dos tiers:
// búsqueda del lado del servidor y, si no alcanza, recorrido exhaustivo acotado
// por opts.MaxScanUnits. Agotar el recorrido sin coincidencia no es error.
func (s *OrderService) ResolveByTracking(ctx context.Context, code string, opts ScanOptions) (LookupResult, error) {
	ctx = logging.WithMode(ctx, ModeTracking)
	logger := zap.L().With(logging.FieldsFromContext(ctx)...)

	res := LookupResult{Mode: ModeTracking, Query: compare.DisplayTracking(code)}
	if compare.CanonicalTracking(code) == "" {
		return res, apperrors.ErrValidation("tracking code is required", nil)
	}
	if err := s.requireToken(); err != nil {
		return res, s.fail(ModeTracking, err)
	}
	opts = opts.withDefaults(s.cfg)

	probed, err := s.prober.Probe(ctx)
	if err != nil {
		res.Attempts = probed.Attempts
		return res, s.fail(ModeTracking, err)
	}
	if !probed.Found() {
		res.Attempts = probed.Attempts
		return s.done(res), nil
	}
	shape := *probed.Shape

	// tier 1: búsqueda del lado del servidor
	rec, err := s.searchTracking(ctx, shape, code)
	if err != nil {
		return res, s.fail(ModeTracking, err)
	}
	if rec != nil {
		res.Record, res.Tier = rec, TierSearch
		logger.Info("tracking resolved by server-side search", zap.String("order_id", rec.ID))
		return s.done(res), nil
	}

	// tier 2: recorrido exhaustivo
	disc, err := s.discoverer.Discover(ctx, shape)
	if err != nil {
		return res, s.fail(ModeTracking, err)
	}
	strategy := disc.Strategy.WithSize(opts.PageSize)
	res.Strategy = &strategy

	var match *models.OrderRecord
	rep, err := s.walk(ctx, shape, strategy, nil, opts.MaxScanUnits, func(records []models.OrderRecord) bool {
		for i := range records {
			if compare.TrackingEqual(records[i].Tracking, code) {
				match = &records[i]
				return true
			}
		}
		return false
	})
	res.ScanUnits = rep.Units
	if err != nil {
		return res, s.fail(ModeTracking, err)
	}

	res.Record = match
	if match != nil {
		res.Tier = TierScan
		logger.Info("tracking resolved by scan", zap.String("order_id", match.ID), zap.Int("scan_units", rep.Units))
	} else {
		logger.Info("tracking not found",
			zap.Int("scan_units", rep.Units),
			zap.String("stop", rep.Stop),
			zap.String("strategy", strategy.String()),
		)
	}
	return s.done(res), nil
}

// searchTracking prueba los parámetros de búsqueda del menú. Un upstream que
// ignora el parámetro devuelve el listado normal; por eso se exige coincidencia.
func (s *OrderService) searchTracking(ctx context.Context, shape models.RequestShape, code string) (*models.OrderRecord, error) {
	logger := zap.L().With(logging.FieldsFromContext(ctx)...)
	display := compare.DisplayTracking(code)

	for _, param := range s.cfg.ProbeMenu().SearchParams {
		resp, err := s.client.Get(ctx, api.Request{
			Path:    shape.Endpoint,
			Headers: shape.Headers,
			Params:  shape.MergedParams(url.Values{param: {display}}),
		})
		if err != nil {
			logger.Warn("tracking search failed", zap.String("param", param), zap.Error(err))
			continue
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, apperrors.ErrUpstreamAuth(resp.StatusCode, "upstream rejected credentials during tracking search")
		}
		if !resp.OK() {
			continue
		}

		body, err := envelope.Decode(resp.Body)
		if err != nil {
			continue
		}
		for _, obj := range envelope.List(body) {
			rec, ok := normalize.Record(obj)
			if ok && compare.TrackingEqual(rec.Tracking, code) {
				return &rec, nil
			}
		}
	}
	return nil, nil
}
