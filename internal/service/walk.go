package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/aggregate"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/api"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/envelope"
	apperrors "github.com/juancollazo-ch/wbuy-order-resolver-service/internal/errors"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/logging"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/normalize"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/pagination"
)

// Motivos de fin de un recorrido de páginas
const (
	StopEmptyPage    = "empty_page"
	StopShortPage    = "short_page"
	StopRepeatedPage = "repeated_page"
	StopSinglePage   = "single_page"
	StopMaxUnits     = "max_units"
	StopVisitor      = "visitor"
	StopPageFailed   = "page_failed"
)

type walkReport struct {
	Units   int
	Fetched int
	Records int
	Stop    string
	// Failure es la falla recuperada que cortó el recorrido
	Failure error
}

// visitFunc recibe los registros normalizados de cada página; true corta el recorrido.
type visitFunc func(records []models.OrderRecord) bool

// walk recorre páginas según la estrategia hasta maxUnits. Termina antes cuando
// una página viene vacía, trae menos registros que el tamaño pedido, no aporta
// ningún id nuevo, o falla. Solo 401/403 se devuelve como error.
func (s *OrderService) walk(
	ctx context.Context,
	shape models.RequestShape,
	strategy pagination.Strategy,
	extra url.Values,
	maxUnits int,
	visit visitFunc,
) (walkReport, error) {
	logger := zap.L().With(logging.FieldsFromContext(ctx)...)
	rep := walkReport{Stop: StopMaxUnits}
	seen := aggregate.Seen{}

	for step := 0; step < maxUnits; step++ {
		if err := ctx.Err(); err != nil {
			return rep, apperrors.ErrUpstreamUnavailable(0, "resolution deadline exceeded", err)
		}

		params := strategy.Params(step)
		for k, v := range extra {
			params[k] = v
		}

		rep.Units++
		resp, err := s.client.Get(ctx, api.Request{
			Path:    shape.Endpoint,
			Headers: shape.Headers,
			Params:  shape.MergedParams(params),
		})
		if err != nil {
			rep.Stop, rep.Failure = StopPageFailed, err
			logger.Warn("page fetch failed", zap.Int("step", step), zap.Error(err))
			return rep, nil
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return rep, apperrors.ErrUpstreamAuth(resp.StatusCode,
				fmt.Sprintf("%s rejected credentials while scanning", shape.Endpoint))
		}
		if !resp.OK() {
			rep.Stop = StopPageFailed
			rep.Failure = apperrors.ErrUpstreamUnavailable(resp.StatusCode,
				fmt.Sprintf("%s page %d returned status %d", shape.Endpoint, step, resp.StatusCode), nil)
			logger.Warn("page returned non-success status", zap.Int("step", step), zap.Int("status", resp.StatusCode))
			return rep, nil
		}
		rep.Fetched++

		body, err := envelope.Decode(resp.Body)
		if err != nil {
			logger.Warn("malformed page body, treated as empty", zap.Int("step", step),
				zap.Error(apperrors.ErrMalformedResponse(shape.Endpoint, err)))
		}
		list := envelope.List(body)
		if len(list) == 0 {
			rep.Stop = StopEmptyPage
			return rep, nil
		}

		records := normalize.Records(list)
		rep.Records += len(records)
		if seen.Add(records) == 0 {
			rep.Stop = StopRepeatedPage
			return rep, nil
		}
		if visit(records) {
			rep.Stop = StopVisitor
			return rep, nil
		}
		if len(list) < strategy.Size {
			rep.Stop = StopShortPage
			return rep, nil
		}
		if !strategy.Paginates() {
			rep.Stop = StopSinglePage
			return rep, nil
		}
	}

	return rep, nil
}

// normalizeOne normaliza un objeto ya ubicado en la respuesta.
func normalizeOne(obj map[string]any) (models.OrderRecord, bool) {
	if obj == nil {
		return models.OrderRecord{}, false
	}
	return normalize.Record(obj)
}
