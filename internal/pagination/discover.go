package pagination

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"go.uber.org/zap"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/api"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/envelope"
	apperrors "github.com/juancollazo-ch/wbuy-order-resolver-service/internal/errors"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/logging"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
)

const (
	// TrialSize es el tamaño de página generoso de las pruebas
	TrialSize = 100
	// genericLimitParam es el parámetro usado para probar LimitOnly
	genericLimitParam = "limit"
)

type paramPair struct {
	first  string
	second string
}

// Candidatos en orden de prioridad: page antes que offset, y ambos antes que limit.
var (
	pageCandidates = []paramPair{
		{"page", "page_size"},
		{"page", "per_page"},
		{"page", "limit"},
		{"pagina", "por_pagina"},
	}
	offsetCandidates = []paramPair{
		{"offset", "limit"},
		{"start", "limit"},
	}
)

// Trial es una prueba de la traza de descubrimiento.
type Trial struct {
	Params  map[string]string `json:"params,omitempty"`
	Status  int               `json:"status"`
	Records int               `json:"records"`
	Error   string            `json:"error,omitempty"`
}

type Result struct {
	Strategy Strategy `json:"strategy"`
	Trials   []Trial  `json:"trials"`
}

type Discoverer struct {
	client    api.Getter
	trialSize int
}

func NewDiscoverer(client api.Getter) *Discoverer {
	return &Discoverer{client: client, trialSize: TrialSize}
}

// Discover determina la estrategia de paginación para un shape confirmado.
//
// Un candidato page/offset se adopta cuando sus dos pruebas (página 1 y 2, u
// offset 0 y size) responden 2xx, ambas no vacías y con primer registro distinto:
// esa diferencia es la única señal de paginación real. Si ninguno pagina y la
// prueba sin parámetros trajo registros, se prueba ampliar con "limit"; más
// registros ⇒ LimitOnly. En otro caso None con el tamaño observado.
func (d *Discoverer) Discover(ctx context.Context, shape models.RequestShape) (Result, error) {
	logger := zap.L().With(logging.FieldsFromContext(ctx)...)
	res := Result{}

	base := d.fetch(ctx, shape, nil, &res)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	candidates := make([]Strategy, 0, len(pageCandidates)+len(offsetCandidates))
	for _, c := range pageCandidates {
		candidates = append(candidates, PageBased(c.first, c.second, d.trialSize))
	}
	for _, c := range offsetCandidates {
		candidates = append(candidates, OffsetBased(c.first, c.second, d.trialSize))
	}

	for _, s := range candidates {
		first := d.fetch(ctx, shape, s.Params(0), &res)
		if len(first) == 0 {
			continue
		}
		second := d.fetch(ctx, shape, s.Params(1), &res)
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if len(second) == 0 || sameRecord(first[0], second[0]) {
			continue
		}

		if len(first) < d.trialSize {
			// hay segunda página pero la primera vino corta: el tamaño pedido se ignora
			s.Size = len(first)
			s.FixedSize = true
		}
		res.Strategy = s
		logger.Info("pagination discovered", zap.String("strategy", s.String()), zap.Int("trials", len(res.Trials)))
		return res, nil
	}

	if len(base) > 0 {
		widened := d.fetch(ctx, shape, LimitOnly(genericLimitParam, d.trialSize).Params(0), &res)
		if len(widened) > len(base) {
			res.Strategy = LimitOnly(genericLimitParam, d.trialSize)
			logger.Info("pagination discovered", zap.String("strategy", res.Strategy.String()))
			return res, nil
		}
		res.Strategy = None(len(base))
	} else {
		res.Strategy = None(d.trialSize)
	}

	logger.Info("upstream does not paginate", zap.String("strategy", res.Strategy.String()), zap.Int("trials", len(res.Trials)))
	return res, ctx.Err()
}

// fetch devuelve la lista de la prueba; cualquier falla cuenta como lista vacía.
func (d *Discoverer) fetch(ctx context.Context, shape models.RequestShape, extra url.Values, res *Result) []map[string]any {
	trial := Trial{Params: flatten(extra)}
	defer func() { res.Trials = append(res.Trials, trial) }()

	resp, err := d.client.Get(ctx, api.Request{
		Path:    shape.Endpoint,
		Headers: shape.Headers,
		Params:  shape.MergedParams(extra),
	})
	if err != nil {
		trial.Error = err.Error()
		return nil
	}
	trial.Status = resp.StatusCode
	if !resp.OK() {
		return nil
	}

	body, err := envelope.Decode(resp.Body)
	if err != nil {
		trial.Error = apperrors.ErrMalformedResponse(shape.Endpoint, err).Error()
		return nil
	}
	list := envelope.List(body)
	trial.Records = len(list)
	return list
}

// sameRecord compara dos objetos por su JSON canónico (claves ordenadas).
func sameRecord(a, b map[string]any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

func flatten(v url.Values) map[string]string {
	if len(v) == 0 {
		return nil
	}
	out := make(map[string]string, len(v))
	for k := range v {
		out[k] = v.Get(k)
	}
	return out
}
