// Package probe descubre qué combinación endpoint × headers × query acepta el
// upstream, emitiendo requests de prueba hasta el primer éxito.
package probe

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/api"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/config"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/envelope"
	apperrors "github.com/juancollazo-ch/wbuy-order-resolver-service/internal/errors"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/logging"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/normalize"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/worker"
)

const (
	tokenPlaceholder = "{token}"
	idPlaceholder    = "{id}"
	redacted         = "***"
)

// Result es el shape ganador (nil si ninguno) y la traza completa de intentos.
type Result struct {
	Shape    *models.RequestShape
	Attempts []models.Attempt
	// Body es la respuesta decodificada del intento ganador
	Body any
}

// Found indica si alguna combinación funcionó
func (r Result) Found() bool {
	return r.Shape != nil
}

type Prober struct {
	client api.Getter
	cfg    *config.Config
	pool   *worker.Pool
}

func NewProber(client api.Getter, cfg *config.Config) *Prober {
	return &Prober{
		client: client,
		cfg:    cfg,
		pool:   worker.NewPool(cfg.ProbeConcurrency),
	}
}

type candidate struct {
	path   string
	header config.HeaderScheme
	query  config.QueryScheme
}

// accept decide si el body de un 2xx cuenta como éxito y cuántos registros trae.
type accept func(body any) (records int, ok bool)

// Probe busca un endpoint de listado que devuelva 2xx y al menos un registro.
//
// Agotar el menú sin éxito no es error: Result.Found() es false. Es error cuando
// todas las respuestas fueron 401/403 (ErrUpstreamAuth), o cuando ningún intento
// obtuvo respuesta HTTP (ErrUpstreamUnavailable).
func (p *Prober) Probe(ctx context.Context) (Result, error) {
	menu := p.cfg.ProbeMenu()
	return p.run(ctx, p.candidates(menu.Endpoints), func(body any) (int, bool) {
		n := len(envelope.List(body))
		return n, n > 0
	})
}

// ProbeDetail prueba las plantillas de detalle para un id concreto. El éxito exige
// que la respuesta contenga un pedido con ese id: un upstream que ignora el path y
// devuelve el listado no cuenta.
func (p *Prober) ProbeDetail(ctx context.Context, id string) (Result, error) {
	menu := p.cfg.ProbeMenu()
	paths := make([]string, 0, len(menu.DetailTemplates))
	for _, tpl := range menu.DetailTemplates {
		paths = append(paths, strings.ReplaceAll(tpl, idPlaceholder, url.PathEscape(id)))
	}

	return p.run(ctx, p.candidates(paths), func(body any) (int, bool) {
		_, ok := MatchID(body, id)
		if ok {
			return 1, true
		}
		return len(envelope.List(body)), false
	})
}

// MatchID busca en la respuesta el objeto cuyo id normalizado es id.
func MatchID(body any, id string) (map[string]any, bool) {
	if single := envelope.Single(body); single != nil {
		if rec, ok := normalize.Record(single); ok && rec.ID == id {
			return single, true
		}
	}
	for _, obj := range envelope.List(body) {
		if rec, ok := normalize.Record(obj); ok && rec.ID == id {
			return obj, true
		}
	}
	return nil, false
}

func (p *Prober) candidates(paths []string) []candidate {
	menu := p.cfg.ProbeMenu()
	out := make([]candidate, 0, len(paths)*len(menu.HeaderSchemes)*len(menu.QuerySchemes))
	for _, path := range paths {
		for _, h := range menu.HeaderSchemes {
			for _, q := range menu.QuerySchemes {
				out = append(out, candidate{path: path, header: h, query: q})
			}
		}
	}
	return out
}

func (p *Prober) run(ctx context.Context, cands []candidate, ok accept) (Result, error) {
	if !p.cfg.HasToken() {
		return Result{}, apperrors.ErrConfiguration("WBUY_TOKEN ausente")
	}

	logger := zap.L().With(logging.FieldsFromContext(ctx)...)

	var mu sync.Mutex
	attempts := make([]*models.Attempt, len(cands))
	bodies := make([]any, len(cands))

	_, idx, found, err := worker.FirstSuccess(ctx, p.pool, len(cands),
		func(ctx context.Context, i int) (struct{}, bool, error) {
			att, body := p.try(ctx, cands[i], ok)
			mu.Lock()
			attempts[i] = &att
			bodies[i] = body
			mu.Unlock()
			return struct{}{}, att.Succeeded(), nil
		})
	if err != nil {
		return Result{}, err
	}

	res := Result{}
	for _, a := range attempts {
		if a != nil {
			res.Attempts = append(res.Attempts, *a)
		}
	}

	if found {
		c := cands[idx]
		res.Shape = &models.RequestShape{
			Endpoint:   c.path,
			HeaderName: c.header.Name,
			QueryName:  c.query.Name,
			Headers:    BuildHeaders(c.header, p.cfg.Token),
			Params:     BuildParams(c.query, p.cfg.Token),
		}
		res.Body = bodies[idx]
		logger.Info("probe succeeded",
			zap.String("endpoint", c.path),
			zap.String("header_scheme", c.header.Name),
			zap.String("query_scheme", c.query.Name),
			zap.Int("attempts", len(res.Attempts)),
		)
		return res, nil
	}

	if authErr := classifyFailure(res.Attempts); authErr != nil {
		logger.Warn("probe exhausted with failure", zap.Int("attempts", len(res.Attempts)), zap.Error(authErr))
		return res, authErr
	}

	logger.Info("probe exhausted without a working request shape", zap.Int("attempts", len(res.Attempts)))
	return res, nil
}

func (p *Prober) try(ctx context.Context, c candidate, ok accept) (models.Attempt, any) {
	headers := BuildHeaders(c.header, p.cfg.Token)
	params := BuildParams(c.query, p.cfg.Token)

	att := models.Attempt{
		Endpoint:    c.path,
		HeaderName:  c.header.Name,
		QueryName:   c.query.Name,
		Params:      redactParams(params, p.cfg.Token),
		HeaderNames: headerNames(headers),
	}

	resp, err := p.client.Get(ctx, api.Request{Path: c.path, Headers: headers, Params: params})
	if err != nil {
		att.Error = err.Error()
		return att, nil
	}
	att.Status = resp.StatusCode
	if !resp.OK() {
		return att, nil
	}

	body, err := envelope.Decode(resp.Body)
	if err != nil {
		att.Error = apperrors.ErrMalformedResponse(c.path, err).Error()
		return att, nil
	}
	att.Shape = envelope.Shape(body)

	n, accepted := ok(body)
	if list := envelope.List(body); len(list) > 0 {
		att.Sample = list[0]
	}
	if accepted {
		att.Records = n
	}
	return att, body
}

// classifyFailure: si todas las respuestas HTTP fueron 401/403 la credencial está
// rechazada; sin ninguna respuesta HTTP el upstream está caído. Cualquier otra
// combinación (p.ej. 404 con el esquema correcto) es "no encontrado".
func classifyFailure(attempts []models.Attempt) error {
	responded, rejected, authStatus := 0, 0, 0
	for _, a := range attempts {
		if a.Status == 0 {
			continue
		}
		responded++
		if a.AuthRejected() {
			rejected++
			if authStatus == 0 {
				authStatus = a.Status
			}
		}
	}

	switch {
	case len(attempts) == 0:
		return nil
	case responded == 0:
		return apperrors.ErrUpstreamUnavailable(0, "no probe combination got an upstream response", nil)
	case rejected == responded:
		return apperrors.ErrUpstreamAuth(authStatus, "every probe combination was rejected by upstream authorization")
	}
	return nil
}

// BuildHeaders arma los headers de un esquema reemplazando {token}.
func BuildHeaders(scheme config.HeaderScheme, token string) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	for k, v := range scheme.Headers {
		h.Set(k, strings.ReplaceAll(v, tokenPlaceholder, token))
	}
	return h
}

// BuildParams arma los parámetros de query de un esquema reemplazando {token}.
func BuildParams(scheme config.QueryScheme, token string) url.Values {
	v := url.Values{}
	for k, val := range scheme.Params {
		v.Set(k, strings.ReplaceAll(val, tokenPlaceholder, token))
	}
	return v
}

func redactParams(params url.Values, token string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k := range params {
		v := params.Get(k)
		if token != "" && strings.Contains(v, token) {
			v = redacted
		}
		out[k] = v
	}
	return out
}

func headerNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
