package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/config"
	apperrors "github.com/juancollazo-ch/wbuy-order-resolver-service/internal/errors"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/metrics"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/retry"
)

// maxBodyBytes limita lo que se lee de una respuesta del upstream
const maxBodyBytes = 32 << 20

// Request es un GET relativo a la URL base del upstream.
type Request struct {
	Path    string
	Headers http.Header
	Params  url.Values
}

// Response es el status y el body crudo; la interpretación del JSON es del caller.
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// OK: 2xx
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Getter es la capacidad de transporte que consume el núcleo.
// Devuelve error solo cuando no hubo respuesta HTTP (timeout, conexión, breaker abierto).
type Getter interface {
	Get(ctx context.Context, req Request) (*Response, error)
}

var errServerStatus = errors.New("upstream 5xx")

type WbuyClient struct {
	http    *http.Client
	base    string
	timeout time.Duration

	// sem es el límite de concurrencia compartido que respeta el rate limit del upstream
	sem     *semaphore.Weighted
	breaker *gobreaker.CircuitBreaker

	retryAttempts int
	retryDelay    time.Duration
}

func NewWbuyClient(cfg *config.Config) (*WbuyClient, error) {
	if cfg.APIURL == "" {
		return nil, errors.New("WBUY_API_URL is required")
	}
	if _, err := url.Parse(cfg.APIURL); err != nil {
		return nil, errors.Wrap(err, "parse WBUY_API_URL")
	}

	timeout := cfg.UpstreamTimeout
	if timeout <= 0 {
		timeout = 40 * time.Second
	}
	maxConcurrency := int64(cfg.UpstreamMaxConcurrency)
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wbuy-upstream",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// una request cancelada por el caller no dice nada de la salud del upstream
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Warn("upstream circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if to == gobreaker.StateOpen {
				metrics.BreakerState.Set(1)
			} else {
				metrics.BreakerState.Set(0)
			}
		},
	})

	return &WbuyClient{
		http:          &http.Client{Timeout: timeout},
		base:          cfg.APIURL,
		timeout:       timeout,
		sem:           semaphore.NewWeighted(maxConcurrency),
		breaker:       breaker,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryBaseDelay,
	}, nil
}

// Get emite el GET con timeout propio. Las respuestas no-2xx se devuelven como
// Response (el caller decide); el error queda para fallas sin respuesta HTTP.
func (c *WbuyClient) Get(ctx context.Context, req Request) (*Response, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, apperrors.ErrUpstreamUnavailable(0, "waiting for upstream slot", err)
	}
	defer c.sem.Release(1)

	var resp *Response
	err := retry.WithRetry(ctx, c.retryAttempts, c.retryDelay, func() error {
		r, err := c.execute(ctx, req)
		resp = r
		return err
	})
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// execute pasa por el breaker: 5xx y fallas de transporte cuentan como error.
func (c *WbuyClient) execute(ctx context.Context, req Request) (*Response, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		r, err := c.do(ctx, req)
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= 500 {
			return r, errServerStatus
		}
		return r, nil
	})

	r, _ := out.(*Response)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, apperrors.ErrUpstreamUnavailable(0, "circuit breaker open", err)
	case r != nil && (r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests):
		return r, apperrors.ErrUpstreamUnavailable(r.StatusCode, fmt.Sprintf("upstream status %d", r.StatusCode), nil)
	case err != nil:
		return nil, apperrors.ErrUpstreamUnavailable(0, "upstream request failed", err)
	}
	return r, nil
}

func (c *WbuyClient) do(ctx context.Context, req Request) (*Response, error) {
	u, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	for k, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	endpoint := endpointLabel(req.Path)
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		observe(endpoint, 0, time.Since(start))
		zap.L().Debug("upstream request failed", zap.String("endpoint", req.Path), zap.Error(err))
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	duration := time.Since(start)
	observe(endpoint, resp.StatusCode, duration)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	zap.L().Debug("upstream request",
		zap.String("endpoint", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return &Response{StatusCode: resp.StatusCode, Body: body, Duration: duration}, nil
}

func (c *WbuyClient) buildURL(req Request) (string, error) {
	u, err := url.Parse(c.base + "/" + strings.TrimLeft(req.Path, "/"))
	if err != nil {
		return "", errors.Wrap(err, "parse url")
	}
	if len(req.Params) > 0 {
		u.RawQuery = req.Params.Encode()
	}
	return u.String(), nil
}

func observe(endpoint string, status int, d time.Duration) {
	class := metrics.StatusClass(status)
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, class).Inc()
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint, class).Observe(d.Seconds())
}

// endpointLabel usa el primer segmento del path para no explotar la cardinalidad con ids
func endpointLabel(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
