// Package fake simula el upstream WBuy en memoria para los tests.
package fake

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/api"
)

// Func adapta una función a api.Getter y registra las llamadas.
type Func struct {
	mu    sync.Mutex
	fn    func(req api.Request) (*api.Response, error)
	calls []api.Request
}

func NewFunc(fn func(req api.Request) (*api.Response, error)) *Func {
	return &Func{fn: fn}
}

func (f *Func) Get(ctx context.Context, req api.Request) (*api.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fn(req)
}

// Calls devuelve una copia de las requests recibidas
func (f *Func) Calls() []api.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Request(nil), f.calls...)
}

// JSON arma una respuesta con el body dado
func JSON(status int, body string) *api.Response {
	return &api.Response{StatusCode: status, Body: []byte(body)}
}

// WBuy es un upstream simulado: /order con bearer, paginación page/page_size,
// filtro status, búsqueda por rastreio y detalle /order/{id}.
type WBuy struct {
	Token  string
	Orders []map[string]any

	// DefaultPageSize: sin parámetros de paginación devuelve los primeros N (0 = todos)
	DefaultPageSize int
	// MaxPageSize recorta page_size y limit en silencio (0 = sin tope)
	MaxPageSize int
	// IgnorePagination: page/page_size no tienen efecto
	IgnorePagination bool
	// IgnoreStatus: el filtro status no tiene efecto
	IgnoreStatus bool
	// SupportsSearch habilita ?rastreio=
	SupportsSearch bool
	// FailPages: página → status HTTP a devolver
	FailPages map[int]int
	// Envelope: clave que envuelve la lista; "-" devuelve la lista sin envoltorio
	Envelope string

	mu    sync.Mutex
	calls []api.Request
}

func (w *WBuy) Get(ctx context.Context, req api.Request) (*api.Response, error) {
	w.mu.Lock()
	w.calls = append(w.calls, req)
	w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Headers.Get("Authorization") != "Bearer "+w.Token {
		return JSON(http.StatusUnauthorized, `{"error":"unauthorized"}`), nil
	}

	path := strings.Trim(req.Path, "/")
	switch {
	case path == "order":
		return w.list(req)
	case strings.HasPrefix(path, "order/"):
		return w.detail(strings.TrimPrefix(path, "order/"))
	default:
		return JSON(http.StatusNotFound, `{"error":"not found"}`), nil
	}
}

// Calls devuelve una copia de las requests recibidas
func (w *WBuy) Calls() []api.Request {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]api.Request(nil), w.calls...)
}

func (w *WBuy) list(req api.Request) (*api.Response, error) {
	orders := w.Orders

	if status := req.Params.Get("status"); status != "" && !w.IgnoreStatus {
		orders = filter(orders, func(o map[string]any) bool {
			return toString(o["status"]) == status
		})
	}
	if code := req.Params.Get("rastreio"); code != "" && w.SupportsSearch {
		orders = filter(orders, func(o map[string]any) bool {
			frete, _ := o["frete"].(map[string]any)
			return strings.EqualFold(toString(frete["rastreio"]), code)
		})
	}

	page, _ := strconv.Atoi(req.Params.Get("page"))
	size, _ := strconv.Atoi(req.Params.Get("page_size"))
	limit, _ := strconv.Atoi(req.Params.Get("limit"))

	if w.MaxPageSize > 0 {
		size = min(size, w.MaxPageSize)
		limit = min(limit, w.MaxPageSize)
	}

	if status, ok := w.FailPages[max(page, 1)]; ok {
		return JSON(status, `{"error":"page failed"}`), nil
	}

	switch {
	case w.IgnorePagination:
		orders = head(orders, w.DefaultPageSize)
	case page > 0:
		if size <= 0 {
			size = 20
		}
		orders = window(orders, (page-1)*size, size)
	case limit > 0:
		orders = head(orders, limit)
	default:
		orders = head(orders, w.DefaultPageSize)
	}

	return w.wrap(orders), nil
}

func (w *WBuy) detail(id string) (*api.Response, error) {
	for _, o := range w.Orders {
		if toString(o["id"]) == id {
			b, _ := json.Marshal(map[string]any{"data": o})
			return &api.Response{StatusCode: http.StatusOK, Body: b}, nil
		}
	}
	return JSON(http.StatusNotFound, `{"error":"order not found"}`), nil
}

func (w *WBuy) wrap(orders []map[string]any) *api.Response {
	if orders == nil {
		orders = []map[string]any{}
	}
	var payload any = map[string]any{"data": orders}
	switch w.Envelope {
	case "":
	case "-":
		payload = orders
	default:
		payload = map[string]any{w.Envelope: orders}
	}
	b, _ := json.Marshal(payload)
	return &api.Response{StatusCode: http.StatusOK, Body: b}
}

func filter(orders []map[string]any, keep func(map[string]any) bool) []map[string]any {
	out := []map[string]any{}
	for _, o := range orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func head(orders []map[string]any, n int) []map[string]any {
	if n <= 0 || n >= len(orders) {
		return orders
	}
	return orders[:n]
}

func window(orders []map[string]any, offset, size int) []map[string]any {
	if offset >= len(orders) {
		return []map[string]any{}
	}
	end := offset + size
	if end > len(orders) {
		end = len(orders)
	}
	return orders[offset:end]
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
