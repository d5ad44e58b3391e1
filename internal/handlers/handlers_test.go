package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-querystring/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/api/fake"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/config"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models/serviceresponse"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/service"
)

type ordersQuery struct {
	From     string   `url:"from,omitempty"`
	To       string   `url:"to,omitempty"`
	Status   []string `url:"status,omitempty"`
	PageSize int      `url:"page_size,omitempty"`
	MaxPages int      `url:"max_pages,omitempty"`
}

type searchQuery struct {
	Q        string `url:"q"`
	MaxPages int    `url:"max_pages,omitempty"`
}

func testConfig() *config.Config {
	return &config.Config{
		APIURL:               "http://wbuy.test",
		Token:                "secret",
		ProbeConcurrency:     1,
		PartitionConcurrency: 1,
		DefaultPageSize:      100,
		DefaultMaxPages:      8,
	}
}

func upstream() *fake.WBuy {
	return &fake.WBuy{Token: "secret", Orders: []map[string]any{
		{"id": 7, "numero": "1007", "data": "2025-09-28 19:28:18", "frete": map[string]any{"rastreio": "ab123456789br", "valor": "15,90"}},
		{"id": 8, "numero": "1008", "data": "2025-08-15 10:00:00", "frete": map[string]any{"rastreio": "CD987654321BR"}},
	}}
}

func newServer(t *testing.T, cfg *config.Config, up *fake.WBuy) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(cfg, service.NewOrderService(up, cfg)))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string, payload any, out any) int {
	t.Helper()
	u, err := url.Parse(srv.URL + path)
	require.NoError(t, err)
	if payload != nil {
		v, err := query.Values(payload)
		require.NoError(t, err)
		u.RawQuery = v.Encode()
	}

	resp, err := http.Get(u.String())
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestListOrders(t *testing.T) {
	srv := newServer(t, testConfig(), upstream())

	var resp serviceresponse.OrdersResponse
	status := get(t, srv, "/api/wbuy/orders", ordersQuery{From: "2025-09-01", To: "2025-09-30"}, &resp)
	require.Equal(t, http.StatusOK, status)

	assert.True(t, resp.OK)
	assert.Equal(t, "2025-09-01", resp.From)
	require.Len(t, resp.Rows, 1)
	row := resp.Rows[0]
	assert.Equal(t, "7", row.OrderID)
	assert.Equal(t, "1007", row.Numero)
	assert.Equal(t, "AB123456789BR", row.Tracking)
	assert.Equal(t, row.Tracking, row.TrackingCode)
	assert.Equal(t, "2025-09-28 19:28:18", row.CreatedAt)
}

func TestListOrders_Validation(t *testing.T) {
	srv := newServer(t, testConfig(), upstream())

	cases := []ordersQuery{
		{From: "01/09/2025"},
		{From: "2025-09-30", To: "2025-09-01"},
		{PageSize: 501},
		{MaxPages: 101},
		{Status: []string{"1;2"}},
	}
	for _, c := range cases {
		var resp serviceresponse.ErrorResponse
		status := get(t, srv, "/api/wbuy/orders", c, &resp)
		assert.Equal(t, http.StatusBadRequest, status, "%+v", c)
		assert.False(t, resp.OK)
		assert.NotEmpty(t, resp.Details)
	}
}

func TestListOrders_MissingToken(t *testing.T) {
	cfg := testConfig()
	cfg.Token = ""
	up := upstream()
	srv := newServer(t, cfg, up)

	var resp serviceresponse.ErrorResponse
	status := get(t, srv, "/api/wbuy/orders", nil, &resp)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "WBUY_TOKEN ausente", resp.Details)
	assert.Empty(t, up.Calls())
}

func TestListOrders_AuthRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Token = "wrong"
	srv := newServer(t, cfg, upstream())

	var resp serviceresponse.ErrorResponse
	status := get(t, srv, "/api/wbuy/orders", nil, &resp)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Upstream rejected credentials", resp.Error)
}

func TestGetOrder(t *testing.T) {
	srv := newServer(t, testConfig(), upstream())

	var resp serviceresponse.LookupResponse
	status := get(t, srv, "/api/wbuy/orders/7", nil, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Found)
	assert.Equal(t, service.TierDetail, resp.Tier)
	require.NotNil(t, resp.Order)
	assert.Equal(t, int64(1590), resp.Order.ShippingCost)

	resp = serviceresponse.LookupResponse{}
	status = get(t, srv, "/api/wbuy/orders/99", nil, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, resp.Found)
	assert.Nil(t, resp.Order)

	status = get(t, srv, "/api/wbuy/orders/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetByTracking(t *testing.T) {
	srv := newServer(t, testConfig(), upstream())

	var resp serviceresponse.LookupResponse
	status := get(t, srv, "/api/wbuy/tracking/cd987654321br", nil, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Found)
	assert.Equal(t, "8", resp.Order.OrderID)

	status = get(t, srv, "/api/wbuy/tracking/XX1BR", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearch(t *testing.T) {
	srv := newServer(t, testConfig(), upstream())

	var resp serviceresponse.LookupResponse
	status := get(t, srv, "/api/wbuy/orders/search", searchQuery{Q: "AB123456789BR"}, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, service.ModeTracking, resp.Mode)
	assert.Equal(t, "7", resp.Order.OrderID)

	resp = serviceresponse.LookupResponse{}
	status = get(t, srv, "/api/wbuy/orders/search", searchQuery{Q: "8"}, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, service.ModeID, resp.Mode)

	status = get(t, srv, "/api/wbuy/orders/search", searchQuery{Q: "whatever"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProbe_RedactsToken(t *testing.T) {
	srv := newServer(t, testConfig(), upstream())

	resp, err := http.Get(srv.URL + "/api/wbuy/probe")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "secret")

	var probe serviceresponse.ProbeResponse
	require.NoError(t, json.Unmarshal(body, &probe))
	assert.True(t, probe.OK)
	require.NotNil(t, probe.Shape)
	assert.Equal(t, "order", probe.Shape.Endpoint)
	assert.NotEmpty(t, probe.Attempts)
}

func TestHealth(t *testing.T) {
	srv := newServer(t, testConfig(), upstream())

	var resp serviceresponse.HealthResponse
	status := get(t, srv, "/health", nil, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.OK)
	assert.True(t, resp.HasToken)
	assert.Equal(t, "http://wbuy.test", resp.APIURL)

	r, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, testConfig(), upstream())
	get(t, srv, "/health", nil, nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `wbuy_http_request_duration_seconds_count{method="GET",route="/health",status_code="200"}`)
}

func TestTraceIDFromHeader(t *testing.T) {
	assert.Equal(t, "abc", TraceIDFromHeader("abc/123;o=1"))
	assert.Equal(t, "abc", TraceIDFromHeader("abc;o=1"))
	assert.Equal(t, "abc", TraceIDFromHeader("abc"))
	assert.Equal(t, "", TraceIDFromHeader(""))
}
