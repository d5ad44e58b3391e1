package pagination

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/api"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/api/fake"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
)

func orders(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"id": i + 1}
	}
	return out
}

func shape() models.RequestShape {
	return models.RequestShape{
		Endpoint: "order",
		Headers:  http.Header{"Authorization": {"Bearer secret"}},
	}
}

func TestDiscover_PageBasedWhenPagesDiffer(t *testing.T) {
	up := &fake.WBuy{Token: "secret", Orders: orders(250), DefaultPageSize: 20}

	res, err := NewDiscoverer(up).Discover(context.Background(), shape())
	require.NoError(t, err)

	assert.Equal(t, PageBased("page", "page_size", TrialSize), res.Strategy)
	assert.Len(t, res.Trials, 3, "baseline + two trial pages")
}

func TestDiscover_IdenticalFirstRecordsAreNotPagination(t *testing.T) {
	up := &fake.WBuy{Token: "secret", Orders: orders(30), DefaultPageSize: 30, IgnorePagination: true}

	res, err := NewDiscoverer(up).Discover(context.Background(), shape())
	require.NoError(t, err)

	assert.False(t, res.Strategy.Paginates())
	assert.Equal(t, None(30), res.Strategy)
}

func TestDiscover_LimitOnlyWhenWideningReturnsMore(t *testing.T) {
	up := fake.NewFunc(func(req api.Request) (*api.Response, error) {
		n := 10
		if l, err := strconv.Atoi(req.Params.Get("limit")); err == nil && req.Params.Get("page") == "" &&
			req.Params.Get("offset") == "" && req.Params.Get("start") == "" {
			n = l
		}
		return fake.JSON(http.StatusOK, list(1, n)), nil
	})

	res, err := NewDiscoverer(up).Discover(context.Background(), shape())
	require.NoError(t, err)
	assert.Equal(t, LimitOnly("limit", TrialSize), res.Strategy)
}

func TestDiscover_OffsetBased(t *testing.T) {
	up := fake.NewFunc(func(req api.Request) (*api.Response, error) {
		if req.Params.Get("offset") == "" {
			return fake.JSON(http.StatusOK, `{"data":[]}`), nil
		}
		offset, _ := strconv.Atoi(req.Params.Get("offset"))
		return fake.JSON(http.StatusOK, list(offset+1, TrialSize)), nil
	})

	res, err := NewDiscoverer(up).Discover(context.Background(), shape())
	require.NoError(t, err)
	assert.Equal(t, OffsetBased("offset", "limit", TrialSize), res.Strategy)
}

func TestDiscover_NothingMatchesFallsBackToNone(t *testing.T) {
	up := fake.NewFunc(func(req api.Request) (*api.Response, error) {
		return fake.JSON(http.StatusBadRequest, `{}`), nil
	})

	res, err := NewDiscoverer(up).Discover(context.Background(), shape())
	require.NoError(t, err)
	assert.Equal(t, None(TrialSize), res.Strategy)
}

func TestDiscover_MalformedTrialIsRecorded(t *testing.T) {
	up := fake.NewFunc(func(req api.Request) (*api.Response, error) {
		return fake.JSON(http.StatusOK, `{"data":[`), nil
	})

	res, err := NewDiscoverer(up).Discover(context.Background(), shape())
	require.NoError(t, err)
	assert.Equal(t, None(TrialSize), res.Strategy)
	require.NotEmpty(t, res.Trials)
	assert.Equal(t, http.StatusOK, res.Trials[0].Status)
	assert.Contains(t, res.Trials[0].Error, "Malformed upstream response")
}

func TestDiscover_IgnoredSizeParamKeepsObservedSize(t *testing.T) {
	// el fake solo entiende page_size: con per_page pagina de a 20
	up := &fake.WBuy{Token: "secret", Orders: orders(40)}

	res, err := NewDiscoverer(up).Discover(context.Background(), shape())
	require.NoError(t, err)

	want := PageBased("page", "per_page", 20)
	want.FixedSize = true
	assert.Equal(t, want, res.Strategy)
	assert.Equal(t, 20, res.Strategy.WithSize(100).Size)
}

func TestDiscover_SecondPageEmptyIsNotPagination(t *testing.T) {
	up := fake.NewFunc(func(req api.Request) (*api.Response, error) {
		p := req.Params
		if p.Get("page") == "2" || p.Get("offset") == "100" || p.Get("start") == "100" {
			return fake.JSON(http.StatusOK, `{"data":[]}`), nil
		}
		return fake.JSON(http.StatusOK, list(1, 5)), nil
	})

	res, err := NewDiscoverer(up).Discover(context.Background(), shape())
	require.NoError(t, err)
	assert.Equal(t, None(5), res.Strategy)
}

func TestDiscover_KeepsShapeParams(t *testing.T) {
	up := &fake.WBuy{Token: "secret", Orders: orders(5)}
	s := shape()
	s.Params = map[string][]string{"token": {"secret"}}

	_, err := NewDiscoverer(up).Discover(context.Background(), s)
	require.NoError(t, err)
	for _, call := range up.Calls() {
		assert.Equal(t, "secret", call.Params.Get("token"))
	}
}

func list(from, n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf(`{"id":%d}`, from+i))
	}
	return `{"data":[` + strings.Join(parts, ",") + `]}`
}
