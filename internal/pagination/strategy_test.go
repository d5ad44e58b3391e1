package pagination

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategy_Params(t *testing.T) {
	assert.Equal(t, url.Values{}, None(20).Params(0))
	assert.Equal(t, url.Values{"limit": {"50"}}, LimitOnly("limit", 50).Params(3))
	assert.Equal(t, url.Values{"page": {"3"}, "page_size": {"100"}}, PageBased("page", "page_size", 100).Params(2))
	assert.Equal(t, url.Values{"offset": {"200"}, "limit": {"100"}}, OffsetBased("offset", "limit", 100).Params(2))
}

func TestStrategy_WithSize(t *testing.T) {
	assert.Equal(t, 25, PageBased("page", "page_size", 100).WithSize(25).Size)
	assert.Equal(t, 100, PageBased("page", "page_size", 100).WithSize(0).Size)
	assert.Equal(t, 20, None(20).WithSize(50).Size)
	assert.Equal(t, 500, LimitOnly("limit", 100).WithSize(500).Size)

	fixed := PageBased("page", "per_page", 20)
	fixed.FixedSize = true
	assert.Equal(t, 20, fixed.WithSize(10).Size)
}

func TestStrategy_WithSizeCappedAtVerifiedSize(t *testing.T) {
	assert.Equal(t, 100, PageBased("page", "page_size", 100).WithSize(200).Size)
	assert.Equal(t, 100, OffsetBased("offset", "limit", 100).WithSize(500).Size)
}

func TestStrategy_Paginates(t *testing.T) {
	assert.False(t, None(10).Paginates())
	assert.False(t, LimitOnly("limit", 10).Paginates())
	assert.True(t, PageBased("page", "page_size", 10).Paginates())
	assert.True(t, OffsetBased("offset", "limit", 10).Paginates())
}

func TestStrategy_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(PageBased("page", "page_size", 100))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"page_based","description":"page_based(page,page_size=100)","size":100}`, string(b))
}
