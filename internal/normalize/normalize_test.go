package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/envelope"
)

func object(t *testing.T, body string) map[string]any {
	t.Helper()
	v, err := envelope.Decode([]byte(body))
	require.NoError(t, err)
	obj, ok := v.(map[string]any)
	require.True(t, ok)
	return obj
}

func TestRecord_WBuyShape(t *testing.T) {
	rec, ok := Record(object(t, `{
		"id": 7,
		"numero": "1001",
		"data": "2025-09-28 19:28:18",
		"status": {"id": 3, "nome": "Enviado"},
		"frete": {"rastreio": " ab123456789br ", "nome": "SEDEX", "valor": "15,90"}
	}`))
	require.True(t, ok)

	assert.Equal(t, "7", rec.ID)
	assert.Equal(t, "1001", rec.Number)
	assert.Equal(t, "Enviado", rec.Status)
	assert.Equal(t, "2025-09-28 19:28:18", rec.CreatedAt)
	assert.Equal(t, "AB123456789BR", rec.Tracking)
	assert.Equal(t, "SEDEX", rec.Service)
	assert.Equal(t, int64(1590), rec.ShippingCost)
	require.NotNil(t, rec.Date)
	assert.Equal(t, time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC), *rec.Date)
}

func TestRecord_NestedTrackingBeatsTopLevel(t *testing.T) {
	rec, ok := Record(object(t, `{
		"id": "x1",
		"tracking": "ZZ000000000BR",
		"rastreio": "YY000000000BR",
		"frete": {"codigo_rastreio": "AA111111111BR"}
	}`))
	require.True(t, ok)
	assert.Equal(t, "AA111111111BR", rec.Tracking)

	rec, _ = Record(object(t, `{"id": "x1", "tracking": "ZZ000000000BR", "rastreio": "YY000000000BR", "frete": {"rastreio": ""}}`))
	assert.Equal(t, "YY000000000BR", rec.Tracking, "empty candidates are skipped")
}

func TestRecord_NumberAliasesInOrder(t *testing.T) {
	rec, _ := Record(object(t, `{"id": 1, "identificacao": "ID-3", "order_number": "ON-2"}`))
	assert.Equal(t, "ON-2", rec.Number)
}

func TestRecord_DropsWithoutID(t *testing.T) {
	_, ok := Record(object(t, `{"numero": "1001"}`))
	assert.False(t, ok)

	_, ok = Record(object(t, `{"id": ""}`))
	assert.False(t, ok)

	recs := Records([]map[string]any{
		object(t, `{"id": 1}`),
		object(t, `{"numero": "2"}`),
		object(t, `{"order_id": 3}`),
	})
	require.Len(t, recs, 2)
	assert.Equal(t, "3", recs[1].ID)
}

func TestRecord_UnparsableDateKeepsRaw(t *testing.T) {
	rec, ok := Record(object(t, `{"id": 1, "created_at": "28/09/2025"}`))
	require.True(t, ok)
	assert.Equal(t, "28/09/2025", rec.CreatedAt)
	assert.Nil(t, rec.Date)
	assert.False(t, rec.HasDate())
}

func TestRecord_Idempotent(t *testing.T) {
	first, ok := Record(object(t, `{
		"id": 7,
		"identificacao": "W-7",
		"data": "2025-09-28 19:28:18",
		"updated_at": "2025-09-29",
		"situacao": "pago",
		"frete": {"rastreio": "ab 123456789-br", "servico": "PAC", "valor": 8.5}
	}`))
	require.True(t, ok)
	assert.Equal(t, "AB 123456789-BR", first.Tracking)
	assert.Equal(t, int64(850), first.ShippingCost)

	second, ok := Record(first.Canonical())
	require.True(t, ok)
	assert.Equal(t, first, second)

	third, ok := Record(second.Canonical())
	require.True(t, ok)
	assert.Equal(t, second, third)
}

func TestRecord_SmallCanonicalCostDoesNotDrift(t *testing.T) {
	first, _ := Record(object(t, `{"id": 1, "frete": {"valor": "4,99"}}`))
	assert.Equal(t, int64(499), first.ShippingCost)

	second, _ := Record(first.Canonical())
	assert.Equal(t, int64(499), second.ShippingCost)
}
