// Package normalize convierte un objeto JSON del upstream, en cualquiera de sus
// formas conocidas, en un models.OrderRecord.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/compare"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
)

// Record normaliza un objeto. ok es false cuando no hay id: sin id el pedido no
// se puede deduplicar y se descarta.
func Record(obj map[string]any) (models.OrderRecord, bool) {
	id := firstString(obj, idPaths)
	if id == "" {
		return models.OrderRecord{}, false
	}

	created := firstString(obj, createdPaths)

	return models.OrderRecord{
		ID:           id,
		Number:       firstString(obj, numberPaths),
		Status:       firstString(obj, statusPaths),
		CreatedAt:    created,
		UpdatedAt:    firstString(obj, updatedPaths),
		Tracking:     compare.DisplayTracking(firstString(obj, trackingPaths)),
		Service:      firstString(obj, servicePaths),
		ShippingCost: firstCents(obj, shippingCostPaths),
		Date:         models.ParseDate(created),
	}, true
}

// Records normaliza una lista, descartando los objetos sin id.
func Records(objs []map[string]any) []models.OrderRecord {
	out := make([]models.OrderRecord, 0, len(objs))
	for _, obj := range objs {
		if rec, ok := Record(obj); ok {
			out = append(out, rec)
		}
	}
	return out
}

func firstString(obj map[string]any, paths []path) string {
	for _, p := range paths {
		if s, ok := scalarString(lookup(obj, p)); ok {
			return s
		}
	}
	return ""
}

func firstCents(obj map[string]any, paths []moneyPath) int64 {
	for _, p := range paths {
		if cents := Cents(lookup(obj, p.path), p.minor); cents != 0 {
			return cents
		}
	}
	return 0
}

func lookup(obj map[string]any, p path) any {
	var cur any = obj
	for _, key := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// scalarString convierte strings y números en texto; objetos, listas y bool no cuentan.
func scalarString(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return "", false
	}
	return s, s != ""
}
