// Package envelope extrae la lista de pedidos (o el pedido único) de una respuesta
// del upstream cuyo envoltorio no es fijo. Nunca devuelve error al extraer: cualquier
// entrada inesperada se degrada a una lista vacía.
package envelope

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// ListKeys son las claves de envoltorio, en orden de prioridad
var ListKeys = []string{"data", "results", "items", "orders", "pedidos"}

// singleKeys se revisan para respuestas de detalle {"data": {...}}
var singleKeys = []string{"data", "order", "pedido", "result", "item"}

// Decode interpreta el body como JSON conservando los números como json.Number.
// Un body vacío es nil sin error.
func Decode(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// List devuelve los objetos de pedido contenidos en v.
//
// Lista → tal cual; objeto → la primera clave de ListKeys cuyo valor es lista;
// si ninguna, el objeto mismo como único elemento; nil u otro tipo → vacío.
func List(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		return objects(t)
	case map[string]any:
		for _, k := range ListKeys {
			if inner, ok := t[k].([]any); ok {
				return objects(inner)
			}
		}
		// algunos responden con un único objeto
		return []map[string]any{t}
	default:
		return []map[string]any{}
	}
}

// Single devuelve el pedido de una respuesta de detalle, o nil.
func Single(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		if list := objects(t); len(list) > 0 {
			return list[0]
		}
		return nil
	case map[string]any:
		for _, k := range singleKeys {
			if inner, ok := t[k].(map[string]any); ok {
				return inner
			}
		}
		if list := List(t); len(list) > 0 {
			return list[0]
		}
		return nil
	default:
		return nil
	}
}

// Shape describe el envoltorio para la traza de diagnóstico.
func Shape(v any) string {
	switch t := v.(type) {
	case nil:
		return "empty"
	case []any:
		return "list"
	case map[string]any:
		for _, k := range ListKeys {
			if _, ok := t[k].([]any); ok {
				return "object[" + k + "]"
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "object{" + strings.Join(keys, ",") + "}"
	default:
		return "scalar"
	}
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
