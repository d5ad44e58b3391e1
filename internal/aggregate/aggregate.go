// Package aggregate une los registros de varias particiones y páginas.
package aggregate

import (
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
)

type Result struct {
	Records []models.OrderRecord
	Count   int
}

// Merge concatena los lotes en orden, descarta ids repetidos (gana el primero
// visto) y, si window no es nil, aplica el filtro inclusivo por fecha. Los
// registros sin fecha interpretable siempre se conservan.
func Merge(batches [][]models.OrderRecord, window *models.DateWindow) Result {
	seen := make(map[string]struct{})
	out := make([]models.OrderRecord, 0)

	for _, batch := range batches {
		for _, rec := range batch {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			if window != nil && !window.Contains(rec.Date) {
				continue
			}
			seen[rec.ID] = struct{}{}
			out = append(out, rec)
		}
	}

	return Result{Records: out, Count: len(out)}
}

// Seen es el conjunto de ids ya vistos durante un recorrido de páginas.
type Seen map[string]struct{}

// Add agrega los ids del lote y devuelve cuántos eran nuevos.
func (s Seen) Add(batch []models.OrderRecord) int {
	added := 0
	for _, rec := range batch {
		if _, ok := s[rec.ID]; ok {
			continue
		}
		s[rec.ID] = struct{}{}
		added++
	}
	return added
}
