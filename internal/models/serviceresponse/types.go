// internal/models/serviceresponse/types.go
package serviceresponse

import (
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/pagination"
)

// OrderRow es la fila que consume el front: orderId/numero/tracking/trackingCode/createdAt
// más los campos que agrega la normalización.
type OrderRow struct {
	OrderID      string `json:"orderId"`
	Numero       string `json:"numero,omitempty"`
	Tracking     string `json:"tracking"`
	TrackingCode string `json:"trackingCode"` // compatibilidad con el front
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
	Status       string `json:"status,omitempty"`
	Service      string `json:"service,omitempty"`
	ShippingCost int64  `json:"shippingCost"`
}

// NewOrderRow convierte un registro normalizado en la fila del front.
func NewOrderRow(rec models.OrderRecord) OrderRow {
	return OrderRow{
		OrderID:      rec.ID,
		Numero:       rec.Number,
		Tracking:     rec.Tracking,
		TrackingCode: rec.Tracking,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		Status:       rec.Status,
		Service:      rec.Service,
		ShippingCost: rec.ShippingCost,
	}
}

// NewOrderRows nunca devuelve nil: una lista vacía se serializa como [].
func NewOrderRows(recs []models.OrderRecord) []OrderRow {
	rows := make([]OrderRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, NewOrderRow(rec))
	}
	return rows
}

// OrdersResponse es la respuesta del listado por ventana de fechas.
type OrdersResponse struct {
	OK             bool                 `json:"ok"`
	From           string               `json:"from"`
	To             string               `json:"to"`
	Count          int                  `json:"count"`
	Rows           []OrderRow           `json:"rows"`
	Strategy       *pagination.Strategy `json:"strategy,omitempty"`
	StatusFallback bool                 `json:"status_fallback,omitempty"`
	ScanUnits      int                  `json:"scan_units"`
	Partitions     []Partition          `json:"partitions,omitempty"`
	Attempts       []models.Attempt     `json:"attempts,omitempty"`
}

// Partition resume el recorrido de un status ("" = sin filtro).
type Partition struct {
	Status  string `json:"status,omitempty"`
	Pages   int    `json:"pages"`
	Records int    `json:"records"`
	Kept    int    `json:"kept"`
	Stop    string `json:"stop"`
	Error   string `json:"error,omitempty"`
}

// LookupResponse es la respuesta de una búsqueda puntual (id o tracking).
type LookupResponse struct {
	OK        bool                 `json:"ok"`
	Mode      string               `json:"mode"`
	Query     string               `json:"query"`
	Found     bool                 `json:"found"`
	Tier      string               `json:"tier,omitempty"`
	Order     *OrderRow            `json:"order,omitempty"`
	ScanUnits int                  `json:"scan_units"`
	Strategy  *pagination.Strategy `json:"strategy,omitempty"`
	Attempts  []models.Attempt     `json:"attempts,omitempty"`
}

// ProbeResponse es la traza de diagnóstico; el token nunca aparece.
type ProbeResponse struct {
	OK       bool                 `json:"ok"`
	Shape    *models.RequestShape `json:"shape,omitempty"`
	Strategy *pagination.Strategy `json:"strategy,omitempty"`
	Attempts []models.Attempt     `json:"attempts"`
	Trials   []pagination.Trial   `json:"trials,omitempty"`
	Error    string               `json:"error,omitempty"`
}

type HealthResponse struct {
	OK       bool   `json:"ok"`
	HasToken bool   `json:"has_token"`
	APIURL   string `json:"api_url"`
}

// ErrorResponse es el cuerpo de cualquier error devuelto al caller.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
