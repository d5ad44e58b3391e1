package models

import (
	"time"
)

// DateLayout es el formato de los 10 primeros caracteres de una fecha del upstream
const DateLayout = "2006-01-02"

// OrderRecord es la forma canónica de un pedido del upstream.
//
// Se construye únicamente desde normalize.Record; el resto del sistema no toca
// JSON sin tipo.
type OrderRecord struct {
	ID           string `json:"id"`
	Number       string `json:"number,omitempty"`
	Status       string `json:"status,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
	Tracking     string `json:"tracking,omitempty"`
	Service      string `json:"service,omitempty"`
	ShippingCost int64  `json:"shippingCost"`

	// Date es la fecha de CreatedAt; nil si no se pudo interpretar
	Date *time.Time `json:"-"`
}

// HasDate indica si el pedido participa del filtro por fechas
func (o OrderRecord) HasDate() bool {
	return o.Date != nil
}

// Canonical devuelve el registro como objeto JSON genérico con las claves canónicas.
// Volver a normalizarlo produce el mismo registro.
func (o OrderRecord) Canonical() map[string]any {
	m := map[string]any{
		"id":           o.ID,
		"shippingCost": o.ShippingCost,
	}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("number", o.Number)
	set("status", o.Status)
	set("createdAt", o.CreatedAt)
	set("updatedAt", o.UpdatedAt)
	set("tracking", o.Tracking)
	set("service", o.Service)
	return m
}

// ParseDate interpreta los 10 primeros caracteres como YYYY-MM-DD.
func ParseDate(raw string) *time.Time {
	if len(raw) < len(DateLayout) {
		return nil
	}
	d, err := time.Parse(DateLayout, raw[:len(DateLayout)])
	if err != nil {
		return nil
	}
	return &d
}
