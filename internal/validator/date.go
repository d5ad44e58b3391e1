package validator

import (
	"time"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
)

// IsValidDate valida que la fecha tenga formato YYYY-MM-DD
func IsValidDate(date string) bool {
	if len(date) != len(models.DateLayout) {
		return false
	}
	_, err := time.Parse(models.DateLayout, date)
	return err == nil
}

// parseOptionalDate: "" → nil
func parseOptionalDate(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	if !IsValidDate(raw) {
		return nil, false
	}
	d, _ := time.Parse(models.DateLayout, raw)
	return &d, true
}
