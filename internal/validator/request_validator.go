package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/compare"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
)

// Límites de los parámetros de recorrido
const (
	MinPageSize = 1
	MaxPageSize = 500
	MinMaxPages = 1
	MaxMaxPages = 100

	maxOrderIDLength = 20
	maxStatuses      = 20
)

// RequestValidator valida los parámetros de entrada antes de tocar el upstream.
type RequestValidator struct {
	statusRegex *regexp.Regexp
}

// NewRequestValidator creates a new RequestValidator instance
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		// Acepta: "1", "10", "aguardando_pagamento" (alfanumérico, guiones)
		statusRegex: regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`),
	}
}

// ValidateOrderID exige un id numérico puro
func (v *RequestValidator) ValidateOrderID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("order id is required")
	}
	if len(id) > maxOrderIDLength || !compare.IsNumericID(id) {
		return errors.New("order id must be numeric")
	}
	return nil
}

// ValidateTrackingCode exige el formato AA123456789BR (ignorando puntuación y mayúsculas)
func (v *RequestValidator) ValidateTrackingCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return errors.New("tracking code is required")
	}
	if !compare.LooksLikeTracking(code) {
		return errors.New("tracking code must look like AB123456789BR")
	}
	return nil
}

// ParseWindow arma la ventana a partir de from/to (YYYY-MM-DD, opcionales).
func (v *RequestValidator) ParseWindow(fromRaw, toRaw string, today time.Time) (models.DateWindow, error) {
	from, ok := parseOptionalDate(strings.TrimSpace(fromRaw))
	if !ok {
		return models.DateWindow{}, errors.New("from must be in format YYYY-MM-DD")
	}
	to, ok := parseOptionalDate(strings.TrimSpace(toRaw))
	if !ok {
		return models.DateWindow{}, errors.New("to must be in format YYYY-MM-DD")
	}

	w := models.NewDateWindow(from, to, today)
	if !w.Valid() {
		return models.DateWindow{}, errors.New("from must not be after to")
	}
	return w, nil
}

// ParseStatuses acepta valores repetidos o separados por coma.
func (v *RequestValidator) ParseStatuses(raw []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range raw {
		for _, s := range strings.Split(r, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if !v.statusRegex.MatchString(s) {
				return nil, fmt.Errorf("status %q contains invalid characters", s)
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	if len(out) > maxStatuses {
		return nil, fmt.Errorf("at most %d statuses are allowed", maxStatuses)
	}
	return out, nil
}

// ParseBound interpreta un entero opcional dentro de [min, max]; "" → def.
func ParseBound(raw, name string, def, min, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	return n, nil
}
