package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// dotDecimal: "25.90" sin coma, el punto es separador decimal
var dotDecimal = regexp.MustCompile(`^-?[0-9]+\.[0-9]{1,2}$`)

// Cents normaliza un valor monetario a centavos. Nunca falla: lo que no se puede
// interpretar vale 0.
//
// Números con parte decimal están en reales; los enteros ya están en centavos.
// Los textos siguen la convención brasileña ("1.234,56") y siempre están en reales.
// minor fuerza la interpretación en centavos.
func Cents(v any, minor bool) int64 {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return 0
		}
		return numberCents(d, strings.ContainsAny(t.String(), ".eE"), minor)
	case float64:
		return numberCents(decimal.NewFromFloat(t), t != float64(int64(t)), minor)
	case int:
		return numberCents(decimal.NewFromInt(int64(t)), false, minor)
	case int64:
		return numberCents(decimal.NewFromInt(t), false, minor)
	case string:
		return stringCents(t)
	default:
		return 0
	}
}

func numberCents(d decimal.Decimal, fractional, minor bool) int64 {
	if minor || !fractional {
		return d.Round(0).IntPart()
	}
	return d.Mul(hundred).Round(0).IntPart()
}

func stringCents(raw string) int64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case dotDecimal.MatchString(s):
		// ya tiene punto decimal
	default:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.Mul(hundred).Round(0).IntPart()
}
