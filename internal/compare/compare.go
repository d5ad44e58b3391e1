package compare

import (
	"regexp"
	"strings"
	"unicode"
)

// trackingPattern: código postal de 2 letras, 9 dígitos y sufijo BR (p.ej. AB123456789BR)
var trackingPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{9}BR$`)

// CanonicalTracking deja el código en mayúsculas y sin caracteres no alfanuméricos.
// Es la forma usada para comparar.
func CanonicalTracking(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range strings.ToUpper(code) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DisplayTracking es la forma almacenada: mayúsculas y sin espacios en los bordes,
// conservando la puntuación.
func DisplayTracking(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// TrackingEqual compara dos códigos ignorando mayúsculas y puntuación.
// Dos códigos vacíos no son iguales.
func TrackingEqual(a, b string) bool {
	ca := CanonicalTracking(a)
	return ca != "" && ca == CanonicalTracking(b)
}

// LooksLikeTracking indica si la consulta tiene forma de código de rastreo.
func LooksLikeTracking(query string) bool {
	return trackingPattern.MatchString(CanonicalTracking(query))
}

// IsNumericID indica si la consulta es un id numérico puro.
func IsNumericID(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	for _, r := range query {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
