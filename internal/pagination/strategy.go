// Package pagination describe cómo pagina el upstream y cómo descubrirlo.
package pagination

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

type Kind int

const (
	KindNone Kind = iota
	KindLimitOnly
	KindPageBased
	KindOffsetBased
)

func (k Kind) String() string {
	switch k {
	case KindLimitOnly:
		return "limit_only"
	case KindPageBased:
		return "page_based"
	case KindOffsetBased:
		return "offset_based"
	default:
		return "none"
	}
}

// Strategy es una descripción pura, sin estado: genera los parámetros de cada
// unidad de escaneo (página u offset).
type Strategy struct {
	Kind        Kind
	PageParam   string
	SizeParam   string
	OffsetParam string
	LimitParam  string
	Size        int
	// FixedSize: el upstream ignora el parámetro de tamaño y Size es lo observado
	FixedSize bool
}

func None(size int) Strategy {
	return Strategy{Kind: KindNone, Size: size}
}

func LimitOnly(limitParam string, size int) Strategy {
	return Strategy{Kind: KindLimitOnly, LimitParam: limitParam, Size: size}
}

func PageBased(pageParam, sizeParam string, size int) Strategy {
	return Strategy{Kind: KindPageBased, PageParam: pageParam, SizeParam: sizeParam, Size: size}
}

func OffsetBased(offsetParam, limitParam string, size int) Strategy {
	return Strategy{Kind: KindOffsetBased, OffsetParam: offsetParam, LimitParam: limitParam, Size: size}
}

// Paginates indica si hay más de una unidad de escaneo posible
func (s Strategy) Paginates() bool {
	return s.Kind == KindPageBased || s.Kind == KindOffsetBased
}

// WithSize devuelve la misma estrategia con otro tamaño de página.
// None y las estrategias de tamaño fijo conservan el suyo: no lo controla el caller.
// En page/offset el tamaño nunca supera el verificado en el descubrimiento; un
// upstream que recorta páginas más grandes cortaría el recorrido en la primera.
func (s Strategy) WithSize(size int) Strategy {
	if size <= 0 || s.Kind == KindNone || s.FixedSize {
		return s
	}
	if s.Paginates() && size > s.Size {
		size = s.Size
	}
	s.Size = size
	return s
}

// Params devuelve los parámetros de la unidad step (desde 0).
func (s Strategy) Params(step int) url.Values {
	v := url.Values{}
	switch s.Kind {
	case KindLimitOnly:
		v.Set(s.LimitParam, strconv.Itoa(s.Size))
	case KindPageBased:
		v.Set(s.PageParam, strconv.Itoa(step+1))
		v.Set(s.SizeParam, strconv.Itoa(s.Size))
	case KindOffsetBased:
		v.Set(s.OffsetParam, strconv.Itoa(step*s.Size))
		v.Set(s.LimitParam, strconv.Itoa(s.Size))
	}
	return v
}

func (s Strategy) String() string {
	switch s.Kind {
	case KindLimitOnly:
		return fmt.Sprintf("limit_only(%s=%d)", s.LimitParam, s.Size)
	case KindPageBased:
		return fmt.Sprintf("page_based(%s,%s=%d)", s.PageParam, s.SizeParam, s.Size)
	case KindOffsetBased:
		return fmt.Sprintf("offset_based(%s,%s=%d)", s.OffsetParam, s.LimitParam, s.Size)
	default:
		return fmt.Sprintf("none(size=%d)", s.Size)
	}
}

func (s Strategy) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"kind":        s.Kind.String(),
		"description": s.String(),
		"size":        s.Size,
	})
}
