package models

import (
	"net/http"
	"net/url"
)

// RequestShape es la combinación endpoint × headers × query que el upstream aceptó
// durante el probing. Vale solo para una resolución; nunca se cachea.
type RequestShape struct {
	Endpoint   string      `json:"endpoint"`
	HeaderName string      `json:"header_scheme"`
	QueryName  string      `json:"query_scheme"`
	Headers    http.Header `json:"-"`
	Params     url.Values  `json:"-"`
}

// MergedParams copia los parámetros del shape y agrega los extra (los extra pisan).
func (s RequestShape) MergedParams(extra url.Values) url.Values {
	out := url.Values{}
	for k, v := range s.Params {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Attempt es una línea de la traza de diagnóstico del prober.
type Attempt struct {
	Endpoint    string            `json:"endpoint"`
	HeaderName  string            `json:"header_scheme"`
	QueryName   string            `json:"query_scheme"`
	Params      map[string]string `json:"params,omitempty"`
	HeaderNames []string          `json:"header_names"`
	Status      int               `json:"status"`
	Shape       string            `json:"shape,omitempty"`
	Records     int               `json:"records"`
	Sample      map[string]any    `json:"sample,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// AuthRejected: el upstream respondió 401 o 403
func (a Attempt) AuthRejected() bool {
	return a.Status == http.StatusUnauthorized || a.Status == http.StatusForbidden
}

// Succeeded: 2xx con al menos un registro
func (a Attempt) Succeeded() bool {
	return a.Status >= 200 && a.Status < 300 && a.Records > 0
}
