package handlers

import (
	"net/http"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/config"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models/serviceresponse"
)

// HealthHandler no llama al upstream: solo informa la configuración visible.
type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("WBuy Orders API – OK"))
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, serviceresponse.HealthResponse{
		OK:       true,
		HasToken: h.cfg.HasToken(),
		APIURL:   h.cfg.APIURL,
	})
}
