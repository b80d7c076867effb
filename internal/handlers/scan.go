package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chekib1978/entree-flow-scan-stats/httpx"
	"github.com/chekib1978/entree-flow-scan-stats/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScanHandler reçoit le texte décodé d'un QR code de bon d'entrée et
// l'enregistre comme un bon complet. Le décodage optique se fait côté
// client, l'API ne voit que le texte.
type ScanHandler struct {
	Svc    *services.ScanService
	Logger *zap.Logger
}

func NewScanHandler(db *gorm.DB, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{Svc: services.NewScanService(db), Logger: logger}
}

type scanInput struct {
	Payload string `json:"payload"`
}

func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var input scanInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if input.Payload == "" {
		httpx.JSONError(w, http.StatusBadRequest, "payload_manquant", nil)
		return
	}

	bon, err := h.Svc.Enregistrer(r.Context(), input.Payload)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPayloadInvalide):
			httpx.JSONError(w, http.StatusBadRequest, "payload_invalide", err.Error())
		case errors.Is(err, services.ErrNumeroExiste):
			httpx.JSONError(w, http.StatusConflict, "numero_bl_existe", nil)
		case errors.Is(err, services.ErrAucuneLigne):
			httpx.JSONError(w, http.StatusBadRequest, "payload_invalide", "aucune ligne valide")
		default:
			h.Logger.Error("scan refusé", zap.Error(err))
			httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		}
		return
	}
	h.Logger.Info("bon scanné",
		zap.String("numero_bl", bon.NumeroBL),
		zap.Int("lignes", len(bon.Lignes)))
	httpx.JSON(w, http.StatusCreated, bon)
}
