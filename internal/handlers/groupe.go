package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/chekib1978/entree-flow-scan-stats/httpx"
	"github.com/chekib1978/entree-flow-scan-stats/internal/services"
	"github.com/chekib1978/entree-flow-scan-stats/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GroupeHandler couvre le groupage de bons: création, liste, rapport
// consolidé, export Excel et dissolution.
type GroupeHandler struct {
	Svc    *services.GroupeService
	Logger *zap.Logger
}

func NewGroupeHandler(db *gorm.DB, logger *zap.Logger) *GroupeHandler {
	return &GroupeHandler{Svc: services.NewGroupeService(db), Logger: logger}
}

type groupeInput struct {
	Nom    string `json:"nom"`
	BonIDs []uint `json:"bon_ids"`
}

// detailArticleJSON est la ligne de rapport telle que servie à l'écran,
// montants déjà formatés au millime.
type detailArticleJSON struct {
	Designation         string `json:"designation"`
	ArticleID           *uint  `json:"article_id"`
	QuantiteTotale      int    `json:"quantite_totale"`
	PrixUnitaireMoyen   string `json:"prix_unitaire_moyen"`
	MontantTotalArticle string `json:"montant_total_article"`
}

func rapportJSON(rapport *services.RapportGroupe) map[string]any {
	details := make([]detailArticleJSON, 0, len(rapport.Details))
	for _, d := range rapport.Details {
		details = append(details, detailArticleJSON{
			Designation:         d.Designation,
			ArticleID:           d.ArticleID,
			QuantiteTotale:      d.QuantiteTotale,
			PrixUnitaireMoyen:   fixed3(d.PrixUnitaireMoyen),
			MontantTotalArticle: fixed3(d.MontantTotalArticle),
		})
	}
	return map[string]any{
		"details": details,
		"totaux": map[string]any{
			"quantite_totale": rapport.Totaux.QuantiteTotale,
			"montant_total":   fixed3(rapport.Totaux.MontantTotal),
			// pas de moyenne globale: une moyenne de moyennes ne veut
			// rien dire
			"prix_unitaire_moyen": nil,
		},
	}
}

func (h *GroupeHandler) List(w http.ResponseWriter, r *http.Request) {
	groupes, err := h.Svc.Lister(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": groupes, "total": len(groupes)})
}

func (h *GroupeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input groupeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	input.Nom = strings.TrimSpace(input.Nom)

	v := validation.Violations{}
	validation.Required("nom", input.Nom, v)
	if len(input.BonIDs) == 0 {
		v["bon_ids"] = "required"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	groupe, err := h.Svc.Creer(r.Context(), input.Nom, input.BonIDs)
	if err != nil {
		if errors.Is(err, services.ErrBonIndisponible) {
			httpx.JSONError(w, http.StatusConflict, "bon_indisponible", err.Error())
			return
		}
		h.Logger.Error("création de groupe échouée", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.Logger.Info("groupe créé",
		zap.Uint("groupe_id", groupe.ID),
		zap.Int("bons", groupe.NombreBL))
	httpx.JSON(w, http.StatusCreated, groupe)
}

// Details sert le rapport consolidé d'un groupe. Un identifiant inconnu
// donne un rapport vide avec des totaux à zéro, pas une erreur.
func (h *GroupeHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	rapport, err := h.Svc.Details(r.Context(), id)
	if err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}
	reponse := rapportJSON(rapport)
	if groupe, err := h.Svc.Trouver(r.Context(), id); err == nil {
		reponse["groupe"] = groupe
	}
	httpx.JSON(w, http.StatusOK, reponse)
}

// Export télécharge le rapport consolidé d'un groupe en classeur xlsx.
func (h *GroupeHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	groupe, err := h.Svc.Trouver(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrGroupeIntrouvable) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}
	rapport, err := h.Svc.Details(r.Context(), id)
	if err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}
	f, err := services.ExporterRapportGroupe(groupe, rapport)
	if err != nil {
		h.Logger.Error("export groupe échoué", zap.Uint("groupe_id", id), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.XLSX(w, "rapport_groupe.xlsx")
	if err := f.Write(w); err != nil {
		h.Logger.Error("écriture du classeur interrompue", zap.Error(err))
	}
}

// Dissoudre défait un groupe et remet ses bons en attente.
func (h *GroupeHandler) Dissoudre(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Dissoudre(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrGroupeIntrouvable) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		h.Logger.Error("dissolution échouée", zap.Uint("groupe_id", id), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.Logger.Info("groupe dissous", zap.Uint("groupe_id", id))
	httpx.JSON(w, http.StatusOK, map[string]any{"dissous": id})
}
