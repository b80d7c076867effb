package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/chekib1978/entree-flow-scan-stats/httpx"
	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
	"github.com/chekib1978/entree-flow-scan-stats/internal/services"
	"github.com/chekib1978/entree-flow-scan-stats/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BonHandler couvre les bons d'entrée: liste filtrable, création atomique
// avec lignes, détail, mise à jour et suppression.
type BonHandler struct {
	DB     *gorm.DB
	Svc    *services.BonService
	Logger *zap.Logger
}

func NewBonHandler(db *gorm.DB, logger *zap.Logger) *BonHandler {
	return &BonHandler{DB: db, Svc: services.NewBonService(db), Logger: logger}
}

type ligneInput struct {
	ArticleID    *uint           `json:"article_id"`
	Designation  string          `json:"designation"`
	Quantite     int             `json:"quantite"`
	PrixUnitaire decimal.Decimal `json:"prix_unitaire"`
}

type bonInput struct {
	NumeroBL    string       `json:"numero_bl"`
	Fournisseur string       `json:"fournisseur"`
	DateBL      string       `json:"date_bl"`
	Notes       *string      `json:"notes"`
	Lignes      []ligneInput `json:"lignes"`
}

func (in bonInput) saisie() (services.BonSaisie, validation.Violations) {
	v := validation.Violations{}
	validation.Required("numero_bl", in.NumeroBL, v)
	validation.Required("fournisseur", in.Fournisseur, v)
	if len(in.Lignes) == 0 {
		v["lignes"] = "required"
	}

	date := time.Now()
	if strings.TrimSpace(in.DateBL) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(in.DateBL))
		if err != nil {
			v["date_bl"] = "invalid_date"
		} else {
			date = parsed
		}
	}

	lignes := make([]services.LigneSaisie, 0, len(in.Lignes))
	for _, l := range in.Lignes {
		lignes = append(lignes, services.LigneSaisie{
			ArticleID:    l.ArticleID,
			Designation:  l.Designation,
			Quantite:     l.Quantite,
			PrixUnitaire: l.PrixUnitaire,
		})
	}
	return services.BonSaisie{
		NumeroBL:    in.NumeroBL,
		Fournisseur: in.Fournisseur,
		DateBL:      date,
		Notes:       in.Notes,
		Lignes:      lignes,
	}, v
}

func (h *BonHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	statut := strings.TrimSpace(r.URL.Query().Get("statut"))

	dbq := h.DB.Model(&models.BonEntree{})
	if query != "" {
		like := motifLike(query)
		dbq = dbq.Where("lower(numero_bl) LIKE ? OR lower(fournisseur) LIKE ?", like, like)
	}
	if statut != "" {
		dbq = dbq.Where("statut = ?", statut)
	}

	var total int64
	dbq.Count(&total)
	var bons []models.BonEntree
	if err := dbq.Order("date_bl desc, id desc").
		Limit(limit).Offset(offset).Find(&bons).Error; err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":  bons,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *BonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input bonInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	saisie, v := input.saisie()
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	bon, err := h.Svc.Creer(r.Context(), saisie)
	if err != nil {
		h.repondreErreurBon(w, err)
		return
	}
	h.Logger.Info("bon créé",
		zap.String("numero_bl", bon.NumeroBL),
		zap.Int("lignes", len(bon.Lignes)))
	httpx.JSON(w, http.StatusCreated, bon)
}

func (h *BonHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var bon models.BonEntree
	if err := h.DB.Preload("Lignes").First(&bon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, bon)
}

func (h *BonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var input bonInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	saisie, v := input.saisie()
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	bon, err := h.Svc.MettreAJour(r.Context(), id, saisie)
	if err != nil {
		h.repondreErreurBon(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bon)
}

func (h *BonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Supprimer(r.Context(), id); err != nil {
		h.repondreErreurBon(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// repondreErreurBon traduit les erreurs du service bon en réponses HTTP.
func (h *BonHandler) repondreErreurBon(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNumeroExiste):
		httpx.JSONError(w, http.StatusConflict, "numero_bl_existe", nil)
	case errors.Is(err, services.ErrBonGroupe):
		httpx.JSONError(w, http.StatusConflict, "bl_groupe", nil)
	case errors.Is(err, services.ErrBonIntrouvable):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrAucuneLigne):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed",
			validation.Violations{"lignes": "aucune_ligne_valide"})
	default:
		h.Logger.Error("opération bon échouée", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
