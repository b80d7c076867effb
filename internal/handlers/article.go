package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/chekib1978/entree-flow-scan-stats/httpx"
	"github.com/chekib1978/entree-flow-scan-stats/internal/importer"
	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
	"github.com/chekib1978/entree-flow-scan-stats/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArticleHandler couvre le catalogue d'articles: CRUD, vidage complet et
// import Excel.
type ArticleHandler struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewArticleHandler(db *gorm.DB, logger *zap.Logger) *ArticleHandler {
	return &ArticleHandler{DB: db, Logger: logger}
}

type articleInput struct {
	Designation string          `json:"designation"`
	Prix        decimal.Decimal `json:"prix"`
	CodeArticle *string         `json:"code_article"`
	Description *string         `json:"description"`
}

func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	dbq := h.DB.Model(&models.Article{})
	if query != "" {
		like := motifLike(query)
		dbq = dbq.Where("lower(designation) LIKE ? OR lower(code_article) LIKE ?", like, like)
	}

	var total int64
	dbq.Count(&total)
	var articles []models.Article
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&articles).Error; err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":  articles,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input articleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	input.Designation = strings.TrimSpace(input.Designation)

	v := validation.Violations{}
	validation.Required("designation", input.Designation, v)
	validation.NonNegativeDecimal("prix", input.Prix, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	article := models.Article{
		Designation: input.Designation,
		Prix:        input.Prix,
		CodeArticle: input.CodeArticle,
		Description: input.Description,
	}
	if err := h.DB.Create(&article).Error; err != nil {
		h.Logger.Error("création d'article refusée", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, article)
}

func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var input articleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	input.Designation = strings.TrimSpace(input.Designation)

	v := validation.Violations{}
	validation.Required("designation", input.Designation, v)
	validation.NonNegativeDecimal("prix", input.Prix, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var article models.Article
	if err := h.DB.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}
	article.Designation = input.Designation
	article.Prix = input.Prix
	article.CodeArticle = input.CodeArticle
	article.Description = input.Description
	if err := h.DB.Save(&article).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Delete(&models.Article{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// DeleteAll vide le catalogue entier. Les lignes de bons gardent leur
// désignation en texte, l'historique reste donc lisible.
func (h *ArticleHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	res := h.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Article{})
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.Logger.Info("catalogue vidé", zap.Int64("articles", res.RowsAffected))
	httpx.JSON(w, http.StatusOK, map[string]any{"supprimes": res.RowsAffected})
}

// Import reçoit un classeur Excel en multipart (champ "fichier") et
// insère les articles valides. La moindre erreur de ligne bloque tout le
// lot: rien n'est inséré et la réponse 422 détaille chaque rejet.
func (h *ArticleHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "fichier_manquant", nil)
		return
	}
	fichier, _, err := r.FormFile("fichier")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "fichier_manquant", nil)
		return
	}
	defer fichier.Close()

	rows, err := importer.LireClasseur(fichier)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "classeur_illisible", nil)
		return
	}
	res := importer.ValiderLignes(rows)
	if len(res.Erreurs) > 0 {
		h.Logger.Warn("import refusé",
			zap.String("lot_id", res.LotID),
			zap.Int("erreurs", len(res.Erreurs)))
		httpx.JSONError(w, http.StatusUnprocessableEntity, "import_invalide", map[string]any{
			"lot_id":  res.LotID,
			"erreurs": erreursLisibles(res.Erreurs),
		})
		return
	}
	if len(res.Articles) == 0 {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "import_vide", map[string]any{
			"lot_id": res.LotID,
		})
		return
	}

	articles := make([]models.Article, 0, len(res.Articles))
	for _, c := range res.Articles {
		articles = append(articles, models.Article{
			Designation: c.Designation,
			Prix:        c.Prix,
			CodeArticle: c.CodeArticle,
			Description: c.Description,
		})
	}
	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&articles).Error
	}); err != nil {
		h.Logger.Error("insertion du lot échouée", zap.String("lot_id", res.LotID), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.Logger.Info("import accepté",
		zap.String("lot_id", res.LotID),
		zap.Int("articles", len(articles)))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"lot_id":   res.LotID,
		"importes": len(articles),
	})
}

// erreursLisibles préfixe chaque rejet par son numéro de ligne, le format
// attendu par l'écran d'import.
func erreursLisibles(erreurs []importer.ErreurLigne) []string {
	msgs := make([]string, 0, len(erreurs))
	for _, e := range erreurs {
		msgs = append(msgs, "Ligne "+strconv.Itoa(e.Ligne)+": "+e.Message)
	}
	return msgs
}
