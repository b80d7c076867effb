package handlers

import (
	"net/http"

	"github.com/chekib1978/entree-flow-scan-stats/httpx"
	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
	"github.com/chekib1978/entree-flow-scan-stats/internal/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatsHandler sert les statistiques globales d'articles, leur export
// Excel et les compteurs du tableau de bord.
type StatsHandler struct {
	DB     *gorm.DB
	Svc    *services.StatistiquesService
	Logger *zap.Logger
}

func NewStatsHandler(db *gorm.DB, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{DB: db, Svc: services.NewStatistiquesService(db), Logger: logger}
}

// statArticleJSON est une ligne du tableau statistiques, montants
// formatés au millime.
type statArticleJSON struct {
	Designation    string `json:"designation"`
	QuantiteTotale int    `json:"quantite_totale"`
	MontantTotal   string `json:"montant_total"`
	NombreBL       int    `json:"nombre_bl"`
	PrixMoyen      string `json:"prix_moyen"`
}

func statJSON(a services.StatArticle) statArticleJSON {
	return statArticleJSON{
		Designation:    a.Designation,
		QuantiteTotale: a.QuantiteTotale,
		MontantTotal:   fixed3(a.MontantTotal),
		NombreBL:       a.NombreBL,
		PrixMoyen:      fixed3(a.PrixMoyen),
	}
}

// Statistiques calcule un instantané frais à chaque appel: tableau trié
// par montant décroissant, totaux, mises en avant et les cinq premières
// lignes pour le graphique.
func (h *StatsHandler) Statistiques(w http.ResponseWriter, r *http.Request) {
	rapport, err := h.Svc.Rapport(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}

	articles := make([]statArticleJSON, 0, len(rapport.Articles))
	for _, a := range rapport.Articles {
		articles = append(articles, statJSON(a))
	}
	top := rapport.TopN(5)
	graphique := make([]statArticleJSON, 0, len(top))
	for _, a := range top {
		graphique = append(graphique, statJSON(a))
	}

	reponse := map[string]any{
		"articles": articles,
		"totaux": map[string]any{
			"articles_uniques": rapport.Totaux.ArticlesUniques,
			"quantite_totale":  rapport.Totaux.QuantiteTotale,
			"montant_total":    fixed3(rapport.Totaux.MontantTotal),
			"nombre_bl_total":  rapport.Totaux.NombreBLTotal,
		},
		"graphique": graphique,
	}
	if rapport.ArticleLePlusRentable != nil {
		rentable := statJSON(*rapport.ArticleLePlusRentable)
		commande := statJSON(*rapport.ArticleLePlusCommande)
		reponse["article_le_plus_rentable"] = rentable
		reponse["article_le_plus_commande"] = commande
	}
	httpx.JSON(w, http.StatusOK, reponse)
}

// Export télécharge les statistiques globales en classeur xlsx.
func (h *StatsHandler) Export(w http.ResponseWriter, r *http.Request) {
	rapport, err := h.Svc.Rapport(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}
	f, err := services.ExporterStatistiques(rapport)
	if err != nil {
		h.Logger.Error("export statistiques échoué", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.XLSX(w, "statistiques_articles.xlsx")
	if err := f.Write(w); err != nil {
		h.Logger.Error("écriture du classeur interrompue", zap.Error(err))
	}
}

// Dashboard sert les compteurs de la page d'accueil. La valeur totale
// s'additionne en décimal pour rester exacte au millime.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var nbArticles, nbBons, nbGroupes, nbEnAttente int64
	db := h.DB.WithContext(r.Context())
	compteurs := []error{
		db.Model(&models.Article{}).Count(&nbArticles).Error,
		db.Model(&models.BonEntree{}).Count(&nbBons).Error,
		db.Model(&models.GroupeBL{}).Count(&nbGroupes).Error,
		db.Model(&models.BonEntree{}).Where("statut = ?", models.StatutEnAttente).Count(&nbEnAttente).Error,
	}
	for _, err := range compteurs {
		if err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
			return
		}
	}

	var montants []decimal.Decimal
	if err := db.Model(&models.BonEntree{}).
		Pluck("montant_total", &montants).Error; err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "donnees_indisponibles", nil)
		return
	}
	valeur := decimal.Zero
	for _, m := range montants {
		valeur = valeur.Add(m)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"articles":        nbArticles,
		"bons":            nbBons,
		"groupes":         nbGroupes,
		"bons_en_attente": nbEnAttente,
		"valeur_totale":   fixed3(valeur),
	})
}
