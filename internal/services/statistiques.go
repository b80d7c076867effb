package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatArticle est une ligne de statistiques globales pour une désignation.
// NombreBL compte les bons distincts où la désignation apparaît.
type StatArticle struct {
	Designation    string
	QuantiteTotale int
	MontantTotal   decimal.Decimal
	NombreBL       int
	PrixMoyen      decimal.Decimal
}

// TotauxStatistiques cumule le tableau complet. NombreBLTotal est la somme
// des compteurs par ligne: un bon portant deux désignations compte deux
// fois, c'est le comportement attendu de l'écran historique.
type TotauxStatistiques struct {
	ArticlesUniques int
	QuantiteTotale  int
	MontantTotal    decimal.Decimal
	NombreBLTotal   int
}

// RapportStatistiques porte le tableau trié plus les deux mises en avant
// de l'écran statistiques.
type RapportStatistiques struct {
	Articles              []StatArticle
	Totaux                TotauxStatistiques
	ArticleLePlusRentable *StatArticle
	ArticleLePlusCommande *StatArticle
}

// CalculerStatistiques agrège toutes les lignes fournies par désignation
// (comparaison exacte) et trie par montant décroissant, désignation
// croissante à montant égal. Les mises en avant restent nulles quand le
// tableau est vide.
func CalculerStatistiques(lignes []models.LigneBonEntree) RapportStatistiques {
	type cumul struct {
		quantite int
		montant  decimal.Decimal
		bons     map[uint]struct{}
	}
	parCle := make(map[string]*cumul)
	for _, l := range lignes {
		c, ok := parCle[l.Designation]
		if !ok {
			c = &cumul{montant: decimal.Zero, bons: make(map[uint]struct{})}
			parCle[l.Designation] = c
		}
		c.quantite += l.Quantite
		c.montant = c.montant.Add(l.MontantLigne)
		c.bons[l.BonEntreeID] = struct{}{}
	}

	articles := make([]StatArticle, 0, len(parCle))
	for designation, c := range parCle {
		articles = append(articles, StatArticle{
			Designation:    designation,
			QuantiteTotale: c.quantite,
			MontantTotal:   c.montant,
			NombreBL:       len(c.bons),
			PrixMoyen:      prixMoyen(c.montant, c.quantite),
		})
	}
	sort.Slice(articles, func(i, j int) bool {
		cmp := articles[i].MontantTotal.Cmp(articles[j].MontantTotal)
		if cmp != 0 {
			return cmp > 0
		}
		return articles[i].Designation < articles[j].Designation
	})

	r := RapportStatistiques{
		Articles: articles,
		Totaux:   TotauxStatistiques{MontantTotal: decimal.Zero},
	}
	for _, a := range articles {
		r.Totaux.ArticlesUniques++
		r.Totaux.QuantiteTotale += a.QuantiteTotale
		r.Totaux.MontantTotal = r.Totaux.MontantTotal.Add(a.MontantTotal)
		r.Totaux.NombreBLTotal += a.NombreBL
	}
	if len(articles) > 0 {
		r.ArticleLePlusRentable = &articles[0]
		plusCommande := 0
		for i := range articles {
			if articles[i].QuantiteTotale > articles[plusCommande].QuantiteTotale {
				plusCommande = i
			}
		}
		r.ArticleLePlusCommande = &articles[plusCommande]
	}
	return r
}

// TopN retourne les n premières lignes du tableau trié, pour alimenter le
// graphique des montants.
func (r RapportStatistiques) TopN(n int) []StatArticle {
	if n < 0 {
		n = 0
	}
	if n > len(r.Articles) {
		n = len(r.Articles)
	}
	return r.Articles[:n]
}

// StatistiquesService recharge un instantané complet des lignes à chaque
// appel plutôt que de tenir un cache: l'écran statistiques veut toujours
// l'état courant de la base.
type StatistiquesService struct {
	DB *gorm.DB
}

func NewStatistiquesService(db *gorm.DB) *StatistiquesService {
	return &StatistiquesService{DB: db}
}

// Rapport charge toutes les lignes de bons et calcule les statistiques
// globales.
func (s *StatistiquesService) Rapport(ctx context.Context) (RapportStatistiques, error) {
	var lignes []models.LigneBonEntree
	if err := s.DB.WithContext(ctx).Find(&lignes).Error; err != nil {
		return RapportStatistiques{}, fmt.Errorf("%w: %v", ErrDonneesIndisponibles, err)
	}
	return CalculerStatistiques(lignes), nil
}
