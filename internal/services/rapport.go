package services

import (
	"errors"
	"sort"

	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
	"github.com/shopspring/decimal"
)

// ErrDonneesIndisponibles signale un échec de lecture côté persistance.
// L'appelant affiche l'erreur et conserve son état précédent; aucune
// relance automatique n'est faite ici.
var ErrDonneesIndisponibles = errors.New("données indisponibles")

// DetailArticle est une ligne de rapport consolidé pour une désignation.
type DetailArticle struct {
	Designation         string
	ArticleID           *uint
	QuantiteTotale      int
	PrixUnitaireMoyen   decimal.Decimal
	MontantTotalArticle decimal.Decimal
}

// TotauxRapport cumule toutes les lignes d'un rapport. Le prix unitaire
// moyen global n'existe pas: une moyenne de moyennes n'a pas de sens, la
// colonne reste vide à l'affichage.
type TotauxRapport struct {
	QuantiteTotale int
	MontantTotal   decimal.Decimal
}

// RapportGroupe est le résultat de l'agrégation d'un groupe de BL.
type RapportGroupe struct {
	Details []DetailArticle
	Totaux  TotauxRapport
}

// AggregerLignes regroupe des lignes de bons par désignation, telle que
// stockée (comparaison exacte, sensible à la casse). Pour chaque clé:
// quantité et montant sommés, prix moyen = montant / quantité arrondi au
// millime, zéro si la quantité est nulle. L'article_id retenu est le
// premier non nul rencontré pour la clé. Les lignes du rapport sortent
// triées par désignation croissante pour rester déterministes.
func AggregerLignes(lignes []models.LigneBonEntree) []DetailArticle {
	type cumul struct {
		quantite  int
		montant   decimal.Decimal
		articleID *uint
	}
	parCle := make(map[string]*cumul)
	for _, l := range lignes {
		c, ok := parCle[l.Designation]
		if !ok {
			c = &cumul{montant: decimal.Zero}
			parCle[l.Designation] = c
		}
		c.quantite += l.Quantite
		c.montant = c.montant.Add(l.MontantLigne)
		if c.articleID == nil && l.ArticleID != nil {
			c.articleID = l.ArticleID
		}
	}

	details := make([]DetailArticle, 0, len(parCle))
	for designation, c := range parCle {
		details = append(details, DetailArticle{
			Designation:         designation,
			ArticleID:           c.articleID,
			QuantiteTotale:      c.quantite,
			PrixUnitaireMoyen:   prixMoyen(c.montant, c.quantite),
			MontantTotalArticle: c.montant,
		})
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].Designation < details[j].Designation
	})
	return details
}

// TotauxDe somme les lignes d'un rapport déjà agrégé.
func TotauxDe(details []DetailArticle) TotauxRapport {
	t := TotauxRapport{MontantTotal: decimal.Zero}
	for _, d := range details {
		t.QuantiteTotale += d.QuantiteTotale
		t.MontantTotal = t.MontantTotal.Add(d.MontantTotalArticle)
	}
	return t
}

// prixMoyen garde la division par zéro hors du rapport: quantité nulle
// donne un prix moyen nul, jamais NaN ni erreur.
func prixMoyen(montant decimal.Decimal, quantite int) decimal.Decimal {
	if quantite == 0 {
		return decimal.Zero
	}
	return montant.DivRound(decimal.NewFromInt(int64(quantite)), 3)
}
