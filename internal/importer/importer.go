// Package importer lit des classeurs Excel d'articles et valide leur
// contenu ligne par ligne avant insertion au catalogue. L'import est tout
// ou rien: la moindre ligne en erreur bloque le lot complet.
package importer

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errNegatif = errors.New("prix négatif")

// ArticleCandidat est une ligne d'import acceptée, prête à entrer au
// catalogue.
type ArticleCandidat struct {
	Designation string
	Prix        decimal.Decimal
	CodeArticle *string
	Description *string
}

// ErreurLigne localise un rejet dans le fichier source. Ligne est le
// numéro de ligne du classeur, entête comprise, en partant de 1.
type ErreurLigne struct {
	Ligne   int    `json:"ligne"`
	Message string `json:"message"`
}

// Resultat est le bilan de validation d'un classeur. LotID identifie la
// tentative d'import dans les journaux et les réponses d'erreur.
type Resultat struct {
	LotID    string
	Articles []ArticleCandidat
	Erreurs  []ErreurLigne
}

// motsEntete sont les intitulés de colonnes reconnus, comparés en
// minuscules. Une première ligne dont au moins une cellule correspond est
// une entête et ne se valide pas.
var motsEntete = map[string]struct{}{
	"designation": {},
	"désignation": {},
	"prix":        {},
	"price":       {},
	"code":        {},
	"description": {},
}

// ValiderLignes contrôle les lignes brutes d'un classeur. Les lignes de
// moins de deux cellules sont ignorées en silence; toute autre anomalie
// produit une erreur en français pointant la ligne fautive. Toutes les
// erreurs du fichier sont collectées, pas seulement la première.
func ValiderLignes(rows [][]string) Resultat {
	res := Resultat{LotID: uuid.NewString()}
	for i, row := range rows {
		if i == 0 && estEntete(row) {
			continue
		}
		if len(row) < 2 {
			continue
		}
		numero := i + 1
		designation := strings.TrimSpace(row[0])
		brutPrix := strings.TrimSpace(row[1])

		if designation == "" {
			res.Erreurs = append(res.Erreurs, ErreurLigne{
				Ligne:   numero,
				Message: "Désignation manquante",
			})
			continue
		}
		if brutPrix == "" {
			res.Erreurs = append(res.Erreurs, ErreurLigne{
				Ligne:   numero,
				Message: "Prix manquant",
			})
			continue
		}
		prix, err := parserPrix(brutPrix)
		if err != nil {
			res.Erreurs = append(res.Erreurs, ErreurLigne{
				Ligne:   numero,
				Message: "Prix invalide (" + brutPrix + ")",
			})
			continue
		}

		candidat := ArticleCandidat{Designation: designation, Prix: prix}
		if v := celluleOptionnelle(row, 2); v != "" {
			candidat.CodeArticle = &v
		}
		if v := celluleOptionnelle(row, 3); v != "" {
			candidat.Description = &v
		}
		res.Articles = append(res.Articles, candidat)
	}
	return res
}

// parserPrix accepte la virgule décimale des exports tunisiens et refuse
// les prix négatifs.
func parserPrix(brut string) (decimal.Decimal, error) {
	normalise := strings.ReplaceAll(brut, ",", ".")
	prix, err := decimal.NewFromString(normalise)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if prix.IsNegative() {
		return decimal.Decimal{}, errNegatif
	}
	return prix, nil
}

func estEntete(row []string) bool {
	for _, cellule := range row {
		mot := strings.ToLower(strings.TrimSpace(cellule))
		if mot == "" {
			continue
		}
		if _, ok := motsEntete[mot]; ok {
			return true
		}
	}
	return false
}

func celluleOptionnelle(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
