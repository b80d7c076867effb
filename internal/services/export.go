package services

import (
	"fmt"

	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
	"github.com/xuri/excelize/v2"
)

// enteteStyle pose le style des lignes d'entête et de totaux des
// classeurs exportés.
func enteteStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
}

// ExporterStatistiques construit le classeur des statistiques globales:
// une ligne par désignation, puis une ligne de totaux. Les montants sont
// écrits en texte au millime pour garder l'affichage exact.
func ExporterStatistiques(r RapportStatistiques) (*excelize.File, error) {
	f := excelize.NewFile()
	const feuille = "Statistiques"
	f.SetSheetName("Sheet1", feuille)

	style, err := enteteStyle(f)
	if err != nil {
		return nil, err
	}
	entetes := []interface{}{"Désignation", "Quantité totale", "Montant total (TND)", "Nombre de BL", "Prix moyen (TND)"}
	if err := f.SetSheetRow(feuille, "A1", &entetes); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(feuille, "A1", "E1", style); err != nil {
		return nil, err
	}

	ligne := 2
	for _, a := range r.Articles {
		valeurs := []interface{}{
			a.Designation,
			a.QuantiteTotale,
			a.MontantTotal.StringFixed(3),
			a.NombreBL,
			a.PrixMoyen.StringFixed(3),
		}
		cell := fmt.Sprintf("A%d", ligne)
		if err := f.SetSheetRow(feuille, cell, &valeurs); err != nil {
			return nil, err
		}
		ligne++
	}

	totaux := []interface{}{
		"TOTAL",
		r.Totaux.QuantiteTotale,
		r.Totaux.MontantTotal.StringFixed(3),
		r.Totaux.NombreBLTotal,
		"",
	}
	cell := fmt.Sprintf("A%d", ligne)
	if err := f.SetSheetRow(feuille, cell, &totaux); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(feuille, cell, fmt.Sprintf("E%d", ligne), style); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(feuille, "A", "A", 32); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(feuille, "B", "E", 18); err != nil {
		return nil, err
	}
	return f, nil
}

// ExporterRapportGroupe construit le classeur du rapport consolidé d'un
// groupe: entête du groupe, une ligne par désignation, ligne de totaux.
// Le prix moyen global reste vide dans la ligne de totaux.
func ExporterRapportGroupe(groupe *models.GroupeBL, rapport *RapportGroupe) (*excelize.File, error) {
	f := excelize.NewFile()
	const feuille = "Rapport groupe"
	f.SetSheetName("Sheet1", feuille)

	style, err := enteteStyle(f)
	if err != nil {
		return nil, err
	}

	titre := []interface{}{"Groupe", groupe.Nom}
	if err := f.SetSheetRow(feuille, "A1", &titre); err != nil {
		return nil, err
	}
	infos := []interface{}{"Créé le", groupe.DateCreation.Format("02/01/2006"), "Bons", groupe.NombreBL}
	if err := f.SetSheetRow(feuille, "A2", &infos); err != nil {
		return nil, err
	}

	entetes := []interface{}{"Désignation", "Quantité totale", "Prix unitaire moyen (TND)", "Montant total (TND)"}
	if err := f.SetSheetRow(feuille, "A4", &entetes); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(feuille, "A4", "D4", style); err != nil {
		return nil, err
	}

	ligne := 5
	for _, d := range rapport.Details {
		valeurs := []interface{}{
			d.Designation,
			d.QuantiteTotale,
			d.PrixUnitaireMoyen.StringFixed(3),
			d.MontantTotalArticle.StringFixed(3),
		}
		cell := fmt.Sprintf("A%d", ligne)
		if err := f.SetSheetRow(feuille, cell, &valeurs); err != nil {
			return nil, err
		}
		ligne++
	}

	totaux := []interface{}{
		"TOTAL",
		rapport.Totaux.QuantiteTotale,
		"",
		rapport.Totaux.MontantTotal.StringFixed(3),
	}
	cell := fmt.Sprintf("A%d", ligne)
	if err := f.SetSheetRow(feuille, cell, &totaux); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(feuille, cell, fmt.Sprintf("D%d", ligne), style); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(feuille, "A", "A", 32); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(feuille, "B", "D", 22); err != nil {
		return nil, err
	}
	return f, nil
}
