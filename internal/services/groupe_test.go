package services

import (
	"errors"
	"testing"

	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
)

func TestGroupeCreerFigeLesBons(t *testing.T) {
	db := setupTestDB(t)
	bons := NewBonService(db)
	svc := NewGroupeService(db)

	b1, err := bons.Creer(t.Context(), saisieDeTest("BL-200", "Stylo", 10, "1.000"))
	if err != nil {
		t.Fatalf("creer bon: %v", err)
	}
	b2, err := bons.Creer(t.Context(), saisieDeTest("BL-201", "Cahier", 2, "5.000"))
	if err != nil {
		t.Fatalf("creer bon: %v", err)
	}

	groupe, err := svc.Creer(t.Context(), "Lot avril", []uint{b1.ID, b2.ID})
	if err != nil {
		t.Fatalf("creer groupe: %v", err)
	}
	if groupe.NombreBL != 2 {
		t.Fatalf("nombre_bl: expected 2 got %d", groupe.NombreBL)
	}
	if got := groupe.MontantTotal.StringFixed(3); got != "20.000" {
		t.Fatalf("montant: expected 20.000 got %s", got)
	}

	var b models.BonEntree
	if err := db.First(&b, b1.ID).Error; err != nil {
		t.Fatalf("reload bon: %v", err)
	}
	if b.Statut != models.StatutGroupe {
		t.Fatalf("statut: expected %q got %q", models.StatutGroupe, b.Statut)
	}
}

func TestGroupeCreerRefuseBonDejaGroupe(t *testing.T) {
	db := setupTestDB(t)
	bons := NewBonService(db)
	svc := NewGroupeService(db)

	b1, err := bons.Creer(t.Context(), saisieDeTest("BL-202", "Stylo", 1, "1.000"))
	if err != nil {
		t.Fatalf("creer bon: %v", err)
	}
	if _, err := svc.Creer(t.Context(), "Premier lot", []uint{b1.ID}); err != nil {
		t.Fatalf("creer groupe: %v", err)
	}
	if _, err := svc.Creer(t.Context(), "Second lot", []uint{b1.ID}); !errors.Is(err, ErrBonIndisponible) {
		t.Fatalf("expected ErrBonIndisponible got %v", err)
	}
	// la transaction a tout annulé: aucun second groupe
	var n int64
	db.Model(&models.GroupeBL{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 groupe got %d", n)
	}
}

func TestGroupeCreerRefuseBonInconnu(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGroupeService(db)
	if _, err := svc.Creer(t.Context(), "Lot fantôme", []uint{9999}); !errors.Is(err, ErrBonIndisponible) {
		t.Fatalf("expected ErrBonIndisponible got %v", err)
	}
	if _, err := svc.Creer(t.Context(), "Lot vide", nil); !errors.Is(err, ErrAucunBon) {
		t.Fatalf("expected ErrAucunBon got %v", err)
	}
}

func TestGroupeDetailsConsolideLesLignes(t *testing.T) {
	db := setupTestDB(t)
	bons := NewBonService(db)
	svc := NewGroupeService(db)

	b1, err := bons.Creer(t.Context(), saisieDeTest("BL-203", "Stylo", 10, "1.000"))
	if err != nil {
		t.Fatalf("creer bon: %v", err)
	}
	b2, err := bons.Creer(t.Context(), saisieDeTest("BL-204", "Stylo", 5, "2.000"))
	if err != nil {
		t.Fatalf("creer bon: %v", err)
	}
	groupe, err := svc.Creer(t.Context(), "Lot stylos", []uint{b1.ID, b2.ID})
	if err != nil {
		t.Fatalf("creer groupe: %v", err)
	}

	rapport, err := svc.Details(t.Context(), groupe.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(rapport.Details) != 1 {
		t.Fatalf("expected 1 detail got %d", len(rapport.Details))
	}
	d := rapport.Details[0]
	if d.QuantiteTotale != 15 {
		t.Fatalf("quantite: expected 15 got %d", d.QuantiteTotale)
	}
	if got := d.MontantTotalArticle.StringFixed(3); got != "20.000" {
		t.Fatalf("montant: expected 20.000 got %s", got)
	}
	if got := d.PrixUnitaireMoyen.StringFixed(3); got != "1.333" {
		t.Fatalf("prix moyen: expected 1.333 got %s", got)
	}
	if rapport.Totaux.QuantiteTotale != 15 {
		t.Fatalf("totaux quantite: expected 15 got %d", rapport.Totaux.QuantiteTotale)
	}
}

func TestGroupeDetailsInconnuDonneRapportVide(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGroupeService(db)

	rapport, err := svc.Details(t.Context(), 4242)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(rapport.Details) != 0 {
		t.Fatalf("expected empty details got %d", len(rapport.Details))
	}
	if !rapport.Totaux.MontantTotal.IsZero() || rapport.Totaux.QuantiteTotale != 0 {
		t.Fatalf("expected zero totals got %+v", rapport.Totaux)
	}
}

func TestGroupeDissoudreLibereLesBons(t *testing.T) {
	db := setupTestDB(t)
	bons := NewBonService(db)
	svc := NewGroupeService(db)

	b1, err := bons.Creer(t.Context(), saisieDeTest("BL-205", "Stylo", 1, "1.000"))
	if err != nil {
		t.Fatalf("creer bon: %v", err)
	}
	groupe, err := svc.Creer(t.Context(), "Lot à défaire", []uint{b1.ID})
	if err != nil {
		t.Fatalf("creer groupe: %v", err)
	}

	if err := svc.Dissoudre(t.Context(), groupe.ID); err != nil {
		t.Fatalf("dissoudre: %v", err)
	}
	var b models.BonEntree
	if err := db.First(&b, b1.ID).Error; err != nil {
		t.Fatalf("reload bon: %v", err)
	}
	if b.Statut != models.StatutEnAttente {
		t.Fatalf("statut: expected %q got %q", models.StatutEnAttente, b.Statut)
	}
	var n int64
	db.Model(&models.LiaisonGroupeBL{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected 0 liaisons got %d", n)
	}
	if err := svc.Dissoudre(t.Context(), groupe.ID); !errors.Is(err, ErrGroupeIntrouvable) {
		t.Fatalf("expected ErrGroupeIntrouvable got %v", err)
	}
}

func TestGroupeListerPlusRecentsDabord(t *testing.T) {
	db := setupTestDB(t)
	bons := NewBonService(db)
	svc := NewGroupeService(db)

	b1, _ := bons.Creer(t.Context(), saisieDeTest("BL-206", "Stylo", 1, "1.000"))
	b2, _ := bons.Creer(t.Context(), saisieDeTest("BL-207", "Cahier", 1, "1.000"))
	if _, err := svc.Creer(t.Context(), "Premier", []uint{b1.ID}); err != nil {
		t.Fatalf("creer groupe: %v", err)
	}
	if _, err := svc.Creer(t.Context(), "Second", []uint{b2.ID}); err != nil {
		t.Fatalf("creer groupe: %v", err)
	}

	groupes, err := svc.Lister(t.Context())
	if err != nil {
		t.Fatalf("lister: %v", err)
	}
	if len(groupes) != 2 || groupes[0].Nom != "Second" {
		t.Fatalf("unexpected order: %+v", groupes)
	}
}
