package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
	"go.uber.org/zap"
)

func seedDeuxBons(t *testing.T, bh *BonHandler) (uint, uint) {
	t.Helper()
	b1 := creerBon(t, bh, `{
		"numero_bl": "BL-301", "fournisseur": "F1", "date_bl": "2026-02-01",
		"lignes": [{"designation": "Stylo", "quantite": 10, "prix_unitaire": 1.000}]
	}`)
	b2 := creerBon(t, bh, `{
		"numero_bl": "BL-302", "fournisseur": "F2", "date_bl": "2026-02-02",
		"lignes": [{"designation": "Stylo", "quantite": 5, "prix_unitaire": 2.000}]
	}`)
	return b1.ID, b2.ID
}

func creerGroupe(t *testing.T, gh *GroupeHandler, nom string, ids []uint) models.GroupeBL {
	t.Helper()
	corps, _ := json.Marshal(map[string]any{"nom": nom, "bon_ids": ids})
	req := httptest.NewRequest(http.MethodPost, "/groupes", strings.NewReader(string(corps)))
	w := httptest.NewRecorder()
	gh.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", w.Code, w.Body.String())
	}
	var groupe models.GroupeBL
	if err := json.Unmarshal(w.Body.Bytes(), &groupe); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return groupe
}

func TestGroupeCreateEtDetails(t *testing.T) {
	db := setupTestDB(t)
	bh := NewBonHandler(db, zap.NewNop())
	gh := NewGroupeHandler(db, zap.NewNop())

	id1, id2 := seedDeuxBons(t, bh)
	groupe := creerGroupe(t, gh, "Lot février", []uint{id1, id2})
	if groupe.NombreBL != 2 {
		t.Fatalf("nombre_bl: expected 2 got %d", groupe.NombreBL)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/groupes/details?id=%d", groupe.ID), nil)
	w := httptest.NewRecorder()
	gh.Details(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}

	var payload struct {
		Details []struct {
			Designation         string `json:"designation"`
			QuantiteTotale      int    `json:"quantite_totale"`
			PrixUnitaireMoyen   string `json:"prix_unitaire_moyen"`
			MontantTotalArticle string `json:"montant_total_article"`
		} `json:"details"`
		Totaux struct {
			QuantiteTotale    int     `json:"quantite_totale"`
			MontantTotal      string  `json:"montant_total"`
			PrixUnitaireMoyen *string `json:"prix_unitaire_moyen"`
		} `json:"totaux"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Details) != 1 {
		t.Fatalf("expected 1 detail got %d", len(payload.Details))
	}
	d := payload.Details[0]
	if d.QuantiteTotale != 15 || d.MontantTotalArticle != "20.000" || d.PrixUnitaireMoyen != "1.333" {
		t.Fatalf("unexpected detail: %+v", d)
	}
	if payload.Totaux.MontantTotal != "20.000" || payload.Totaux.PrixUnitaireMoyen != nil {
		t.Fatalf("unexpected totaux: %+v", payload.Totaux)
	}
}

func TestGroupeDetailsInconnu(t *testing.T) {
	db := setupTestDB(t)
	gh := NewGroupeHandler(db, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/groupes/details?id=4242", nil)
	w := httptest.NewRecorder()
	gh.Details(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var payload struct {
		Details []any `json:"details"`
		Totaux  struct {
			MontantTotal string `json:"montant_total"`
		} `json:"totaux"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Details) != 0 || payload.Totaux.MontantTotal != "0.000" {
		t.Fatalf("expected empty report got %s", w.Body.String())
	}
}

func TestGroupeCreateRefuseBonGroupe(t *testing.T) {
	db := setupTestDB(t)
	bh := NewBonHandler(db, zap.NewNop())
	gh := NewGroupeHandler(db, zap.NewNop())

	id1, id2 := seedDeuxBons(t, bh)
	creerGroupe(t, gh, "Premier lot", []uint{id1})

	corps, _ := json.Marshal(map[string]any{"nom": "Second lot", "bon_ids": []uint{id1, id2}})
	req := httptest.NewRequest(http.MethodPost, "/groupes", strings.NewReader(string(corps)))
	w := httptest.NewRecorder()
	gh.Create(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "bon_indisponible") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGroupeDissoudre(t *testing.T) {
	db := setupTestDB(t)
	bh := NewBonHandler(db, zap.NewNop())
	gh := NewGroupeHandler(db, zap.NewNop())

	id1, _ := seedDeuxBons(t, bh)
	groupe := creerGroupe(t, gh, "Lot à défaire", []uint{id1})

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/groupes/dissoudre?id=%d", groupe.ID), nil)
	w := httptest.NewRecorder()
	gh.Dissoudre(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}

	var bon models.BonEntree
	if err := db.First(&bon, id1).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if bon.Statut != models.StatutEnAttente {
		t.Fatalf("statut: expected %q got %q", models.StatutEnAttente, bon.Statut)
	}

	w2 := httptest.NewRecorder()
	gh.Dissoudre(w2, httptest.NewRequest(http.MethodPost, "/groupes/dissoudre?id=4242", nil))
	if w2.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w2.Code)
	}
}

func TestGroupeExport(t *testing.T) {
	db := setupTestDB(t)
	bh := NewBonHandler(db, zap.NewNop())
	gh := NewGroupeHandler(db, zap.NewNop())

	id1, id2 := seedDeuxBons(t, bh)
	groupe := creerGroupe(t, gh, "Lot export", []uint{id1, id2})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/groupes/export?id=%d", groupe.ID), nil)
	w := httptest.NewRecorder()
	gh.Export(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if w.Body.Len() == 0 {
		t.Fatal("expected xlsx body")
	}
}
