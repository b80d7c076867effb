package services

import (
	"errors"
	"testing"
)

const payloadScanValide = `{
	"numero_bl": "BL-2026-042",
	"fournisseur": "Société Tunisienne de Papeterie",
	"date_bl": "2026-01-18",
	"articles": [
		{"designation": "Stylo bleu", "quantite": 10, "prix": 1.250},
		{"designation": "Cahier A4", "quantite": 4, "prix": 2.500}
	]
}`

func TestParsePayload(t *testing.T) {
	p, date, err := ParsePayload(payloadScanValide)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.NumeroBL != "BL-2026-042" {
		t.Fatalf("numero: got %s", p.NumeroBL)
	}
	if len(p.Articles) != 2 {
		t.Fatalf("expected 2 articles got %d", len(p.Articles))
	}
	if got := date.Format("2006-01-02"); got != "2026-01-18" {
		t.Fatalf("date: got %s", got)
	}
}

func TestParsePayloadInvalide(t *testing.T) {
	cas := []string{
		"pas du json",
		`{"numero_bl":"","fournisseur":"F","articles":[{"designation":"X","quantite":1,"prix":1}]}`,
		`{"numero_bl":"BL-1","fournisseur":"F","articles":[]}`,
		`{"numero_bl":"BL-1","fournisseur":"F","date_bl":"18/01/2026","articles":[{"designation":"X","quantite":1,"prix":1}]}`,
	}
	for _, raw := range cas {
		if _, _, err := ParsePayload(raw); !errors.Is(err, ErrPayloadInvalide) {
			t.Fatalf("expected ErrPayloadInvalide for %q, got %v", raw, err)
		}
	}
}

func TestScanEnregistre(t *testing.T) {
	db := setupTestDB(t)
	svc := NewScanService(db)

	bon, err := svc.Enregistrer(t.Context(), payloadScanValide)
	if err != nil {
		t.Fatalf("enregistrer: %v", err)
	}
	if got := bon.MontantTotal.StringFixed(3); got != "22.500" {
		t.Fatalf("montant: expected 22.500 got %s", got)
	}
	if bon.QRCodeData == nil || *bon.QRCodeData != payloadScanValide {
		t.Fatal("expected raw payload kept on bon")
	}
	if len(bon.Lignes) != 2 {
		t.Fatalf("expected 2 lignes got %d", len(bon.Lignes))
	}
}

func TestScanRefuseNumeroConnu(t *testing.T) {
	db := setupTestDB(t)
	svc := NewScanService(db)

	if _, err := svc.Enregistrer(t.Context(), payloadScanValide); err != nil {
		t.Fatalf("premier scan: %v", err)
	}
	if _, err := svc.Enregistrer(t.Context(), payloadScanValide); !errors.Is(err, ErrNumeroExiste) {
		t.Fatalf("expected ErrNumeroExiste got %v", err)
	}
}
