package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrPayloadInvalide: le texte scanné n'est pas un bon d'entrée JSON
// exploitable.
var ErrPayloadInvalide = errors.New("payload de scan invalide")

// PayloadScan est le contenu attendu d'un QR code de bon d'entrée. La
// date s'écrit AAAA-MM-JJ.
type PayloadScan struct {
	NumeroBL    string      `json:"numero_bl"`
	Fournisseur string      `json:"fournisseur"`
	DateBL      string      `json:"date_bl"`
	Notes       *string     `json:"notes"`
	Articles    []LigneScan `json:"articles"`
}

// LigneScan est une ligne d'article dans un payload de scan.
type LigneScan struct {
	Designation string          `json:"designation"`
	Quantite    int             `json:"quantite"`
	Prix        decimal.Decimal `json:"prix"`
}

// ScanService transforme un payload de QR code en bon d'entrée
// enregistré. L'insertion passe par BonService pour garder les mêmes
// règles que la saisie manuelle.
type ScanService struct {
	Bons *BonService
}

func NewScanService(db *gorm.DB) *ScanService {
	return &ScanService{Bons: NewBonService(db)}
}

// ParsePayload décode et contrôle un payload de scan sans toucher à la
// base. Toute anomalie de structure remonte en ErrPayloadInvalide avec le
// détail en clair.
func ParsePayload(raw string) (*PayloadScan, time.Time, error) {
	var p PayloadScan
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&p); err != nil {
		return nil, time.Time{}, errors.Join(ErrPayloadInvalide, err)
	}
	p.NumeroBL = strings.TrimSpace(p.NumeroBL)
	p.Fournisseur = strings.TrimSpace(p.Fournisseur)
	if p.NumeroBL == "" || p.Fournisseur == "" {
		return nil, time.Time{}, errors.Join(ErrPayloadInvalide,
			errors.New("numero_bl et fournisseur sont obligatoires"))
	}
	if len(p.Articles) == 0 {
		return nil, time.Time{}, errors.Join(ErrPayloadInvalide,
			errors.New("aucun article dans le payload"))
	}
	date, err := parseDateScan(p.DateBL)
	if err != nil {
		return nil, time.Time{}, errors.Join(ErrPayloadInvalide, err)
	}
	return &p, date, nil
}

// Enregistrer parse le payload puis crée le bon. Le texte brut du QR est
// conservé sur le bon pour audit. Un numéro déjà connu remonte en
// ErrNumeroExiste.
func (s *ScanService) Enregistrer(ctx context.Context, raw string) (*models.BonEntree, error) {
	p, date, err := ParsePayload(raw)
	if err != nil {
		return nil, err
	}
	lignes := make([]LigneSaisie, 0, len(p.Articles))
	for _, a := range p.Articles {
		lignes = append(lignes, LigneSaisie{
			Designation:  a.Designation,
			Quantite:     a.Quantite,
			PrixUnitaire: a.Prix,
		})
	}
	qr := raw
	return s.Bons.Creer(ctx, BonSaisie{
		NumeroBL:    p.NumeroBL,
		Fournisseur: p.Fournisseur,
		DateBL:      date,
		Notes:       p.Notes,
		QRCodeData:  &qr,
		Lignes:      lignes,
	})
}

func parseDateScan(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("date_bl illisible: " + s)
	}
	return t, nil
}
