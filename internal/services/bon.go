package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrNumeroExiste: un bon porte déjà ce numéro de BL.
	ErrNumeroExiste = errors.New("numéro de BL déjà enregistré")
	// ErrBonIntrouvable: aucun bon pour l'identifiant demandé.
	ErrBonIntrouvable = errors.New("bon d'entrée introuvable")
	// ErrBonGroupe: le bon appartient à un groupe, il faut d'abord
	// dissoudre le groupe.
	ErrBonGroupe = errors.New("bon rattaché à un groupe")
	// ErrAucuneLigne: un bon sans aucune ligne exploitable est refusé.
	ErrAucuneLigne = errors.New("aucune ligne valide")
)

// LigneSaisie est une ligne de bon telle que saisie ou scannée, avant
// calcul des montants.
type LigneSaisie struct {
	ArticleID    *uint
	Designation  string
	Quantite     int
	PrixUnitaire decimal.Decimal
}

// BonSaisie est un bon complet à enregistrer.
type BonSaisie struct {
	NumeroBL    string
	Fournisseur string
	DateBL      time.Time
	Notes       *string
	QRCodeData  *string
	Lignes      []LigneSaisie
}

// BonService porte la création et la mise à jour atomiques des bons avec
// leurs lignes. Les montants de lignes et le montant total sont toujours
// recalculés ici, jamais repris de la saisie.
type BonService struct {
	DB *gorm.DB
}

func NewBonService(db *gorm.DB) *BonService {
	return &BonService{DB: db}
}

// Creer enregistre un bon et ses lignes dans une même transaction. Les
// lignes sans désignation ou de quantité non positive sont écartées en
// silence; s'il n'en reste aucune le bon entier est refusé.
func (s *BonService) Creer(ctx context.Context, saisie BonSaisie) (*models.BonEntree, error) {
	lignes, montant := preparerLignes(saisie.Lignes)
	if len(lignes) == 0 {
		return nil, ErrAucuneLigne
	}

	bon := &models.BonEntree{
		NumeroBL:     strings.TrimSpace(saisie.NumeroBL),
		Fournisseur:  strings.TrimSpace(saisie.Fournisseur),
		DateBL:       saisie.DateBL,
		MontantTotal: montant,
		Statut:       models.StatutEnAttente,
		Notes:        saisie.Notes,
		QRCodeData:   saisie.QRCodeData,
		Lignes:       lignes,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.BonEntree{}).
			Where("numero_bl = ?", bon.NumeroBL).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrNumeroExiste
		}
		return tx.Create(bon).Error
	})
	if err != nil {
		return nil, err
	}
	return bon, nil
}

// MettreAJour remplace l'entête et toutes les lignes d'un bon. Un bon
// groupé ne se modifie pas tant que son groupe existe.
func (s *BonService) MettreAJour(ctx context.Context, id uint, saisie BonSaisie) (*models.BonEntree, error) {
	lignes, montant := preparerLignes(saisie.Lignes)
	if len(lignes) == 0 {
		return nil, ErrAucuneLigne
	}

	var bon models.BonEntree
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bon, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBonIntrouvable
			}
			return err
		}
		if bon.Statut == models.StatutGroupe {
			return ErrBonGroupe
		}

		numero := strings.TrimSpace(saisie.NumeroBL)
		if numero != bon.NumeroBL {
			var n int64
			if err := tx.Model(&models.BonEntree{}).
				Where("numero_bl = ? AND id <> ?", numero, id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return ErrNumeroExiste
			}
		}

		if err := tx.Where("bon_entree_id = ?", id).
			Delete(&models.LigneBonEntree{}).Error; err != nil {
			return err
		}
		bon.NumeroBL = numero
		bon.Fournisseur = strings.TrimSpace(saisie.Fournisseur)
		bon.DateBL = saisie.DateBL
		bon.MontantTotal = montant
		bon.Notes = saisie.Notes
		bon.Lignes = lignes
		return tx.Save(&bon).Error
	})
	if err != nil {
		return nil, err
	}
	return &bon, nil
}

// Supprimer efface un bon et ses lignes. Refusé tant que le bon est
// rattaché à un groupe.
func (s *BonService) Supprimer(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bon models.BonEntree
		if err := tx.First(&bon, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBonIntrouvable
			}
			return err
		}
		if bon.Statut == models.StatutGroupe {
			return ErrBonGroupe
		}
		if err := tx.Where("bon_entree_id = ?", id).
			Delete(&models.LigneBonEntree{}).Error; err != nil {
			return err
		}
		return tx.Delete(&bon).Error
	})
}

// preparerLignes écarte les lignes inexploitables et calcule montant par
// ligne et montant total du bon.
func preparerLignes(saisies []LigneSaisie) ([]models.LigneBonEntree, decimal.Decimal) {
	lignes := make([]models.LigneBonEntree, 0, len(saisies))
	total := decimal.Zero
	for _, l := range saisies {
		designation := strings.TrimSpace(l.Designation)
		if designation == "" || l.Quantite <= 0 || l.PrixUnitaire.IsNegative() {
			continue
		}
		montant := l.PrixUnitaire.Mul(decimal.NewFromInt(int64(l.Quantite)))
		lignes = append(lignes, models.LigneBonEntree{
			ArticleID:    l.ArticleID,
			Designation:  designation,
			Quantite:     l.Quantite,
			PrixUnitaire: l.PrixUnitaire,
			MontantLigne: montant,
		})
		total = total.Add(montant)
	}
	return lignes, total
}
