package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chekib1978/entree-flow-scan-stats/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrGroupeIntrouvable: aucun groupe pour l'identifiant demandé.
	ErrGroupeIntrouvable = errors.New("groupe introuvable")
	// ErrBonIndisponible: au moins un bon demandé n'existe pas ou n'est
	// plus en attente.
	ErrBonIndisponible = errors.New("bon indisponible pour le groupage")
	// ErrAucunBon: un groupe se crée avec au moins un bon.
	ErrAucunBon = errors.New("aucun bon sélectionné")
)

// GroupeService porte le cycle de vie des groupes de BL: création,
// rapport consolidé, dissolution.
type GroupeService struct {
	DB *gorm.DB
}

func NewGroupeService(db *gorm.DB) *GroupeService {
	return &GroupeService{DB: db}
}

// Creer groupe les bons donnés sous un nom. Tout se joue dans une seule
// transaction: vérification que chaque bon existe et est en attente,
// création du groupe et des liaisons, passage des bons au statut groupé.
// Le montant total et le nombre de bons sont figés sur le groupe à la
// création.
func (s *GroupeService) Creer(ctx context.Context, nom string, bonIDs []uint) (*models.GroupeBL, error) {
	if len(bonIDs) == 0 {
		return nil, ErrAucunBon
	}

	groupe := &models.GroupeBL{
		Nom:          nom,
		DateCreation: time.Now(),
		MontantTotal: decimal.Zero,
		Statut:       models.StatutGroupeActif,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bons []models.BonEntree
		if err := tx.Where("id IN ?", bonIDs).Find(&bons).Error; err != nil {
			return err
		}
		if len(bons) != len(bonIDs) {
			return ErrBonIndisponible
		}
		for _, b := range bons {
			if b.Statut != models.StatutEnAttente {
				return fmt.Errorf("%w: %s", ErrBonIndisponible, b.NumeroBL)
			}
			groupe.MontantTotal = groupe.MontantTotal.Add(b.MontantTotal)
		}
		groupe.NombreBL = len(bons)

		if err := tx.Create(groupe).Error; err != nil {
			return err
		}
		liaisons := make([]models.LiaisonGroupeBL, 0, len(bons))
		for _, b := range bons {
			liaisons = append(liaisons, models.LiaisonGroupeBL{
				GroupeID:    groupe.ID,
				BonEntreeID: b.ID,
			})
		}
		if err := tx.Create(&liaisons).Error; err != nil {
			return err
		}
		return tx.Model(&models.BonEntree{}).Where("id IN ?", bonIDs).
			Update("statut", models.StatutGroupe).Error
	})
	if err != nil {
		return nil, err
	}
	return groupe, nil
}

// Lister retourne les groupes, les plus récents d'abord.
func (s *GroupeService) Lister(ctx context.Context) ([]models.GroupeBL, error) {
	var groupes []models.GroupeBL
	if err := s.DB.WithContext(ctx).
		Order("date_creation DESC, id DESC").Find(&groupes).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDonneesIndisponibles, err)
	}
	return groupes, nil
}

// Details produit le rapport consolidé d'un groupe à partir des lignes de
// ses bons. Un groupe inconnu ou sans bon donne un rapport vide, pas une
// erreur: l'écran affiche alors un tableau vide et des totaux à zéro.
func (s *GroupeService) Details(ctx context.Context, groupeID uint) (*RapportGroupe, error) {
	lignes, err := s.lignesDuGroupe(ctx, groupeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDonneesIndisponibles, err)
	}
	details := AggregerLignes(lignes)
	return &RapportGroupe{Details: details, Totaux: TotauxDe(details)}, nil
}

// Trouver charge l'entête d'un groupe.
func (s *GroupeService) Trouver(ctx context.Context, groupeID uint) (*models.GroupeBL, error) {
	var groupe models.GroupeBL
	if err := s.DB.WithContext(ctx).First(&groupe, groupeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupeIntrouvable
		}
		return nil, fmt.Errorf("%w: %v", ErrDonneesIndisponibles, err)
	}
	return &groupe, nil
}

// Dissoudre défait un groupe: les bons repassent en attente, les liaisons
// et le groupe disparaissent. Les bons eux-mêmes restent intacts.
func (s *GroupeService) Dissoudre(ctx context.Context, groupeID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var groupe models.GroupeBL
		if err := tx.First(&groupe, groupeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupeIntrouvable
			}
			return err
		}
		var liaisons []models.LiaisonGroupeBL
		if err := tx.Where("groupe_id = ?", groupeID).Find(&liaisons).Error; err != nil {
			return err
		}
		if len(liaisons) > 0 {
			bonIDs := make([]uint, 0, len(liaisons))
			for _, l := range liaisons {
				bonIDs = append(bonIDs, l.BonEntreeID)
			}
			if err := tx.Model(&models.BonEntree{}).Where("id IN ?", bonIDs).
				Update("statut", models.StatutEnAttente).Error; err != nil {
				return err
			}
			if err := tx.Where("groupe_id = ?", groupeID).
				Delete(&models.LiaisonGroupeBL{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&groupe).Error
	})
}

// lignesDuGroupe remonte toutes les lignes des bons rattachés au groupe.
// La jointure passe par la table de liaison puis par les bons.
func (s *GroupeService) lignesDuGroupe(ctx context.Context, groupeID uint) ([]models.LigneBonEntree, error) {
	var lignes []models.LigneBonEntree
	err := s.DB.WithContext(ctx).
		Joins("JOIN liaison_groupe_bls ON liaison_groupe_bls.bon_entree_id = ligne_bon_entrees.bon_entree_id").
		Where("liaison_groupe_bls.groupe_id = ?", groupeID).
		Find(&lignes).Error
	if err != nil {
		return nil, err
	}
	return lignes, nil
}
