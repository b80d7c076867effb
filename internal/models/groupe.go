package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatutGroupeActif est le seul statut de groupe porté aujourd'hui; la
// colonne existe pour un futur archivage.
const StatutGroupeActif = "Actif"

// GroupeBL regroupe un lot figé de bons d'entrée pour le reporting
// consolidé. MontantTotal et NombreBL sont des caches posés à la création
// du groupe.
type GroupeBL struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Nom          string          `gorm:"not null" json:"nom"`
	DateCreation time.Time       `gorm:"not null" json:"date_creation"`
	MontantTotal decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"montant_total"`
	NombreBL     int             `gorm:"not null" json:"nombre_bl"`
	Statut       string          `gorm:"size:20;not null;default:'Actif'" json:"statut"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LiaisonGroupeBL relie un bon à son groupe. L'index unique sur
// BonEntreeID garantit qu'un bon n'appartient qu'à un seul groupe.
type LiaisonGroupeBL struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GroupeID    uint      `gorm:"not null;index" json:"groupe_id"`
	BonEntreeID uint      `gorm:"not null;uniqueIndex" json:"bon_entree_id"`
	CreatedAt   time.Time `json:"created_at"`
}
