package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statuts d'un bon d'entrée. Un bon passe à Groupé quand il rejoint un
// groupe et redevient En attente si le groupe est dissous.
const (
	StatutEnAttente = "En attente"
	StatutGroupe    = "Groupé"
	StatutTraite    = "Traité"
)

// BonEntree (bon de livraison entrant). MontantTotal est un cumul des
// montants de lignes, recalculé par chaque écriture et jamais accepté tel
// quel du client.
type BonEntree struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	NumeroBL     string           `gorm:"size:64;not null;uniqueIndex" json:"numero_bl"`
	Fournisseur  string           `gorm:"not null;index" json:"fournisseur"`
	DateBL       time.Time        `gorm:"not null" json:"date_bl"`
	MontantTotal decimal.Decimal  `gorm:"type:numeric(12,3);not null" json:"montant_total"`
	Statut       string           `gorm:"size:20;not null;default:'En attente';index" json:"statut"`
	Notes        *string          `json:"notes"`
	QRCodeData   *string          `json:"qr_code_data"` // payload brut quand le bon vient d'un scan
	Lignes       []LigneBonEntree `gorm:"foreignKey:BonEntreeID;constraint:OnDelete:CASCADE" json:"lignes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// LigneBonEntree appartient exclusivement à son bon et disparaît avec lui.
// ArticleID reste optionnel: une ligne saisie à la main peut référencer une
// désignation libre absente du catalogue.
type LigneBonEntree struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	BonEntreeID  uint            `gorm:"not null;index" json:"bon_entree_id"`
	ArticleID    *uint           `gorm:"index" json:"article_id"`
	Designation  string          `gorm:"not null" json:"designation"`
	Quantite     int             `gorm:"not null" json:"quantite"`
	PrixUnitaire decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"prix_unitaire"`
	MontantLigne decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"montant_ligne"` // Quantite × PrixUnitaire
	CreatedAt    time.Time       `json:"created_at"`
}
