package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Article du catalogue. La désignation sert de libellé d'affichage et,
// faute d'article_id sur une ligne, de clé de regroupement dans les rapports.
type Article struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Designation string          `gorm:"not null;index" json:"designation"`
	Prix        decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"prix"` // prix unitaire TND, millimes
	CodeArticle *string         `gorm:"size:64;index" json:"code_article"`
	Description *string         `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
