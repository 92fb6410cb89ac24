package models

import "time"

// Guarantee statuses. Transitions only leave "active".
const (
	GuaranteeActive    = "active"
	GuaranteeReturned  = "returned"
	GuaranteeForfeited = "forfeited"
)

// Guarantee is the collateral posted by the tournament creator. It is
// returned when the tournament completes honestly and forfeited on default.
type Guarantee struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	TournamentID    string    `json:"tournament_id" gorm:"not null;uniqueIndex"`
	PlayerID        string    `json:"player_id" gorm:"not null;index"`
	Amount          float64   `json:"amount" gorm:"not null"`
	Percentage      float64   `json:"percentage"`
	Status          string    `json:"status" gorm:"default:'active'"`
	ForfeitReason   string    `json:"forfeit_reason,omitempty"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
