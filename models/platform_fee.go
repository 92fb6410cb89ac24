package models

import "time"

// Platform fee types and statuses. The fee table is append-only.
const (
	FeeTypeInitial  = "initial"
	FeeTypeWinnings = "winnings"

	FeePending = "pending"
	FeePaid    = "paid"
)

// PlatformFee is a ledger entry for a fee owed to or collected by the
// platform for one tournament.
type PlatformFee struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	TournamentID    string    `json:"tournament_id" gorm:"not null;index"`
	FeeType         string    `json:"fee_type" gorm:"not null;index"`
	Amount          float64   `json:"amount" gorm:"not null"`
	Percentage      float64   `json:"percentage"`
	Status          string    `json:"status" gorm:"default:'pending'"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// FeeStatistics aggregates paid platform fees for the admin dashboard.
type FeeStatistics struct {
	TotalInitialFees  float64       `json:"totalInitialFees"`
	TotalWinningsFees float64       `json:"totalWinningsFees"`
	TotalFees         float64       `json:"totalFees"`
	FeesByMonth       []FeesByMonth `json:"feesByMonth"`
}

type FeesByMonth struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}
