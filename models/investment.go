package models

import "time"

// Investment statuses. Active rows count toward the pool total.
const (
	InvestmentActive = "active"
)

// Investment is an investor's fractional share of a tournament's pool.
// PercentageOfPool is frozen at acceptance time against the (immutable)
// target, so settlement distributions never depend on later reads.
type Investment struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	TournamentID     string    `json:"tournament_id" gorm:"not null;index"`
	InvestorID       string    `json:"investor_id" gorm:"not null;index"`
	Amount           float64   `json:"amount" gorm:"not null"`
	PercentageOfPool float64   `json:"percentage_of_pool" gorm:"not null"`
	Status           string    `json:"status" gorm:"default:'active'"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// InvestorDistribution is the derived per-investor share of net winnings.
// It is computed on demand and never persisted.
type InvestorDistribution struct {
	InvestorID       string  `json:"investor_id"`
	InvestedAmount   float64 `json:"invested_amount"`
	PercentageOfPool float64 `json:"percentage_of_pool"`
	Distribution     float64 `json:"distribution"`
}
