package models

import "time"

// Notification types emitted on lifecycle transitions.
const (
	NotifyInitialFeePaid      = "initial_fee_paid"
	NotifyGuaranteeRequired   = "guarantee_required"
	NotifyGuaranteePaid       = "guarantee_paid"
	NotifyGuaranteeReturned   = "guarantee_returned"
	NotifyGuaranteeForfeited  = "guarantee_forfeited"
	NotifyFundingStarted      = "funding_started"
	NotifyFundingComplete     = "funding_complete"
	NotifyFundingFailed       = "funding_failed"
	NotifyInvestmentConfirmed = "investment_confirmed"
	NotifyWinningsFeePaid     = "winnings_fee_paid"
	NotifyResultsSubmitted    = "tournament_results_submitted"
	NotifyTournamentCancelled = "tournament_cancelled"
)

// Notification is a delivered-later side effect of a committed transition.
// Writing one must never be able to roll the transition back.
type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;index"`
	Type      string    `json:"type" gorm:"not null"`
	Content   string    `json:"content" gorm:"type:text"` // JSON payload
	Read      bool      `json:"read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
