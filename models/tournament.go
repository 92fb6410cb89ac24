package models

import (
	"time"
)

// Tournament lifecycle statuses. Transitions are linear up to funding, then
// branch on the funding outcome and on the reported result.
const (
	StatusPendingInitialPayment = "pending_initial_payment"
	StatusPendingGuarantee      = "pending_guarantee"
	StatusFundingOpen           = "funding_open"
	StatusFundingComplete       = "funding_complete"
	StatusFundingFailed         = "funding_failed"
	StatusFundsTransferred      = "funds_transferred_to_player"
	StatusInProgress            = "in_progress"
	StatusAwaitingResults       = "awaiting_results"
	StatusCompletedWon          = "completed_won"
	StatusCompletedLost         = "completed_lost"
	StatusCancelled             = "cancelled"
)

// Tournament is the aggregate root. Fee and guarantee terms are snapshotted
// from the creator's ranking at creation time and never recomputed, even if
// the player is re-ranked later.
type Tournament struct {
	ID            string `json:"id" gorm:"primaryKey"`
	CreatorUserID string `json:"creator_user_id" gorm:"not null;index"`
	Name          string `json:"name" gorm:"not null"`
	Slug          string `json:"slug" gorm:"index"`
	Description   string `json:"description"`
	GameType      string `json:"game_type" gorm:"default:'Poker'"`

	// Funding terms
	TargetPoolAmount  float64    `json:"target_pool_amount" gorm:"not null"`
	CurrentPoolAmount float64    `json:"current_pool_amount" gorm:"default:0"`
	TournamentBuyIn   float64    `json:"tournament_buy_in,omitempty"`
	FundingStartTime  *time.Time `json:"funding_start_time,omitempty"`
	FundingEndTime    *time.Time `json:"funding_end_time,omitempty"`

	// Fee/guarantee terms — immutable after creation
	PlayerRankingAtCreation       string  `json:"player_ranking_at_creation" gorm:"not null"`
	InitialPlatformFeePct         float64 `json:"initial_platform_fee_pct"`
	InitialPlatformFeeAmount      float64 `json:"initial_platform_fee_amount"`
	InitialPlatformFeePaid        bool    `json:"initial_platform_fee_paid" gorm:"default:false"`
	PlayerGuaranteePct            float64 `json:"player_guarantee_pct"`
	PlayerGuaranteeAmountRequired float64 `json:"player_guarantee_amount_required"`
	PlayerGuaranteePaid           bool    `json:"player_guarantee_paid" gorm:"default:false"`
	WinningsPlatformFeePct        float64 `json:"winnings_platform_fee_pct"`

	// Payment attestations from the settlement layer
	InitialFeeTransactionHash string `json:"initial_fee_transaction_hash,omitempty"`
	GuaranteeTransactionHash  string `json:"guarantee_transaction_hash,omitempty"`

	// Settlement fields — populated only on completed_won
	TotalWinningsFromTournament *float64 `json:"total_winnings_from_tournament,omitempty"`
	PlatformWinningsFeeAmount   *float64 `json:"platform_winnings_fee_amount,omitempty"`
	NetWinningsForInvestors     *float64 `json:"net_winnings_for_investors,omitempty"`

	ExternalTournamentURL string `json:"external_tournament_url,omitempty"`

	Status    string    `json:"status" gorm:"not null;index;default:'pending_initial_payment'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Investments []Investment `json:"investments,omitempty" gorm:"foreignKey:TournamentID"`
	Guarantee   *Guarantee   `json:"guarantee,omitempty" gorm:"foreignKey:TournamentID"`
}

// IsTerminal reports whether no further lifecycle transition is allowed.
func (t *Tournament) IsTerminal() bool {
	switch t.Status {
	case StatusCompletedWon, StatusCompletedLost, StatusCancelled:
		return true
	}
	return false
}

// RemainingCapacity is how much funding the pool still accepts.
func (t *Tournament) RemainingCapacity() float64 {
	return t.TargetPoolAmount - t.CurrentPoolAmount
}

// FundingDeadlinePassed reports whether the funding window closed before now.
// Tournaments without a deadline never expire.
func (t *Tournament) FundingDeadlinePassed(now time.Time) bool {
	return t.FundingEndTime != nil && now.After(*t.FundingEndTime)
}

// TournamentResult is the append-only record of a reported outcome.
// At most one row exists per tournament.
type TournamentResult struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	TournamentID  string    `json:"tournament_id" gorm:"not null;uniqueIndex"`
	Won           bool      `json:"won"`
	TotalWinnings *float64  `json:"total_winnings,omitempty"`
	ProofURL      string    `json:"proof_url,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
