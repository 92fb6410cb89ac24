package models

import "time"

// Ranking tiers, ordered lowest to highest. BRONZE requires no history.
const (
	RankingBronze   = "BRONZE"
	RankingSilver   = "SILVER"
	RankingGold     = "GOLD"
	RankingPlatinum = "PLATINUM"
)

// RankingTier holds the fee/guarantee percentages and the promotion
// thresholds for one tier.
type RankingTier struct {
	MinTournaments int
	MinWinRate     float64
	GuaranteePct   float64
	InitialFeePct  float64
	WinningsFeePct float64
}

// RankingConfig maps tier name to its terms. Injected into FeeService so
// tests can substitute alternate tables; not a process-wide mutable global.
type RankingConfig map[string]RankingTier

// DefaultRankingConfig returns the platform's standard tier table.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		RankingPlatinum: {MinTournaments: 50, MinWinRate: 0.65, GuaranteePct: 0.20, InitialFeePct: 0.05, WinningsFeePct: 0.15},
		RankingGold:     {MinTournaments: 30, MinWinRate: 0.55, GuaranteePct: 0.25, InitialFeePct: 0.07, WinningsFeePct: 0.17},
		RankingSilver:   {MinTournaments: 15, MinWinRate: 0.45, GuaranteePct: 0.30, InitialFeePct: 0.08, WinningsFeePct: 0.18},
		RankingBronze:   {MinTournaments: 0, MinWinRate: 0, GuaranteePct: 0.40, InitialFeePct: 0.10, WinningsFeePct: 0.20},
	}
}

// Player is the creator-side profile tracked for ranking promotion.
// Ranking changes here never touch fee terms on existing tournaments.
type Player struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	UserID            string    `json:"user_id" gorm:"not null;uniqueIndex"`
	Name              string    `json:"name" gorm:"not null"`
	AvatarURL         string    `json:"avatar_url,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	Ranking           string    `json:"ranking" gorm:"default:'BRONZE'"`
	TournamentsPlayed int       `json:"tournaments_played" gorm:"default:0"`
	TournamentsWon    int       `json:"tournaments_won" gorm:"default:0"`
	WinRate           float64   `json:"win_rate" gorm:"default:0"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
