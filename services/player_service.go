package services

import (
	"tournament-funding-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlayerService manages creator profiles and their ranking. A promotion only
// affects tournaments created afterwards — existing fee snapshots stay put.
type PlayerService struct {
	DB      *gorm.DB
	Ranking models.RankingConfig
}

func NewPlayerService(db *gorm.DB, ranking models.RankingConfig) *PlayerService {
	return &PlayerService{DB: db, Ranking: ranking}
}

// CreateProfile registers a new player starting at BRONZE.
func (s *PlayerService) CreateProfile(userID, name, avatarURL, bio string) (*models.Player, error) {
	if userID == "" || name == "" {
		return nil, models.NewAppError(models.KindValidation, "user_id and name are required")
	}
	p := &models.Player{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		AvatarURL: avatarURL,
		Bio:       bio,
		Ranking:   models.RankingBronze,
	}
	if err := s.DB.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetByUserID returns the profile for a user.
func (s *PlayerService) GetByUserID(userID string) (*models.Player, error) {
	var p models.Player
	if err := s.DB.First(&p, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewAppError(models.KindNotFound, "player %s not found", userID)
		}
		return nil, err
	}
	return &p, nil
}

// UpdateStats bumps the played/won counters after a settled tournament and
// recomputes the ranking from the promotion thresholds.
func (s *PlayerService) UpdateStats(userID string, won bool) (*models.Player, error) {
	p, err := s.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	p.TournamentsPlayed++
	if won {
		p.TournamentsWon++
	}
	p.WinRate = float64(p.TournamentsWon) / float64(p.TournamentsPlayed)
	p.Ranking = s.CalculateRanking(p.TournamentsPlayed, p.WinRate)

	updates := map[string]interface{}{
		"tournaments_played": p.TournamentsPlayed,
		"tournaments_won":    p.TournamentsWon,
		"win_rate":           p.WinRate,
		"ranking":            p.Ranking,
	}
	if err := s.DB.Model(&models.Player{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// CalculateRanking returns the highest tier whose thresholds are met.
func (s *PlayerService) CalculateRanking(tournamentsPlayed int, winRate float64) string {
	for _, tier := range []string{models.RankingPlatinum, models.RankingGold, models.RankingSilver} {
		cfg, ok := s.Ranking[tier]
		if !ok {
			continue
		}
		if tournamentsPlayed >= cfg.MinTournaments && winRate >= cfg.MinWinRate {
			return tier
		}
	}
	return models.RankingBronze
}

// --- Fiber handlers ---

func (s *PlayerService) CreatePlayerProfile(c *fiber.Ctx) error {
	type Req struct {
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		Bio       string `json:"bio"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	p, err := s.CreateProfile(userIDFromCtx(c), req.Name, req.AvatarURL, req.Bio)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(p)
}

func (s *PlayerService) GetPlayerProfile(c *fiber.Ctx) error {
	p, err := s.GetByUserID(c.Params("user_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}
