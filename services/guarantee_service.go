package services

import (
	"time"

	"tournament-funding-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GuaranteeService tracks the creator's collateral independent of, but gated
// by, the tournament lifecycle.
type GuaranteeService struct {
	DB       *gorm.DB
	Notifier *NotificationService
}

func NewGuaranteeService(db *gorm.DB, notifier *NotificationService) *GuaranteeService {
	return &GuaranteeService{DB: db, Notifier: notifier}
}

// PayGuarantee records the posted guarantee and advances
// pending_guarantee → funding_open, setting the funding window start.
func (s *GuaranteeService) PayGuarantee(tournamentID, transactionHash string) (*models.Tournament, error) {
	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewAppError(models.KindNotFound, "tournament %s not found", tournamentID)
		}
		return nil, err
	}
	if t.Status != models.StatusPendingGuarantee {
		return nil, models.NewAppError(models.KindInvalidTransition,
			"tournament is not pending guarantee (current status: %s)", t.Status)
	}
	if t.PlayerGuaranteePaid {
		return nil, models.NewAppError(models.KindInvalidTransition, "guarantee has already been paid")
	}

	now := time.Now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"player_guarantee_paid": true,
			"status":                models.StatusFundingOpen,
			"funding_start_time":    now,
		}
		if transactionHash != "" {
			updates["guarantee_transaction_hash"] = transactionHash
		}
		res := tx.Model(&models.Tournament{}).
			Where("id = ? AND status = ? AND player_guarantee_paid = ?",
				tournamentID, models.StatusPendingGuarantee, false).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewAppError(models.KindConflict, "tournament state changed, retry with fresh state")
		}
		g := models.Guarantee{
			ID:              uuid.NewString(),
			TournamentID:    tournamentID,
			PlayerID:        t.CreatorUserID,
			Amount:          t.PlayerGuaranteeAmountRequired,
			Percentage:      t.PlayerGuaranteePct,
			Status:          models.GuaranteeActive,
			TransactionHash: transactionHash,
		}
		return tx.Create(&g).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
		return nil, err
	}
	s.Notifier.Notify(t.CreatorUserID, models.NotifyGuaranteePaid, fiber.Map{
		"tournament_id":        t.ID,
		"tournament_name":      t.Name,
		"guarantee_amount":     t.PlayerGuaranteeAmountRequired,
		"guarantee_percentage": t.PlayerGuaranteePct,
	})
	s.Notifier.Notify(t.CreatorUserID, models.NotifyFundingStarted, fiber.Map{
		"tournament_id":      t.ID,
		"tournament_name":    t.Name,
		"target_pool_amount": t.TargetPoolAmount,
	})
	return &t, nil
}

// ReturnGuarantee releases an active guarantee back to the player.
func (s *GuaranteeService) ReturnGuarantee(tournamentID string) (*models.Guarantee, error) {
	return s.closeGuarantee(tournamentID, models.GuaranteeReturned, "")
}

// ForfeitGuarantee seizes an active guarantee, recording why. Irreversible.
func (s *GuaranteeService) ForfeitGuarantee(tournamentID, reason string) (*models.Guarantee, error) {
	if reason == "" {
		return nil, models.NewAppError(models.KindValidation, "forfeit reason is required")
	}
	return s.closeGuarantee(tournamentID, models.GuaranteeForfeited, reason)
}

// closeGuarantee is the single active → {returned, forfeited} transition:
// the conditional update fires only while the guarantee is still active.
func (s *GuaranteeService) closeGuarantee(tournamentID, toStatus, reason string) (*models.Guarantee, error) {
	var g models.Guarantee
	if err := s.DB.First(&g, "tournament_id = ?", tournamentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewAppError(models.KindNotFound, "no guarantee for tournament %s", tournamentID)
		}
		return nil, err
	}

	updates := map[string]interface{}{"status": toStatus}
	if reason != "" {
		updates["forfeit_reason"] = reason
	}
	res := s.DB.Model(&models.Guarantee{}).
		Where("id = ? AND status = ?", g.ID, models.GuaranteeActive).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, models.NewAppError(models.KindGuaranteeNotActive,
			"guarantee is not active (current status: %s)", g.Status)
	}

	if err := s.DB.First(&g, "id = ?", g.ID).Error; err != nil {
		return nil, err
	}

	notifyType := models.NotifyGuaranteeReturned
	content := fiber.Map{
		"tournament_id":        tournamentID,
		"guarantee_amount":     g.Amount,
		"guarantee_percentage": g.Percentage,
	}
	if toStatus == models.GuaranteeForfeited {
		notifyType = models.NotifyGuaranteeForfeited
		content["reason"] = reason
	}
	s.Notifier.Notify(g.PlayerID, notifyType, content)
	return &g, nil
}

// GetTournamentGuarantee returns the guarantee posted for a tournament.
func (s *GuaranteeService) GetTournamentGuarantee(tournamentID string) (*models.Guarantee, error) {
	var g models.Guarantee
	if err := s.DB.First(&g, "tournament_id = ?", tournamentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewAppError(models.KindNotFound, "no guarantee for tournament %s", tournamentID)
		}
		return nil, err
	}
	return &g, nil
}

// ListPlayerGuarantees returns a player's guarantees, optionally by status.
func (s *GuaranteeService) ListPlayerGuarantees(playerID, status string) ([]models.Guarantee, error) {
	query := s.DB.Where("player_id = ?", playerID).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var guarantees []models.Guarantee
	if err := query.Find(&guarantees).Error; err != nil {
		return nil, err
	}
	return guarantees, nil
}

// --- Fiber handlers ---

func (s *GuaranteeService) PayGuaranteeHandler(c *fiber.Ctx) error {
	type Req struct {
		TransactionHash string `json:"transaction_hash,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	t, err := s.PayGuarantee(c.Params("id"), req.TransactionHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (s *GuaranteeService) ReturnGuaranteeHandler(c *fiber.Ctx) error {
	g, err := s.ReturnGuarantee(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(g)
}

func (s *GuaranteeService) ForfeitGuaranteeHandler(c *fiber.Ctx) error {
	type Req struct {
		Reason string `json:"reason"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	g, err := s.ForfeitGuarantee(c.Params("id"), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(g)
}

func (s *GuaranteeService) GetTournamentGuaranteeHandler(c *fiber.Ctx) error {
	g, err := s.GetTournamentGuarantee(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(g)
}

func (s *GuaranteeService) ListPlayerGuaranteesHandler(c *fiber.Ctx) error {
	guarantees, err := s.ListPlayerGuarantees(c.Params("player_id"), c.Query("status"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch guarantees"})
	}
	return c.JSON(guarantees)
}
