package services

import (
	"sort"
	"strconv"

	"tournament-funding-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeeTerms is the output of the fee calculator: everything derived from a
// ranking tier and a target pool amount.
type FeeTerms struct {
	InitialFeePct    float64 `json:"initial_fee_pct"`
	InitialFeeAmount float64 `json:"initial_fee_amount"`
	GuaranteePct     float64 `json:"guarantee_pct"`
	GuaranteeAmount  float64 `json:"guarantee_amount"`
	WinningsFeePct   float64 `json:"winnings_fee_pct"`
}

type FeeService struct {
	DB       *gorm.DB
	Ranking  models.RankingConfig
	Notifier *NotificationService
}

func NewFeeService(db *gorm.DB, ranking models.RankingConfig, notifier *NotificationService) *FeeService {
	return &FeeService{DB: db, Ranking: ranking, Notifier: notifier}
}

// CalculateFees derives fee and guarantee terms for a tier. Pure — no I/O,
// so terms can be previewed before any tournament exists.
func (s *FeeService) CalculateFees(ranking string, targetPoolAmount float64) (*FeeTerms, error) {
	if targetPoolAmount <= 0 {
		return nil, models.NewAppError(models.KindValidation, "target_pool_amount must be positive, got %s", formatAmount(targetPoolAmount))
	}
	tier, ok := s.Ranking[ranking]
	if !ok {
		return nil, models.NewAppError(models.KindInvalidRankingTier, "unknown ranking tier %q", ranking)
	}
	return &FeeTerms{
		InitialFeePct:    tier.InitialFeePct,
		InitialFeeAmount: targetPoolAmount * tier.InitialFeePct,
		GuaranteePct:     tier.GuaranteePct,
		GuaranteeAmount:  targetPoolAmount * tier.GuaranteePct,
		WinningsFeePct:   tier.WinningsFeePct,
	}, nil
}

// PayInitialFee flips initial_platform_fee_paid and advances
// pending_initial_payment → pending_guarantee in one guarded commit, while
// appending the paid fee ledger row.
func (s *FeeService) PayInitialFee(tournamentID, transactionHash string) (*models.Tournament, error) {
	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewAppError(models.KindNotFound, "tournament %s not found", tournamentID)
		}
		return nil, err
	}
	if t.Status != models.StatusPendingInitialPayment {
		return nil, models.NewAppError(models.KindInvalidTransition,
			"tournament is not pending initial payment (current status: %s)", t.Status)
	}
	if t.InitialPlatformFeePaid {
		return nil, models.NewAppError(models.KindInvalidTransition, "initial fee has already been paid")
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"initial_platform_fee_paid": true,
			"status":                    models.StatusPendingGuarantee,
		}
		if transactionHash != "" {
			updates["initial_fee_transaction_hash"] = transactionHash
		}
		res := tx.Model(&models.Tournament{}).
			Where("id = ? AND status = ? AND initial_platform_fee_paid = ?",
				tournamentID, models.StatusPendingInitialPayment, false).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewAppError(models.KindConflict, "tournament state changed, retry with fresh state")
		}
		fee := models.PlatformFee{
			ID:              uuid.NewString(),
			TournamentID:    tournamentID,
			FeeType:         models.FeeTypeInitial,
			Amount:          t.InitialPlatformFeeAmount,
			Percentage:      t.InitialPlatformFeePct,
			Status:          models.FeePaid,
			TransactionHash: transactionHash,
		}
		return tx.Create(&fee).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
		return nil, err
	}

	// Side effects only after the commit.
	s.Notifier.Notify(t.CreatorUserID, models.NotifyInitialFeePaid, fiber.Map{
		"tournament_id":   t.ID,
		"tournament_name": t.Name,
		"fee_amount":      t.InitialPlatformFeeAmount,
		"fee_percentage":  t.InitialPlatformFeePct,
	})
	s.Notifier.Notify(t.CreatorUserID, models.NotifyGuaranteeRequired, fiber.Map{
		"tournament_id":        t.ID,
		"tournament_name":      t.Name,
		"guarantee_amount":     t.PlayerGuaranteeAmountRequired,
		"guarantee_percentage": t.PlayerGuaranteePct,
	})
	return &t, nil
}

// PayWinningsFee records the winnings-fee ledger row for a won tournament.
// The tournament status does not change; settlement already fixed the amount.
func (s *FeeService) PayWinningsFee(tournamentID string, amount float64, transactionHash string) (*models.PlatformFee, error) {
	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewAppError(models.KindNotFound, "tournament %s not found", tournamentID)
		}
		return nil, err
	}
	if t.Status != models.StatusCompletedWon {
		return nil, models.NewAppError(models.KindInvalidTransition,
			"tournament is not completed with win (current status: %s)", t.Status)
	}
	if t.PlatformWinningsFeeAmount != nil {
		expected := *t.PlatformWinningsFeeAmount
		if diff := amount - expected; diff > 0.001 || diff < -0.001 {
			return nil, models.NewAppError(models.KindValidation,
				"incorrect fee amount: expected %s, got %s", formatAmount(expected), formatAmount(amount))
		}
	}

	fee := models.PlatformFee{
		ID:              uuid.NewString(),
		TournamentID:    tournamentID,
		FeeType:         models.FeeTypeWinnings,
		Amount:          amount,
		Percentage:      t.WinningsPlatformFeePct,
		Status:          models.FeePaid,
		TransactionHash: transactionHash,
	}
	if err := s.DB.Create(&fee).Error; err != nil {
		return nil, err
	}

	s.Notifier.Notify(t.CreatorUserID, models.NotifyWinningsFeePaid, fiber.Map{
		"tournament_id":   t.ID,
		"tournament_name": t.Name,
		"fee_amount":      amount,
		"fee_percentage":  t.WinningsPlatformFeePct,
	})
	return &fee, nil
}

// ListFees returns platform fee ledger rows, optionally filtered.
func (s *FeeService) ListFees(tournamentID, feeType string) ([]models.PlatformFee, error) {
	query := s.DB.Order("created_at DESC")
	if tournamentID != "" {
		query = query.Where("tournament_id = ?", tournamentID)
	}
	if feeType != "" {
		query = query.Where("fee_type = ?", feeType)
	}
	var fees []models.PlatformFee
	if err := query.Find(&fees).Error; err != nil {
		return nil, err
	}
	return fees, nil
}

// FeeStats aggregates paid fees by type and by month.
func (s *FeeService) FeeStats() (*models.FeeStatistics, error) {
	var fees []models.PlatformFee
	if err := s.DB.Where("status = ?", models.FeePaid).Find(&fees).Error; err != nil {
		return nil, err
	}

	stats := &models.FeeStatistics{}
	byMonth := map[string]float64{}
	for _, fee := range fees {
		switch fee.FeeType {
		case models.FeeTypeInitial:
			stats.TotalInitialFees += fee.Amount
		case models.FeeTypeWinnings:
			stats.TotalWinningsFees += fee.Amount
		}
		byMonth[fee.CreatedAt.Format("2006-01")] += fee.Amount
	}
	stats.TotalFees = stats.TotalInitialFees + stats.TotalWinningsFees

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		stats.FeesByMonth = append(stats.FeesByMonth, models.FeesByMonth{Month: m, Amount: byMonth[m]})
	}
	return stats, nil
}

// --- Fiber handlers ---

// PreviewFees computes fee terms without touching the database, so creators
// can see the cost of a tournament before committing to one.
func (s *FeeService) PreviewFees(c *fiber.Ctx) error {
	ranking := c.Query("ranking", models.RankingBronze)
	target, err := strconv.ParseFloat(c.Query("target_pool_amount"), 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "target_pool_amount must be a number"})
	}
	terms, calcErr := s.CalculateFees(ranking, target)
	if calcErr != nil {
		return respondError(c, calcErr)
	}
	return c.JSON(terms)
}

func (s *FeeService) PayInitialFeeHandler(c *fiber.Ctx) error {
	type Req struct {
		TransactionHash string `json:"transaction_hash,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	t, err := s.PayInitialFee(c.Params("id"), req.TransactionHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (s *FeeService) PayWinningsFeeHandler(c *fiber.Ctx) error {
	type Req struct {
		Amount          float64 `json:"amount"`
		TransactionHash string  `json:"transaction_hash,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	fee, err := s.PayWinningsFee(c.Params("id"), req.Amount, req.TransactionHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fee)
}

func (s *FeeService) ListFeesHandler(c *fiber.Ctx) error {
	fees, err := s.ListFees(c.Query("tournament_id"), c.Query("fee_type"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch fees"})
	}
	return c.JSON(fees)
}

func (s *FeeService) FeeStatsHandler(c *fiber.Ctx) error {
	stats, err := s.FeeStats()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute fee statistics"})
	}
	return c.JSON(stats)
}
