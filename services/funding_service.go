package services

import (
	"errors"
	"log"
	"time"

	"tournament-funding-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FundingService owns the investment-acceptance protocol. All pool mutations
// happen inside one transaction that locks the tournament row and commits the
// new total with a conditional update, so concurrent investors can never push
// the pool past its target and funding_complete fires exactly once.
type FundingService struct {
	DB       *gorm.DB
	Notifier *NotificationService
}

func NewFundingService(db *gorm.DB, notifier *NotificationService) *FundingService {
	return &FundingService{DB: db, Notifier: notifier}
}

// acceptRetries bounds the retry loop on pool-value conflicts.
const acceptRetries = 3

// errFundingDeadline aborts the investment transaction without committing
// anything; the caller then fails the funding window in its own commit.
var errFundingDeadline = errors.New("funding deadline elapsed")

// AcceptInvestment records an investment against a funding_open tournament.
// The deadline is checked on every call, so the first attempt after expiry
// fails the tournament instead of sneaking into a closed window.
func (s *FundingService) AcceptInvestment(tournamentID, investorID string, amount float64) (*models.Tournament, error) {
	if investorID == "" {
		return nil, models.NewAppError(models.KindValidation, "investor_id is required")
	}
	if amount <= 0 {
		return nil, models.NewAppError(models.KindValidation,
			"amount must be positive, got %s", formatAmount(amount))
	}

	var lastErr error
	for attempt := 0; attempt < acceptRetries; attempt++ {
		t, completed, err := s.tryAcceptInvestment(tournamentID, investorID, amount)
		if err == nil {
			s.Notifier.Notify(investorID, models.NotifyInvestmentConfirmed, fiber.Map{
				"tournament_id":      t.ID,
				"tournament_name":    t.Name,
				"amount":             amount,
				"percentage_of_pool": amount / t.TargetPoolAmount,
			})
			if completed {
				s.Notifier.Notify(t.CreatorUserID, models.NotifyFundingComplete, fiber.Map{
					"tournament_id":   t.ID,
					"tournament_name": t.Name,
					"pool_amount":     t.CurrentPoolAmount,
				})
			}
			return t, nil
		}
		if !models.IsConflict(err) {
			return nil, err
		}
		lastErr = err
		time.Sleep(time.Duration(attempt+1) * 25 * time.Millisecond)
	}
	return nil, lastErr
}

// tryAcceptInvestment is one attempt: lock the row, re-check every guard
// under the lock, then commit pool bump + investment row + possible
// completion as a single unit. The pool update is keyed on the observed pool
// value, so a lost race surfaces as a conflict instead of an overwrite.
func (s *FundingService) tryAcceptInvestment(tournamentID, investorID string, amount float64) (*models.Tournament, bool, error) {
	var out models.Tournament
	completed := false

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&t, "id = ?", tournamentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NewAppError(models.KindNotFound, "tournament %s not found", tournamentID)
			}
			return err
		}

		if t.Status != models.StatusFundingOpen {
			if t.Status == models.StatusFundingFailed {
				return models.NewAppError(models.KindFundingClosed, "funding window has closed")
			}
			return models.NewAppError(models.KindNotFundable,
				"tournament is not open for funding (current status: %s)", t.Status)
		}
		if t.FundingDeadlinePassed(time.Now()) {
			return errFundingDeadline
		}
		if remaining := t.RemainingCapacity(); amount > remaining {
			return models.NewAppError(models.KindExceedsCapacity,
				"investment of %s exceeds remaining capacity %s", formatAmount(amount), formatAmount(remaining))
		}

		newPool := t.CurrentPoolAmount + amount
		updates := map[string]interface{}{"current_pool_amount": newPool}
		if newPool >= t.TargetPoolAmount {
			updates["status"] = models.StatusFundingComplete
			completed = true
		}
		res := tx.Model(&models.Tournament{}).
			Where("id = ? AND status = ? AND current_pool_amount = ?",
				t.ID, models.StatusFundingOpen, t.CurrentPoolAmount).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewAppError(models.KindConflict, "pool total changed concurrently, retry with fresh state")
		}

		inv := models.Investment{
			ID:               uuid.NewString(),
			TournamentID:     t.ID,
			InvestorID:       investorID,
			Amount:           amount,
			PercentageOfPool: amount / t.TargetPoolAmount,
			Status:           models.InvestmentActive,
		}
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}

		out = t
		out.CurrentPoolAmount = newPool
		if completed {
			out.Status = models.StatusFundingComplete
		}
		return nil
	})

	if errors.Is(err, errFundingDeadline) {
		return nil, false, s.failFunding(tournamentID)
	}
	if err != nil {
		return nil, false, err
	}
	return &out, completed, nil
}

// failFunding applies the deadline-driven funding_open → funding_failed
// transition and reports the closed window to the caller.
func (s *FundingService) failFunding(tournamentID string) error {
	flipped, err := failExpiredFunding(s.DB, tournamentID, time.Now())
	if err != nil {
		return err
	}
	if flipped {
		var t models.Tournament
		if err := s.DB.First(&t, "id = ?", tournamentID).Error; err == nil {
			log.Printf("[Funding] Tournament %s failed funding at deadline (pool %s of %s)",
				t.ID, formatAmount(t.CurrentPoolAmount), formatAmount(t.TargetPoolAmount))
			s.Notifier.Notify(t.CreatorUserID, models.NotifyFundingFailed, fiber.Map{
				"tournament_id":   t.ID,
				"tournament_name": t.Name,
				"pool_amount":     t.CurrentPoolAmount,
			})
		}
	}
	return models.NewAppError(models.KindFundingClosed, "funding window has closed")
}

// ListInvestments returns a tournament's investments, newest first.
func (s *FundingService) ListInvestments(tournamentID string) ([]models.Investment, error) {
	var investments []models.Investment
	err := s.DB.Where("tournament_id = ?", tournamentID).
		Order("created_at DESC").
		Find(&investments).Error
	return investments, err
}

// --- Fiber handlers ---

func (s *FundingService) InvestInTournament(c *fiber.Ctx) error {
	type Req struct {
		Amount float64 `json:"amount"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	investorID := userIDFromCtx(c)
	if investorID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "investor identity missing"})
	}
	t, err := s.AcceptInvestment(c.Params("id"), investorID, req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(t)
}

func (s *FundingService) GetTournamentInvestments(c *fiber.Ctx) error {
	investments, err := s.ListInvestments(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch investments"})
	}
	return c.JSON(investments)
}
