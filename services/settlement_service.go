package services

import (
	"log"
	"path/filepath"

	"tournament-funding-system/models"
	"tournament-funding-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SettlementService computes the platform's cut of reported winnings and the
// investors' net proceeds, and drives the terminal lifecycle transition.
type SettlementService struct {
	DB       *gorm.DB
	Notifier *NotificationService
	Players  *PlayerService
}

func NewSettlementService(db *gorm.DB, notifier *NotificationService, players *PlayerService) *SettlementService {
	return &SettlementService{DB: db, Notifier: notifier, Players: players}
}

// ReportResultsParams is a single result report for one tournament.
type ReportResultsParams struct {
	Won           bool
	TotalWinnings *float64
	ProofURL      string
	Notes         string
}

// ReportResults accepts exactly one outcome per tournament. A win fixes the
// winnings fee and net-proceeds fields together with the completed_won
// transition; a loss only moves to completed_lost.
func (s *SettlementService) ReportResults(tournamentID string, p ReportResultsParams) (*models.Tournament, error) {
	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewAppError(models.KindNotFound, "tournament %s not found", tournamentID)
		}
		return nil, err
	}
	if t.Status == models.StatusCompletedWon || t.Status == models.StatusCompletedLost {
		return nil, models.NewAppError(models.KindAlreadySettled,
			"results already reported for this tournament (status: %s)", t.Status)
	}
	if t.Status != models.StatusAwaitingResults {
		return nil, models.NewAppError(models.KindInvalidTransition,
			"tournament is not awaiting results (current status: %s)", t.Status)
	}

	toStatus := models.StatusCompletedLost
	extra := map[string]interface{}{}
	if p.Won {
		if p.TotalWinnings == nil || *p.TotalWinnings < 0 {
			return nil, models.NewAppError(models.KindValidation,
				"total_winnings must be provided and non-negative for a won tournament")
		}
		toStatus = models.StatusCompletedWon
		feeAmount := *p.TotalWinnings * t.WinningsPlatformFeePct
		netWinnings := *p.TotalWinnings - feeAmount
		extra["total_winnings_from_tournament"] = *p.TotalWinnings
		extra["platform_winnings_fee_amount"] = feeAmount
		extra["net_winnings_for_investors"] = netWinnings
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := transitionStatus(tx, tournamentID, models.StatusAwaitingResults, toStatus, extra); err != nil {
			return err
		}
		result := models.TournamentResult{
			ID:            uuid.NewString(),
			TournamentID:  tournamentID,
			Won:           p.Won,
			TotalWinnings: p.TotalWinnings,
			ProofURL:      p.ProofURL,
			Notes:         p.Notes,
		}
		return tx.Create(&result).Error
	})
	if err != nil {
		// A concurrent report can win the status race between the pre-check
		// and the transition; surface that as already-settled, not as a
		// generic bad transition.
		if models.ErrKind(err) == models.KindInvalidTransition {
			var cur models.Tournament
			if readErr := s.DB.First(&cur, "id = ?", tournamentID).Error; readErr == nil &&
				(cur.Status == models.StatusCompletedWon || cur.Status == models.StatusCompletedLost) {
				return nil, models.NewAppError(models.KindAlreadySettled,
					"results already reported for this tournament (status: %s)", cur.Status)
			}
		}
		return nil, err
	}

	if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
		return nil, err
	}

	s.notifyInvestors(&t, p.Won, p.TotalWinnings)
	if s.Players != nil {
		if _, err := s.Players.UpdateStats(t.CreatorUserID, p.Won); err != nil {
			log.Printf("[Settlement] Failed to update player stats for %s: %v", t.CreatorUserID, err)
		}
	}
	return &t, nil
}

// Distribution derives each active investor's share of the net winnings.
// Computed on demand from the frozen pool percentages; never persisted.
func (s *SettlementService) Distribution(tournamentID string) ([]models.InvestorDistribution, error) {
	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", tournamentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewAppError(models.KindNotFound, "tournament %s not found", tournamentID)
		}
		return nil, err
	}
	if t.Status != models.StatusCompletedWon || t.NetWinningsForInvestors == nil {
		return nil, models.NewAppError(models.KindInvalidTransition,
			"tournament has no winnings to distribute (current status: %s)", t.Status)
	}

	var investments []models.Investment
	if err := s.DB.Where("tournament_id = ? AND status = ?", tournamentID, models.InvestmentActive).
		Order("created_at ASC").
		Find(&investments).Error; err != nil {
		return nil, err
	}

	net := *t.NetWinningsForInvestors
	distributions := make([]models.InvestorDistribution, 0, len(investments))
	for _, inv := range investments {
		distributions = append(distributions, models.InvestorDistribution{
			InvestorID:       inv.InvestorID,
			InvestedAmount:   inv.Amount,
			PercentageOfPool: inv.PercentageOfPool,
			Distribution:     net * inv.PercentageOfPool,
		})
	}
	return distributions, nil
}

func (s *SettlementService) notifyInvestors(t *models.Tournament, won bool, totalWinnings *float64) {
	var investments []models.Investment
	if err := s.DB.Where("tournament_id = ?", t.ID).Find(&investments).Error; err != nil {
		log.Printf("[Settlement] Failed to load investors for notifications: %v", err)
		return
	}
	for _, inv := range investments {
		content := fiber.Map{
			"tournament_id":   t.ID,
			"tournament_name": t.Name,
			"won":             won,
		}
		if won && totalWinnings != nil {
			content["total_winnings"] = *totalWinnings
		}
		s.Notifier.Notify(inv.InvestorID, models.NotifyResultsSubmitted, content)
	}
}

// --- Fiber handlers ---

// ReportTournamentResults accepts a multipart or JSON report; an attached
// proof file is uploaded to object storage first.
func (s *SettlementService) ReportTournamentResults(c *fiber.Ctx) error {
	type Req struct {
		Won           bool     `json:"won" form:"won"`
		TotalWinnings *float64 `json:"total_winnings" form:"total_winnings"`
		ProofURL      string   `json:"proof_url" form:"proof_url"`
		Notes         string   `json:"notes" form:"notes"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	proofURL := req.ProofURL
	if file, err := c.FormFile("proof"); err == nil && file.Size > 0 {
		ext := filepath.Ext(file.Filename)
		key := "tournaments/proofs/" + c.Params("id") + "/" + uuid.NewString() + ext
		url, upErr := utils.UploadFileToR2(file, key)
		if upErr != nil {
			log.Printf("ERROR uploading result proof: %v", upErr)
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload proof"})
		}
		proofURL = url
	}

	t, err := s.ReportResults(c.Params("id"), ReportResultsParams{
		Won:           req.Won,
		TotalWinnings: req.TotalWinnings,
		ProofURL:      proofURL,
		Notes:         req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (s *SettlementService) GetDistribution(c *fiber.Ctx) error {
	distributions, err := s.Distribution(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(distributions)
}
