package services

import (
	"log"
	"time"

	"tournament-funding-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TournamentService orchestrates the tournament lifecycle: creation with
// fee-term snapshotting, reads, cancellation, and the post-funding
// transitions up to awaiting_results.
type TournamentService struct {
	DB       *gorm.DB
	Fees     *FeeService
	Notifier *NotificationService
}

func NewTournamentService(db *gorm.DB, fees *FeeService, notifier *NotificationService) *TournamentService {
	return &TournamentService{DB: db, Fees: fees, Notifier: notifier}
}

// CreateTournamentParams is the input for Create; ranking is the creator's
// tier as reported by the ranking source at this moment.
type CreateTournamentParams struct {
	CreatorUserID         string     `json:"-"`
	Name                  string     `json:"name"`
	Description           string     `json:"description"`
	GameType              string     `json:"game_type"`
	TargetPoolAmount      float64    `json:"target_pool_amount"`
	TournamentBuyIn       float64    `json:"tournament_buy_in"`
	ExternalTournamentURL string     `json:"external_tournament_url"`
	FundingEndTime        *time.Time `json:"funding_end_time"`
	PlayerRanking         string     `json:"player_ranking"`
}

// Create snapshots the creator's tier terms and persists the tournament in
// pending_initial_payment. The snapshot is what makes later re-ranking safe.
func (s *TournamentService) Create(p CreateTournamentParams) (*models.Tournament, error) {
	if p.Name == "" {
		return nil, models.NewAppError(models.KindValidation, "name is required")
	}
	if p.TargetPoolAmount <= 0 {
		return nil, models.NewAppError(models.KindValidation,
			"target_pool_amount must be positive, got %s", formatAmount(p.TargetPoolAmount))
	}
	if p.FundingEndTime != nil && !p.FundingEndTime.After(time.Now()) {
		return nil, models.NewAppError(models.KindValidation, "funding_end_time must be in the future")
	}
	ranking := p.PlayerRanking
	if ranking == "" {
		ranking = models.RankingBronze
	}
	terms, err := s.Fees.CalculateFees(ranking, p.TargetPoolAmount)
	if err != nil {
		return nil, err
	}

	gameType := p.GameType
	if gameType == "" {
		gameType = "Poker"
	}

	t := &models.Tournament{
		ID:                            uuid.NewString(),
		CreatorUserID:                 p.CreatorUserID,
		Name:                          p.Name,
		Slug:                          slug.Make(p.Name),
		Description:                   p.Description,
		GameType:                      gameType,
		TargetPoolAmount:              p.TargetPoolAmount,
		CurrentPoolAmount:             0,
		TournamentBuyIn:               p.TournamentBuyIn,
		FundingEndTime:                p.FundingEndTime,
		ExternalTournamentURL:         p.ExternalTournamentURL,
		PlayerRankingAtCreation:       ranking,
		InitialPlatformFeePct:         terms.InitialFeePct,
		InitialPlatformFeeAmount:      terms.InitialFeeAmount,
		PlayerGuaranteePct:            terms.GuaranteePct,
		PlayerGuaranteeAmountRequired: terms.GuaranteeAmount,
		WinningsPlatformFeePct:        terms.WinningsFeePct,
		Status:                        models.StatusPendingInitialPayment,
	}
	if err := s.DB.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns one tournament with its investments and guarantee.
func (s *TournamentService) Get(id string) (*models.Tournament, error) {
	var t models.Tournament
	err := s.DB.Preload("Investments").Preload("Guarantee").First(&t, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewAppError(models.KindNotFound, "tournament %s not found", id)
		}
		return nil, err
	}
	return &t, nil
}

// List returns tournaments newest first, optionally filtered by status
// and/or creator.
func (s *TournamentService) List(status, creatorID string) ([]models.Tournament, error) {
	query := s.DB.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if creatorID != "" {
		query = query.Where("creator_user_id = ?", creatorID)
	}
	var tournaments []models.Tournament
	if err := query.Find(&tournaments).Error; err != nil {
		return nil, err
	}
	return tournaments, nil
}

// Cancel moves any non-terminal tournament to cancelled.
func (s *TournamentService) Cancel(id string) (*models.Tournament, error) {
	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewAppError(models.KindNotFound, "tournament %s not found", id)
		}
		return nil, err
	}
	if t.IsTerminal() {
		return nil, models.NewAppError(models.KindInvalidTransition,
			"tournament cannot be cancelled in its current state (%s)", t.Status)
	}
	if err := transitionStatus(s.DB, id, t.Status, models.StatusCancelled, nil); err != nil {
		return nil, err
	}
	if err := s.DB.First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	s.Notifier.Notify(t.CreatorUserID, models.NotifyTournamentCancelled, fiber.Map{
		"tournament_id":   t.ID,
		"tournament_name": t.Name,
	})
	return &t, nil
}

// TransferFunds acknowledges the pool handoff to the player:
// funding_complete → funds_transferred_to_player.
func (s *TournamentService) TransferFunds(id string) (*models.Tournament, error) {
	return s.advance(id, models.StatusFundingComplete, models.StatusFundsTransferred)
}

// Start marks play as begun: funds_transferred_to_player → in_progress.
func (s *TournamentService) Start(id string) (*models.Tournament, error) {
	return s.advance(id, models.StatusFundsTransferred, models.StatusInProgress)
}

// FinishPlay marks play as over, pending a result report:
// in_progress → awaiting_results.
func (s *TournamentService) FinishPlay(id string) (*models.Tournament, error) {
	return s.advance(id, models.StatusInProgress, models.StatusAwaitingResults)
}

func (s *TournamentService) advance(id, from, to string) (*models.Tournament, error) {
	if err := transitionStatus(s.DB, id, from, to, nil); err != nil {
		return nil, err
	}
	var t models.Tournament
	if err := s.DB.First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	log.Printf("[Tournament] %s advanced %s -> %s", id, from, to)
	return &t, nil
}

// --- Fiber handlers ---

func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	var p CreateTournamentParams
	if err := c.BodyParser(&p); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	p.CreatorUserID = userIDFromCtx(c)
	if p.CreatorUserID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "creator identity missing"})
	}
	t, err := s.Create(p)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(t)
}

func (s *TournamentService) GetTournamentByID(c *fiber.Ctx) error {
	t, err := s.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (s *TournamentService) GetAllTournaments(c *fiber.Ctx) error {
	tournaments, err := s.List(c.Query("status"), c.Query("creator_id"))
	if err != nil {
		log.Printf("ERROR fetching tournaments: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	return c.JSON(tournaments)
}

// GetOpenTournaments lists tournaments currently accepting investments.
func (s *TournamentService) GetOpenTournaments(c *fiber.Ctx) error {
	tournaments, err := s.List(models.StatusFundingOpen, "")
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	return c.JSON(tournaments)
}

// GetMyTournaments lists tournaments created by the calling user.
func (s *TournamentService) GetMyTournaments(c *fiber.Ctx) error {
	tournaments, err := s.List(c.Query("status"), userIDFromCtx(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	return c.JSON(tournaments)
}

func (s *TournamentService) CancelTournament(c *fiber.Ctx) error {
	t, err := s.Cancel(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (s *TournamentService) TransferFundsHandler(c *fiber.Ctx) error {
	t, err := s.TransferFunds(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (s *TournamentService) StartTournament(c *fiber.Ctx) error {
	t, err := s.Start(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (s *TournamentService) FinishTournamentPlay(c *fiber.Ctx) error {
	t, err := s.FinishPlay(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func userIDFromCtx(c *fiber.Ctx) string {
	if v, ok := c.Locals("user_id").(string); ok {
		return v
	}
	return ""
}
