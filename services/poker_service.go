package services

import (
	"strings"

	"tournament-funding-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/paulhankin/poker"
)

// PokerService is the hand-evaluation helper used by result verification
// tooling. It has no persistence; hands come and go per request.
type PokerService struct{}

func NewPokerService() *PokerService {
	return &PokerService{}
}

var suitByChar = map[byte]poker.Suit{
	'C': poker.Club,
	'D': poker.Diamond,
	'H': poker.Heart,
	'S': poker.Spade,
}

var rankByChar = map[byte]poker.Rank{
	'A': 1, '2': 2, '3': 3, '4': 4, '5': 5, '6': 6, '7': 7,
	'8': 8, '9': 9, 'T': 10, 'J': 11, 'Q': 12, 'K': 13,
}

// parseCard reads a two-character card like "AS" or "TD".
func parseCard(s string) (poker.Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return 0, models.NewAppError(models.KindValidation, "invalid card %q (want e.g. \"AS\", \"TD\")", s)
	}
	rank, ok := rankByChar[s[0]]
	if !ok {
		return 0, models.NewAppError(models.KindValidation, "invalid card rank in %q", s)
	}
	suit, ok := suitByChar[s[1]]
	if !ok {
		return 0, models.NewAppError(models.KindValidation, "invalid card suit in %q", s)
	}
	card, err := poker.MakeCard(suit, rank)
	if err != nil {
		return 0, models.NewAppError(models.KindValidation, "invalid card %q", s)
	}
	return card, nil
}

// EvaluateHand scores a 7-card hand (two hole cards plus a 5-card board).
// Higher scores beat lower ones.
func (s *PokerService) EvaluateHand(cards []string) (int16, error) {
	if len(cards) != 7 {
		return 0, models.NewAppError(models.KindValidation, "exactly 7 cards required, got %d", len(cards))
	}
	var hand [7]poker.Card
	seen := map[poker.Card]bool{}
	for i, c := range cards {
		card, err := parseCard(c)
		if err != nil {
			return 0, err
		}
		if seen[card] {
			return 0, models.NewAppError(models.KindValidation, "duplicate card %q", c)
		}
		seen[card] = true
		hand[i] = card
	}
	return poker.Eval7(&hand), nil
}

// CompareHands scores several 7-card hands and returns the winning indexes
// (more than one on a true tie).
func (s *PokerService) CompareHands(hands [][]string) ([]int, []int16, error) {
	if len(hands) < 2 {
		return nil, nil, models.NewAppError(models.KindValidation, "at least two hands required")
	}
	scores := make([]int16, len(hands))
	for i, h := range hands {
		score, err := s.EvaluateHand(h)
		if err != nil {
			return nil, nil, err
		}
		scores[i] = score
	}
	best := scores[0]
	for _, sc := range scores[1:] {
		if sc > best {
			best = sc
		}
	}
	var winners []int
	for i, sc := range scores {
		if sc == best {
			winners = append(winners, i)
		}
	}
	return winners, scores, nil
}

// --- Fiber handlers ---

func (s *PokerService) EvaluateHandHandler(c *fiber.Ctx) error {
	type Req struct {
		Cards []string `json:"cards"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	score, err := s.EvaluateHand(req.Cards)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"score": score})
}

func (s *PokerService) CompareHandsHandler(c *fiber.Ctx) error {
	type Req struct {
		Hands [][]string `json:"hands"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	winners, scores, err := s.CompareHands(req.Hands)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"winners": winners, "scores": scores})
}
