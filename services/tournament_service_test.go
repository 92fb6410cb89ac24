package services

import (
	"testing"
	"time"

	"tournament-funding-system/models"

	"github.com/stretchr/testify/require"
)

func TestCreateSnapshotsFeeTerms(t *testing.T) {
	env := newTestEnv(t)

	deadline := time.Now().Add(48 * time.Hour)
	tournament, err := env.tournaments.Create(CreateTournamentParams{
		CreatorUserID:    "creator-1",
		Name:             "Sunday Million Seat",
		TargetPoolAmount: 1000,
		FundingEndTime:   &deadline,
		PlayerRanking:    models.RankingGold,
	})
	require.NoError(t, err)

	require.Equal(t, models.StatusPendingInitialPayment, tournament.Status)
	require.Equal(t, "sunday-million-seat", tournament.Slug)
	require.Equal(t, models.RankingGold, tournament.PlayerRankingAtCreation)
	require.InDelta(t, 0.07, tournament.InitialPlatformFeePct, 1e-9)
	require.InDelta(t, 70, tournament.InitialPlatformFeeAmount, 1e-9)
	require.InDelta(t, 0.25, tournament.PlayerGuaranteePct, 1e-9)
	require.InDelta(t, 250, tournament.PlayerGuaranteeAmountRequired, 1e-9)
	require.InDelta(t, 0.17, tournament.WinningsPlatformFeePct, 1e-9)
	require.Equal(t, "Poker", tournament.GameType)
}

func TestCreateDefaultsToBronze(t *testing.T) {
	env := newTestEnv(t)

	tournament, err := env.tournaments.Create(CreateTournamentParams{
		CreatorUserID:    "creator-1",
		Name:             "Local Freezeout",
		TargetPoolAmount: 500,
	})
	require.NoError(t, err)
	require.Equal(t, models.RankingBronze, tournament.PlayerRankingAtCreation)
	require.InDelta(t, 50, tournament.InitialPlatformFeeAmount, 1e-9)
	require.Nil(t, tournament.FundingEndTime)
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tournaments.Create(CreateTournamentParams{
		CreatorUserID:    "creator-1",
		TargetPoolAmount: 1000,
	})
	require.Equal(t, models.KindValidation, models.ErrKind(err))

	_, err = env.tournaments.Create(CreateTournamentParams{
		CreatorUserID:    "creator-1",
		Name:             "No Pool",
		TargetPoolAmount: 0,
	})
	require.Equal(t, models.KindValidation, models.ErrKind(err))

	past := time.Now().Add(-time.Hour)
	_, err = env.tournaments.Create(CreateTournamentParams{
		CreatorUserID:    "creator-1",
		Name:             "Deadline Already Gone",
		TargetPoolAmount: 1000,
		FundingEndTime:   &past,
	})
	require.Equal(t, models.KindValidation, models.ErrKind(err))

	_, err = env.tournaments.Create(CreateTournamentParams{
		CreatorUserID:    "creator-1",
		Name:             "Unknown Tier",
		TargetPoolAmount: 1000,
		PlayerRanking:    "DIAMOND",
	})
	require.Equal(t, models.KindInvalidRankingTier, models.ErrKind(err))
}

func TestLifecycleAdvancesInOrder(t *testing.T) {
	env := newTestEnv(t)
	tournament := env.openTournament(t, 1000)
	_, err := env.funding.AcceptInvestment(tournament.ID, "investor-a", 1000)
	require.NoError(t, err)

	// Transitions must happen in order.
	_, err = env.tournaments.Start(tournament.ID)
	require.Equal(t, models.KindInvalidTransition, models.ErrKind(err))

	after, err := env.tournaments.TransferFunds(tournament.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusFundsTransferred, after.Status)

	after, err = env.tournaments.Start(tournament.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusInProgress, after.Status)

	after, err = env.tournaments.FinishPlay(tournament.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusAwaitingResults, after.Status)

	// No transition repeats.
	_, err = env.tournaments.TransferFunds(tournament.ID)
	require.Equal(t, models.KindInvalidTransition, models.ErrKind(err))
}

func TestCancelFromNonTerminalStates(t *testing.T) {
	env := newTestEnv(t)

	tournament := env.createTournament(t, 1000)
	cancelled, err := env.tournaments.Cancel(tournament.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, cancelled.Status)

	// Cancelled is terminal.
	_, err = env.tournaments.Cancel(tournament.ID)
	require.Equal(t, models.KindInvalidTransition, models.ErrKind(err))

	open := env.openTournament(t, 1000)
	env.setStatus(t, open.ID, models.StatusCompletedWon)
	_, err = env.tournaments.Cancel(open.ID)
	require.Equal(t, models.KindInvalidTransition, models.ErrKind(err))
}

func TestListFiltersByStatusAndCreator(t *testing.T) {
	env := newTestEnv(t)
	env.createTournament(t, 1000)
	env.openTournament(t, 2000)

	open, err := env.tournaments.List(models.StatusFundingOpen, "")
	require.NoError(t, err)
	require.Len(t, open, 1)

	mine, err := env.tournaments.List("", "creator-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)

	nobody, err := env.tournaments.List("", "creator-2")
	require.NoError(t, err)
	require.Empty(t, nobody)

	_, err = env.tournaments.Get("no-such-id")
	require.Equal(t, models.KindNotFound, models.ErrKind(err))
}
