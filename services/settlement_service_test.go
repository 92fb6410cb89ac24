package services

import (
	"testing"

	"tournament-funding-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// awaitingResults walks a funded tournament all the way to awaiting_results.
func awaitingResults(t *testing.T, env *testEnv, target float64, stakes map[string]float64) *models.Tournament {
	t.Helper()
	tournament := env.openTournament(t, target)
	for investor, amount := range stakes {
		_, err := env.funding.AcceptInvestment(tournament.ID, investor, amount)
		require.NoError(t, err)
	}
	_, err := env.tournaments.TransferFunds(tournament.ID)
	require.NoError(t, err)
	_, err = env.tournaments.Start(tournament.ID)
	require.NoError(t, err)
	finished, err := env.tournaments.FinishPlay(tournament.ID)
	require.NoError(t, err)
	return finished
}

func TestReportWinComputesPlatformCut(t *testing.T) {
	env := newTestEnv(t)
	tournament := awaitingResults(t, env, 1000, map[string]float64{"investor-a": 1000})

	winnings := 500.0
	settled, err := env.settlement.ReportResults(tournament.ID, ReportResultsParams{
		Won:           true,
		TotalWinnings: &winnings,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompletedWon, settled.Status)
	require.NotNil(t, settled.TotalWinningsFromTournament)
	require.InDelta(t, 500, *settled.TotalWinningsFromTournament, 1e-9)
	// BRONZE winnings fee is 20%.
	require.InDelta(t, 100, *settled.PlatformWinningsFeeAmount, 1e-9)
	require.InDelta(t, 400, *settled.NetWinningsForInvestors, 1e-9)

	var result models.TournamentResult
	require.NoError(t, env.db.First(&result, "tournament_id = ?", tournament.ID).Error)
	require.True(t, result.Won)
}

func TestReportLossLeavesSettlementFieldsEmpty(t *testing.T) {
	env := newTestEnv(t)
	tournament := awaitingResults(t, env, 1000, map[string]float64{"investor-a": 1000})

	settled, err := env.settlement.ReportResults(tournament.ID, ReportResultsParams{Won: false})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompletedLost, settled.Status)
	require.Nil(t, settled.TotalWinningsFromTournament)
	require.Nil(t, settled.PlatformWinningsFeeAmount)
	require.Nil(t, settled.NetWinningsForInvestors)
}

func TestReportResultsOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	tournament := awaitingResults(t, env, 1000, map[string]float64{"investor-a": 1000})

	winnings := 500.0
	settled, err := env.settlement.ReportResults(tournament.ID, ReportResultsParams{
		Won:           true,
		TotalWinnings: &winnings,
	})
	require.NoError(t, err)

	other := 900.0
	_, err = env.settlement.ReportResults(tournament.ID, ReportResultsParams{
		Won:           true,
		TotalWinnings: &other,
	})
	require.Equal(t, models.KindAlreadySettled, models.ErrKind(err))

	// The first report's numbers stand.
	reloaded := env.reload(t, tournament.ID)
	require.InDelta(t, *settled.PlatformWinningsFeeAmount, *reloaded.PlatformWinningsFeeAmount, 1e-9)
	require.InDelta(t, 500, *reloaded.TotalWinningsFromTournament, 1e-9)

	var count int64
	require.NoError(t, env.db.Model(&models.TournamentResult{}).
		Where("tournament_id = ?", tournament.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestReportRaceLoserSeesAlreadySettled(t *testing.T) {
	env := newTestEnv(t)
	tournament := awaitingResults(t, env, 1000, map[string]float64{"investor-a": 1000})

	// Settle the tournament behind the reporter's back the moment its
	// pre-check read completes, so the conditional transition loses the race.
	flipped := false
	err := env.db.Callback().Query().After("gorm:query").Register("settle_concurrently", func(tx *gorm.DB) {
		if flipped {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.Tournament); !ok {
			return
		}
		flipped = true
		require.NoError(t, env.db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Tournament{}).
			Where("id = ?", tournament.ID).
			Updates(map[string]interface{}{
				"status":                         models.StatusCompletedWon,
				"total_winnings_from_tournament": 500.0,
				"platform_winnings_fee_amount":   100.0,
				"net_winnings_for_investors":     400.0,
			}).Error)
	})
	require.NoError(t, err)
	defer env.db.Callback().Query().Remove("settle_concurrently")

	winnings := 900.0
	_, reportErr := env.settlement.ReportResults(tournament.ID, ReportResultsParams{
		Won:           true,
		TotalWinnings: &winnings,
	})
	require.Equal(t, models.KindAlreadySettled, models.ErrKind(reportErr))

	// The winner's figures stand.
	reloaded := env.reload(t, tournament.ID)
	require.InDelta(t, 500, *reloaded.TotalWinningsFromTournament, 1e-9)
	require.InDelta(t, 100, *reloaded.PlatformWinningsFeeAmount, 1e-9)
}

func TestReportResultsGuards(t *testing.T) {
	env := newTestEnv(t)
	tournament := env.openTournament(t, 1000)

	// Not awaiting results yet.
	_, err := env.settlement.ReportResults(tournament.ID, ReportResultsParams{Won: false})
	require.Equal(t, models.KindInvalidTransition, models.ErrKind(err))

	// A win with no winnings is not reportable.
	env.setStatus(t, tournament.ID, models.StatusAwaitingResults)
	_, err = env.settlement.ReportResults(tournament.ID, ReportResultsParams{Won: true})
	require.Equal(t, models.KindValidation, models.ErrKind(err))

	negative := -10.0
	_, err = env.settlement.ReportResults(tournament.ID, ReportResultsParams{
		Won:           true,
		TotalWinnings: &negative,
	})
	require.Equal(t, models.KindValidation, models.ErrKind(err))

	_, err = env.settlement.ReportResults("no-such-id", ReportResultsParams{Won: false})
	require.Equal(t, models.KindNotFound, models.ErrKind(err))
}

func TestDistributionFollowsFrozenPercentages(t *testing.T) {
	env := newTestEnv(t)
	tournament := awaitingResults(t, env, 1000, map[string]float64{
		"investor-a": 600,
		"investor-b": 400,
	})

	winnings := 1200.0
	_, err := env.settlement.ReportResults(tournament.ID, ReportResultsParams{
		Won:           true,
		TotalWinnings: &winnings,
	})
	require.NoError(t, err)

	distributions, err := env.settlement.Distribution(tournament.ID)
	require.NoError(t, err)
	require.Len(t, distributions, 2)

	// BRONZE: fee 240, net 960 split 60/40.
	byInvestor := map[string]models.InvestorDistribution{}
	for _, d := range distributions {
		byInvestor[d.InvestorID] = d
	}
	require.InDelta(t, 0.6, byInvestor["investor-a"].PercentageOfPool, 1e-9)
	require.InDelta(t, 576, byInvestor["investor-a"].Distribution, 1e-9)
	require.InDelta(t, 0.4, byInvestor["investor-b"].PercentageOfPool, 1e-9)
	require.InDelta(t, 384, byInvestor["investor-b"].Distribution, 1e-9)
}

func TestDistributionRequiresWin(t *testing.T) {
	env := newTestEnv(t)
	tournament := awaitingResults(t, env, 1000, map[string]float64{"investor-a": 1000})

	_, err := env.settlement.ReportResults(tournament.ID, ReportResultsParams{Won: false})
	require.NoError(t, err)

	_, err = env.settlement.Distribution(tournament.ID)
	require.Equal(t, models.KindInvalidTransition, models.ErrKind(err))
}

// TestFullTournamentFlow drives one tournament through every stage the way
// the API would, checking the money at each step.
func TestFullTournamentFlow(t *testing.T) {
	env := newTestEnv(t)

	tournament := env.createTournament(t, 1000)
	require.Equal(t, models.StatusPendingInitialPayment, tournament.Status)
	require.InDelta(t, 100, tournament.InitialPlatformFeeAmount, 1e-9)
	require.InDelta(t, 400, tournament.PlayerGuaranteeAmountRequired, 1e-9)

	_, err := env.fees.PayInitialFee(tournament.ID, "0xfee")
	require.NoError(t, err)
	opened, err := env.guarantees.PayGuarantee(tournament.ID, "0xg")
	require.NoError(t, err)
	require.Equal(t, models.StatusFundingOpen, opened.Status)

	_, err = env.funding.AcceptInvestment(tournament.ID, "investor-a", 600)
	require.NoError(t, err)
	funded, err := env.funding.AcceptInvestment(tournament.ID, "investor-b", 400)
	require.NoError(t, err)
	require.Equal(t, models.StatusFundingComplete, funded.Status)

	_, err = env.tournaments.TransferFunds(tournament.ID)
	require.NoError(t, err)
	_, err = env.tournaments.Start(tournament.ID)
	require.NoError(t, err)
	_, err = env.tournaments.FinishPlay(tournament.ID)
	require.NoError(t, err)

	winnings := 1200.0
	settled, err := env.settlement.ReportResults(tournament.ID, ReportResultsParams{
		Won:           true,
		TotalWinnings: &winnings,
	})
	require.NoError(t, err)
	require.InDelta(t, 240, *settled.PlatformWinningsFeeAmount, 1e-9)
	require.InDelta(t, 960, *settled.NetWinningsForInvestors, 1e-9)

	distributions, err := env.settlement.Distribution(tournament.ID)
	require.NoError(t, err)
	var total float64
	for _, d := range distributions {
		total += d.Distribution
	}
	require.InDelta(t, 960, total, 1e-9)

	g, err := env.guarantees.ReturnGuarantee(tournament.ID)
	require.NoError(t, err)
	require.Equal(t, models.GuaranteeReturned, g.Status)

	// The creator got notified along the way.
	notifications, err := env.notifier.ListForUser("creator-1")
	require.NoError(t, err)
	require.NotEmpty(t, notifications)
}
