package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsTerminal(t *testing.T) {
	terminal := []string{StatusCompletedWon, StatusCompletedLost, StatusCancelled}
	for _, status := range terminal {
		require.True(t, (&Tournament{Status: status}).IsTerminal(), status)
	}
	active := []string{
		StatusPendingInitialPayment, StatusPendingGuarantee, StatusFundingOpen,
		StatusFundingComplete, StatusFundingFailed, StatusFundsTransferred,
		StatusInProgress, StatusAwaitingResults,
	}
	for _, status := range active {
		require.False(t, (&Tournament{Status: status}).IsTerminal(), status)
	}
}

func TestFundingDeadlinePassed(t *testing.T) {
	now := time.Now()

	require.False(t, (&Tournament{}).FundingDeadlinePassed(now), "no deadline means no expiry")

	past := now.Add(-time.Second)
	require.True(t, (&Tournament{FundingEndTime: &past}).FundingDeadlinePassed(now))

	future := now.Add(time.Hour)
	require.False(t, (&Tournament{FundingEndTime: &future}).FundingDeadlinePassed(now))
}

func TestRemainingCapacity(t *testing.T) {
	tournament := &Tournament{TargetPoolAmount: 1000, CurrentPoolAmount: 600}
	require.InDelta(t, 400, tournament.RemainingCapacity(), 1e-9)
}
