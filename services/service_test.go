package services

import (
	"fmt"
	"testing"
	"time"

	"tournament-funding-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service graph against a per-test in-memory
// database to avoid cross-test interference.
type testEnv struct {
	db          *gorm.DB
	notifier    *NotificationService
	fees        *FeeService
	funding     *FundingService
	guarantees  *GuaranteeService
	players     *PlayerService
	settlement  *SettlementService
	tournaments *TournamentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// SQLite serializes writers anyway; one connection keeps the shared
	// in-memory database from reporting spurious "table is locked" errors.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Tournament{},
		&models.Investment{},
		&models.Guarantee{},
		&models.PlatformFee{},
		&models.TournamentResult{},
		&models.Player{},
		&models.Notification{},
	))

	ranking := models.DefaultRankingConfig()
	notifier := NewNotificationService(db)
	fees := NewFeeService(db, ranking, notifier)
	players := NewPlayerService(db, ranking)

	return &testEnv{
		db:          db,
		notifier:    notifier,
		fees:        fees,
		funding:     NewFundingService(db, notifier),
		guarantees:  NewGuaranteeService(db, notifier),
		players:     players,
		settlement:  NewSettlementService(db, notifier, players),
		tournaments: NewTournamentService(db, fees, notifier),
	}
}

// createTournament makes a pending_initial_payment tournament on BRONZE terms.
func (e *testEnv) createTournament(t *testing.T, target float64) *models.Tournament {
	t.Helper()
	deadline := time.Now().Add(24 * time.Hour)
	tournament, err := e.tournaments.Create(CreateTournamentParams{
		CreatorUserID:    "creator-1",
		Name:             "WSOP Main Event Satellite",
		TargetPoolAmount: target,
		FundingEndTime:   &deadline,
	})
	require.NoError(t, err)
	return tournament
}

// openTournament walks a fresh tournament through initial fee and guarantee
// so it lands in funding_open, using the real payment paths.
func (e *testEnv) openTournament(t *testing.T, target float64) *models.Tournament {
	t.Helper()
	tournament := e.createTournament(t, target)
	_, err := e.fees.PayInitialFee(tournament.ID, "0xfee")
	require.NoError(t, err)
	opened, err := e.guarantees.PayGuarantee(tournament.ID, "0xguarantee")
	require.NoError(t, err)
	require.Equal(t, models.StatusFundingOpen, opened.Status)
	return opened
}

// setStatus forces a lifecycle state directly, for tests that start mid-flow.
func (e *testEnv) setStatus(t *testing.T, tournamentID, status string) {
	t.Helper()
	err := e.db.Model(&models.Tournament{}).
		Where("id = ?", tournamentID).
		Update("status", status).Error
	require.NoError(t, err)
}

func (e *testEnv) reload(t *testing.T, tournamentID string) *models.Tournament {
	t.Helper()
	var tournament models.Tournament
	require.NoError(t, e.db.First(&tournament, "id = ?", tournamentID).Error)
	return &tournament
}
