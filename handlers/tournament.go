package handlers

import (
	"tournament-funding-system/middleware"
	"tournament-funding-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(
	app *fiber.App,
	tournamentService *services.TournamentService,
	fundingService *services.FundingService,
	feeService *services.FeeService,
	guaranteeService *services.GuaranteeService,
	settlementService *services.SettlementService,
) {
	// 🔐 Secured routes attach the user-context middleware per route; a
	// catch-all group would gate public routes registered after it too.
	userCtx := middleware.UserContextMiddleware()

	// 🔓 Public routes — no user context, but still require Gateway auth
	app.Get("/tournaments", tournamentService.GetAllTournaments)
	app.Get("/tournaments/open", tournamentService.GetOpenTournaments)
	// Registered before "/tournaments/:id" so the wildcard doesn't swallow it
	app.Get("/tournaments/my", userCtx, tournamentService.GetMyTournaments)
	app.Get("/tournaments/:id", tournamentService.GetTournamentByID)
	app.Get("/tournaments/:id/investments", fundingService.GetTournamentInvestments)
	app.Get("/tournaments/:id/guarantee", guaranteeService.GetTournamentGuaranteeHandler)
	app.Get("/tournaments/:id/distribution", settlementService.GetDistribution)
	app.Get("/fees/preview", feeService.PreviewFees)

	app.Post("/tournaments", userCtx, tournamentService.CreateTournament)
	app.Post("/tournaments/:id/cancel", userCtx, tournamentService.CancelTournament)

	// Lifecycle operations driven by the operations dashboard
	app.Post("/tournaments/:id/transfer-funds", userCtx, tournamentService.TransferFundsHandler)
	app.Post("/tournaments/:id/start", userCtx, tournamentService.StartTournament)
	app.Post("/tournaments/:id/finish", userCtx, tournamentService.FinishTournamentPlay)

	// Funding
	app.Post("/tournaments/:id/invest", userCtx, fundingService.InvestInTournament)

	// Fees and guarantees
	app.Post("/tournaments/:id/pay-initial-fee", userCtx, feeService.PayInitialFeeHandler)
	app.Post("/tournaments/:id/pay-winnings-fee", userCtx, feeService.PayWinningsFeeHandler)
	app.Post("/tournaments/:id/pay-guarantee", userCtx, guaranteeService.PayGuaranteeHandler)
	app.Post("/tournaments/:id/guarantee/return", userCtx, guaranteeService.ReturnGuaranteeHandler)
	app.Post("/tournaments/:id/guarantee/forfeit", userCtx, guaranteeService.ForfeitGuaranteeHandler)

	// Settlement
	app.Post("/tournaments/:id/report-results", userCtx, settlementService.ReportTournamentResults)

	// Fee reporting
	app.Get("/fees", userCtx, feeService.ListFeesHandler)
	app.Get("/fees/stats", userCtx, feeService.FeeStatsHandler)

	app.Get("/guarantees/player/:player_id", userCtx, guaranteeService.ListPlayerGuaranteesHandler)
}
