package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tournament-funding-system/handlers"
	"tournament-funding-system/middleware"
	"tournament-funding-system/models"
	"tournament-funding-system/services"
	"tournament-funding-system/utils"
	"tournament-funding-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // 25MB, result proofs are images/PDFs
	})

	// GLOBAL: only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Tournament{},
		&models.Investment{},
		&models.Guarantee{},
		&models.PlatformFee{},
		&models.TournamentResult{},
		&models.Player{},
		&models.Notification{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ranking := models.DefaultRankingConfig()

	notificationService := services.NewNotificationService(db)
	feeService := services.NewFeeService(db, ranking, notificationService)
	fundingService := services.NewFundingService(db, notificationService)
	guaranteeService := services.NewGuaranteeService(db, notificationService)
	playerService := services.NewPlayerService(db, ranking)
	settlementService := services.NewSettlementService(db, notificationService, playerService)
	tournamentService := services.NewTournamentService(db, feeService, notificationService)
	pokerService := services.NewPokerService()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paymentWatcher := workers.NewPaymentWatcher(feeService, guaranteeService)
	go paymentWatcher.Poll(ctx, 10*time.Second)

	sweeper, err := fundingService.StartFundingSweeper()
	if err != nil {
		log.Fatal("failed to start funding sweeper:", err)
	}
	defer func() { _ = sweeper.Shutdown() }()

	handlers.SetupTournamentRoutes(app, tournamentService, fundingService, feeService, guaranteeService, settlementService)
	handlers.SetupPlayerRoutes(app, playerService, pokerService, notificationService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server running on http://localhost:%s", port)
	log.Println("Payment watcher polling running (every 10s)")
	log.Println("Funding deadline sweeper running (every 1m)")
	log.Println("GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
