package main

import (
	"log"

	api "healthsync-backend/cmd/api"
	authdomain "healthsync-backend/internal/auth/domain"
	authRepo "healthsync-backend/internal/auth/repository"
	authUsecase "healthsync-backend/internal/auth/usecase"
	syncdomain "healthsync-backend/internal/sync/domain"
	syncRepo "healthsync-backend/internal/sync/repository"
	"healthsync-backend/internal/sync/scheduler"
	syncUsecase "healthsync-backend/internal/sync/usecase"
	"healthsync-backend/pkg/config"
	"healthsync-backend/pkg/database"
	"healthsync-backend/pkg/garmin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if cfg.GarminEmail == "" || cfg.GarminPassword == "" {
		log.Println("[WARN] GARMIN_EMAIL/GARMIN_PASSWORD not configured, sync runs will fail until they are set")
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&syncdomain.WeightEntry{},
		&syncdomain.SleepEntry{},
		&syncdomain.SyncLog{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	weightRepo := syncRepo.NewWeightRepository(db)
	sleepRepo := syncRepo.NewSleepRepository(db)
	syncLogRepo := syncRepo.NewSyncLogRepository(db)

	// Initialize Garmin client
	garminClient := garmin.NewClient(cfg.GarminEmail, cfg.GarminPassword, cfg.VendorTimeout)
	if cfg.OAuthConsumerURL != "" {
		garminClient.ConsumerURL = cfg.OAuthConsumerURL
	}

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, cfg)
	syncUsecaseInstance := syncUsecase.NewSyncUsecase(garminClient, userRepo, weightRepo, sleepRepo, syncLogRepo, cfg, api.GetRuntimeSyncDays)

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, syncUsecaseInstance, garminClient, cfg)

	// Start the auto-sync scheduler (no-op when interval or service key is unset)
	autoSync := scheduler.NewAutoSyncScheduler(syncUsecaseInstance, cfg.ServiceRoleKey, cfg.SyncInterval)
	autoSync.Start()
	defer autoSync.Stop()

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
