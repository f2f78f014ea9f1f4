package main

import (
	"context"
	"log"

	api "bobalove-backend/cmd/api"
	"bobalove-backend/internal/notification"
	pushdomain "bobalove-backend/internal/push/domain"
	pushRepo "bobalove-backend/internal/push/repository"
	"bobalove-backend/internal/push/scheduler"
	pushUsecase "bobalove-backend/internal/push/usecase"
	"bobalove-backend/pkg/config"
	"bobalove-backend/pkg/database"
	"bobalove-backend/pkg/fcm"
	"bobalove-backend/pkg/webpush"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&pushdomain.Subscription{}, &pushdomain.Device{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	subRepo := pushRepo.NewSubscriptionRepository(db)
	deviceRepo := pushRepo.NewDeviceRepository(db)

	// VAPID keys: generate a pair for first boots so Web Push still
	// works; the printed keys should be persisted in the environment.
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		log.Println("[PUSH] VAPID keys not configured, generating new keys...")
		privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Fatal("Failed to generate VAPID keys:", err)
		}
		cfg.VAPIDPrivateKey = privateKey
		cfg.VAPIDPublicKey = publicKey
		log.Printf("[PUSH] Generated VAPID keys:\nVAPID_PRIVATE_KEY=%s\nVAPID_PUBLIC_KEY=%s\n(add these to your .env file to persist them)", privateKey, publicKey)
	}
	webPushClient := webpush.NewClient(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)

	// Initialize FCM client (optional; dispatch degrades without it)
	var fcmClient *fcm.Client
	switch {
	case cfg.SkipFCM:
		log.Println("[FCM] SKIP_FCM set, sends will be simulated")
	case cfg.FirebaseCredentialsFile != "":
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Printf("[FCM] Failed to initialize client (native push disabled): %v", err)
		}
	case cfg.FirebaseServiceAccount != "":
		fcmClient, err = fcm.NewClientFromJSON([]byte(cfg.FirebaseServiceAccount))
		if err != nil {
			log.Printf("[FCM] Failed to initialize client (native push disabled): %v", err)
		}
	default:
		log.Println("[FCM] No Firebase credentials configured, native push disabled")
	}

	// Initialize use cases (dependency injection)
	subUsecase := pushUsecase.NewSubscriptionUsecase(subRepo)
	deviceUsecase := pushUsecase.NewDeviceUsecase(deviceRepo)
	webPushUsecase := pushUsecase.NewWebPushUsecase(subRepo, webPushClient)
	var fcmSender pushUsecase.FCMSender
	if fcmClient != nil {
		fcmSender = fcmClient
	}
	fcmUsecase := pushUsecase.NewFCMUsecase(deviceRepo, fcmSender, cfg.SkipFCM)
	maintenanceUsecase := pushUsecase.NewMaintenanceUsecase(subRepo, deviceRepo)

	// Initialize event ingestion (Pub/Sub)
	// Only start if project ID is configured
	if cfg.GoogleProjectID != "" {
		notifService, err := notification.NewService(cfg.GoogleProjectID, cfg.PushEventsTopic, webPushUsecase, fcmUsecase, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Printf("[PubSub] Failed to initialize event consumer: %v", err)
		} else {
			go notifService.Start(context.Background())
		}
	} else {
		log.Println("[PubSub] GOOGLE_PROJECT_ID not configured, event ingestion disabled")
	}

	// Start the periodic maintenance loop
	maintenanceScheduler := scheduler.NewMaintenanceScheduler(maintenanceUsecase, cfg.MaintenanceInterval)
	maintenanceScheduler.Start()
	defer maintenanceScheduler.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(subUsecase, deviceUsecase, webPushUsecase, fcmUsecase, maintenanceUsecase, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
