package main

import (
	"log"
	"net/http"

	api "pushconsole-backend/cmd/api"
	messagingDelivery "pushconsole-backend/internal/messaging/delivery"
	messagingdomain "pushconsole-backend/internal/messaging/domain"
	messagingRepo "pushconsole-backend/internal/messaging/repository"
	taskDelivery "pushconsole-backend/internal/task/delivery"
	taskdomain "pushconsole-backend/internal/task/domain"
	taskRepo "pushconsole-backend/internal/task/repository"
	taskUsecasePkg "pushconsole-backend/internal/task/usecase"
	"pushconsole-backend/pkg/config"
	"pushconsole-backend/pkg/database"
	"pushconsole-backend/pkg/fcm"
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
	if err := db.AutoMigrate(
		&taskdomain.Task{},
		&messagingdomain.Template{},
		&messagingdomain.ProviderConfig{},
		&messagingdomain.RecipientGroup{},
		&messagingdomain.DeviceToken{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	taskRepository := taskRepo.NewGormTaskRepository(db)
	templateRepository := messagingRepo.NewTemplateRepository(db)
	configRepository := messagingRepo.NewProviderConfigRepository(db)
	groupRepository := messagingRepo.NewRecipientGroupRepository(db)
	tokenRepository := messagingRepo.NewDeviceTokenRepository(db)

	// Initialize the FCM dispatcher with the configured endpoints
	dispatcher := fcm.NewDispatcher(&http.Client{Timeout: cfg.HTTPTimeout})
	dispatcher.Legacy.Endpoint = cfg.FCMLegacyEndpoint
	dispatcher.V1.EndpointFormat = cfg.FCMV1EndpointFormat
	dispatcher.V1.Tokens.TokenURL = cfg.FCMTokenEndpoint

	// Initialize use cases (dependency injection)
	taskUsecase := taskUsecasePkg.NewTaskUsecase(taskRepository, templateRepository, configRepository, tokenRepository, dispatcher)

	// Initialize HTTP handlers
	taskHandler := taskDelivery.NewTaskHandler(taskUsecase)
	messagingHandler := messagingDelivery.NewMessagingHandler(templateRepository, configRepository, groupRepository, tokenRepository)

	handler := api.NewHandler(taskHandler, messagingHandler)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
