package main

import (
	"context"
	"log"
	"time"

	"podium/config"
	"podium/internal/agent"
	"podium/internal/calendar"
	"podium/internal/chat"
	"podium/internal/domain/application"
	"podium/internal/events"
	"podium/internal/handler"
	"podium/internal/redis"
	"podium/internal/repository"
	"podium/internal/review"
	"podium/internal/scheduling"
	"podium/internal/server"
	"podium/internal/services"
	"podium/pkg/database"
	"podium/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.Server.Environment)
	defer l.Logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&application.SpeechApplication{}); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := redis.NewClient(cfg.Redis)
	deduper := redis.NewDeduper(redisClient, 24*time.Hour)

	chatClient := chat.NewClient(cfg.Chat)
	socket := chat.NewSocket(cfg.Chat, l)

	calendarClient, err := calendar.NewClient(ctx, cfg.Calendar)
	if err != nil {
		log.Fatalf("Failed to connect to calendar service: %v", err)
	}

	repo := repository.NewApplicationRepository(db)
	bus := events.NewBus()
	syncer := scheduling.NewSyncer(chatClient, calendarClient, cfg.Chat.EventLocation, l)

	workflow := review.NewWorkflow(repo, chatClient, syncer, cfg.Chat.ModerationChannelID, l)
	bus.Subscribe(events.TopicNewApplication, workflow)
	socket.Handle(chat.ActionAccept, workflow.HandleAccept)
	socket.Handle(chat.ActionDeny, workflow.HandleDeny)
	socket.Handle(chat.ActionDenySubmit, workflow.HandleDenySubmit)

	drafter := agent.NewClient(cfg.Agent)
	service := services.NewApplicationService(repo, bus, syncer, drafter, chatClient, l)

	go func() {
		if err := socket.Run(ctx); err != nil && ctx.Err() == nil {
			l.Errorf("gateway socket stopped: %s", err)
		}
	}()

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Application: handler.NewApplicationHandler(service),
		Webhook:     handler.NewWebhookHandler(service, deduper, l),
	}, db)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
