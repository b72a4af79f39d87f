package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krasol/hobbyhub-backend/internal/config"
	"github.com/krasol/hobbyhub-backend/internal/handlers"
	"github.com/krasol/hobbyhub-backend/internal/middleware"
	"github.com/krasol/hobbyhub-backend/internal/repository"
	"github.com/krasol/hobbyhub-backend/internal/services"
	chatws "github.com/krasol/hobbyhub-backend/internal/websocket"
)

// RegisterRoutes wires repositories, services and handlers onto the app.
// The websocket hub is started here and doubles as the notifier for chat
// and booking events.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	groupRepo := repository.NewGroupChatRepository(db)
	clearedRepo := repository.NewClearedChatRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	reportRepo := repository.NewReportRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	hub := chatws.NewHub()
	go hub.Run()

	chatService := services.NewChatService(db, messageRepo, groupRepo, clearedRepo, userRepo, trainerRepo, hub)
	bookingService := services.NewBookingService(db, userRepo, trainerRepo, meetingRepo, hub)
	moderationService := services.NewModerationService(db, userRepo, trainerRepo, reportRepo)
	profileService := services.NewProfileService(db, userRepo, trainerRepo, reviewRepo)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	chatHandler := handlers.NewChatHandler(chatService, hub, cfg.JWTSecret)
	groupHandler := handlers.NewGroupHandler(chatService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	trainerHandler := handlers.NewTrainerHandler(profileService)
	uploadHandler := handlers.NewUploadHandler(storageService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	v1 := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	chats := v1.Group("/chats")
	chats.Get("", chatHandler.ListChats)
	chats.Get("/:peerId/messages", chatHandler.GetMessages)
	chats.Post("/:peerId/messages", chatHandler.SendMessage)
	chats.Post("/:peerId/read", chatHandler.MarkRead)
	chats.Delete("/:chatId", chatHandler.ClearChat)

	messages := v1.Group("/messages")
	messages.Put("/:id", chatHandler.EditMessage)
	messages.Delete("/:id", chatHandler.DeleteMessage)

	notifications := v1.Group("/notifications")
	notifications.Get("", chatHandler.Notifications)
	notifications.Get("/count", chatHandler.UnreadCount)

	groups := v1.Group("/groups")
	groups.Post("", groupHandler.CreateGroup)
	groups.Get("", groupHandler.ListGroups)
	groups.Get("/:id", groupHandler.GetGroup)
	groups.Delete("/:id", groupHandler.Delete)
	groups.Get("/:id/messages", groupHandler.GetMessages)
	groups.Post("/:id/messages", groupHandler.SendMessage)
	groups.Post("/:id/read", groupHandler.MarkRead)
	groups.Post("/:id/invite", groupHandler.Invite)
	groups.Post("/:id/leave", groupHandler.Leave)
	groups.Put("/:id/name", groupHandler.Rename)
	groups.Put("/:id/photo", groupHandler.SetPhoto)

	meetings := v1.Group("/meetings")
	meetings.Post("", bookingHandler.RequestBooking)
	meetings.Get("", bookingHandler.ListMeetings)
	meetings.Get("/:id", bookingHandler.GetMeeting)
	meetings.Post("/:id/respond", bookingHandler.Respond)
	meetings.Post("/:id/release", bookingHandler.ReleasePayment)

	trainers := v1.Group("/trainers")
	trainers.Get("", trainerHandler.ListTrainers)
	trainers.Post("", trainerHandler.CreateTrainer)
	trainers.Get("/mine", trainerHandler.ListOwnProfiles)
	trainers.Get("/:id", trainerHandler.GetTrainer)
	trainers.Put("/:id", trainerHandler.UpdateTrainer)
	trainers.Delete("/:id", trainerHandler.DeleteTrainer)
	trainers.Get("/:id/reviews", trainerHandler.ListReviews)
	trainers.Post("/:id/reviews", trainerHandler.AddReview)

	users := v1.Group("/users")
	users.Put("/profile", trainerHandler.UpdateProfile)
	users.Put("/avatar", trainerHandler.SetAvatar)
	users.Post("/gallery", trainerHandler.AddGalleryPhoto)
	users.Delete("/gallery", trainerHandler.RemoveGalleryPhoto)
	users.Post("/topup", trainerHandler.TopUpBalance)
	users.Post("/:id/ban", moderationHandler.BanUser)

	reports := v1.Group("/reports")
	reports.Post("", moderationHandler.FileReport)
	reports.Get("", moderationHandler.ListReports)
	reports.Post("/:id/resolve", moderationHandler.ResolveReport)

	uploads := v1.Group("/uploads")
	uploads.Post("", uploadHandler.Upload)
	uploads.Delete("", uploadHandler.Delete)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
