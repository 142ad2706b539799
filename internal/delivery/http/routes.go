package http

import (
	"net/http"

	wsDelivery "dmbox/internal/delivery/websocket"

	"github.com/go-chi/chi/v5"
)

func MapHttpRoutes(r *chi.Mux, messagingHandler *MessagingHandler, userHandler *UserHandler, healthHandler *HealthHandler, alertStreamHandler *wsDelivery.AlertStreamHandler, authHandler *AuthHandler, authMiddleware *AuthMiddleware) {
	r.Get("/health", http.HandlerFunc(healthHandler.Health))
	r.Handle("/ws/alerts/{userId}", http.HandlerFunc(alertStreamHandler.HandleAlertStream))

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", http.HandlerFunc(authHandler.Register))
		r.Post("/login", http.HandlerFunc(authHandler.Login))
		r.Post("/refresh", http.HandlerFunc(authHandler.RefreshToken))
		r.Post("/logout", http.HandlerFunc(authHandler.Logout))
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/inbox", func(r chi.Router) {
			r.Post("/toggle", http.HandlerFunc(messagingHandler.ToggleInbox))
			r.Post("/clear", http.HandlerFunc(messagingHandler.ClearInbox))
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", http.HandlerFunc(messagingHandler.OpenConversation))
			r.Get("/", http.HandlerFunc(messagingHandler.ListConversations))
			r.Post("/{conversationId}/messages", http.HandlerFunc(messagingHandler.SendMessage))
			r.Get("/{conversationId}/messages", http.HandlerFunc(messagingHandler.ListMessages))
			r.Post("/{conversationId}/read", http.HandlerFunc(messagingHandler.MarkRead))
			r.Delete("/{conversationId}", http.HandlerFunc(messagingHandler.DeleteConversation))
		})

		r.Get("/users/{userId}", http.HandlerFunc(userHandler.GetProfile))
		r.Delete("/messages/{messageId}", http.HandlerFunc(messagingHandler.DeleteMessage))
		r.Post("/reports", http.HandlerFunc(messagingHandler.CreateReport))

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", http.HandlerFunc(messagingHandler.ListAlerts))
			r.Post("/seen", http.HandlerFunc(messagingHandler.MarkAlertsSeen))
		})
	})
}
