package websocket

import (
	"log"
	"net/http"

	"dmbox/infrastructure/ws"
	"dmbox/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// AlertStreamHandler upgrades a connection onto a user's alert stream.
// The stream only pushes; clients never send application frames.
type AlertStreamHandler struct {
	hub    ws.IHub
	userUc usecase.UserUsecase
}

func NewAlertStreamHandler(hub ws.IHub, userUc usecase.UserUsecase) *AlertStreamHandler {
	return &AlertStreamHandler{
		hub:    hub,
		userUc: userUc,
	}
}

func (h *AlertStreamHandler) HandleAlertStream(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "userId")
	if userId == "" {
		http.Error(w, "Missing user ID", http.StatusBadRequest)
		return
	}

	user, err := h.userUc.Get(r.Context(), userId)
	if err != nil {
		log.Printf("Get user error: %v", err)
		http.Error(w, "Unknown user", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade error: %v", err)
		return
	}

	client := ws.NewClient(user.Id, h.hub, conn)
	h.hub.RegisterClient(client)

	go client.WritePump()
	client.ReadPump()
}
