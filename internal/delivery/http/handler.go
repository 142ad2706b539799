package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"dmbox/internal/repository"
	"dmbox/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Message: "success", Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Message: message})
}

// statusForError maps usecase sentinels onto HTTP status codes.
func statusForError(err error) int {
	switch err {
	case usecase.ErrNotParticipant, usecase.ErrNotSender, usecase.ErrInboxDisabled:
		return http.StatusForbidden
	case usecase.ErrInvalidContent, usecase.ErrEmptyReason, usecase.ErrParentMismatch, usecase.ErrSelfConversation:
		return http.StatusBadRequest
	case usecase.ErrHourlyLimitExceeded, usecase.ErrDailyLimitExceeded:
		return http.StatusTooManyRequests
	case usecase.ErrRecipientNotFound, repository.ErrConversationNotFound,
		repository.ErrMessageNotFound, repository.ErrUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondUsecaseError(w http.ResponseWriter, op string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s error: %v", op, err)
		respondError(w, status, "internal server error")
		return
	}
	respondError(w, status, err.Error())
}

type MessagingHandler struct {
	messagingUc usecase.MessagingUsecase
	alertUc     usecase.AlertUsecase
}

func NewMessagingHandler(messagingUc usecase.MessagingUsecase, alertUc usecase.AlertUsecase) *MessagingHandler {
	return &MessagingHandler{
		messagingUc: messagingUc,
		alertUc:     alertUc,
	}
}

// Method Post /inbox/toggle
func (h *MessagingHandler) ToggleInbox(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())

	enabled, err := h.messagingUc.ToggleInbox(r.Context(), userId)
	if err != nil {
		respondUsecaseError(w, "Toggle inbox", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"inboxEnabled": enabled})
}

// Method Post /conversations
func (h *MessagingHandler) OpenConversation(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())

	var req struct {
		OtherUserId string `json:"otherUserId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.messagingUc.OpenConversation(r.Context(), userId, req.OtherUserId)
	if err != nil {
		respondUsecaseError(w, "Open conversation", err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// Method Get /conversations
func (h *MessagingHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())

	summaries, err := h.messagingUc.ListConversations(r.Context(), userId)
	if err != nil {
		respondUsecaseError(w, "List conversations", err)
		return
	}

	respondJSON(w, http.StatusOK, summaries)
}

// Method Post /conversations/{conversationId}/messages
func (h *MessagingHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())
	conversationId := chi.URLParam(r, "conversationId")

	var req struct {
		Content         string `json:"content"`
		ParentMessageId string `json:"parentMessageId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.messagingUc.Send(r.Context(), userId, conversationId, req.Content, req.ParentMessageId)
	if err != nil {
		respondUsecaseError(w, "Send message", err)
		return
	}

	respondJSON(w, http.StatusCreated, message)
}

// Method Get /conversations/{conversationId}/messages
func (h *MessagingHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())
	conversationId := chi.URLParam(r, "conversationId")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	messages, err := h.messagingUc.ListMessages(r.Context(), userId, conversationId, limit)
	if err != nil {
		respondUsecaseError(w, "List messages", err)
		return
	}

	respondJSON(w, http.StatusOK, messages)
}

// Method Post /conversations/{conversationId}/read
func (h *MessagingHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())
	conversationId := chi.URLParam(r, "conversationId")

	if err := h.messagingUc.MarkRead(r.Context(), userId, conversationId); err != nil {
		respondUsecaseError(w, "Mark read", err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// Method Delete /conversations/{conversationId}
func (h *MessagingHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())
	conversationId := chi.URLParam(r, "conversationId")

	if err := h.messagingUc.DeleteConversation(r.Context(), userId, conversationId); err != nil {
		respondUsecaseError(w, "Delete conversation", err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// Method Delete /messages/{messageId}
func (h *MessagingHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())
	messageId := chi.URLParam(r, "messageId")

	if err := h.messagingUc.DeleteMessage(r.Context(), userId, messageId); err != nil {
		respondUsecaseError(w, "Delete message", err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// Method Post /inbox/clear
func (h *MessagingHandler) ClearInbox(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())

	hidden, err := h.messagingUc.ClearInbox(r.Context(), userId)
	if err != nil {
		respondUsecaseError(w, "Clear inbox", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"hidden": hidden})
}

// Method Post /reports
func (h *MessagingHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())

	var req struct {
		ReportedUserId string `json:"reportedUserId"`
		ConversationId string `json:"conversationId"`
		MessageId      string `json:"messageId"`
		Reason         string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reportId, err := h.messagingUc.Report(r.Context(), userId, req.ReportedUserId, req.ConversationId, req.MessageId, req.Reason)
	if err != nil {
		respondUsecaseError(w, "Create report", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"reportId": reportId})
}

// Method Get /alerts
func (h *MessagingHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	alerts, err := h.alertUc.ListForUser(r.Context(), userId, limit)
	if err != nil {
		respondUsecaseError(w, "List alerts", err)
		return
	}

	respondJSON(w, http.StatusOK, alerts)
}

// Method Post /alerts/seen
func (h *MessagingHandler) MarkAlertsSeen(w http.ResponseWriter, r *http.Request) {
	userId := CurrentUserId(r.Context())

	if err := h.alertUc.MarkSeen(r.Context(), userId); err != nil {
		respondUsecaseError(w, "Mark alerts seen", err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}
