package http

import (
	"net/http"

	"dmbox/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userUc usecase.UserUsecase
}

func NewUserHandler(userUc usecase.UserUsecase) *UserHandler {
	return &UserHandler{
		userUc: userUc,
	}
}

// Method Get /users/{userId}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "userId")

	profile, err := h.userUc.GetProfile(r.Context(), userId)
	if err != nil {
		respondUsecaseError(w, "Get profile", err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}
