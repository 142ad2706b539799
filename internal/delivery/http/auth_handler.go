package http

import (
	"encoding/json"
	"net/http"

	"dmbox/internal/entity"
	"dmbox/internal/usecase"
)

type AuthHandler struct {
	authUc usecase.AuthUsecase
}

func NewAuthHandler(authUc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{
		authUc: authUc,
	}
}

// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req entity.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" || req.Username == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "email, username, password, and name are required")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if len(req.Username) < 3 {
		respondError(w, http.StatusBadRequest, "username must be at least 3 characters")
		return
	}

	authResponse, err := h.authUc.Register(r.Context(), req)
	if err != nil {
		switch err {
		case usecase.ErrEmailAlreadyTaken, usecase.ErrUsernameAlreadyTaken:
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondUsecaseError(w, "Register", err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, authResponse)
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entity.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	authResponse, err := h.authUc.Login(r.Context(), req)
	if err != nil {
		if err == usecase.ErrInvalidCredentials {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		respondUsecaseError(w, "Login", err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse)
}

// POST /auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req entity.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	authResponse, err := h.authUc.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		switch err {
		case usecase.ErrInvalidRefreshToken, usecase.ErrExpiredRefreshToken, usecase.ErrRevokedRefreshToken:
			respondError(w, http.StatusUnauthorized, err.Error())
		default:
			respondUsecaseError(w, "Refresh token", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, authResponse)
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req entity.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authUc.Logout(r.Context(), req.RefreshToken); err != nil {
		respondUsecaseError(w, "Logout", err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}
