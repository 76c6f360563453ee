package handler

import (
	"net/http"

	"github.com/fluentprep/exam-engine/internal/config"
	"github.com/fluentprep/exam-engine/internal/middleware"
	"github.com/fluentprep/exam-engine/internal/response"
	"github.com/fluentprep/exam-engine/internal/store"
	"github.com/fluentprep/exam-engine/internal/validator"
	"github.com/gin-gonic/gin"
)

// AuthHandler authenticates practice candidates and issues bearer tokens.
type AuthHandler struct {
	cfg   *config.Config
	store *store.Store
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, st *store.Store) *AuthHandler {
	return &AuthHandler{cfg: cfg, store: st}
}

// LoginRequest is the payload for candidate login.
type LoginRequest struct {
	CandidateID string `json:"candidate_id" binding:"required,min=1,max=64"`
	AccessCode  string `json:"access_code" binding:"required,min=4,max=128"`
}

// Login godoc
// POST /api/v1/auth/login
// Exchanges a candidate ID and access code for a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cand, err := h.store.Authenticate(req.CandidateID, req.AccessCode)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := middleware.GenerateToken(h.cfg.JWTSecret, cand.ID, h.cfg.JWTExpiry)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token, "name": cand.Name})
}
