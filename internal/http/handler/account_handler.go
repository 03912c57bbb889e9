package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DownstreamWealth/portal/internal/domain"
	"github.com/DownstreamWealth/portal/internal/service"
	"github.com/DownstreamWealth/portal/internal/session"
)

// AccountHandler serves registration and profile endpoints.
type AccountHandler struct {
	Accounts *service.AccountService
	Sessions session.Resolver
	Logger   *zap.Logger
}

// NewAccountHandler creates the handler set.
func NewAccountHandler(accounts *service.AccountService, sessions session.Resolver, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{Accounts: accounts, Sessions: sessions, Logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Type string `json:"type"`
	domain.ProfileFields
}

// Register handles POST /register.
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err), "An error occurred during registration")
		return
	}

	err := h.Accounts.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err, "An error occurred during registration")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// GetProfile handles GET /profile.
func (h *AccountHandler) GetProfile(c *gin.Context) {
	caller, err := h.Sessions.Resolve(c.Request)
	if err != nil {
		h.respondError(c, err, "An error occurred while fetching profile")
		return
	}

	view, err := h.Accounts.GetProfile(c.Request.Context(), caller.UserID)
	if err != nil {
		h.respondError(c, err, "An error occurred while fetching profile")
		return
	}

	c.JSON(http.StatusOK, view.Fields())
}

// UpdateProfile handles PUT /profile.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	caller, err := h.Sessions.Resolve(c.Request)
	if err != nil {
		h.respondError(c, err, "An error occurred while updating profile")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err), "An error occurred while updating profile")
		return
	}
	kind := domain.ParseProfileKind(req.Type)
	if err := h.Accounts.UpdateProfile(c.Request.Context(), caller, kind, req.ProfileFields); err != nil {
		h.respondError(c, err, "An error occurred while updating profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// respondError maps domain errors to status codes. Anything unrecognised,
// including invalid payloads, becomes a 500 carrying only the fallback message.
func (h *AccountHandler) respondError(c *gin.Context, err error, fallback string) {
	logger := h.log()
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		logger.Debug("unauthenticated request", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
	case errors.Is(err, domain.ErrUserNotFound):
		logger.Warn("session user missing", zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "User with this email already exists"})
	case errors.Is(err, domain.ErrInvalidPayload):
		logger.Warn("invalid payload", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
	default:
		logger.Error("account request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
	}
}

func (h *AccountHandler) log() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.L()
}
