package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/staroracle/internal/domain/preferences"
	"github.com/geocoder89/staroracle/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type PreferencesRepository interface {
	GetOrCreate(ctx context.Context, userID string) (preferences.Preferences, error)
	Upsert(ctx context.Context, p preferences.Preferences) (preferences.Preferences, error)
}

type SettingsHandler struct {
	repo PreferencesRepository
}

func NewSettingsHandler(repo PreferencesRepository) *SettingsHandler {
	return &SettingsHandler{repo: repo}
}

// Get creates the defaults on first read.
func (h *SettingsHandler) Get(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	p, err := h.repo.GetOrCreate(ctx.Request.Context(), userID)
	if err != nil {
		RespondInternal(ctx, "Failed to load settings", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"preferences": p})
}

func (h *SettingsHandler) Update(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req preferences.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.repo.Upsert(ctx.Request.Context(), req.Apply(userID))
	if err != nil {
		RespondInternal(ctx, "Failed to save settings", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Settings saved", "preferences": p})
}
