package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/geocoder89/staroracle/internal/domain/watchlist"
	"github.com/geocoder89/staroracle/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type WatchlistRepository interface {
	List(ctx context.Context, userID string) ([]watchlist.Entry, error)
	Upsert(ctx context.Context, userID string, req watchlist.AddRequest) (watchlist.Entry, error)
	Remove(ctx context.Context, userID, asteroidID string) (bool, error)
}

type WatchlistHandler struct {
	repo WatchlistRepository
}

func NewWatchlistHandler(repo WatchlistRepository) *WatchlistHandler {
	return &WatchlistHandler{repo: repo}
}

func (h *WatchlistHandler) List(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	items, err := h.repo.List(ctx.Request.Context(), userID)
	if err != nil {
		RespondInternal(ctx, "Failed to load watchlist", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"items": items, "count": len(items)}, cachePrivate)
}

// Add inserts the entry, or refreshes added_at and notes when the asteroid
// is already watched.
func (h *WatchlistHandler) Add(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req watchlist.AddRequest
	if !BindJSON(ctx, &req) {
		return
	}
	req.AsteroidID = strings.TrimSpace(req.AsteroidID)
	req.AsteroidName = strings.TrimSpace(req.AsteroidName)

	entry, err := h.repo.Upsert(ctx.Request.Context(), userID, req)
	if err != nil {
		RespondInternal(ctx, "Failed to update watchlist", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Added to watchlist", "entry": entry})
}

func (h *WatchlistHandler) Remove(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	asteroidID := strings.TrimSpace(ctx.Param("asteroidId"))
	if asteroidID == "" {
		RespondBadRequest(ctx, "asteroid id is required", nil)
		return
	}

	removed, err := h.repo.Remove(ctx.Request.Context(), userID, asteroidID)
	if err != nil {
		RespondInternal(ctx, "Failed to update watchlist", err)
		return
	}
	if !removed {
		RespondNotFound(ctx, "Asteroid is not on the watchlist")
		return
	}

	ctx.Status(http.StatusNoContent)
}
