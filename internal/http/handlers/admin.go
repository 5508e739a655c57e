package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SessionSweeper interface {
	SweepOnce(ctx context.Context) (int64, error)
}

type AdminHandler struct {
	sweeper SessionSweeper
}

func NewAdminHandler(sweeper SessionSweeper) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// SweepSessions removes expired sessions now instead of waiting for the
// next tick.
func (h *AdminHandler) SweepSessions(ctx *gin.Context) {
	n, err := h.sweeper.SweepOnce(ctx.Request.Context())
	if err != nil {
		RespondInternal(ctx, "Session sweep failed", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"swept": n})
}
