package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/staroracle/internal/domain/neo"
	"github.com/geocoder89/staroracle/internal/neofeed"
	"github.com/gin-gonic/gin"
)

type FeedSource interface {
	Feed(ctx context.Context, dates neo.DateRange) (neo.Feed, error)
}

type AsteroidsHandler struct {
	feed FeedSource
	now  func() time.Time
}

func NewAsteroidsHandler(feed FeedSource) *AsteroidsHandler {
	return &AsteroidsHandler{feed: feed, now: time.Now}
}

// List serves GET /asteroids?start_date=&end_date=, sorted by risk score.
func (h *AsteroidsHandler) List(ctx *gin.Context) {
	dates, ok := dateRangeFromQuery(ctx, h.now())
	if !ok {
		return
	}

	feed, err := h.feed.Feed(ctx.Request.Context(), dates)
	if err != nil {
		if errors.Is(err, neofeed.ErrUpstream) {
			RespondUpstream(ctx, "Failed to fetch asteroid data", err)
			return
		}
		RespondInternal(ctx, "Failed to fetch asteroid data", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, feed, cachePublic)
}

func dateRangeFromQuery(ctx *gin.Context, now time.Time) (neo.DateRange, bool) {
	dates, err := neofeed.DateRangeFrom(ctx.Query("start_date"), ctx.Query("end_date"), now)
	if err != nil {
		RespondBadRequest(ctx, "Invalid date format. Use YYYY-MM-DD", nil)
		return neo.DateRange{}, false
	}
	return dates, true
}
