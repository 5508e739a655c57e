package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/staroracle/internal/auth"
	"github.com/geocoder89/staroracle/internal/domain/alert"
	"github.com/geocoder89/staroracle/internal/domain/neo"
	"github.com/geocoder89/staroracle/internal/domain/note"
	"github.com/geocoder89/staroracle/internal/domain/session"
	"github.com/geocoder89/staroracle/internal/domain/user"
	"github.com/geocoder89/staroracle/internal/domain/watchlist"
	"github.com/geocoder89/staroracle/internal/http/middlewares"
	"github.com/geocoder89/staroracle/internal/neofeed"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	recentNotesLimit    = 50
	recentSessionsLimit = 20
	recentAlertsLimit   = 30
)

type ResearcherProfiles interface {
	GetResearcherByUserID(ctx context.Context, userID string) (user.ResearcherProfile, error)
}

type NotesRepository interface {
	List(ctx context.Context, researcherID string, asteroidID *string, limit int) ([]note.Note, error)
	Create(ctx context.Context, n note.Note) (note.Note, error)
	Update(ctx context.Context, researcherID, id string, req note.SaveRequest) (note.Note, error)
	Delete(ctx context.Context, researcherID, id string) (bool, error)
	Count(ctx context.Context, researcherID string) (int, error)
}

type SessionHistory interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]session.Session, error)
	CountActive(ctx context.Context, userID string, now time.Time) (int, error)
}

type ResearchWatchlist interface {
	ListWithNoteCounts(ctx context.Context, userID, researcherID string) ([]watchlist.EntryWithNotes, error)
	Upsert(ctx context.Context, userID string, req watchlist.AddRequest) (watchlist.Entry, error)
	Remove(ctx context.Context, userID, asteroidID string) (bool, error)
	Count(ctx context.Context, userID string) (int, error)
}

type AlertsRepository interface {
	List(ctx context.Context, userID string, limit int) ([]alert.Alert, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

type FeedExporter interface {
	Export(ctx context.Context, dates neo.DateRange) ([]neofeed.ExportRow, error)
	ValidateKey(ctx context.Context, key string) (bool, error)
}

type ResearcherHandlerDeps struct {
	Profiles  ResearcherProfiles
	Notes     NotesRepository
	Sessions  SessionHistory
	Watchlist ResearchWatchlist
	Alerts    AlertsRepository
	Feed      FeedExporter
}

type ResearcherHandler struct {
	deps ResearcherHandlerDeps
	now  func() time.Time
}

func NewResearcherHandler(deps ResearcherHandlerDeps) *ResearcherHandler {
	return &ResearcherHandler{deps: deps, now: time.Now}
}

type APIKeyRequest struct {
	APIKey string `json:"api_key" binding:"required,max=128"`
}

// researcher resolves the caller's profile. Admins without a profile get 404
// here like everyone else.
func (h *ResearcherHandler) researcher(ctx *gin.Context) (auth.Principal, user.ResearcherProfile, bool) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return auth.Principal{}, user.ResearcherProfile{}, false
	}

	profile, err := h.deps.Profiles.GetResearcherByUserID(ctx.Request.Context(), p.User.ID)
	if err != nil {
		if errors.Is(err, user.ErrResearcherNotFound) {
			RespondNotFound(ctx, "Researcher profile not found")
			return auth.Principal{}, user.ResearcherProfile{}, false
		}
		RespondInternal(ctx, "Failed to load researcher profile", err)
		return auth.Principal{}, user.ResearcherProfile{}, false
	}

	return p, profile, true
}

func (h *ResearcherHandler) Profile(ctx *gin.Context) {
	p, profile, ok := h.researcher(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": p.User, "researcher": profile})
}

// ListNotes returns the 50 most recent notes, or every note for one
// asteroid when ?asteroid_id is set.
func (h *ResearcherHandler) ListNotes(ctx *gin.Context) {
	_, profile, ok := h.researcher(ctx)
	if !ok {
		return
	}

	var (
		asteroidID *string
		limit      = recentNotesLimit
	)
	if v := strings.TrimSpace(ctx.Query("asteroid_id")); v != "" {
		asteroidID = &v
		limit = 0
	}

	items, err := h.deps.Notes.List(ctx.Request.Context(), profile.ID, asteroidID, limit)
	if err != nil {
		RespondInternal(ctx, "Failed to load notes", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// SaveNote creates a note, or updates the caller's note when note_id is set.
func (h *ResearcherHandler) SaveNote(ctx *gin.Context) {
	_, profile, ok := h.researcher(ctx)
	if !ok {
		return
	}

	var req note.SaveRequest
	if !BindJSON(ctx, &req) {
		return
	}
	req.AsteroidID = strings.TrimSpace(req.AsteroidID)
	req.Title = strings.TrimSpace(req.Title)

	if req.NoteID != "" {
		n, err := h.deps.Notes.Update(ctx.Request.Context(), profile.ID, req.NoteID, req)
		if err != nil {
			if errors.Is(err, note.ErrNotFound) {
				RespondNotFound(ctx, "Note not found")
				return
			}
			RespondInternal(ctx, "Failed to save note", err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"message": "Note updated", "note": n})
		return
	}

	n, err := h.deps.Notes.Create(ctx.Request.Context(), note.NewFromSaveRequest(profile.ID, req))
	if err != nil {
		RespondInternal(ctx, "Failed to save note", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Note created", "note": n})
}

func (h *ResearcherHandler) DeleteNote(ctx *gin.Context) {
	_, profile, ok := h.researcher(ctx)
	if !ok {
		return
	}

	// ids are uuids in every store; anything else cannot name a note
	id := ctx.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		RespondNotFound(ctx, "Note not found")
		return
	}

	deleted, err := h.deps.Notes.Delete(ctx.Request.Context(), profile.ID, id)
	if err != nil {
		RespondInternal(ctx, "Failed to delete note", err)
		return
	}
	if !deleted {
		RespondNotFound(ctx, "Note not found")
		return
	}

	ctx.Status(http.StatusNoContent)
}

type sessionView struct {
	session.Session
	Current bool `json:"current"`
}

func (h *ResearcherHandler) Sessions(ctx *gin.Context) {
	p, _, ok := h.researcher(ctx)
	if !ok {
		return
	}

	rows, err := h.deps.Sessions.ListForUser(ctx.Request.Context(), p.User.ID, recentSessionsLimit)
	if err != nil {
		RespondInternal(ctx, "Failed to load sessions", err)
		return
	}

	items := make([]sessionView, 0, len(rows))
	for _, s := range rows {
		items = append(items, sessionView{Session: s, Current: s.ID == p.Session.ID})
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *ResearcherHandler) Watchlist(ctx *gin.Context) {
	p, profile, ok := h.researcher(ctx)
	if !ok {
		return
	}

	items, err := h.deps.Watchlist.ListWithNoteCounts(ctx.Request.Context(), p.User.ID, profile.ID)
	if err != nil {
		RespondInternal(ctx, "Failed to load watchlist", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *ResearcherHandler) AddToWatchlist(ctx *gin.Context) {
	p, _, ok := h.researcher(ctx)
	if !ok {
		return
	}

	var req watchlist.AddRequest
	if !BindJSON(ctx, &req) {
		return
	}
	req.AsteroidID = strings.TrimSpace(req.AsteroidID)
	req.AsteroidName = strings.TrimSpace(req.AsteroidName)

	entry, err := h.deps.Watchlist.Upsert(ctx.Request.Context(), p.User.ID, req)
	if err != nil {
		RespondInternal(ctx, "Failed to update watchlist", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Added to watchlist", "entry": entry})
}

func (h *ResearcherHandler) RemoveFromWatchlist(ctx *gin.Context) {
	p, _, ok := h.researcher(ctx)
	if !ok {
		return
	}

	removed, err := h.deps.Watchlist.Remove(ctx.Request.Context(), p.User.ID, ctx.Param("asteroidId"))
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

// Export serves ?format=json (default) or ?format=csv for a date range.
func (h *ResearcherHandler) Export(ctx *gin.Context) {
	if _, _, ok := h.researcher(ctx); !ok {
		return
	}

	format := strings.ToLower(ctx.DefaultQuery("format", "json"))
	if format != "json" && format != "csv" {
		RespondBadRequest(ctx, "format must be json or csv", nil)
		return
	}

	dates, ok := dateRangeFromQuery(ctx, h.now())
	if !ok {
		return
	}

	rows, err := h.deps.Feed.Export(ctx.Request.Context(), dates)
	if err != nil {
		if errors.Is(err, neofeed.ErrUpstream) {
			RespondUpstream(ctx, "Failed to fetch asteroid data", err)
			return
		}
		RespondInternal(ctx, "Failed to export asteroid data", err)
		return
	}

	if format == "csv" {
		ctx.Header("Content-Type", "text/csv; charset=utf-8")
		ctx.Header("Content-Disposition", `attachment; filename="`+neofeed.CSVFilename(dates.Start, dates.End)+`"`)
		ctx.Status(http.StatusOK)

		if err := neofeed.WriteCSV(ctx.Writer, rows); err != nil {
			_ = ctx.Error(err)
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"date_range": dates,
		"count":      len(rows),
		"data":       rows,
	})
}

func (h *ResearcherHandler) Alerts(ctx *gin.Context) {
	p, _, ok := h.researcher(ctx)
	if !ok {
		return
	}

	items, err := h.deps.Alerts.List(ctx.Request.Context(), p.User.ID, recentAlertsLimit)
	if err != nil {
		RespondInternal(ctx, "Failed to load alerts", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// Stats is the researcher dashboard summary.
func (h *ResearcherHandler) Stats(ctx *gin.Context) {
	p, profile, ok := h.researcher(ctx)
	if !ok {
		return
	}

	rctx := ctx.Request.Context()

	watched, err := h.deps.Watchlist.Count(rctx, p.User.ID)
	if err != nil {
		RespondInternal(ctx, "Failed to load stats", err)
		return
	}
	notes, err := h.deps.Notes.Count(rctx, profile.ID)
	if err != nil {
		RespondInternal(ctx, "Failed to load stats", err)
		return
	}
	active, err := h.deps.Sessions.CountActive(rctx, p.User.ID, h.now())
	if err != nil {
		RespondInternal(ctx, "Failed to load stats", err)
		return
	}
	unread, err := h.deps.Alerts.CountUnread(rctx, p.User.ID)
	if err != nil {
		RespondInternal(ctx, "Failed to load stats", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"watchlistCount": watched,
		"notesCount":     notes,
		"activeSessions": active,
		"unreadAlerts":   unread,
	})
}

// ValidateAPIKey probes the feed with a caller-supplied key.
func (h *ResearcherHandler) ValidateAPIKey(ctx *gin.Context) {
	if _, _, ok := h.researcher(ctx); !ok {
		return
	}

	var req APIKeyRequest
	if !BindJSON(ctx, &req) {
		return
	}

	valid, err := h.deps.Feed.ValidateKey(ctx.Request.Context(), strings.TrimSpace(req.APIKey))
	if err != nil {
		RespondUpstream(ctx, "Could not validate API key", err)
		return
	}
	if !valid {
		RespondError(ctx, http.StatusBadRequest, "invalid_api_key", "API key is invalid", nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"valid": true, "message": "API key is valid"})
}
