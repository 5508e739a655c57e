package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/staroracle/internal/auth"
	"github.com/geocoder89/staroracle/internal/domain/session"
	"github.com/geocoder89/staroracle/internal/domain/user"
	"github.com/geocoder89/staroracle/internal/http/middlewares"
	"github.com/geocoder89/staroracle/internal/notifications"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/geocoder89/staroracle/internal/security"
	"github.com/gin-gonic/gin"
)

type AccountRegistrar interface {
	Register(ctx context.Context, reg user.Registration) (user.Registration, error)
}

type AuthUsers interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByVerificationToken(ctx context.Context, token string) (user.User, error)
	MarkVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GetResearcherByUserID(ctx context.Context, userID string) (user.ResearcherProfile, error)
	GetResearcherLogin(ctx context.Context, email string) (user.ResearcherLogin, error)
}

type TokenIssuer interface {
	GenerateAccessToken(u user.User, researcher *user.ResearcherProfile) (string, error)
	Verify(token string) (*auth.Claims, error)
	TTL() time.Duration
}

type SessionManager interface {
	Create(ctx context.Context, userID, token, ip, userAgent string, ttl time.Duration) (session.Session, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

type AuthHandlerDeps struct {
	Accounts   AccountRegistrar
	Users      AuthUsers
	Tokens     TokenIssuer
	Sessions   SessionManager
	Notifier   notifications.Notifier
	Prom       *observability.Prom
	Logger     *slog.Logger
	SessionTTL time.Duration
}

type AuthHandler struct {
	AuthHandlerDeps
}

func NewAuthHandler(deps AuthHandlerDeps) *AuthHandler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = deps.Tokens.TTL()
	}
	return &AuthHandler{AuthHandlerDeps: deps}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ResearcherLoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	ResearchID string `json:"research_id" binding:"required,max=50"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required,max=64"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

type tokenResponse struct {
	AccessToken string                  `json:"accessToken"`
	TokenType   string                  `json:"tokenType"`
	ExpiresIn   int64                   `json:"expiresIn"`
	User        user.User               `json:"user"`
	Researcher  *user.ResearcherProfile `json:"researcher,omitempty"`
}

const verificationTokenBytes = 16

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := security.ValidatePasswordStrength(req.Password); err != nil {
		RespondBadRequest(ctx, "Password does not meet requirements", gin.H{"fields": []FieldError{
			{Field: "password", Rule: "strength", Message: err.Error()},
		}})
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Registration failed. Please try again.", err)
		return
	}

	verificationToken, err := security.RandomToken(verificationTokenBytes)
	if err != nil {
		RespondInternal(ctx, "Registration failed. Please try again.", err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	reg, err := h.Accounts.Register(cctx, user.NewRegistration(req, hash, verificationToken))
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email already registered")
		case errors.Is(err, user.ErrResearchIDTaken):
			RespondConflict(ctx, "research_id_taken", "Research ID already registered")
		default:
			RespondInternal(ctx, "Registration failed. Please try again.", err)
		}
		return
	}

	link := "/auth/verify-email?token=" + verificationToken

	if h.Notifier != nil {
		err := h.Notifier.SendVerification(cctx, notifications.SendVerificationInput{
			Email:            reg.User.Email,
			Name:             reg.User.Name,
			VerificationLink: link,
		})
		if err != nil {
			h.Logger.WarnContext(cctx, "verification_notify_failed", "user_id", reg.User.ID, "err", err)
		}
	}

	body := gin.H{
		"message":          "Registration successful. Please verify your email address.",
		"user":             reg.User,
		"verificationLink": link,
	}
	if reg.Researcher != nil {
		body["researcher"] = reg.Researcher
	}

	ctx.JSON(http.StatusCreated, body)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(cctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.Prom.ObserveLogin("user", "invalid_credentials")
			RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
			return
		}
		h.Prom.ObserveLogin("user", "error")
		RespondInternal(ctx, "Login failed. Please try again.", err)
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		h.Prom.ObserveLogin("user", "invalid_credentials")
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	h.issue(ctx, cctx, "user", u, nil)
}

func (h *AuthHandler) ResearcherLogin(ctx *gin.Context) {
	var req ResearcherLoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	found, err := h.Users.GetResearcherLogin(cctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.Prom.ObserveLogin("researcher", "invalid_credentials")
			RespondUnauthorized(ctx, "not_researcher", "Invalid credentials or account is not a researcher account")
			return
		}
		h.Prom.ObserveLogin("researcher", "error")
		RespondInternal(ctx, "Login failed. Please try again.", err)
		return
	}

	if err := security.CheckPassword(found.User.PasswordHash, req.Password); err != nil {
		h.Prom.ObserveLogin("researcher", "invalid_credentials")
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	if subtle.ConstantTimeCompare([]byte(found.Profile.ResearchID), []byte(strings.TrimSpace(req.ResearchID))) != 1 {
		h.Prom.ObserveLogin("researcher", "invalid_research_id")
		RespondUnauthorized(ctx, "invalid_research_id", "Invalid research ID")
		return
	}

	h.issue(ctx, cctx, "researcher", found.User, &found.Profile)
}

// issue signs a credential and records its session.
func (h *AuthHandler) issue(ctx *gin.Context, cctx context.Context, kind string, u user.User, profile *user.ResearcherProfile) {
	token, err := h.Tokens.GenerateAccessToken(u, profile)
	if err != nil {
		h.Prom.ObserveLogin(kind, "error")
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	if _, err := h.Sessions.Create(cctx, u.ID, token, ctx.ClientIP(), ctx.Request.UserAgent(), h.SessionTTL); err != nil {
		h.Prom.ObserveLogin(kind, "error")
		RespondInternal(ctx, "Could not create session", err)
		return
	}

	h.Prom.ObserveLogin(kind, "ok")

	ctx.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.Tokens.TTL().Seconds()),
		User:        u,
		Researcher:  profile,
	})
}

// Logout ends the session behind the presented token. It does not require a
// live session, so a second call still succeeds.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw, ok := auth.BearerToken(ctx.GetHeader("Authorization"))
	if !ok {
		RespondBadRequest(ctx, "No token provided", nil)
		return
	}

	if _, err := h.Tokens.Verify(raw); err != nil {
		RespondUnauthorized(ctx, "invalid_token", "Invalid or expired token")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	deleted, err := h.Sessions.Delete(cctx, raw)
	if err != nil {
		RespondInternal(ctx, "Could not end session", err)
		return
	}

	msg := "Logged out successfully"
	if !deleted {
		msg = "Session already ended"
	}

	ctx.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *AuthHandler) LogoutAll(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	n, err := h.Sessions.DeleteAll(ctx.Request.Context(), p.User.ID)
	if err != nil {
		RespondInternal(ctx, "Could not end sessions", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "All sessions ended", "revoked": n})
}

// VerifyEmail accepts the token as ?token= on GET or {"token"} on POST.
func (h *AuthHandler) VerifyEmail(ctx *gin.Context) {
	var token string

	if ctx.Request.Method == http.MethodGet {
		token = strings.TrimSpace(ctx.Query("token"))
	} else {
		var req VerifyEmailRequest
		if !BindJSON(ctx, &req) {
			return
		}
		token = strings.TrimSpace(req.Token)
	}

	if token == "" {
		RespondBadRequest(ctx, "Verification token is required", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Users.GetByVerificationToken(cctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondError(ctx, http.StatusBadRequest, "invalid_token", "Invalid or expired verification token", nil)
			return
		}
		RespondInternal(ctx, "Verification failed. Please try again.", err)
		return
	}

	if u.Verified {
		ctx.JSON(http.StatusOK, gin.H{"message": "Email already verified"})
		return
	}

	if err := h.Users.MarkVerified(cctx, u.ID); err != nil {
		RespondInternal(ctx, "Verification failed. Please try again.", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully",
		"user": gin.H{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
		},
	})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	body := gin.H{"user": p.User}

	if p.User.Role == user.RoleResearcher {
		profile, err := h.Users.GetResearcherByUserID(ctx.Request.Context(), p.User.ID)
		switch {
		case err == nil:
			body["researcher"] = profile
		case !errors.Is(err, user.ErrResearcherNotFound):
			RespondInternal(ctx, "Could not load profile", err)
			return
		}
	}

	ctx.JSON(http.StatusOK, body)
}

// ChangePassword also ends every session of the user, including this one.
func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req ChangePasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if err := security.CheckPassword(p.User.PasswordHash, req.CurrentPassword); err != nil {
		RespondError(ctx, http.StatusBadRequest, "incorrect_password", "Current password is incorrect", nil)
		return
	}

	if err := security.ValidatePasswordStrength(req.NewPassword); err != nil {
		RespondBadRequest(ctx, "Password does not meet requirements", gin.H{"fields": []FieldError{
			{Field: "new_password", Rule: "strength", Message: err.Error()},
		}})
		return
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		RespondInternal(ctx, "Could not update password", err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.Users.UpdatePassword(cctx, p.User.ID, hash); err != nil {
		RespondInternal(ctx, "Could not update password", err)
		return
	}

	n, err := h.Sessions.DeleteAll(cctx, p.User.ID)
	if err != nil {
		RespondInternal(ctx, "Password updated but sessions could not be ended", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated", "revoked": n})
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
