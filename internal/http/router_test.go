package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/staroracle/internal/auth"
	"github.com/geocoder89/staroracle/internal/db"
	"github.com/geocoder89/staroracle/internal/domain/neo"
	"github.com/geocoder89/staroracle/internal/http/handlers"
	"github.com/geocoder89/staroracle/internal/neofeed"
	"github.com/geocoder89/staroracle/internal/observability"
	"github.com/geocoder89/staroracle/internal/repo/memory"
	"github.com/geocoder89/staroracle/internal/sweeper"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Passw0rdOK"

type fakeFeed struct {
	feed neo.Feed
	rows []neofeed.ExportRow
	err  error
}

func (f *fakeFeed) Feed(_ context.Context, dates neo.DateRange) (neo.Feed, error) {
	if f.err != nil {
		return neo.Feed{}, f.err
	}
	out := f.feed
	out.DateRange = dates
	return out, nil
}

func (f *fakeFeed) Export(_ context.Context, _ neo.DateRange) ([]neofeed.ExportRow, error) {
	return f.rows, f.err
}

func (f *fakeFeed) ValidateKey(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return key == "good-key", nil
}

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
	feed   *fakeFeed
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	tokens := auth.NewManager("router-test-secret", time.Hour)
	sessions := auth.NewSessionStore(store.Sessions(), tokens)
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	feed := &fakeFeed{}

	engine := NewRouter(Deps{
		Env:      "test",
		Prom:     prom,
		Gatherer: reg,
		Resolver: auth.NewAuthenticator(tokens, sessions, store.Users()),
		Auth: handlers.AuthHandlerDeps{
			Accounts:   store.Accounts(),
			Users:      store.Users(),
			Tokens:     tokens,
			Sessions:   sessions,
			SessionTTL: time.Hour,
		},
		Feed:      feed,
		Watchlist: store.Watchlist(),
		Settings:  store.Preferences(),
		Researcher: handlers.ResearcherHandlerDeps{
			Profiles:  store.Users(),
			Notes:     store.Notes(),
			Sessions:  store.Sessions(),
			Watchlist: store.Watchlist(),
			Alerts:    store.Alerts(),
			Feed:      feed,
		},
		Sweeper:        sweeper.New(sweeper.Config{}, sessions, nil, prom),
		LoginRateLimit: 100,
	})

	return &testServer{engine: engine, store: store, feed: feed}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, w.Body.String())
	code, _ := e["code"].(string)
	return code
}

func (s *testServer) register(t *testing.T, email, role, researchID string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name":        "Test User",
		"email":       email,
		"password":    testPassword,
		"role":        role,
		"research_id": researchID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["accessToken"].(string)
	require.NotEmpty(t, token)
	return token
}

func (s *testServer) researcherLogin(t *testing.T, email, researchID string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/login/researcher", "", gin.H{
		"email": email, "password": testPassword, "research_id": researchID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["accessToken"].(string)
	return token
}

func TestAuthFlow_RegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Vera Rubin", "email": "Vera@Example.com", "password": testPassword, "role": "observer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	link, _ := decode(t, w)["verificationLink"].(string)
	assert.True(t, strings.HasPrefix(link, "/auth/verify-email?token="))

	before := s.store.Counts()

	w = s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Someone Else", "email": "vera@example.com", "password": testPassword, "role": "observer",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email_taken", errorCode(t, w))
	assert.Equal(t, before, s.store.Counts())

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "vera@example.com", "password": "Wrong0pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, w))

	token := s.login(t, "vera@example.com")

	w = s.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "vera@example.com", me["email"])
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = s.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out successfully", decode(t, w)["message"])

	// still signed and unexpired, but the session is gone
	w = s.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Session already ended", decode(t, w)["message"])
}

func TestLogout_Errors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/auth/logout", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_ValidationAndPasswordPolicy(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": "V", "email": "nope", "password": "x", "role": "pilot",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errorCode(t, w))

	w = s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Vera", "email": "v@example.com", "password": "alllowercase1", "role": "observer",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "uppercase")
	assert.Equal(t, 0, s.store.Counts().Users)
}

func TestRegister_DuplicateResearchIDWritesNothing(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "first@example.com", "researcher", "RSR-SHARED")

	before := s.store.Counts()

	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Second", "email": "second@example.com", "password": testPassword,
		"role": "researcher", "research_id": "RSR-SHARED",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "research_id_taken", errorCode(t, w))
	assert.Equal(t, before, s.store.Counts())
	assert.Equal(t, 1, before.Researchers)
	assert.Equal(t, 1, before.Preferences)
}

func TestResearcherLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "obs@example.com", "observer", "")
	s.register(t, "res@example.com", "researcher", "RSR-0001")

	w := s.do(t, http.MethodPost, "/auth/login/researcher", "", gin.H{
		"email": "obs@example.com", "password": testPassword, "research_id": "RSR-0001",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "not_researcher", errorCode(t, w))

	w = s.do(t, http.MethodPost, "/auth/login/researcher", "", gin.H{
		"email": "res@example.com", "password": testPassword, "research_id": "RSR-9999",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_research_id", errorCode(t, w))

	w = s.do(t, http.MethodPost, "/auth/login/researcher", "", gin.H{
		"email": "res@example.com", "password": testPassword, "research_id": "RSR-0001",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	researcher, ok := body["researcher"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "RSR-0001", researcher["researchId"])
}

func TestAccessPolicy(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "obs@example.com", "observer", "")
	s.register(t, "res@example.com", "researcher", "RSR-0002")

	_, err := db.EnsureAdminUser(context.Background(), s.store.Users(), s.store.Accounts(), db.AdminSeed{
		Email: "admin@example.com", Password: testPassword, Name: "Admin",
	})
	require.NoError(t, err)

	observer := s.login(t, "obs@example.com")
	researcher := s.researcherLogin(t, "res@example.com", "RSR-0002")
	admin := s.login(t, "admin@example.com")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/researcher/profile", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/researcher/profile", observer, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/researcher/profile", researcher, nil).Code)
	// admin passes the gate but has no profile
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/researcher/profile", admin, nil).Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/admin/sessions/sweep", researcher, nil).Code)

	w := s.do(t, http.MethodPost, "/admin/sessions/sweep", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["swept"])
}

func TestVerifyEmail(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Vera", "email": "v@example.com", "password": testPassword, "role": "observer",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	link := decode(t, w)["verificationLink"].(string)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/auth/verify-email", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/auth/verify-email?token=deadbeef", "", nil).Code)

	w = s.do(t, http.MethodGet, link, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Email verified successfully", decode(t, w)["message"])

	u, err := s.store.Users().GetByEmail(context.Background(), "v@example.com")
	require.NoError(t, err)
	assert.True(t, u.Verified)

	// the token is single use
	token := strings.TrimPrefix(link, "/auth/verify-email?token=")
	w = s.do(t, http.MethodPost, "/auth/verify-email", "", gin.H{"token": token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangePassword_RevokesEverySession(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "v@example.com", "observer", "")

	first := s.login(t, "v@example.com")
	second := s.login(t, "v@example.com")

	w := s.do(t, http.MethodPut, "/auth/password", first, gin.H{
		"current_password": "Wr0ngWrong", "new_password": "N3wPassword",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "incorrect_password", errorCode(t, w))

	w = s.do(t, http.MethodPut, "/auth/password", first, gin.H{
		"current_password": testPassword, "new_password": "N3wPassword",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decode(t, w)["revoked"])

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/auth/me", first, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/auth/me", second, nil).Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "v@example.com", "password": "N3wPassword"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogoutAll(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "v@example.com", "observer", "")

	a := s.login(t, "v@example.com")
	b := s.login(t, "v@example.com")

	w := s.do(t, http.MethodPost, "/auth/logout-all", a, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["revoked"])
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/auth/me", b, nil).Code)
}

func TestAsteroids(t *testing.T) {
	s := newTestServer(t)
	s.feed.feed = neo.Feed{
		Stats:     neo.Stats{TotalCount: 1},
		Asteroids: []neo.Asteroid{{ID: "3000001", Name: "(2026 AA)", RiskScore: 55}},
	}

	w := s.do(t, http.MethodGet, "/asteroids?start_date=2026-13-01", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/asteroids?start_date=2026-01-01&end_date=2026-01-02", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	body := decode(t, w)
	assert.Equal(t, map[string]any{"start": "2026-01-01", "end": "2026-01-02"}, body["date_range"])

	req := httptest.NewRequest(http.MethodGet, "/asteroids?start_date=2026-01-01&end_date=2026-01-02", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	s.feed.err = neofeed.ErrUpstream
	w = s.do(t, http.MethodGet, "/asteroids", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "upstream_error", errorCode(t, w))
}

func TestWatchlist_UpsertByAsteroid(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "v@example.com", "observer", "")
	token := s.login(t, "v@example.com")

	for _, notes := range []string{"first", "second"} {
		w := s.do(t, http.MethodPost, "/watchlist", token, gin.H{
			"asteroid_id": "3000001", "asteroid_name": "(2026 AA)", "notes": notes,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/watchlist", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["count"])
	item := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "second", item["notes"])

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/watchlist/3000001", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/watchlist/3000001", token, nil).Code)
}

func TestBlankKeysAreRejectedBeforeWriting(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "res@example.com", "researcher", "RSR-0009")
	token := s.researcherLogin(t, "res@example.com", "RSR-0009")

	writes := []struct {
		path string
		body gin.H
	}{
		{"/watchlist", gin.H{"asteroid_id": "   ", "asteroid_name": "   "}},
		{"/watchlist", gin.H{"asteroid_id": "3000001", "asteroid_name": "\t"}},
		{"/researcher/watchlist", gin.H{"asteroid_id": " ", "asteroid_name": "(2026 AA)"}},
		{"/researcher/notes", gin.H{"asteroid_id": "  ", "title": "Orbit", "content": "c"}},
		{"/researcher/notes", gin.H{"asteroid_id": "3000001", "title": "   ", "content": "c"}},
	}
	for _, tc := range writes {
		w := s.do(t, http.MethodPost, tc.path, token, tc.body)
		require.Equal(t, http.StatusBadRequest, w.Code, "%s %v: %s", tc.path, tc.body, w.Body.String())
		assert.Equal(t, "invalid_request", errorCode(t, w))
	}

	assert.EqualValues(t, 0, decode(t, s.do(t, http.MethodGet, "/watchlist", token, nil))["count"])
	assert.EqualValues(t, 0, decode(t, s.do(t, http.MethodGet, "/researcher/notes", token, nil))["count"])
}

func TestSettings_DefaultsAndUpdate(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "v@example.com", "observer", "")
	token := s.login(t, "v@example.com")

	w := s.do(t, http.MethodGet, "/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	prefs := decode(t, w)["preferences"].(map[string]any)
	assert.Equal(t, true, prefs["emailAlerts"])
	assert.Equal(t, false, prefs["smsAlerts"])
	assert.Equal(t, true, prefs["pushNotifications"])

	w = s.do(t, http.MethodPut, "/settings", token, gin.H{"sms_alerts": true, "email_alerts": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prefs = decode(t, w)["preferences"].(map[string]any)
	assert.Equal(t, false, prefs["emailAlerts"])
	assert.Equal(t, true, prefs["smsAlerts"])
	assert.Equal(t, true, prefs["pushNotifications"])
}

func TestResearcherNotes(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "res@example.com", "researcher", "RSR-0003")
	token := s.researcherLogin(t, "res@example.com", "RSR-0003")

	w := s.do(t, http.MethodPost, "/researcher/notes", token, gin.H{
		"asteroid_id": "3000001", "title": "Orbit", "content": "Looks stable", "risk_override": 20,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["note"].(map[string]any)
	id := created["id"].(string)

	w = s.do(t, http.MethodPost, "/researcher/notes", token, gin.H{
		"note_id": id, "asteroid_id": "3000001", "title": "Orbit", "content": "Revised",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Revised", decode(t, w)["note"].(map[string]any)["content"])

	w = s.do(t, http.MethodPost, "/researcher/notes", token, gin.H{
		"asteroid_id": "3000002", "title": "Other", "content": "x",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/researcher/notes?asteroid_id=3000001", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = s.do(t, http.MethodGet, "/researcher/notes", token, nil)
	assert.EqualValues(t, 2, decode(t, w)["count"])

	w = s.do(t, http.MethodPost, "/researcher/notes", token, gin.H{"asteroid_id": "1", "title": "t", "content": "c", "risk_override": 101})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/researcher/notes/abc", token, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/researcher/notes/"+id, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/researcher/notes/"+id, token, nil).Code)

	w = s.do(t, http.MethodGet, "/researcher/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.EqualValues(t, 1, stats["notesCount"])
	assert.EqualValues(t, 1, stats["activeSessions"])
	assert.EqualValues(t, 0, stats["watchlistCount"])
}

func TestResearcherExportCSV(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "res@example.com", "researcher", "RSR-0004")
	token := s.researcherLogin(t, "res@example.com", "RSR-0004")

	s.feed.rows = []neofeed.ExportRow{{ID: "3000001", Name: "(2026 AA)", IsHazardous: "Yes"}}

	w := s.do(t, http.MethodGet, "/researcher/export?format=csv&start_date=2026-01-01&end_date=2026-01-02", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="asteroid_data_2026-01-01_2026-01-02.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "id,name,is_hazardous"))
	assert.Contains(t, w.Body.String(), "3000001,(2026 AA),Yes")

	w = s.do(t, http.MethodGet, "/researcher/export?format=xml", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/researcher/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])
}

func TestResearcherAPIKey(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "res@example.com", "researcher", "RSR-0005")
	token := s.researcherLogin(t, "res@example.com", "RSR-0005")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/researcher/apikey", token, gin.H{"api_key": "good-key"}).Code)

	w := s.do(t, http.MethodPost, "/researcher/apikey", token, gin.H{"api_key": "bad-key"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_api_key", errorCode(t, w))

	s.feed.err = neofeed.ErrUpstream
	w = s.do(t, http.MethodPost, "/researcher/apikey", token, gin.H{"api_key": "good-key"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResearcherSessions_MarksCurrent(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "res@example.com", "researcher", "RSR-0006")
	_ = s.login(t, "res@example.com")
	token := s.researcherLogin(t, "res@example.com", "RSR-0006")

	w := s.do(t, http.MethodGet, "/researcher/sessions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["count"])

	current := 0
	for _, it := range body["items"].([]any) {
		if it.(map[string]any)["current"] == true {
			current++
		}
	}
	assert.Equal(t, 1, current)
}

func TestCORSPreflightAndHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Body.String())

	w = s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "staroracle_")
}

func TestWrites_RequireJSONContentType(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}
