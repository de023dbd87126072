package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partner-portal-service/internal/middleware"
	"partner-portal-service/internal/models"
	"partner-portal-service/internal/services"
)

type fakeAdminStore struct {
	admins map[string]*models.Admin
}

func (f *fakeAdminStore) GetByEmail(email string) (*models.Admin, error) {
	admin, ok := f.admins[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return admin, nil
}

func (f *fakeAdminStore) GetByID(adminID int64) (*models.Admin, error) {
	for _, admin := range f.admins {
		if admin.ID == adminID {
			return admin, nil
		}
	}
	return nil, models.ErrNotFound
}

type fakeAuthPartnerStore struct {
	partners map[string]*models.Partner
}

func (f *fakeAuthPartnerStore) GetByMobile(mobile string) (*models.Partner, error) {
	partner, ok := f.partners[mobile]
	if !ok {
		return nil, models.ErrNotFound
	}
	return partner, nil
}

func (f *fakeAuthPartnerStore) GetByID(partnerID int64) (*models.Partner, error) {
	for _, partner := range f.partners {
		if partner.ID == partnerID {
			return partner, nil
		}
	}
	return nil, models.ErrNotFound
}

type fakeSessionStore struct {
	active map[string]bool
}

func (f *fakeSessionStore) RecordLogin(userType string, userID int64, ipAddress, userAgent, tokenID string) error {
	f.active[tokenID] = true
	return nil
}

func (f *fakeSessionStore) Deactivate(tokenID string) error {
	if _, ok := f.active[tokenID]; ok {
		f.active[tokenID] = false
	}
	return nil
}

func (f *fakeSessionStore) IsActive(tokenID string) (bool, error) {
	return f.active[tokenID], nil
}

func (f *fakeSessionStore) ListForUser(userType string, userID int64, limit int) ([]models.LoginSession, error) {
	var out []models.LoginSession
	for tokenID, active := range f.active {
		out = append(out, models.LoginSession{
			UserType: userType,
			UserID:   userID,
			TokenID:  tokenID,
			IsActive: active,
		})
	}
	return out, nil
}

type authTestEnv struct {
	router      *gin.Engine
	partners    *fakeAuthPartnerStore
	adminHits   int
	partnerHits int
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	passwords := services.NewPasswordService()
	adminHash, err := passwords.HashPassword("admin-pass-1")
	require.NoError(t, err)
	partnerHash, err := passwords.HashPassword("partner-pass-1")
	require.NoError(t, err)

	admins := &fakeAdminStore{admins: map[string]*models.Admin{
		"admin@portal.test": {ID: 1, Email: "admin@portal.test", PasswordHash: adminHash, Name: "Admin", IsActive: true},
		"gone@portal.test":  {ID: 2, Email: "gone@portal.test", PasswordHash: adminHash, Name: "Gone", IsActive: false},
	}}
	partners := &fakeAuthPartnerStore{partners: map[string]*models.Partner{
		"9876543210": {ID: 10, Name: "Asha", Mobile: "9876543210", PasswordHash: partnerHash, Status: models.PartnerStatusActive},
	}}
	sessions := &fakeSessionStore{active: make(map[string]bool)}

	jwtService := services.NewJWTService("test-access-secret", "test-refresh-secret", 15, 7)
	authService := services.NewAuthService(admins, partners, sessions, jwtService, passwords)
	authHandlers := NewAuthHandlers(authService)
	authMw := middleware.NewAuthMiddleware(authService)

	router := gin.New()
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/admin/login", authHandlers.AdminLogin)
		auth.POST("/partner/login", authHandlers.PartnerLogin)
		auth.POST("/refresh", authHandlers.RefreshToken)
	}
	authed := router.Group("/api/v1/auth")
	authed.Use(authMw.AuthRequired())
	{
		authed.POST("/logout", authHandlers.Logout)
		authed.GET("/me", authHandlers.Me)
	}

	env := &authTestEnv{router: router, partners: partners}

	// Role-gated routes record whether the endpoint body actually ran, so
	// the tests can prove a rejected request has no side effects.
	admin := router.Group("/api/v1/admin")
	admin.Use(authMw.AdminOnly())
	admin.GET("/partners", func(c *gin.Context) {
		env.adminHits++
		c.JSON(http.StatusOK, gin.H{"partners": []models.Partner{}})
	})
	partner := router.Group("/api/v1/partner")
	partner.Use(authMw.PartnerOnly())
	partner.GET("/dashboard", func(c *gin.Context) {
		env.partnerHits++
		c.JSON(http.StatusOK, gin.H{})
	})

	return env
}

func newAuthTestRouter(t *testing.T) *gin.Engine {
	return newAuthTestEnv(t).router
}

func loginToken(t *testing.T, router *gin.Engine, path string, body gin.H) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, path, body, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	token, _ := resp["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func doJSON(router *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAdminLoginEndpoint(t *testing.T) {
	router := newAuthTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/auth/admin/login", gin.H{
		"email": "admin@portal.test", "password": "admin-pass-1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.UserTypeAdmin, resp["role"])
	assert.NotEmpty(t, resp["access_token"])
	assert.NotEmpty(t, resp["refresh_token"])
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "admin@portal.test", user["email"])
	assert.Nil(t, user["password_hash"], "password hash must never be serialized")
}

func TestAdminLoginRejections(t *testing.T) {
	router := newAuthTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/auth/admin/login", gin.H{
		"email": "admin@portal.test", "password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/auth/admin/login", gin.H{
		"email": "nobody@portal.test", "password": "admin-pass-1",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/auth/admin/login", gin.H{
		"email": "gone@portal.test", "password": "admin-pass-1",
	}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Missing password fails validation
	w = doJSON(router, http.MethodPost, "/api/v1/auth/admin/login", gin.H{
		"email": "admin@portal.test",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartnerLoginEndpoint(t *testing.T) {
	router := newAuthTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/auth/partner/login", gin.H{
		"mobile": "9876543210", "password": "partner-pass-1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.UserTypePartner, resp["role"])

	w = doJSON(router, http.MethodPost, "/api/v1/auth/partner/login", gin.H{
		"mobile": "0000000000", "password": "partner-pass-1",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	router := newAuthTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/auth/admin/login", gin.H{
		"email": "admin@portal.test", "password": "admin-pass-1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var login map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	token := login["access_token"].(string)

	w = doJSON(router, http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/auth/logout", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	// The ledger entry is deactivated, so the same token no longer works
	w = doJSON(router, http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	router := newAuthTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/auth/partner/login", gin.H{
		"mobile": "9876543210", "password": "partner-pass-1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var login map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = doJSON(router, http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": login["refresh_token"],
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var refreshed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	token := refreshed["access_token"].(string)
	require.NotEmpty(t, token)

	// The refreshed token is ledgered and usable immediately
	w = doJSON(router, http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	// An access token cannot be used as a refresh token
	w = doJSON(router, http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": token,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGatesRejectCrossRoleAccess(t *testing.T) {
	env := newAuthTestEnv(t)

	adminToken := loginToken(t, env.router, "/api/v1/auth/admin/login", gin.H{
		"email": "admin@portal.test", "password": "admin-pass-1",
	})
	partnerToken := loginToken(t, env.router, "/api/v1/auth/partner/login", gin.H{
		"mobile": "9876543210", "password": "partner-pass-1",
	})

	// A partner token on an admin route is rejected before the endpoint runs
	w := doJSON(env.router, http.MethodGet, "/api/v1/admin/partners", nil, partnerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, env.adminHits, "admin endpoint must not run for a partner token")

	w = doJSON(env.router, http.MethodGet, "/api/v1/partner/dashboard", nil, adminToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, env.partnerHits, "partner endpoint must not run for an admin token")

	// Matching roles still pass
	w = doJSON(env.router, http.MethodGet, "/api/v1/admin/partners", nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.adminHits)

	w = doJSON(env.router, http.MethodGet, "/api/v1/partner/dashboard", nil, partnerToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.partnerHits)

	// No token at all is a 401, not a 403
	w = doJSON(env.router, http.MethodGet, "/api/v1/admin/partners", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1, env.adminHits)
}

func TestDeletedPartnerLosesAccess(t *testing.T) {
	env := newAuthTestEnv(t)

	token := loginToken(t, env.router, "/api/v1/auth/partner/login", gin.H{
		"mobile": "9876543210", "password": "partner-pass-1",
	})

	w := doJSON(env.router, http.MethodGet, "/api/v1/partner/dashboard", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	env.partners.partners["9876543210"].IsDeleted = true

	// The live token stops working on the next request
	hits := env.partnerHits
	w = doJSON(env.router, http.MethodGet, "/api/v1/partner/dashboard", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, hits, env.partnerHits, "deleted partner must not reach the endpoint")

	// And a fresh login is refused even with the right password
	w = doJSON(env.router, http.MethodPost, "/api/v1/auth/partner/login", gin.H{
		"mobile": "9876543210", "password": "partner-pass-1",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
