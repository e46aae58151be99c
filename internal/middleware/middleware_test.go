package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/repository/memory"
	"github.com/noah-isme/tasktrack-api/internal/service"
	"github.com/noah-isme/tasktrack-api/pkg/config"
	"github.com/noah-isme/tasktrack-api/pkg/middleware/requestid"
)

type fixture struct {
	authn  *service.Authenticator
	signer *service.TokenSigner
	users  *memory.UserStore
	roles  *memory.RoleStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := service.AuthConfig{
		AccessSecret:       "access",
		AccessTTL:          time.Minute,
		RefreshSecret:      "refresh",
		RefreshTTL:         time.Hour,
		AdminRole:          "admin",
		DefaultRole:        "user",
		MinPasswordLength:  8,
		PermissionSnapshot: config.SnapshotPerRequest,
	}
	users := memory.NewUserStore()
	roles := memory.NewRoleStore()
	require.NoError(t, service.Bootstrap(context.Background(), roles, cfg, nil))

	signer := service.NewTokenSigner(cfg)
	resolver := service.NewPermissionResolver(users, roles, nil, nil, nil, cfg)
	return &fixture{authn: service.NewAuthenticator(signer, resolver, nil, nil), signer: signer, users: users, roles: roles}
}

func (f *fixture) token(t *testing.T, roleName string) (string, *models.User) {
	t.Helper()
	role, err := f.roles.FindByName(context.Background(), roleName)
	require.NoError(t, err)
	user := &models.User{Email: roleName + "@example.com", Active: true, RoleID: &role.ID}
	require.NoError(t, f.users.Create(context.Background(), user))
	issued, err := f.signer.IssueAccess(user.ID)
	require.NoError(t, err)
	return issued.Token, user
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Error.Code
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/secure", Authenticate(f.authn), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secure", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w.Body.Bytes()))
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestAuthenticateStoresPrincipal(t *testing.T) {
	f := newFixture(t)
	token, user := f.token(t, "user")

	r := gin.New()
	r.GET("/secure", Authenticate(f.authn), func(c *gin.Context) {
		p := PrincipalFrom(c)
		require.NotNil(t, p)
		c.JSON(http.StatusOK, gin.H{"id": p.UserID, "actor": c.GetString("actor_id")})
	})

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+user.ID+`","actor":"`+user.ID+`"}`, w.Body.String())
}

func TestAuthenticateInactiveIsForbidden(t *testing.T) {
	f := newFixture(t)
	token, user := f.token(t, "user")
	user.Active = false
	require.NoError(t, f.users.Update(context.Background(), user))

	r := gin.New()
	r.GET("/secure", Authenticate(f.authn), func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("WWW-Authenticate"))
}

func TestRequirePermission(t *testing.T) {
	f := newFixture(t)
	userToken, _ := f.token(t, "user")
	adminToken, _ := f.token(t, "admin")

	r := gin.New()
	r.GET("/audit", Authenticate(f.authn), RequirePermission(models.PrivilegeAuditView), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/open", RequirePermission(models.PrivilegeAuditView), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := map[string]struct {
		path   string
		token  string
		status int
	}{
		"missing permission": {path: "/audit", token: userToken, status: http.StatusForbidden},
		"granted":            {path: "/audit", token: adminToken, status: http.StatusOK},
		"no principal":       {path: "/open", status: http.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestAuditContextExposesRequestMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware(), AuditContext())
	r.GET("/", func(c *gin.Context) {
		meta := service.RequestMetaFrom(c.Request.Context())
		c.JSON(http.StatusOK, meta)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	req.Header.Set("User-Agent", "probe/1.0")
	req.RemoteAddr = "192.0.2.10:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var meta models.RequestMeta
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, "req-42", meta.RequestID)
	assert.Equal(t, "192.0.2.10", meta.IP)
	assert.Equal(t, "probe/1.0", meta.UserAgent)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/records/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/records/1", "/records/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()
	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `http_requests_total{method="GET",path="/records/:id",status="200"} 2`)
	assert.Contains(t, text, `path="unmatched"`)
	assert.False(t, strings.Contains(text, `path="/nope"`))
}
