package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
	"github.com/jrjohn/arcana-commerce-go/internal/testutil/mocks"
)

type authFixture struct {
	router   *gin.Engine
	users    *mocks.MockUserDAO
	provider *security.JWTProvider
}

func newAuthFixture(t *testing.T, duration time.Duration) *authFixture {
	t.Helper()
	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", Duration: duration, Issuer: "arcana", Audience: "auth"},
	}
	provider := security.NewJWTProvider(&cfg.JWT)
	securityService := security.NewSecurityService(provider, cfg)
	users := mocks.NewMockUserDAO()
	auth := NewAuthMiddleware(securityService, users, zap.NewNop())

	r := newTestRouter()
	r.GET("/public", auth.Unauthenticated(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/me", auth.Authenticate(), func(c *gin.Context) {
		c.String(http.StatusOK, securityService.GetCurrentUser(c).Email)
	})
	r.GET("/staff", auth.Staff(), func(c *gin.Context) { c.Status(http.StatusOK) })

	return &authFixture{router: r, users: users, provider: provider}
}

func (f *authFixture) token(t *testing.T, u *entity.User) string {
	t.Helper()
	token, err := f.provider.GenerateToken(u)
	require.NoError(t, err)
	return token
}

func (f *authFixture) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(f.router, req)
}

func assertUnauthorized(t *testing.T, w *httptest.ResponseRecorder, message string) {
	t.Helper()
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decode(t, w)
	assert.Equal(t, "fail", env.Status)
	assert.Equal(t, message, env.Data["message"])
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t, time.Hour)
	user := f.users.AddUser(&entity.User{Email: "jane@example.com", Role: entity.RoleUser})

	t.Run("no token", func(t *testing.T) {
		assertUnauthorized(t, f.get("/me", ""), MsgNoToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		assertUnauthorized(t, f.get("/me", "not-a-jwt"), MsgInvalidToken)
	})

	t.Run("valid token", func(t *testing.T) {
		w := f.get("/me", f.token(t, user))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "jane@example.com", w.Body.String())
	})

	t.Run("token in cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: "Bearer " + f.token(t, user)})
		w := serve(f.router, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost := &entity.User{ID: "65f0000000000000000000ff", Role: entity.RoleUser}
		assertUnauthorized(t, f.get("/me", f.token(t, ghost)), MsgUserGone)
	})

	t.Run("insufficient role", func(t *testing.T) {
		w := f.get("/staff", f.token(t, user))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, MsgInsufficientRole, decode(t, w).Data["message"])
	})

	t.Run("staff role", func(t *testing.T) {
		manager := f.users.AddUser(&entity.User{Email: "m@example.com", Role: entity.RoleManager})
		w := f.get("/staff", f.token(t, manager))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthenticate_PasswordChangedAfterIssue(t *testing.T) {
	f := newAuthFixture(t, time.Hour)
	user := f.users.AddUser(&entity.User{Email: "jane@example.com", Role: entity.RoleUser})
	token := f.token(t, user)

	changed := time.Now().Add(5 * time.Second)
	user.PasswordChangedAt = &changed

	assertUnauthorized(t, f.get("/me", token), MsgPasswordChanged)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t, -time.Minute)
	user := f.users.AddUser(&entity.User{Email: "jane@example.com", Role: entity.RoleUser})

	assertUnauthorized(t, f.get("/me", f.token(t, user)), MsgExpiredToken)
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	f := newAuthFixture(t, time.Hour)
	user := f.users.AddUser(&entity.User{Email: "jane@example.com", Role: entity.RoleUser})
	f.users.FindByIDErr = assert.AnError

	w := f.get("/me", f.token(t, user))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", decode(t, w).Status)
}

func TestUnauthenticated(t *testing.T) {
	f := newAuthFixture(t, time.Hour)

	w := f.get("/public", "")
	assert.Equal(t, http.StatusOK, w.Code)

	assertUnauthorized(t, f.get("/public", "anything"), MsgMustBeUnauthenticated)
}
