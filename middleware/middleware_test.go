package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"finzora/api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTokens map[string]string

func (s stubTokens) Parse(token string) (*models.SessionClaims, error) {
	sub, ok := s[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &models.SessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}, Email: "a@b.com"}, nil
}

func whoami(c *gin.Context) {
	c.String(http.StatusOK, UserID(c))
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthOptional(t *testing.T) {
	r := gin.New()
	r.Use(Auth(stubTokens{"good": "owner"}, false, "default_user"))
	r.GET("/me", whoami)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, "default_user", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	assert.Equal(t, "owner", serve(r, req).Body.String())

	assert.Equal(t, "owner", serve(r, httptest.NewRequest(http.MethodGet, "/me?token=good", nil)).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.Use(Auth(stubTokens{}, true, "default_user"))
	r.GET("/me", whoami)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Missing or invalid token"}`, w.Body.String())
}

func TestCorsPreflight(t *testing.T) {
	r := gin.New()
	r.Use(Cors("http://localhost:3000"))
	r.GET("/x", whoami)

	w := serve(r, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	r = gin.New()
	r.Use(Cors(""))
	r.GET("/x", whoami)
	w = serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRateLimiterPerIP(t *testing.T) {
	r := gin.New()
	r.Use(NewIPRateLimiter(2).Middleware())
	r.POST("/otp", whoami)

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/otp", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
}

func TestInternalKey(t *testing.T) {
	r := gin.New()
	r.GET("/metrics", InternalKey("s3cret"), whoami)

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-API-Key", "s3cret")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	open := gin.New()
	open.GET("/metrics", InternalKey(""), whoami)
	assert.Equal(t, http.StatusOK, serve(open, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, w.Body.String())
}
