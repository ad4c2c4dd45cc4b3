package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"map_survey_backend/internal/config"
	"map_survey_backend/internal/util"
)

func newGateRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gate := NewAdjudicatorGate(cfg)

	r := gin.New()
	r.GET("/protected", gate.Handler(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func gateConfig() *config.Config {
	return &config.Config{
		Adjudication: config.AdjudicationConfig{Passcode: "letmein"},
		JWT:          config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	}
}

func TestGateRejectsWithoutCredentials(t *testing.T) {
	r := newGateRouter(t, gateConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, w.Body.String())
}

func TestGateAcceptsPasscode(t *testing.T) {
	r := newGateRouter(t, gateConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?code=letmein", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateRejectsWrongPasscode(t *testing.T) {
	r := newGateRouter(t, gateConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?code=wrong", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGateAcceptsBearerToken(t *testing.T) {
	cfg := gateConfig()
	r := newGateRouter(t, cfg)

	token, err := util.GenerateAdjudicatorJWT(cfg.JWT.Secret, cfg.JWT.ExpireTime)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateRejectsForgedToken(t *testing.T) {
	r := newGateRouter(t, gateConfig())

	token, err := util.GenerateAdjudicatorJWT("other-secret", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGatePrefersHashOverPlainPasscode(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashedpass"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := gateConfig()
	cfg.Adjudication.PasscodeHash = string(hash)
	gate := NewAdjudicatorGate(cfg)

	assert.True(t, gate.PasscodeValid("hashedpass"))
	assert.False(t, gate.PasscodeValid("letmein"), "plain passcode is ignored once a hash is set")
}

func TestGateHotReload(t *testing.T) {
	cfg := gateConfig()
	gate := NewAdjudicatorGate(cfg)
	require.True(t, gate.PasscodeValid("letmein"))

	updated := gateConfig()
	updated.Adjudication.Passcode = "rotated"
	gate.UpdateConfig(updated)

	assert.False(t, gate.PasscodeValid("letmein"))
	assert.True(t, gate.PasscodeValid("rotated"))
}
