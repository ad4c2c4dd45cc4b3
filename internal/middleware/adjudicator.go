package middleware

import (
	"crypto/subtle"
	"map_survey_backend/internal/config"
	"map_survey_backend/internal/util"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdjudicatorGate protects the reviewer endpoints. Two credentials are
// accepted: the shared passcode via the ?code= query parameter, kept for the
// original reviewer UI, or a bearer token from /adjudication_login.
type AdjudicatorGate struct {
	mu     sync.RWMutex
	adjCfg config.AdjudicationConfig
	secret string
}

func NewAdjudicatorGate(cfg *config.Config) *AdjudicatorGate {
	return &AdjudicatorGate{adjCfg: cfg.Adjudication, secret: cfg.JWT.Secret}
}

// UpdateConfig swaps the credentials, used by config hot reload.
func (g *AdjudicatorGate) UpdateConfig(cfg *config.Config) {
	g.mu.Lock()
	g.adjCfg = cfg.Adjudication
	g.secret = cfg.JWT.Secret
	g.mu.Unlock()
}

// PasscodeValid checks the presented passcode against the configured hash,
// or the plain value when no hash is set.
func (g *AdjudicatorGate) PasscodeValid(code string) bool {
	g.mu.RLock()
	cfg := g.adjCfg
	g.mu.RUnlock()

	if code == "" {
		return false
	}
	if cfg.PasscodeHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.PasscodeHash), []byte(code)) == nil
	}
	if cfg.Passcode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cfg.Passcode), []byte(code)) == 1
}

func (g *AdjudicatorGate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.PasscodeValid(c.Query("code")) {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			g.mu.RLock()
			secret := g.secret
			g.mu.RUnlock()

			claims, err := util.ParseAdjudicatorJWT(strings.TrimPrefix(auth, "Bearer "), secret)
			if err == nil && claims.Role == util.RoleAdjudicator {
				c.Next()
				return
			}
		}

		util.Forbidden(c, "forbidden")
		c.Abort()
	}
}
