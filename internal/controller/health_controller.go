package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type HealthController struct {
	RDB *redis.Client
}

func NewHealthController(rdb *redis.Client) *HealthController {
	return &HealthController{RDB: rdb}
}

// Health godoc
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (hc *HealthController) Health(c *gin.Context) {
	if err := hc.RDB.Ping(c.Request.Context()).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "redis": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
