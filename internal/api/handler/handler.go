package handler

import (
	"net/http"
	"time"

	"anonpair/backend/internal/chathub"
	"anonpair/backend/internal/wsgate"

	"github.com/gin-gonic/gin"
)

// StatsSource reports live engine counters.
type StatsSource interface {
	Snapshot() chathub.Stats
}

// Handler serves the HTTP surface: health, stats, anonymous tokens and the
// WebSocket upgrade.
type Handler struct {
	Stats     StatsSource
	WS        *wsgate.Hub
	JWTSecret []byte
	TokenTTL  time.Duration
	Issuer    string
}

func NewHandler(stats StatsSource, ws *wsgate.Hub, secret string, ttl time.Duration, issuer string) *Handler {
	return &Handler{Stats: stats, WS: ws, JWTSecret: []byte(secret), TokenTTL: ttl, Issuer: issuer}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.Health)
	r.GET("/stats", h.GetStats)
	r.GET("/anonid", h.GetAnonID)  // JWT for a fresh anonymous identity
	r.GET("/ws", h.ServeWebSocket) // WebSocket upgrade
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Stats.Snapshot())
}
