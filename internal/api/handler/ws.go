package handler

import (
	"net/http"
	"strings"

	"anonpair/backend/internal/wsgate"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from any origin; the JWT is the credential.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter browsers must use for WebSocket upgrades.
func bearerToken(c *gin.Context) string {
	if tok, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return tok
	}
	return c.Query("token")
}

// ServeWebSocket upgrades an authenticated request and attaches the client to the hub.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}

	anonID, err := h.validateAndGetAnonID(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}

	wsgate.NewClient(h.WS, anonID, conn).Run()
}
