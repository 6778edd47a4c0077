package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sitrack/sitrack-gin/internal/auth"
)

var upgrader = gorillaWS.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is served same-origin; cross-origin access is
		// gated by the token check below.
		return true
	},
}

// Handler upgrades an authenticated request to a websocket session.
// Browsers cannot set headers on websocket dials, so the token comes
// from the query string.
func Handler(hub *Hub, issuer *auth.TokenIssuer, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := issuer.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
			return
		}

		client := NewClient(uuid.New().String(), claims.UserID, hub, conn, log)
		hub.Register <- client

		go client.ReadPump()
		go client.WritePump()
	}
}
