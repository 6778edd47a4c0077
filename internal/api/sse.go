package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitrack/sitrack-gin/internal/auth"
	"github.com/sitrack/sitrack-gin/internal/websocket"
)

const sseHeartbeatInterval = 30 * time.Second

// SSEHandler streams one report's change events over server-sent
// events. It piggybacks on the websocket hub: the stream registers as
// a hub client and filters the broadcast down to its report.
func SSEHandler(hub *websocket.Hub, issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := issuer.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		reportID := c.Param("id")
		if reportID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "report id required"})
			c.Abort()
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
			c.Abort()
			return
		}

		// Register as a listen-only hub client so broadcasts reach
		// this stream without a websocket connection.
		client := &websocket.Client{
			ID:     uuid.New().String(),
			UserID: claims.UserID,
			Hub:    hub,
			Send:   make(chan []byte, 256),
		}
		hub.Register <- client
		defer func() { hub.Unregister <- client }()

		initial, _ := json.Marshal(map[string]interface{}{
			"type":      "connected",
			"report_id": reportID,
			"user_id":   claims.UserID,
			"time":      time.Now().Unix(),
		})
		if err := sendSSEMessage(c.Writer, initial); err != nil {
			return
		}
		flusher.Flush()

		heartbeat := time.NewTicker(sseHeartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-c.Request.Context().Done():
				return

			case <-heartbeat.C:
				data, _ := json.Marshal(map[string]interface{}{
					"type":      "heartbeat",
					"report_id": reportID,
					"time":      time.Now().Unix(),
				})
				if err := sendSSEMessage(c.Writer, data); err != nil {
					return
				}
				flusher.Flush()

			case message, ok := <-client.Send:
				if !ok {
					return
				}
				if !messageConcernsReport(message, reportID) {
					continue
				}
				if err := sendSSEMessage(c.Writer, message); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

// messageConcernsReport keeps change events for the given report and
// every non-change broadcast (notifications).
func messageConcernsReport(message []byte, reportID string) bool {
	var envelope struct {
		Table   string `json:"table"`
		Payload struct {
			ID       string `json:"id"`
			ReportID string `json:"reportId"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(message, &envelope); err != nil {
		return false
	}
	if envelope.Table == "" {
		return true
	}
	if envelope.Table == "reports" {
		return envelope.Payload.ID == reportID
	}
	return envelope.Payload.ReportID == reportID
}

func sendSSEMessage(w io.Writer, data []byte) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
