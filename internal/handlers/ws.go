package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samasyax/samasyax/internal/logger"
	"github.com/samasyax/samasyax/internal/models"
	"github.com/samasyax/samasyax/internal/policy"
	"github.com/samasyax/samasyax/internal/utils"
)

var (
	projectClients   = make(map[uint]map[*websocket.Conn]bool)
	projectClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// BroadcastIssueEvent notifies every client watching a project that one of
// its issues changed.
func BroadcastIssueEvent(projectID uint, event string, issueID uint, title string) {
	projectClientsMu.RLock()
	clients, exists := projectClients[projectID]
	if !exists || len(clients) == 0 {
		projectClientsMu.RUnlock()
		return
	}

	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	projectClientsMu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			logger.Log.WithError(err).Warn("Failed to set write deadline for broadcast")
			continue
		}

		err := conn.WriteJSON(map[string]interface{}{
			"type":       event,
			"issue_id":   issueID,
			"title":      title,
			"project_id": projectID,
		})

		if err != nil {
			logger.Log.WithError(err).Warn("Failed to broadcast issue event")
			projectClientsMu.Lock()
			if clients, exists := projectClients[projectID]; exists {
				delete(clients, conn)
				if len(clients) == 0 {
					delete(projectClients, projectID)
				}
			}
			projectClientsMu.Unlock()
			conn.Close()
		}
	}
}

// WebSocket subscribes the caller to a project's issue events. The same
// membership gate as issue listing applies before the upgrade.
func WebSocket(c *gin.Context) {
	actor, err := utils.GetActor(c)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetIDParam(c, "project_id")

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Project ID"})
		return
	}

	isMember := false

	if actor.Role != models.RoleAdmin {
		isMember, err = isProjectMember(actor.ID, projectID)

		if err != nil {
			logger.Log.WithError(err).Error("Failed to check project membership")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := policy.CanListProjectIssues(actor, isMember); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this project"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.WithError(err).Warn("Failed to set initial read deadline")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	projectClientsMu.Lock()
	if projectClients[projectID] == nil {
		projectClients[projectID] = make(map[*websocket.Conn]bool)
	}
	projectClients[projectID][conn] = true
	projectClientsMu.Unlock()

	// done releases the ping goroutine; ticker.Stop alone would leave it
	// parked on the channel forever.
	done := make(chan struct{})

	defer func() {
		projectClientsMu.Lock()

		if clients, exists := projectClients[projectID]; exists {
			delete(clients, conn)

			if len(clients) == 0 {
				delete(projectClients, projectID)
			}
		}

		projectClientsMu.Unlock()
		close(done)
		conn.Close()
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	err = conn.WriteJSON(map[string]interface{}{
		"type":       "connected",
		"project_id": projectID,
	})

	if err != nil {
		logger.Log.WithError(err).Warn("Failed to send welcome message")
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.WithError(err).WithField("project_id", projectID).Debug("WebSocket closed")
			}
			break
		}
	}
}
