package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/expenso-dev/expenso/db"
	"github.com/expenso-dev/expenso/internal/models"
	"github.com/expenso-dev/expenso/internal/notify"
	"github.com/expenso-dev/expenso/internal/types"
	"github.com/expenso-dev/expenso/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// clientMessage is what the browser may send upstream. Only mark_as_read
// is recognized.
type clientMessage struct {
	Event string `json:"event"`
	ID    uint   `json:"id"`
}

type pinger interface {
	Ping(deadline time.Time) error
}

// pingLoop sends keepalive pings until done closes or a ping fails.
func pingLoop(p pinger, period time.Duration, done <-chan struct{}, userID uint) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := p.Ping(time.Now().Add(writeWait)); err != nil {
				log.Printf("Ping failed for user %d: %v", userID, err)
				return
			}
		}
	}
}

// WebSocket upgrades an authenticated handshake and binds the connection to
// the current user on the hub. The socket middleware has already verified
// the session cookie, so reaching this handler means the identity is known.
// All writes (welcome, pings, deliveries) go through one SyncConn; reads
// stay on the raw connection, which only this goroutine touches.
func WebSocket(hub *notify.Hub, publisher *notify.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetCurrentUserID(c)

		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				for _, allowed := range types.AllowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		// Set up connection parameters
		conn.SetReadLimit(maxMessageSize)
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set initial read deadline: %v", err)
			conn.Close()
			return
		}
		conn.SetPongHandler(func(string) error {
			if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				log.Printf("Failed to set read deadline in pong handler: %v", err)
			}
			return nil
		})

		sc := notify.NewSyncConn(conn)

		hub.Bind(sc, userID)

		done := make(chan struct{})

		// Clean up when connection closes
		defer func() {
			close(done)
			hub.Unbind(sc)
			sc.Close()

			log.Printf("WebSocket connection closed for user %d", userID)
		}()

		// Send welcome message
		if err := sc.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("Failed to set write deadline for welcome message: %v", err)
			return
		}

		err = sc.WriteJSON(map[string]string{
			"event":   "connected",
			"message": "Notification channel established",
		})

		if err != nil {
			log.Printf("Failed to send welcome message: %v", err)
			return
		}

		go pingLoop(sc, pingPeriod, done, userID)

		for {
			// Set read deadline for each message
			if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				log.Printf("Failed to set read deadline for user %d: %v", userID, err)
				break
			}

			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error for user %d: %v", userID, err)
				}
				break
			}

			if messageType != websocket.TextMessage {
				continue
			}

			var msg clientMessage

			if err := json.Unmarshal(message, &msg); err != nil {
				log.Printf("Unreadable message from user %d: %v", userID, err)
				continue
			}

			switch msg.Event {
			case "mark_as_read":
				handleMarkAsRead(publisher, userID, msg.ID)
			default:
				log.Printf("Unknown event %q from user %d", msg.Event, userID)
			}
		}
	}
}

func handleMarkAsRead(publisher *notify.Publisher, userID, notificationID uint) {
	var notification models.Notification

	if err := db.DB.First(&notification, "id = ? AND user_id = ?", notificationID, userID).Error; err != nil {
		log.Printf("mark_as_read for unknown notification %d from user %d: %v", notificationID, userID, err)
		return
	}

	if err := publisher.MarkRead(notificationID); err != nil {
		log.Printf("Failed to mark notification %d read: %v", notificationID, err)
	}
}
