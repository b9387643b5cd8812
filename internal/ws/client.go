package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/auth"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must be below pongWait

	// Clients only send control frames.
	maxMessageSize = 512
	sendBuffer     = 256
)

// Client is one subscriber in a branch room. Every message on send is one
// JSON-encoded Event and goes out as its own text frame.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	room string
	send chan []byte
}

// readLoop discards incoming data and leaves the room on disconnect.
func (c *Client) readLoop() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read", zap.String("room", c.room), zap.Error(err))
			}
			return
		}
	}
}

// writeLoop forwards hub events and keeps the connection alive with pings.
// It exits when the hub closes send or a write fails.
func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, data)
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browser origins found in allowed. An empty list or "*"
// accepts every origin.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = true
		}
	}
	return func(r *http.Request) bool {
		origin := strings.ToLower(strings.TrimRight(r.Header.Get("Origin"), "/"))
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// Handler serves WS /ws/branches/{branch}?token=JWT. Browsers cannot set
// headers on the upgrade request, so the token travels in the query.
// Admins may join any branch room, everyone else only their own.
func Handler(hub *Hub, jwtSecret string, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		claims, err := auth.ValidateToken(jwtSecret, tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		branch := strings.TrimSpace(chi.URLParam(r, "branch"))
		if branch == "" {
			http.Error(w, "missing branch", http.StatusBadRequest)
			return
		}
		if claims.Role != enum.RoleAdmin && !strings.EqualFold(claims.Branch, branch) {
			http.Error(w, "branch access denied", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already answered the request.
			hub.log.Warn("websocket upgrade", zap.String("branch", branch), zap.Error(err))
			return
		}

		client := &Client{hub: hub, conn: conn, room: roomKey(branch), send: make(chan []byte, sendBuffer)}
		if !hub.join(client) {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub stopped"))
			conn.Close()
			return
		}
		hub.log.Debug("websocket joined", zap.String("room", client.room), zap.String("staff_id", claims.StaffID.String()))

		go client.writeLoop()
		go client.readLoop()
	}
}
