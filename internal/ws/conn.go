package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/umairdev1/project-management-tool/internal/auth"
	"github.com/umairdev1/project-management-tool/internal/models"
	"github.com/umairdev1/project-management-tool/internal/service"
	"gorm.io/gorm"
)

const (
	sendBuffer = 256
	readLimit  = 1 << 20
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	role   models.UserRole
	// guarded by hub.mu
	rooms map[string]struct{}
}

func NewClient(h *Hub, userID string, role models.UserRole) *Client {
	return &Client{
		hub:    h,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		role:   role,
		rooms:  make(map[string]struct{}),
	}
}

func (c *Client) actor() service.Actor { return service.Actor{UserID: c.userID, Role: c.role} }

// reply queues an event for this connection only.
func (c *Client) reply(event string, data any) {
	b, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

// Deps are the collaborators the gateway authorizes and persists through.
type Deps struct {
	Issuer   *auth.Issuer
	DB       *gorm.DB
	Chat     *service.ChatService
	Projects *service.ProjectService
	// Emit carries typing signals so they cross instances like other events.
	Emit          service.Emitter
	AllowedOrigin string
}

type request struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type payload struct {
	RoomID    string             `json:"room_id"`
	ProjectID string             `json:"project_id"`
	Content   string             `json:"content"`
	Type      models.MessageType `json:"type"`
	ReplyToID string             `json:"reply_to_id"`
	TaskID    string             `json:"task_id"`
	Mentions  []string           `json:"mentions"`
	IsTyping  bool               `json:"is_typing"`
}

var errNotJoined = errors.New("join the room first")

// Serve upgrades GET /chat after validating an access token passed as the
// token query parameter or a bearer header.
func Serve(h *Hub, d Deps) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return d.AllowedOrigin == "" || d.AllowedOrigin == "*" || origin == "" || origin == d.AllowedOrigin
		},
	}
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = auth.BearerToken(c)
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := d.Issuer.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		var user models.User
		if err := d.DB.WithContext(c.Request.Context()).First(&user, "id = ?", claims.Subject).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if user.Status != models.UserActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account is not active"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := NewClient(h, user.ID, user.Role)
		client.conn = conn
		h.Register(client)
		h.Join(client, UserKey(user.ID))
		log.Debug().Str("user_id", user.ID).Msg("websocket connected")

		go client.writePump()
		client.readPump(d)
	}
}

func (c *Client) readPump(d Deps) {
	defer func() {
		c.hub.Disconnect(c)
		_ = c.conn.Close()
		log.Debug().Str("user_id", c.userID).Msg("websocket disconnected")
	}()
	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			c.reply("error", gin.H{"message": "malformed event"})
			continue
		}
		if err := c.handle(context.Background(), d, req); err != nil {
			c.reply("error", gin.H{"event": req.Event, "message": err.Error()})
		}
	}
}

func (c *Client) handle(ctx context.Context, d Deps, req request) error {
	var p payload
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &p); err != nil {
			return errors.New("malformed data")
		}
	}
	switch req.Event {
	case "join_room":
		ok, err := d.Chat.IsMember(ctx, p.RoomID, c.userID)
		if err != nil {
			return err
		}
		if !ok {
			return service.ErrForbidden
		}
		c.hub.Join(c, RoomKey(p.RoomID))
		c.reply("joined_room", gin.H{"room_id": p.RoomID})
	case "leave_room":
		c.hub.Leave(c, RoomKey(p.RoomID))
		c.reply("left_room", gin.H{"room_id": p.RoomID})
	case "join_project":
		if _, err := d.Projects.Authorize(ctx, c.actor(), p.ProjectID, service.AccessView); err != nil {
			return err
		}
		c.hub.Join(c, ProjectKey(p.ProjectID))
		c.reply("joined_project", gin.H{"project_id": p.ProjectID})
	case "leave_project":
		c.hub.Leave(c, ProjectKey(p.ProjectID))
		c.reply("left_project", gin.H{"project_id": p.ProjectID})
	case "send_message":
		if !c.hub.InRoom(c, RoomKey(p.RoomID)) {
			return errNotJoined
		}
		_, err := d.Chat.Send(ctx, c.actor(), p.RoomID, service.MessageInput{
			Content:   p.Content,
			Type:      p.Type,
			ReplyToID: p.ReplyToID,
			TaskID:    p.TaskID,
			Mentions:  p.Mentions,
		})
		return err
	case "typing":
		if !c.hub.InRoom(c, RoomKey(p.RoomID)) {
			return errNotJoined
		}
		d.Emit.EmitToRoom(p.RoomID, "typing", gin.H{"room_id": p.RoomID, "user_id": c.userID, "is_typing": p.IsTyping})
	default:
		return errors.New("unknown event " + strings.TrimSpace(req.Event))
	}
	return nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
