package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/umairdev1/project-management-tool/internal/auth"
	"github.com/umairdev1/project-management-tool/internal/models"
	"github.com/umairdev1/project-management-tool/internal/service"
	"github.com/umairdev1/project-management-tool/internal/ws"
)

type roomDTO struct {
	models.ChatRoom
	Online int `json:"online"`
}

func (h *Handler) room(r models.ChatRoom) roomDTO {
	return roomDTO{ChatRoom: r, Online: h.hub.Online(ws.RoomKey(r.ID))}
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req struct {
		Name        string          `json:"name" binding:"max=200"`
		Description string          `json:"description"`
		Type        models.RoomType `json:"type" binding:"required,roomtype"`
		ProjectID   string          `json:"project_id"`
		MemberIDs   []string        `json:"member_ids"`
		IsPrivate   bool            `json:"is_private"`
	}
	if !bind(c, &req) {
		return
	}
	r, err := h.chat.CreateRoom(c.Request.Context(), actor(c), service.RoomInput(req))
	if err != nil {
		respondError(c, "create room", err)
		return
	}
	c.JSON(http.StatusCreated, h.room(*r))
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.chat.ListRooms(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, "list rooms", err)
		return
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, h.room(r))
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

func (h *Handler) GetRoom(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := h.chat.GetRoom(ctx, actor(c), c.Param("id"))
	if err != nil {
		respondError(c, "get room", err)
		return
	}
	members, err := h.chat.Members(ctx, r.ID)
	if err != nil {
		respondError(c, "get room", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": h.room(*r), "member_ids": members})
}

func (h *Handler) AddRoomMember(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.chat.AddMember(c.Request.Context(), actor(c), c.Param("id"), req.UserID); err != nil {
		respondError(c, "add room member", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveRoomMember(c *gin.Context) {
	if err := h.chat.RemoveMember(c.Request.Context(), actor(c), c.Param("id"), c.Param("userId")); err != nil {
		respondError(c, "remove room member", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.chat.ListMessages(c.Request.Context(), actor(c), c.Param("id"), queryInt(c, "limit"), c.Query("before"))
	if err != nil {
		respondError(c, "list messages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage is the REST twin of the websocket send_message event.
func (h *Handler) SendMessage(c *gin.Context) {
	var req struct {
		Content   string             `json:"content" binding:"max=10000"`
		Type      models.MessageType `json:"type" binding:"messagetype"`
		ReplyToID string             `json:"reply_to_id"`
		TaskID    string             `json:"task_id"`
		FileURL   string             `json:"file_url"`
		FileName  string             `json:"file_name"`
		FileSize  int64              `json:"file_size" binding:"min=0"`
		MimeType  string             `json:"mime_type"`
		Mentions  []string           `json:"mentions"`
	}
	if !bind(c, &req) {
		return
	}
	msg, err := h.chat.Send(c.Request.Context(), actor(c), c.Param("id"), service.MessageInput(req))
	if err != nil {
		respondError(c, "send message", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) EditMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,max=10000"`
	}
	if !bind(c, &req) {
		return
	}
	msg, err := h.chat.Edit(c.Request.Context(), actor(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, "edit message", err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	if err := h.chat.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, "delete message", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ReadMessage(c *gin.Context) {
	msg, err := h.chat.MarkRead(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, "read message", err)
		return
	}
	c.JSON(http.StatusOK, msg)
}
