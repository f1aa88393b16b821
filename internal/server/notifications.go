package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/umairdev1/project-management-tool/internal/auth"
	"github.com/umairdev1/project-management-tool/internal/service"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	list, err := h.notify.List(c.Request.Context(), auth.GetUserID(c), c.Query("unread") == "true", queryInt(c, "limit"))
	if err != nil {
		respondError(c, "list notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.notify.UnreadCount(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, "unread count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *Handler) ReadNotification(c *gin.Context) {
	n, err := h.notify.MarkRead(c.Request.Context(), c.Param("id"), auth.GetUserID(c))
	if err != nil {
		respondError(c, "read notification", err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) ReadAllNotifications(c *gin.Context) {
	n, err := h.notify.MarkAllRead(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, "read all notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// RegisterFile records metadata for bytes already stored elsewhere.
func (h *Handler) RegisterFile(c *gin.Context) {
	var req struct {
		OriginalName string `json:"original_name" binding:"required,max=255"`
		FilePath     string `json:"file_path" binding:"required,max=500"`
		MimeType     string `json:"mime_type" binding:"required,max=100"`
		FileSize     int64  `json:"file_size" binding:"min=0"`
		TaskID       string `json:"task_id"`
		Description  string `json:"description"`
		Tags         string `json:"tags"`
		IsPublic     bool   `json:"is_public"`
	}
	if !bind(c, &req) {
		return
	}
	f, err := h.files.Register(c.Request.Context(), actor(c), c.Param("id"), service.FileInput(req))
	if err != nil {
		respondError(c, "register file", err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.files.List(c.Request.Context(), actor(c), c.Param("id"), c.Query("task_id"))
	if err != nil {
		respondError(c, "list files", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *Handler) GetFile(c *gin.Context) {
	f, err := h.files.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, "get file", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) DownloadFile(c *gin.Context) {
	f, err := h.files.MarkDownloaded(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, "download file", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) DeleteFile(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, "delete file", err)
		return
	}
	c.Status(http.StatusNoContent)
}
