package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/umairdev1/project-management-tool/internal/models"
	"github.com/umairdev1/project-management-tool/internal/service"
)

type taskRequest struct {
	Title          string            `json:"title" binding:"required,max=300"`
	Description    string            `json:"description"`
	Status         models.TaskStatus `json:"status" binding:"taskstatus"`
	Priority       models.Priority   `json:"priority" binding:"priority"`
	Type           models.TaskType   `json:"type" binding:"tasktype"`
	DueDate        *time.Time        `json:"due_date"`
	StartDate      *time.Time        `json:"start_date"`
	EstimatedHours int               `json:"estimated_hours" binding:"min=0"`
	StoryPoints    int               `json:"story_points" binding:"min=0"`
	Tags           string            `json:"tags"`
	AssigneeID     string            `json:"assignee_id"`
	Metadata       map[string]any    `json:"metadata"`
}

type taskPatch struct {
	Title          *string            `json:"title" binding:"omitempty,min=1,max=300"`
	Description    *string            `json:"description"`
	Status         *models.TaskStatus `json:"status" binding:"omitempty,taskstatus"`
	Priority       *models.Priority   `json:"priority" binding:"omitempty,priority"`
	Type           *models.TaskType   `json:"type" binding:"omitempty,tasktype"`
	DueDate        *time.Time         `json:"due_date"`
	StartDate      *time.Time         `json:"start_date"`
	Progress       *float64           `json:"progress" binding:"omitempty,min=0,max=100"`
	EstimatedHours *int               `json:"estimated_hours" binding:"omitempty,min=0"`
	ActualHours    *int               `json:"actual_hours" binding:"omitempty,min=0"`
	StoryPoints    *int               `json:"story_points" binding:"omitempty,min=0"`
	Tags           *string            `json:"tags"`
	Metadata       map[string]any     `json:"metadata"`
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req taskRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.tasks.Create(c.Request.Context(), actor(c), c.Param("id"), service.TaskInput(req))
	if err != nil {
		respondError(c, "create task", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.tasks.ListByProject(c.Request.Context(), actor(c), c.Param("id"), service.TaskFilter{
		Status:     models.TaskStatus(c.Query("status")),
		Priority:   models.Priority(c.Query("priority")),
		Type:       models.TaskType(c.Query("type")),
		AssigneeID: c.Query("assignee_id"),
	})
	if err != nil {
		respondError(c, "list tasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) Backlog(c *gin.Context) {
	tasks, err := h.tasks.Backlog(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, "backlog", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) GetTask(c *gin.Context) {
	t, err := h.tasks.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, "get task", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	var req taskPatch
	if !bind(c, &req) {
		return
	}
	t, err := h.tasks.Update(c.Request.Context(), actor(c), c.Param("id"), service.TaskUpdate(req))
	if err != nil {
		respondError(c, "update task", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) MoveTask(c *gin.Context) {
	var req struct {
		Status models.TaskStatus `json:"status" binding:"required,taskstatus"`
		Order  int               `json:"order" binding:"min=0"`
	}
	if !bind(c, &req) {
		return
	}
	t, err := h.tasks.Move(c.Request.Context(), actor(c), c.Param("id"), req.Status, req.Order)
	if err != nil {
		respondError(c, "move task", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// AssignTask takes an empty assignee_id to unassign.
func (h *Handler) AssignTask(c *gin.Context) {
	var req struct {
		AssigneeID string `json:"assignee_id"`
	}
	if !bind(c, &req) {
		return
	}
	t, err := h.tasks.Assign(c.Request.Context(), actor(c), c.Param("id"), req.AssigneeID)
	if err != nil {
		respondError(c, "assign task", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, "delete task", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateSubtask(c *gin.Context) {
	var req struct {
		Title          string          `json:"title" binding:"required,max=300"`
		Description    string          `json:"description"`
		Priority       models.Priority `json:"priority" binding:"priority"`
		DueDate        *time.Time      `json:"due_date"`
		EstimatedHours int             `json:"estimated_hours" binding:"min=0"`
	}
	if !bind(c, &req) {
		return
	}
	st, err := h.tasks.CreateSubtask(c.Request.Context(), actor(c), c.Param("id"), service.SubtaskInput(req))
	if err != nil {
		respondError(c, "create subtask", err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) ListSubtasks(c *gin.Context) {
	subtasks, err := h.tasks.ListSubtasks(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, "list subtasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtasks": subtasks})
}

func (h *Handler) UpdateSubtask(c *gin.Context) {
	var req struct {
		Title          *string            `json:"title" binding:"omitempty,min=1,max=300"`
		Description    *string            `json:"description"`
		Status         *models.TaskStatus `json:"status" binding:"omitempty,taskstatus"`
		Priority       *models.Priority   `json:"priority" binding:"omitempty,priority"`
		DueDate        *time.Time         `json:"due_date"`
		EstimatedHours *int               `json:"estimated_hours" binding:"omitempty,min=0"`
		ActualHours    *int               `json:"actual_hours" binding:"omitempty,min=0"`
		Order          *int               `json:"order" binding:"omitempty,min=0"`
	}
	if !bind(c, &req) {
		return
	}
	st, err := h.tasks.UpdateSubtask(c.Request.Context(), actor(c), c.Param("id"), service.SubtaskUpdate(req))
	if err != nil {
		respondError(c, "update subtask", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteSubtask(c *gin.Context) {
	if err := h.tasks.DeleteSubtask(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, "delete subtask", err)
		return
	}
	c.Status(http.StatusNoContent)
}
