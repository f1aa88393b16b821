package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/umairdev1/project-management-tool/internal/models"
	"github.com/umairdev1/project-management-tool/internal/service"
)

type projectRequest struct {
	Name        string               `json:"name" binding:"required,max=200"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status" binding:"projectstatus"`
	Priority    models.Priority      `json:"priority" binding:"priority"`
	StartDate   *time.Time           `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
	Budget      *float64             `json:"budget" binding:"omitempty,min=0"`
	ClientName  string               `json:"client_name" binding:"max=200"`
	ClientEmail string               `json:"client_email" binding:"omitempty,email"`
	ClientPhone string               `json:"client_phone" binding:"max=20"`
	IsPublic    bool                 `json:"is_public"`
}

type projectPatch struct {
	Name        *string               `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status" binding:"omitempty,projectstatus"`
	Priority    *models.Priority      `json:"priority" binding:"omitempty,priority"`
	StartDate   *time.Time            `json:"start_date"`
	EndDate     *time.Time            `json:"end_date"`
	Budget      *float64              `json:"budget" binding:"omitempty,min=0"`
	ActualCost  *float64              `json:"actual_cost" binding:"omitempty,min=0"`
	ClientName  *string               `json:"client_name" binding:"omitempty,max=200"`
	ClientEmail *string               `json:"client_email" binding:"omitempty,email"`
	ClientPhone *string               `json:"client_phone" binding:"omitempty,max=20"`
	IsPublic    *bool                 `json:"is_public"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req projectRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.projects.Create(c.Request.Context(), actor(c), service.ProjectInput(req))
	if err != nil {
		respondError(c, "create project", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context(), actor(c), models.ProjectStatus(c.Query("status")))
	if err != nil {
		respondError(c, "list projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *Handler) GetProject(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, "get project", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	var req projectPatch
	if !bind(c, &req) {
		return
	}
	p, err := h.projects.Update(c.Request.Context(), actor(c), c.Param("id"), service.ProjectUpdate(req))
	if err != nil {
		respondError(c, "update project", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, "delete project", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ProjectOverview(c *gin.Context) {
	o, err := h.projects.Overview(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, "project overview", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.projects.ListMembers(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, "list members", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *Handler) AddMember(c *gin.Context) {
	var req struct {
		UserID string            `json:"user_id" binding:"required"`
		Role   models.MemberRole `json:"role" binding:"memberrole"`
	}
	if !bind(c, &req) {
		return
	}
	m, err := h.projects.AddMember(c.Request.Context(), actor(c), c.Param("id"), req.UserID, req.Role)
	if err != nil {
		respondError(c, "add member", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) ChangeMemberRole(c *gin.Context) {
	var req struct {
		Role models.MemberRole `json:"role" binding:"required,memberrole"`
	}
	if !bind(c, &req) {
		return
	}
	m, err := h.projects.ChangeMemberRole(c.Request.Context(), actor(c), c.Param("id"), c.Param("userId"), req.Role)
	if err != nil {
		respondError(c, "change member role", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) RemoveMember(c *gin.Context) {
	if err := h.projects.RemoveMember(c.Request.Context(), actor(c), c.Param("id"), c.Param("userId")); err != nil {
		respondError(c, "remove member", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ProjectActivity(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.projects.Authorize(ctx, actor(c), c.Param("id"), service.AccessView); err != nil {
		respondError(c, "project activity", err)
		return
	}
	entries, err := h.activity.ListByProject(ctx, c.Param("id"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, "project activity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": entries})
}
