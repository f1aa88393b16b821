package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/umairdev1/project-management-tool/internal/auth"
	"github.com/umairdev1/project-management-tool/internal/models"
	"github.com/umairdev1/project-management-tool/internal/service"
	"github.com/umairdev1/project-management-tool/internal/ws"
)

// Handler groups the HTTP handlers; every rule lives in the services.
type Handler struct {
	auth     *service.AuthService
	users    *service.UserService
	projects *service.ProjectService
	tasks    *service.TaskService
	chat     *service.ChatService
	notify   *service.NotificationService
	files    *service.FileService
	activity *service.ActivityService
	hub      *ws.Hub
}

func actor(c *gin.Context) service.Actor {
	return service.Actor{UserID: auth.GetUserID(c), Role: auth.GetRole(c)}
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email     string          `json:"email" binding:"required,email"`
		Password  string          `json:"password" binding:"required,min=6,max=72"`
		FirstName string          `json:"first_name" binding:"max=100"`
		LastName  string          `json:"last_name" binding:"max=100"`
		Role      models.UserRole `json:"role" binding:"userrole"`
	}
	if !bind(c, &req) {
		return
	}
	pair, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
	})
	if err != nil {
		respondError(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, pair)
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=6,max=72"`
	}
	if !bind(c, &req) {
		return
	}
	res, err := h.auth.ChangePassword(c.Request.Context(), auth.GetUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, "change password", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if !bind(c, &req) {
		return
	}
	res, err := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, "forgot password", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
	}
	if !bind(c, &req) {
		return
	}
	res, err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		respondError(c, "reset password", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RefreshToken runs behind the refresh middleware, so the caller is already
// identified by a refresh token.
func (h *Handler) RefreshToken(c *gin.Context) {
	pair, err := h.auth.RefreshToken(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, "refresh token", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Profile(c *gin.Context) {
	u, err := h.auth.Profile(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, "profile", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, h.auth.Logout(c.Request.Context(), auth.GetUserID(c)))
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), service.UserFilter{
		Status: models.UserStatus(c.Query("status")),
		Role:   models.UserRole(c.Query("role")),
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	})
	if err != nil {
		respondError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req struct {
		FirstName *string `json:"first_name" binding:"omitempty,max=100"`
		LastName  *string `json:"last_name" binding:"omitempty,max=100"`
		Avatar    *string `json:"avatar" binding:"omitempty,max=500"`
		Phone     *string `json:"phone" binding:"omitempty,max=20"`
		Bio       *string `json:"bio" binding:"omitempty,max=2000"`
	}
	if !bind(c, &req) {
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), auth.GetUserID(c), service.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Avatar:    req.Avatar,
		Phone:     req.Phone,
		Bio:       req.Bio,
	})
	if err != nil {
		respondError(c, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) SetUserStatus(c *gin.Context) {
	var req struct {
		Status models.UserStatus `json:"status" binding:"required,userstatus"`
	}
	if !bind(c, &req) {
		return
	}
	u, err := h.users.SetStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, "set user status", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) SetUserRole(c *gin.Context) {
	var req struct {
		Role models.UserRole `json:"role" binding:"required,userrole"`
	}
	if !bind(c, &req) {
		return
	}
	u, err := h.users.SetRole(c.Request.Context(), actor(c), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, "set user role", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) MyActivity(c *gin.Context) {
	entries, err := h.activity.ListByUser(c.Request.Context(), auth.GetUserID(c), queryInt(c, "limit"))
	if err != nil {
		respondError(c, "list activity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": entries})
}
