package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/umairdev1/project-management-tool/internal/auth"
	"github.com/umairdev1/project-management-tool/internal/config"
	"github.com/umairdev1/project-management-tool/internal/metrics"
	"github.com/umairdev1/project-management-tool/internal/models"
	"github.com/umairdev1/project-management-tool/internal/mw"
	"github.com/umairdev1/project-management-tool/internal/service"
	"github.com/umairdev1/project-management-tool/internal/ws"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	DB       *gorm.DB
	Issuer   *auth.Issuer
	Hub      *ws.Hub
	Emit     service.Emitter
	Limiter  *mw.Limiter
	Auth     *service.AuthService
	Users    *service.UserService
	Projects *service.ProjectService
	Tasks    *service.TaskService
	Chat     *service.ChatService
	Notify   *service.NotificationService
	Files    *service.FileService
	Activity *service.ActivityService
}

// NewLimiter builds the per-client limiter from config.
func NewLimiter(cfg config.Config) *mw.Limiter {
	return mw.NewLimiter(rate.Limit(cfg.Limits.RPS), cfg.Limits.Burst, 2*time.Minute)
}

// SetupRouter registers middleware, the REST API under /api/v1 and the
// websocket endpoint.
func SetupRouter(cfg config.Config, d Deps) *gin.Engine {
	registerValidators()
	if d.Emit == nil {
		d.Emit = d.Hub
	}
	if d.Limiter == nil {
		d.Limiter = NewLimiter(cfg)
	}
	h := &Handler{
		auth:     d.Auth,
		users:    d.Users,
		projects: d.Projects,
		tasks:    d.Tasks,
		chat:     d.Chat,
		notify:   d.Notify,
		files:    d.Files,
		activity: d.Activity,
		hub:      d.Hub,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.RequestLogger())
	r.Use(mw.CORS(cfg.Env, cfg.FrontendURL))
	r.Use(mw.RateLimit(d.Limiter))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/chat", ws.Serve(d.Hub, ws.Deps{
		Issuer:        d.Issuer,
		DB:            d.DB,
		Chat:          d.Chat,
		Projects:      d.Projects,
		Emit:          d.Emit,
		AllowedOrigin: allowedOrigin(cfg),
	}))

	api := r.Group("/api/v1")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/forgot-password", h.ForgotPassword)
	api.POST("/auth/reset-password", h.ResetPassword)
	api.POST("/auth/refresh", auth.RefreshMiddleware(d.Issuer, d.DB), h.RefreshToken)

	authed := api.Group("")
	authed.Use(auth.Middleware(d.Issuer, d.DB))

	authed.POST("/auth/change-password", h.ChangePassword)
	authed.GET("/auth/profile", h.Profile)
	authed.POST("/auth/logout", h.Logout)

	authed.GET("/users", auth.RequireRole(models.RoleAdmin), h.ListUsers)
	authed.PATCH("/users/me", h.UpdateMe)
	authed.GET("/users/:id", h.GetUser)
	authed.PATCH("/users/:id/status", auth.RequireRole(models.RoleAdmin), h.SetUserStatus)
	authed.PATCH("/users/:id/role", auth.RequireRole(models.RoleAdmin), h.SetUserRole)
	authed.GET("/activity/me", h.MyActivity)

	authed.GET("/projects", h.ListProjects)
	authed.POST("/projects", h.CreateProject)
	authed.GET("/projects/:id", h.GetProject)
	authed.PATCH("/projects/:id", h.UpdateProject)
	authed.DELETE("/projects/:id", h.DeleteProject)
	authed.GET("/projects/:id/overview", h.ProjectOverview)
	authed.GET("/projects/:id/members", h.ListMembers)
	authed.POST("/projects/:id/members", h.AddMember)
	authed.PATCH("/projects/:id/members/:userId", h.ChangeMemberRole)
	authed.DELETE("/projects/:id/members/:userId", h.RemoveMember)
	authed.GET("/projects/:id/tasks", h.ListTasks)
	authed.POST("/projects/:id/tasks", h.CreateTask)
	authed.GET("/projects/:id/backlog", h.Backlog)
	authed.GET("/projects/:id/activity", h.ProjectActivity)
	authed.GET("/projects/:id/files", h.ListFiles)
	authed.POST("/projects/:id/files", h.RegisterFile)

	authed.GET("/tasks/:id", h.GetTask)
	authed.PATCH("/tasks/:id", h.UpdateTask)
	authed.DELETE("/tasks/:id", h.DeleteTask)
	authed.POST("/tasks/:id/move", h.MoveTask)
	authed.POST("/tasks/:id/assign", h.AssignTask)
	authed.GET("/tasks/:id/subtasks", h.ListSubtasks)
	authed.POST("/tasks/:id/subtasks", h.CreateSubtask)
	authed.PATCH("/subtasks/:id", h.UpdateSubtask)
	authed.DELETE("/subtasks/:id", h.DeleteSubtask)

	authed.GET("/chat/rooms", h.ListRooms)
	authed.POST("/chat/rooms", h.CreateRoom)
	authed.GET("/chat/rooms/:id", h.GetRoom)
	authed.POST("/chat/rooms/:id/members", h.AddRoomMember)
	authed.DELETE("/chat/rooms/:id/members/:userId", h.RemoveRoomMember)
	authed.GET("/chat/rooms/:id/messages", h.ListMessages)
	authed.POST("/chat/rooms/:id/messages", h.SendMessage)
	authed.PATCH("/chat/messages/:id", h.EditMessage)
	authed.DELETE("/chat/messages/:id", h.DeleteMessage)
	authed.POST("/chat/messages/:id/read", h.ReadMessage)

	authed.GET("/notifications", h.ListNotifications)
	authed.GET("/notifications/unread-count", h.UnreadCount)
	authed.POST("/notifications/:id/read", h.ReadNotification)
	authed.POST("/notifications/read-all", h.ReadAllNotifications)

	authed.GET("/files/:id", h.GetFile)
	authed.DELETE("/files/:id", h.DeleteFile)
	authed.POST("/files/:id/download", h.DownloadFile)

	return r
}

func allowedOrigin(cfg config.Config) string {
	if cfg.Env == "dev" {
		return ""
	}
	return cfg.FrontendURL
}
