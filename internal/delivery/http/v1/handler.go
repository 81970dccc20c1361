package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-board/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleProfileMiddleware(c *gin.Context)

	HandleGetMe(c *gin.Context)

	HandleGetBoard(c *gin.Context)
	HandleStreamBoard(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleEditTask(c *gin.Context)
	HandleReserveTask(c *gin.Context)
	HandleUnassignTask(c *gin.Context)
	HandleCompleteTask(c *gin.Context)
	HandleApproveTask(c *gin.Context)
	HandleToggleSubtask(c *gin.Context)

	HandleExportCSV(c *gin.Context)
	HandleExportPDF(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	auth     services.AuthService
	sessions services.SessionService
	profiles services.ProfileService
	tasks    services.TaskService
	pageSize int
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	sessionService services.SessionService,
	profileService services.ProfileService,
	taskService services.TaskService,
	pageSize int,
) Handler {
	return &handlerImpl{
		logger:   logger,
		auth:     authService,
		sessions: sessionService,
		profiles: profileService,
		tasks:    taskService,
		pageSize: pageSize,
	}
}

// RegisterRoutes mounts the v1 API under /api/v1.
func RegisterRoutes(router gin.IRouter, h Handler) {
	router = router.Group("/api/v1")

	authRouter := router.Group("/auth")
	authRouter.POST("/login", h.HandleLogin)
	authRouter.POST("/refresh", h.HandleRefresh)
	authRouter.POST("/register", h.HandleRegister)
	authRouter.POST("/logout", h.HandleAuthMiddleware, h.HandleLogout)

	authorized := router.Group("", h.HandleAuthMiddleware, h.HandleProfileMiddleware)
	authorized.GET("/me", h.HandleGetMe)

	tasksRouter := authorized.Group("/tasks")
	tasksRouter.GET("", h.HandleGetBoard)
	tasksRouter.GET("/stream", h.HandleStreamBoard)
	tasksRouter.POST("", h.HandleCreateTask)
	tasksRouter.PUT("/:id", h.HandleEditTask)
	tasksRouter.POST("/:id/reserve", h.HandleReserveTask)
	tasksRouter.POST("/:id/unassign", h.HandleUnassignTask)
	tasksRouter.POST("/:id/complete", h.HandleCompleteTask)
	tasksRouter.POST("/:id/approve", h.HandleApproveTask)
	tasksRouter.POST("/:id/subtasks/:subtaskID/toggle", h.HandleToggleSubtask)

	authorized.GET("/export.csv", h.HandleExportCSV)
	authorized.GET("/export.pdf", h.HandleExportPDF)
}
