package task

import (
	"net/http"
	"task_tracker/internal/apperr"
	"task_tracker/internal/user"

	"github.com/gin-gonic/gin"
)

type TaskController struct {
	service TaskServiceInterface
}

func NewTaskController(service TaskServiceInterface) *TaskController {
	return &TaskController{
		service: service,
	}
}

// SetupRoutes setup task routes with bearer token protection
func (tc *TaskController) SetupRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api/v1")
	api.Use(authMiddleware) // Apply middleware to all routes in this group
	{
		api.POST("/tasks", tc.CreateTask)
		api.GET("/tasks", tc.ListTasks)
		api.GET("/tasks/:id", tc.GetTask)
		api.PUT("/tasks/:id", tc.UpdateTask)
		api.PATCH("/tasks/:id", tc.UpdateTask)
		api.DELETE("/tasks/:id", tc.DeleteTask)
	}
}

// CreateTask handles task creation
func (tc *TaskController) CreateTask(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	task, err := tc.service.CreateTask(c.Request.Context(), actor, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTask handles getting task by ID
func (tc *TaskController) GetTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	task, err := tc.service.GetTask(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTask applies a partial update. Unknown fields such as username are ignored.
func (tc *TaskController) UpdateTask(c *gin.Context) {
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	task, err := tc.service.UpdateTask(c.Request.Context(), actor, c.Param("id"), UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask handles task removal
func (tc *TaskController) DeleteTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	if err := tc.service.DeleteTask(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListTasks returns the caller's tasks, or every task for admins
func (tc *TaskController) ListTasks(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	tasks, err := tc.service.ListTasks(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

func actorFromContext(c *gin.Context) (Actor, bool) {
	u, err := user.CurrentUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperr.Message(err)})
		return Actor{}, false
	}
	return ActorFromUser(u), true
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.StatusCode(err), gin.H{"error": apperr.Message(err)})
}
