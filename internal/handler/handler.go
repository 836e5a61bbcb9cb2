package handler

import (
	"net/http"
	"task_tracker/internal/auth"
	"task_tracker/internal/clock"
	"task_tracker/internal/middleware"
	"task_tracker/internal/observability"
	"task_tracker/internal/session"
	"task_tracker/internal/task"
	"task_tracker/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Dependencies are the adapters and capabilities the HTTP layer is built on.
type Dependencies struct {
	Users     user.UserRepositoryInterface
	Tasks     task.TaskRepositoryInterface
	Tokens    *auth.TokenService
	Hasher    *auth.PasswordHasher
	Clock     clock.Clock
	Publisher task.EventPublisher

	// Metrics and Gatherer are optional. /metrics is served when Gatherer is set.
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer

	AllowAdminSignup bool
}

// SetupHandler initializes all services and routes
func SetupHandler(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), middleware.PrometheusMiddleware(deps.Metrics))

	// Initialize services
	userService := user.NewUserService(deps.Users, deps.Hasher, deps.Tokens, user.ServiceOptions{
		AllowAdminSignup: deps.AllowAdminSignup,
		Metrics:          deps.Metrics,
	})
	taskService := task.NewTaskService(deps.Tasks, deps.Clock, deps.Publisher, deps.Metrics)
	resolver := session.NewResolver(deps.Tokens, deps.Users, deps.Metrics)

	// Initialize controllers
	userController := user.NewUserController(userService)
	taskController := task.NewTaskController(taskService)

	authMiddleware := middleware.AuthMiddleware(resolver)
	userController.SetupRoutes(r, authMiddleware)
	taskController.SetupRoutes(r, authMiddleware)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

// requestLogger logs one line per request through logrus.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		entry := logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"ip":     c.ClientIP(),
		})

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Info("Request rejected")
		default:
			entry.Debug("Request served")
		}
	}
}
