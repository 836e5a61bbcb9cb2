package user

import (
	"errors"
	"net/http"
	"task_tracker/internal/apperr"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	userService UserServiceInterface
}

func NewUserController(userService UserServiceInterface) *UserController {
	return &UserController{
		userService: userService,
	}
}

// SetupRoutes setup auth routes (register, token, me)
func (a *UserController) SetupRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", a.Register)
		authGroup.POST("/token", a.Login)
		authGroup.GET("/me", authMiddleware, a.Me)
	}
}

// Register handles user registration and returns an access token
func (a *UserController) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" form:"username" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
		Role     string `json:"role" form:"role"`
	}

	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	tokens, err := a.userService.Register(c.Request.Context(), req.Username, req.Password, Role(req.Role))
	if err != nil {
		c.JSON(apperr.StatusCode(err), gin.H{"error": apperr.Message(err)})
		return
	}

	c.JSON(http.StatusCreated, tokens)
}

// Login handles username/password login and returns an access token
func (a *UserController) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" form:"username" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
	}

	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	tokens, err := a.userService.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		return
	}
	if err != nil {
		c.JSON(apperr.StatusCode(err), gin.H{"error": apperr.Message(err)})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Me returns the authenticated user
func (a *UserController) Me(c *gin.Context) {
	u, err := CurrentUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperr.Message(err)})
		return
	}

	c.JSON(http.StatusOK, u)
}
