package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"career-roadmap/internal/service"
)

const defaultMaxUpload = 10 << 20

// Options tunes the transport layer.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	AuthHeader     string
	AllowOrigins   []string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	plans  service.PlanService
	tokens service.TokenService
	opts   Options
	log    *logrus.Logger
}

func NewHandler(users service.UserService, plans service.PlanService, tokens service.TokenService, opts Options, logger *logrus.Logger) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.AuthHeader == "" {
		opts.AuthHeader = "x-auth-token"
	}
	if opts.UploadDir == "" {
		opts.UploadDir = os.TempDir()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:  users,
		plans:  plans,
		tokens: tokens,
		opts:   opts,
		log:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.log))
	router.Use(corsMiddleware(h.opts.AllowOrigins, h.opts.AuthHeader))

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		auth := api.Group("/auth")
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.PUT("/update-task", h.requireAuth(), h.updateTask)

		ai := api.Group("/ai", h.requireAuth())
		ai.POST("/generate", h.generate)
		ai.GET("/roadmap", h.roadmap)
		ai.POST("/chat", h.chat)
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateTaskRequest struct {
	TaskID    string `json:"taskId"`
	Completed *bool  `json:"completed"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid request body"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid request body"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
}

func (h *Handler) updateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid request body"})
		return
	}

	completed, err := h.users.SetTaskCompleted(c.Request.Context(), currentUserID(c), req.TaskID, req.Completed)
	if err != nil {
		h.fail(c, err)
		return
	}
	if completed == nil {
		completed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"completedTasks": completed})
}

func (h *Handler) generate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	file, err := c.FormFile("resume")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": fmt.Sprintf("Resume must be smaller than %d MB", h.opts.MaxUploadBytes>>20)})
			return
		}
		h.fail(c, service.ErrMissingResume)
		return
	}

	if err := os.MkdirAll(h.opts.UploadDir, 0o755); err != nil {
		h.fail(c, fmt.Errorf("create upload dir: %w", err))
		return
	}
	path := filepath.Join(h.opts.UploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.fail(c, fmt.Errorf("save upload: %w", err))
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			h.log.WithError(err).WithField("path", path).Warn("remove upload")
		}
	}()

	user, err := h.plans.Generate(c.Request.Context(), currentUserID(c), service.Upload{
		Path:     path,
		Filename: file.Filename,
		Role:     c.PostForm("role"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) roadmap(c *gin.Context) {
	user, err := h.plans.Roadmap(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid request body"})
		return
	}

	reply, err := h.plans.Chat(c.Request.Context(), currentUserID(c), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// fail maps service errors onto status codes. Unexpected errors are logged
// and hidden behind a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"msg": verr.Msg})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "User already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid Credentials"})
	case errors.Is(err, service.ErrUnknownTask):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Task not found in roadmap"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
	case errors.Is(err, service.ErrMalformedPlan):
		msg := "AI failed to generate valid JSON. Try again."
		c.JSON(http.StatusInternalServerError, gin.H{"msg": msg, "error": msg})
	default:
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server Error"})
	}
}
