package server

import (
	"net/http"
	"time"

	"tourdesk/internal/api"
	"tourdesk/internal/files"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// MessageResponse is the body every failure and most successes carry
type MessageResponse struct {
	Message string `json:"message"`
}

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()
	r.MaxMultipartMemory = files.MaxFileSize

	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(s.logger))
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", requestIDHeader, "traceparent", "tracestate"},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthHandler)
	r.GET("/ws", s.wsHandler)
	r.GET(files.UploadPrefix+":name", s.serveFileHandler)

	authGroup := r.Group("/auth")
	{
		authGroup.POST(trim(api.PathLogin, "/auth"), s.loginHandler)
		authGroup.POST(trim(api.PathRegister, "/auth"), s.registerHandler)
		authGroup.POST(trim(api.PathForgotPassword, "/auth"), s.forgotPasswordHandler)
		authGroup.POST(trim(api.PathVerifyOTP, "/auth"), s.verifyOTPHandler)
		authGroup.POST(trim(api.PathResetPassword, "/auth"), s.resetPasswordHandler)
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET(trim(api.PathListCategories, "/api"), s.listCategoriesHandler)
		apiGroup.POST(trim(api.PathCreateCategory, "/api"), s.createCategoryHandler)
		apiGroup.POST(trim(api.PathDeleteCategory, "/api"), s.deleteCategoryHandler)
		apiGroup.POST(trim(api.PathUploads, "/api"), s.uploadHandler)
		apiGroup.POST(trim(api.PathTours, "/api"), s.createTourHandler)
		apiGroup.GET(trim(api.PathTours, "/api")+"/:id", s.getTourHandler)
	}

	return r
}

func trim(path, group string) string {
	return path[len(group):]
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx := c.Request.Context()
	response := gin.H{}
	status := http.StatusOK

	if err := s.store.Ping(ctx); err != nil {
		response["database"] = gin.H{"status": "down", "error": err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		response["database"] = gin.H{"status": "up"}
	}

	if s.storage != nil {
		if err := s.storage.Health(ctx); err != nil {
			response["storage"] = gin.H{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			response["storage"] = gin.H{"status": "up"}
		}
	}

	c.JSON(status, response)
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, MessageResponse{Message: message})
}

func succeed(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageResponse{Message: message})
}
