package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/handler"
	"github.com/physical-edu/physical-backend/internal/middleware"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/response"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	User     *handler.UserHandler
	Question *handler.QuestionHandler
	Media    *handler.MediaHandler
	Subject  *handler.SubjectHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth middleware.Authenticator,
	loginLimiter *middleware.LoginRateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// Explicit origins plus any origin ending in a configured suffix
	// (preview deployments). With neither configured every origin passes.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOriginFunc = func(origin string) bool {
		return handler.OriginAllowed(origin, cfg.AllowedOrigins, cfg.AllowedOriginSuffixes)
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(response.AccessLog(log))
	router.Use(middleware.Brotli())

	// Locally stored images are immutable once written (names are random).
	if cfg.BlobDriver == "local" {
		uploadsGroup := router.Group("/uploads")
		uploadsGroup.Use(middleware.CacheControl(365 * 24 * time.Hour))
		{
			uploadsGroup.Static("/", cfg.UploadDir)
		}
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	requireAuth := middleware.RequireAuth(auth)

	// ─── 1. Users ──────────────────────────────────────────────────────
	users := router.Group("/api/users")
	{
		users.POST("/signup", handlers.User.Signup)
		users.POST("/signin", loginLimiter.Middleware(), handlers.User.Signin)
		users.POST("/changePassword", handlers.User.ChangePassword)
		users.POST("/recoverPassword", handlers.User.RecoverPassword)
		users.POST("/resetPassword", handlers.User.ResetPassword)

		users.POST("/changeEmail", requireAuth, handlers.User.ChangeEmail)
		users.GET("/me", requireAuth, handlers.User.Me)

		admin := users.Group("/admin")
		admin.Use(requireAuth, middleware.RequireCapability(model.CapabilityManageTeachers))
		{
			admin.GET("/teacher-requests", handlers.User.TeacherRequests)
			admin.PUT("/approve-teacher/:userId", handlers.User.ApproveTeacher)
		}
	}

	// ─── 2. Questions ──────────────────────────────────────────────────
	questions := router.Group("/api/questions")
	{
		// Authoring
		questions.POST("", requireAuth, handlers.Question.CreateQuestion)
		questions.PUT("/:id", requireAuth, handlers.Question.EditQuestion)
		questions.PUT("/:id/solution-steps", requireAuth, handlers.Question.ReplaceSolutionSteps)
		questions.POST("/upload-image", requireAuth, handlers.Media.UploadImage)
		questions.POST("/image/upload", requireAuth, handlers.Media.UploadImage)

		// Review
		questions.PUT("/approve",
			requireAuth,
			middleware.RequireCapability(model.CapabilityApprove),
			handlers.Question.ApproveQuestion,
		)
		questions.DELETE("/:id",
			requireAuth,
			middleware.RequireCapability(model.CapabilityDelete),
			handlers.Question.DeleteQuestion,
		)
		questions.GET("/unapproved", handlers.Question.ListUnapproved)
		questions.GET("/approved", handlers.Question.ListApproved)

		// Practice
		questions.GET("/by-subject/:subjectId", requireAuth, handlers.Question.ListBySubject)
		questions.GET("/by-tag/:tag", requireAuth, handlers.Question.ListByTag)
		questions.GET("/:id", handlers.Question.GetQuestion)
		questions.GET("/:id/solution", handlers.Question.GetSolution)
		questions.GET("/:id/hint/:hintIndex", handlers.Question.GetHint)
		questions.GET("/:id/next", handlers.Question.NextQuestion)
		questions.POST("/:id/test", handlers.Question.TestAnswer)
	}

	// ─── 3. Subjects ───────────────────────────────────────────────────
	subjects := router.Group("/api/subjects")
	{
		subjects.GET("", handlers.Subject.GetAll)
		subjects.GET("/:id", handlers.Subject.GetByID)

		manage := subjects.Group("")
		manage.Use(requireAuth, middleware.RequireCapability(model.CapabilityManageSubjects))
		{
			manage.POST("", handlers.Subject.Create)
			manage.PUT("/:id", handlers.Subject.Update)
			manage.DELETE("/:id", handlers.Subject.Delete)
		}
	}

	// ─── 4. Review feed (WebSocket) ────────────────────────────────────
	ws := router.Group("/ws")
	ws.Use(requireAuth, middleware.RequireCapability(model.CapabilityReview))
	{
		ws.GET("/review", handlers.WS.ReviewStream)
	}

	return router
}
