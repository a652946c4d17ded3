package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/autoblog/config"
	"github.com/cppla/autoblog/controllers"
	"github.com/cppla/autoblog/middleware"
	"github.com/cppla/autoblog/services"
	"github.com/cppla/autoblog/store"
	"github.com/cppla/autoblog/utils"
)

// Dependencies are the collaborators shared by every handler.
type Dependencies struct {
	Store     store.Store
	Gate      *services.AuthGate
	Autoreply *services.AutoreplyScheduler
	Reporter  *services.BreakdownReporter
	Moderator services.Moderator
	// AccessLog receives gin access and panic logs; built from GinPath when nil.
	AccessLog *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Dependencies) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.RequestID())

	gl := deps.AccessLog
	if gl == nil {
		var err error
		gl, err = utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			utils.Sugar.Warnf("gin access log unavailable, using app logger: %v", err)
			gl = utils.Logger
		}
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	userController := controllers.NewUserController(deps.Store, deps.Gate)
	postController := controllers.NewPostController(deps.Store)
	commentController := controllers.NewCommentController(deps.Store, deps.Store, deps.Autoreply, deps.Moderator)
	breakdownController := controllers.NewBreakdownController(deps.Reporter)

	authRequired := middleware.AuthRequired(deps.Gate)
	limited := middleware.RateLimit(cfg.RateLimitPerMinute)

	r.POST("/users/", limited, userController.Register)
	r.POST("/login/", limited, userController.Login)
	r.POST("/logout/", authRequired, userController.Logout)
	r.GET("/users/:id", userController.GetUser)
	r.PUT("/users/:id", authRequired, userController.UpdateUser)
	r.DELETE("/users/:id", authRequired, userController.DeleteUser)

	posts := r.Group("/posts", authRequired)
	posts.GET("/", postController.ListPosts)
	posts.POST("/", postController.CreatePost)
	posts.GET("/:id", postController.GetPost)
	posts.PUT("/:id", postController.UpdatePost)
	posts.DELETE("/:id", postController.DeletePost)

	comments := r.Group("/comments", authRequired)
	comments.GET("/", commentController.ListComments)
	comments.POST("/", commentController.CreateComment)
	comments.GET("/:id", commentController.GetComment)
	comments.PUT("/:id", commentController.UpdateComment)
	comments.DELETE("/:id", commentController.DeleteComment)

	r.GET("/breakdown/", breakdownController.GetBreakdown)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
