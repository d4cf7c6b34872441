package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/controllers"
	"github.com/cppla/blog/middleware"
	"github.com/cppla/blog/services"
	"github.com/cppla/blog/session"
	"github.com/cppla/blog/utils"
	"github.com/cppla/blog/web"
)

// SetupRouter wires routes, middlewares, and controllers. rc may be nil, in
// which case sessions are kept in signed cookies.
func SetupRouter(db *gorm.DB, rc *redis.Client, cfg config.AppConfig) (*gin.Engine, error) {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Access log goes to its own rolling file; fall back to the application logger
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
			accessLog = gl
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, true))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	tpl, err := web.Templates(utils.TemplateFuncs)
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tpl)
	r.StaticFS("/static", web.Static())
	r.GET("/health", controllers.Health(db))

	userService := services.NewUserService(db)
	postService := services.NewPostService(db)
	commentService := services.NewCommentService(db)

	authController := controllers.NewAuthController(userService)
	postController := controllers.NewPostController(postService, commentService, cfg.CommentDeletePolicy)

	sessionMiddleware := sessions.Sessions(cfg.SessionName, session.NewStore(cfg, rc))
	principalMiddleware := middleware.LoadPrincipal(userService)

	// Everything below renders pages and needs the session and the principal
	pages := r.Group("")
	pages.Use(sessionMiddleware, principalMiddleware)
	// Record PV after each request
	pages.Use(middleware.PageViewRecorder(db))

	pages.GET("/", postController.ListPosts)
	pages.GET("/about", controllers.About)
	pages.GET("/contact", controllers.Contact)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute).OnlyPOST()
	pages.GET("/register", authController.RegisterPage)
	pages.POST("/register", limiter, authController.Register)
	pages.GET("/login", authController.LoginPage)
	pages.POST("/login", limiter, authController.Login)
	pages.GET("/logout", authController.Logout)

	pages.GET("/post/:post_id", postController.ShowPost)
	pages.POST("/post/:post_id", postController.CreateComment)

	admin := pages.Group("")
	admin.Use(middleware.AdminOnly())
	admin.GET("/new-post", postController.NewPostPage)
	admin.POST("/new-post", postController.CreatePost)
	admin.GET("/edit-post/:post_id", postController.EditPostPage)
	admin.POST("/edit-post/:post_id", postController.UpdatePost)
	admin.GET("/delete/:post_id", postController.DeletePost)

	r.NoRoute(sessionMiddleware, principalMiddleware, func(ctx *gin.Context) {
		utils.ErrorPage(ctx, http.StatusNotFound)
	})

	return r, nil
}
