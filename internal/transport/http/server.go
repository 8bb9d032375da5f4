package http

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	appsvc "loginify/internal/app"
	"loginify/internal/bootstrap"
	"loginify/internal/cache"
	"loginify/internal/platform/rabbitmq"
	"loginify/internal/repository"
	"loginify/internal/transport/http/handler"
	"loginify/internal/transport/http/middleware"
	"loginify/internal/transport/http/response"
	"loginify/internal/transport/http/web"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(ginzap.Ginzap(app.Logger, time.RFC3339, true), ginzap.RecoveryWithZap(app.Logger, true))
	router.HandleMethodNotAllowed = true
	router.NoMethod(methodNotAllowed)
	router.SetHTMLTemplate(template.Must(web.Templates()))

	opts := []appsvc.Option{appsvc.WithEventHistory(repository.NewUserEventRepository(app.DB))}
	if app.Redis != nil {
		ttl := time.Duration(app.Config.Redis.UserTTLSeconds) * time.Second
		opts = append(opts, appsvc.WithCache(cache.NewUserCache(app.Redis, ttl)))
	}
	if app.MQConn != nil {
		opts = append(opts, appsvc.WithEventPublisher(rabbitmq.NewUserEventPublisher(app.MQConn, app.Config.RabbitMQ.UserEventQueue)))
	}

	userRepo := repository.NewUserRepository(app.DB)
	userService := appsvc.NewUserService(userRepo, app.Config.Auth.BcryptCost, app.Logger, opts...)
	tokens := appsvc.NewTokenIssuer(
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)

	healthHandler := handler.NewHealthHandler(app)
	authHandler := handler.NewAuthHandler(userService, tokens, app.Logger)
	userHandler := handler.NewUserHandler(userService, app.Logger)

	router.GET("/", handler.Hello)
	router.GET("/healthz", healthHandler.Check)

	router.GET("/signup/", authHandler.SignupPage)
	router.POST("/signup/", authHandler.Signup)
	router.GET("/login/", authHandler.LoginPage)
	router.POST("/login/", authHandler.Login)

	api := router.Group("/api")
	api.POST("/login/", authHandler.APILogin)

	users := api.Group("/users")
	users.GET("/", userHandler.List)
	users.GET("/:email/", userHandler.Get)
	users.GET("/:email/events/", userHandler.Events)

	writes := users.Group("")
	if app.Config.Auth.ProtectAPI {
		writes.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret, "email"))
	}
	writes.PUT("/:email/update/", userHandler.Update)
	writes.DELETE("/:email/", userHandler.Delete)
	writes.DELETE("/:email/delete/", userHandler.Delete)

	return router
}

func methodNotAllowed(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		response.MethodNotAllowed(c)
		return
	}
	c.String(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}
