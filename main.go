package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"enviroagent/controller"
	"enviroagent/model"
	"enviroagent/platform"
	"enviroagent/service"

	"github.com/gin-gonic/gin"
	_uuid "github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var logger = platform.Logger

const shutdownTimeout = 10 * time.Second

// CORSMiddleware ...
// CORS (Cross-Origin Resource Sharing)
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, UPDATE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Origin, Authorization, Accept, Client-Security-Token, Accept-Encoding, x-access-token")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
		} else {
			c.Next()
		}
	}
}

// RequestIDMiddleware ...
// Generate a unique ID and attach it to each request for future reference or use
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := _uuid.New()
		c.Writer.Header().Set("X-Request-Id", uuid.String())
		c.Set("requestId", uuid.String())
		c.Next()
	}
}

func LogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		if raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)

		logger.Infof(
			" [%s] %d | %v | %s | %s | %s | %s ",
			c.GetString("requestId"),
			c.Writer.Status(),
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
			c.Request.UserAgent(),
		)
	}
}

// app holds the wired services behind the router.
type app struct {
	store      model.Store
	users      *service.UserService
	resets     *service.PasswordResetService
	contacts   *service.ContactService
	newsletter *service.NewsletterService
	sessions   *service.SessionService
	chat       *service.ChatService
	surfaces   *service.SurfaceRegistry
}

func newApp(cfg *platform.Config, store model.Store, sender service.Sender, replier service.Replier) *app {
	mailer := service.NewMailer(sender, service.MailSettings{
		From:          cfg.Mail.From,
		SupportEmail:  cfg.Mail.SupportEmail,
		TestMode:      cfg.Mail.TestMode,
		TestRecipient: cfg.Mail.TestRecipient,
		BaseURL:       cfg.BaseURL,
	})
	tokens := service.NewTokenService(cfg.AccessSecret, cfg.SessionTTL)
	chat := service.NewChatService(store, replier)

	return &app{
		store:      store,
		users:      service.NewUserService(store, mailer, cfg.BcryptCost),
		resets:     service.NewPasswordResetService(store, store, mailer, cfg.BcryptCost),
		contacts:   service.NewContactService(store, mailer),
		newsletter: service.NewNewsletterService(store, mailer),
		sessions:   service.NewSessionService(tokens, store, store),
		chat:       chat,
		surfaces:   service.NewSurfaceRegistry(chat, time.Minute+cfg.Chat.ReplyDelay),
	}
}

func setupRouter(cfg *platform.Config, a *app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware(cfg.BaseURL))
	r.Use(RequestIDMiddleware())
	r.Use(LogMiddleware())

	auth := controller.AuthController{Users: a.users, Sessions: a.sessions, Surfaces: a.surfaces}
	user := controller.UserController{Users: a.users, Resets: a.resets}
	contact := controller.ContactController{Contacts: a.contacts}
	newsletter := controller.NewsletterController{Newsletter: a.newsletter}
	health := controller.HealthController{DB: a.store}
	chat := controller.ChatController{Chat: a.chat, Surfaces: a.surfaces}

	api := r.Group("/api")
	{
		api.POST("/auth/signup", user.Signup)
		api.POST("/auth/signin", auth.Signin)
		api.POST("/auth/reset-password", user.RequestPasswordReset)
		api.POST("/auth/reset-password/confirm", user.ConfirmPasswordReset)

		api.POST("/contact", contact.Submit)
		api.POST("/newsletter", newsletter.Subscribe)
		api.GET("/test-db", health.TestDB)
	}

	authed := api.Group("", auth.TokenAuthMiddleware)
	{
		authed.POST("/auth/signout", auth.Signout)
		authed.POST("/auth/refresh", auth.Refresh)
		authed.GET("/auth/session", auth.Session)

		authed.GET("/chat/state", chat.State)
		authed.GET("/conversations", chat.ListConversations)
		authed.POST("/conversations", chat.CreateConversation)
		authed.POST("/conversations/:id/select", chat.SelectConversation)
		authed.GET("/conversations/:id/messages", chat.Messages)
		authed.GET("/conversations/:id/goal", chat.Goal)
		authed.POST("/conversations/:id/messages", chat.SendMessage)
		authed.DELETE("/conversations/:id", chat.DeleteConversation)
	}

	return r
}

func openStore(cfg *platform.Config) (model.Store, error) {
	if cfg.DB.Driver == "memory" {
		logger.Warnf("using the in-memory store, data is lost on restart")
		return model.NewMemoryStore(), nil
	}
	db, err := platform.InitDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := model.InstallDB(db); err != nil {
		return nil, err
	}
	return model.NewGormStore(db, cfg.DB.ConnTimeout), nil
}

func newReplier(cfg *platform.Config, goals model.GoalStore) service.Replier {
	switch cfg.Chat.Replier {
	case "planner":
		logger.Infof("chat replies from the goal planner")
		return service.NewPlannerReplier(goals)
	case "simulated":
		return service.SimulatedReplier{Delay: cfg.Chat.ReplyDelay}
	}
	if client := platform.InitLLMClient(cfg.LLM); client != nil {
		logger.Infof("chat replies from model %s", cfg.LLM.Model)
		return service.NewLLMReplier(client, cfg.LLM.Model)
	}
	return service.SimulatedReplier{Delay: cfg.Chat.ReplyDelay}
}

func main() {
	fmt.Println("Server started...")

	cfg, err := platform.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := logrus.DebugLevel
	if cfg.IsProduction() {
		level = logrus.InfoLevel
		gin.SetMode(gin.ReleaseMode)
	}
	platform.InitLogger(cfg.LogPath, "gin", level)

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatalf("init store error, %s", err)
	}
	sender, err := service.NewSender(cfg.Mail)
	if err != nil {
		logger.Fatalf("init mail sender error, %s", err)
	}

	a := newApp(cfg, store, sender, newReplier(cfg, store))
	r := setupRouter(cfg, a)

	scheduler := service.NewScheduler(a.resets, a.sessions)
	if err := scheduler.Start(cfg.TokenCleanupSpec); err != nil {
		logger.Fatalf("start scheduler error, %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server stopped, %s", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error, %s", err)
	}
	if err := a.surfaces.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("pending replies abandoned, %s", err)
	}
	scheduler.Stop()
}
