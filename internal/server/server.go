package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"taskflow/internal/auth"
	"taskflow/internal/config"
	"taskflow/internal/database"
	"taskflow/internal/handler"
	"taskflow/internal/invite"
	"taskflow/internal/mail"
	"taskflow/internal/middleware"
	"taskflow/internal/repository"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config
}

func Init(cfg *config.Config) (*Server, error) {
	// Setup GORM. TranslateError turns driver unique-violation errors
	// into gorm.ErrDuplicatedKey, which the invite code retry relies on.
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("❌ failed to access DB handle: %w", err)
	}
	if err := database.Migrate(sqlDB); err != nil {
		return nil, fmt.Errorf("❌ migration failed: %w", err)
	}
	log.Println("✅ Database schema up to date")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("❌ failed to connect to redis: %w", err)
	}
	log.Println("✅ Connected to redis")

	// Setup Gin
	r := gin.Default()
	r.Use(middleware.SessionMiddleware())

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	eventRepo := repository.NewEventRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	if err := roleRepo.Seed(context.Background()); err != nil {
		return nil, fmt.Errorf("❌ failed to seed roles: %w", err)
	}

	// Redis-backed stores
	inviteStore := invite.NewStore(rdb, invite.DefaultTTL)
	redeemer := invite.NewRedeemer(inviteStore, teamRepo)
	denylist := auth.NewDenylist(rdb)
	resetTokens := auth.NewResetTokens(rdb)

	mailer := mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, cfg.MailFromName)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo, redeemer, denylist, resetTokens, mailer, cfg.FrontendURL)
	teamHandler := handler.NewTeamHandler(teamRepo, userRepo, messageRepo, inviteStore, mailer, cfg.FrontendURL)
	taskHandler := handler.NewTaskHandler(taskRepo, teamRepo, userRepo)
	projectHandler := handler.NewProjectHandler(projectRepo, taskRepo, teamRepo, userRepo)
	categoryHandler := handler.NewCategoryHandler(categoryRepo, userRepo)
	eventHandler := handler.NewEventHandler(eventRepo, userRepo)
	dashboardHandler := handler.NewDashboardHandler(taskRepo, projectRepo, teamRepo, userRepo)
	roleHandler := handler.NewRoleHandler(roleRepo, userRepo)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Auth routes
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", userHandler.Register)
		authGroup.POST("/login", userHandler.Login)
		authGroup.POST("/refresh", userHandler.Refresh)
		authGroup.POST("/logout", userHandler.Logout)
		authGroup.POST("/password-reset", userHandler.PasswordResetRequest)
		authGroup.POST("/password-reset/confirm", userHandler.PasswordResetConfirm)

		authed := authGroup.Group("")
		authed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		{
			authed.GET("/me", userHandler.Me)
			authed.PUT("/profile", userHandler.UpdateProfile)
			authed.POST("/change-password", userHandler.ChangePassword)
		}
	}

	v1 := r.Group("/api/v1")

	// Public invite endpoints. Optional auth lets the preview tell a
	// member from a stranger, and the join park the invite for an
	// anonymous session. Code routes live under /invites because the
	// router cannot mix a static segment with :id under /teams.
	public := v1.Group("")
	public.Use(middleware.OptionalAuthMiddleware(cfg.JWTSecret))
	{
		public.GET("/teams/:id/invite", teamHandler.InviteInfo)
		public.GET("/invites/:code", teamHandler.InviteInfoByCode)
		public.POST("/invites/:code/join", teamHandler.JoinByCode)
	}

	// Protected routes - require authentication
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Team routes
		authorized.POST("/teams", teamHandler.Create)
		authorized.GET("/teams", teamHandler.List)
		authorized.GET("/teams/:id", teamHandler.GetByID)
		authorized.PUT("/teams/:id", teamHandler.Update)
		authorized.DELETE("/teams/:id", teamHandler.Delete)
		authorized.POST("/teams/:id/join", teamHandler.Join)
		authorized.POST("/teams/:id/leave", teamHandler.Leave)
		authorized.DELETE("/teams/:id/members/:user_id", teamHandler.RemoveMember)
		authorized.POST("/teams/:id/invite-email", teamHandler.InviteByEmail)
		authorized.GET("/teams/:id/messages", teamHandler.ListMessages)
		authorized.POST("/teams/:id/messages", teamHandler.PostMessage)

		// Task routes
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks", taskHandler.List)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/complete", taskHandler.Complete)
		authorized.POST("/tasks/:id/reopen", taskHandler.Reopen)

		// Project routes
		authorized.POST("/projects", projectHandler.Create)
		authorized.GET("/projects", projectHandler.List)
		authorized.GET("/projects/:id", projectHandler.GetByID)
		authorized.PUT("/projects/:id", projectHandler.Update)
		authorized.DELETE("/projects/:id", projectHandler.Delete)
		authorized.POST("/projects/:id/start", projectHandler.Start)
		authorized.POST("/projects/:id/tasks", projectHandler.AddTask)
		authorized.DELETE("/projects/:id/tasks/:task_id", projectHandler.RemoveTask)

		// Category routes
		authorized.POST("/categories", categoryHandler.Create)
		authorized.GET("/categories", categoryHandler.List)
		authorized.PUT("/categories/:id", categoryHandler.Update)
		authorized.DELETE("/categories/:id", categoryHandler.Delete)

		// Calendar routes
		authorized.POST("/calendar-events", eventHandler.Create)
		authorized.GET("/calendar-events", eventHandler.List)
		authorized.GET("/calendar-events/:id", eventHandler.GetByID)
		authorized.PUT("/calendar-events/:id", eventHandler.Update)
		authorized.DELETE("/calendar-events/:id", eventHandler.Delete)

		// Dashboard
		authorized.GET("/dashboard", dashboardHandler.Stats)

		// Admin routes
		authorized.GET("/users", roleHandler.ListUsers)
		authorized.GET("/roles", roleHandler.ListRoles)
		authorized.PUT("/users/:id/role", roleHandler.AssignRole)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Redis:  rdb,
		Config: cfg,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}
	if err := s.Redis.Close(); err != nil {
		log.Printf("⚠️  Failed to close redis: %s", err)
	}

	log.Println("✅ Server exited properly")
}
