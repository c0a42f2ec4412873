package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gapmentor_backend/internal/config"
	"gapmentor_backend/internal/controller"
	"gapmentor_backend/internal/repository"
	"gapmentor_backend/internal/service"
	"gapmentor_backend/pkg/database"
	"gapmentor_backend/pkg/logger"
	"gapmentor_backend/pkg/monitoring"
	"gapmentor_backend/pkg/security"
	"gapmentor_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	test         *repository.TestRepository
	gap          *repository.GapRepository
	studyPlan    *repository.StudyPlanRepository
	chat         *repository.ChatRepository
	notification *repository.NotificationRepository
}

type services struct {
	ai        *service.AIService
	auth      *service.AuthService
	generator *service.GeneratorService
	evaluator *service.EvaluatorService
	gap       *service.GapService
	test      *service.TestService
	studyPlan *service.StudyPlanService
	chat      *service.ChatService
	progress  *service.ProgressService
	sessions  *service.SessionStore
}

type controllers struct {
	auth      *controller.AuthController
	test      *controller.TestController
	gap       *controller.GapController
	studyPlan *controller.StudyPlanController
	chat      *controller.ChatController
	progress  *controller.ProgressController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig runs every registered reload callback with the new config.
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		test:         repository.NewTestRepository(db),
		gap:          repository.NewGapRepository(db),
		studyPlan:    repository.NewStudyPlanRepository(db),
		chat:         repository.NewChatRepository(db),
		notification: repository.NewNotificationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.ai = service.NewAIService(cfg.AI)
	s.sessions = service.NewSessionStore(rdb)

	s.auth = service.NewAuthService(repos.user, cfg.JWT)
	s.generator = service.NewGeneratorService(s.ai, repos.test)
	s.evaluator = service.NewEvaluatorService(s.ai)
	s.gap = service.NewGapService(s.ai, repos.gap)
	s.test = service.NewTestService(s.generator, s.evaluator, s.gap, repos.test, repos.notification, s.sessions, cfg.Quiz)
	s.studyPlan = service.NewStudyPlanService(s.ai, repos.gap, repos.studyPlan, repos.notification)
	s.chat = service.NewChatService(s.ai, repos.chat, repos.test, repos.gap, rdb)
	s.progress = service.NewProgressService(repos.test, repos.gap, repos.notification)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		test:      controller.NewTestController(s.test, s.chat),
		gap:       controller.NewGapController(s.gap),
		studyPlan: controller.NewStudyPlanController(s.studyPlan),
		chat:      controller.NewChatController(s.chat),
		progress:  controller.NewProgressController(s.progress),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 600
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, database.ShouldMigrate(cfg.Server.Mode, cfg.ForceMigrate))
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("gapmentor", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.Config = newCfg
		logger.Log.Info("configuration reloaded")
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
