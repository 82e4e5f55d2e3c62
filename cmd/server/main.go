package main

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/auth"
	"github.com/lzhlsy00/video-gen/internal/cache"
	"github.com/lzhlsy00/video-gen/internal/client"
	"github.com/lzhlsy00/video-gen/internal/config"
	"github.com/lzhlsy00/video-gen/internal/handler"
	"github.com/lzhlsy00/video-gen/internal/logger"
	"github.com/lzhlsy00/video-gen/internal/middleware"
	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/service"
	"github.com/lzhlsy00/video-gen/internal/statuslog"
	"github.com/lzhlsy00/video-gen/internal/store"
	"github.com/lzhlsy00/video-gen/internal/store/postgres"
	"github.com/lzhlsy00/video-gen/internal/store/rest"
	"github.com/lzhlsy00/video-gen/internal/store/sqlite"
	ws "github.com/lzhlsy00/video-gen/internal/websocket"
	"github.com/lzhlsy00/video-gen/internal/worker"
	"github.com/lzhlsy00/video-gen/pkg/response"
)

// @title          Video Generation API
// @version        1.0
// @description    Submission gateway and status API for prompt-to-video generation.
// @host           localhost:3000
// @BasePath       /
// @schemes        http https
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
// @description    Enter your bearer token in the format **Bearer &lt;token&gt;**
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("production", "info")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Server.Env, cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis not available; rate limits and snapshot cache are disabled")
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	validate := validator.New()

	// External clients
	backendClient := client.NewBackendClient(&cfg.Backend, log)
	if !backendClient.IsConfigured() {
		log.Warn().Msg("backend base URL not configured")
	}
	supabaseClient := client.NewSupabaseClient(&cfg.Supabase, cfg.Store.Timeout, log)

	// R2 archive (optional)
	var archive client.ArchiveStore
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Warn().Err(err).Msg("R2 client not initialized")
		} else {
			archive = r2Client
		}
	} else {
		log.Info().Msg("R2 storage not configured, uploads are not archived")
	}

	statusStore, err := openStore(ctx, cfg, supabaseClient)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open status store")
	}
	defer statusStore.Close()

	// Identity resolution chain
	var verifiers []auth.Verifier
	if cfg.Supabase.UseJWKS && supabaseClient.IsConfigured() {
		jwks, err := auth.NewJWKSVerifier(ctx, supabaseClient.JWKSURL(), "authenticated")
		if err != nil {
			log.Warn().Err(err).Msg("JWKS verifier not initialized")
		} else {
			verifiers = append(verifiers, jwks)
		}
	}
	if cfg.Supabase.JWTSecret != "" {
		verifiers = append(verifiers, auth.NewHMACVerifier(cfg.Supabase.JWTSecret))
	}
	if supabaseClient.IsConfigured() {
		verifiers = append(verifiers, auth.NewRemoteVerifier(supabaseClient))
	}
	resolver := auth.NewResolver(log, verifiers...)

	// WebSocket hub
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	// Services
	normalizer := statuslog.NewNormalizer(statuslog.Options{
		Rules:                  cfg.Status.Rules,
		Markers:                cfg.Status.Markers,
		DetectErrorsUnfiltered: cfg.Status.DetectErrorsUnfiltered,
	})
	snapshots := cache.NewRedisSnapshotCache(redisClient, cfg.Status.TerminalCacheTTL, log)

	generationService := service.NewGenerationService(backendClient, validate, log)
	statusService := service.NewStatusService(statusStore, normalizer, snapshots, log)
	videoService := service.NewVideoService(backendClient, log)
	uploadService := service.NewUploadService(backendClient, archive, log)
	watchService := service.NewWatchService(asynqClient, cfg.Poll.MaxWatch, log)
	healthService := service.NewHealthService(backendClient, cfg.Server.Env, map[string]service.Pinger{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		"store": func(ctx context.Context) error {
			_, err := statusStore.FindVideo(ctx, "health-check")
			if errors.Is(err, model.ErrNotFound) {
				return nil
			}
			return err
		},
	}, log)

	// Handlers
	generateHandler := handler.NewGenerateHandler(generationService, watchService, log)
	videoHandler := handler.NewVideoHandler(statusService, videoService, watchService, hub, log)
	uploadHandler := handler.NewUploadHandler(uploadService)
	healthHandler := handler.NewHealthHandler(healthService)
	authHandler := handler.NewAuthHandler(resolver)

	// Middleware
	if cfg.Gateway.Enabled {
		log.Info().Msg("gateway mode enabled, trusting X-User-* headers")
	}
	identity := middleware.NewIdentityMiddleware(resolver, cfg.Gateway.Enabled)
	rateLimiter := middleware.NewRateLimiter(redisClient, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    model.UploadBodyLimit(cfg.Server.MaxUploadFiles),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	logFormat := "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
	}
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Accept-Language,Authorization",
	}))
	app.Use(middleware.Locale(cfg.Server.DefaultLocale))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// ForwardAuth verification endpoint (internal, called by Traefik)
	app.Get("/auth/verify", authHandler.Verify)

	// API routes
	api := app.Group("/api", identity.Resolve())
	api.Get("/health", healthHandler.Health)
	api.Post("/generate", rateLimiter.GenerateLimit(cfg.RateLimit.GeneratePerHour), generateHandler.Generate)
	api.Post("/upload", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), uploadHandler.Upload)
	api.Get("/explore-videos", videoHandler.Explore)
	api.Get("/my-videos", middleware.RequireIdentity("Please login to view your videos"), videoHandler.MyVideos)

	video := api.Group("/video")
	video.Get("/:id/status", rateLimiter.StatusLimit(cfg.RateLimit.StatusPerMin), videoHandler.Status)
	video.Get("/:id/result", videoHandler.Result)
	video.Get("/:id", middleware.RequireIdentity("Please login to view this video"), videoHandler.Video)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/videos/:id", websocket.New(videoHandler.Stream))

	// Start Asynq worker server
	srv := newWorkerServer(cfg, redisOpt, log)
	watchWorker := worker.NewWatchWorker(statusService, hub, cfg.Poll.Interval, cfg.Poll.RequestTimeout, cfg.Poll.MaxWatch, log)
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeWatch, watchWorker.ProcessTask)
	go func() {
		if err := srv.Run(mux); err != nil {
			log.Error().Err(err).Msg("asynq worker stopped")
		}
	}()

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down server")
		srv.Shutdown()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Msg("server starting")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func openStore(ctx context.Context, cfg *config.Config, supabase *client.SupabaseClient) (store.StatusStore, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := postgres.Open(ctx, cfg.Store.DatabaseURL, cfg.Store.Timeout)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return rest.New(supabase), nil
	}
}

func newWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt, log zerolog.Logger) *asynq.Server {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 20,
		Queues: map[string]int{
			service.QueueWatch: 1,
		},
		LogLevel:        asynqLogLevel,
		Logger:          logger.NewAsynq(log),
		ShutdownTimeout: 10 * time.Second,
	})
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
