package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"

	"recipegenius/internal/api"
	"recipegenius/internal/config"
	"recipegenius/internal/generation"
	"recipegenius/internal/platform/gemini"
	"recipegenius/internal/platform/googleai"
	"recipegenius/internal/platform/localllm"
	"recipegenius/internal/platform/logger"
	"recipegenius/internal/platform/s3store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("RECIPEGENIUS_CONFIG"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server.LogLevel, os.Stdout)
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"provider", cfg.LLM.Provider)

	genaiClient, err := googleai.NewClient(ctx, cfg.LLM.GeminiAPIKey)
	if err != nil {
		return err
	}

	text, closeText, err := newTextProvider(ctx, cfg, genaiClient)
	if err != nil {
		return err
	}
	defer closeText()

	var store googleai.ImageStore
	if cfg.Storage.S3Bucket != "" {
		s3, err := s3store.NewFromEnv(ctx, cfg.Storage.S3Bucket, cfg.Storage.S3Region, cfg.Storage.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("error creating image store: %w", err)
		}
		store = s3
		log.Info("hosting generated images in S3", "bucket", cfg.Storage.S3Bucket)
	}
	images := googleai.NewImageClient(genaiClient, cfg.LLM.ImageModel, store, log)

	service := generation.NewService(text, images, cfg.LLM.Timeout, log)
	sessions := generation.NewSessions(service, cfg.Generation.SessionTTL, log)
	go sessions.Run(ctx, time.Minute)

	limiter, closeLimiter, err := newLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	handler := api.NewHandler(service, sessions, api.Options{
		MaxUploadBytes: cfg.Images.MaxUploadBytes,
		MaxImageWidth:  cfg.Images.MaxWidth,
		SessionTTL:     cfg.Generation.SessionTTL,
	}, log)

	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(handler, cfg.Server.AllowedOrigins, limiter, log)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newTextProvider builds the configured recipe text provider.
func newTextProvider(ctx context.Context, cfg *config.Config, genaiClient *genai.Client) (generation.TextProvider, func(), error) {
	switch cfg.LLM.Provider {
	case "search":
		return googleai.NewSearchClient(genaiClient, cfg.LLM.TextModel, cfg.LLM.Grounding), func() {}, nil
	case "local":
		return localllm.NewClient(cfg.LLM.LocalURL, cfg.LLM.TextModel, cfg.LLM.LocalMaxTokens, &http.Client{Timeout: cfg.LLM.Timeout}), func() {}, nil
	default:
		client, err := gemini.NewClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.TextModel)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating gemini client: %w", err)
		}
		return client, func() { client.Close() }, nil
	}
}

// newLimiter returns nil when rate limiting is disabled.
func newLimiter(ctx context.Context, cfg *config.Config, log *slog.Logger) (api.Limiter, func(), error) {
	perMinute := cfg.RateLimit.RequestsPerMinute
	if perMinute <= 0 {
		return nil, func() {}, nil
	}
	if cfg.RateLimit.RedisURL == "" {
		return api.NewLocalLimiter(perMinute, time.Minute), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("rate limiting with redis", "requests_per_minute", perMinute)
	return api.NewRedisLimiter(client, perMinute, time.Minute), func() { client.Close() }, nil
}

// setupRouter registers the routes. A nil limiter disables rate limiting.
func setupRouter(handler *api.Handler, allowedOrigins []string, limiter api.Limiter, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		r.Use(gin.Logger())
	}

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	generate := []gin.HandlerFunc{}
	if limiter != nil {
		generate = append(generate, api.RateLimit(limiter, log))
	}

	r.GET("/healthz", handler.Health)
	r.POST("/recipes", append(generate, handler.GenerateRecipe)...)
	r.POST("/recipes/image", append(generate, handler.GenerateImage)...)
	r.POST("/generations", append(generate, handler.StartGeneration)...)
	r.GET("/generations/current", handler.CurrentGeneration)
	r.GET("/generations/events", handler.Events)
	return r
}
