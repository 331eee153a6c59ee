package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gitfolio/engine/internal/adapters"
	"github.com/gitfolio/engine/internal/analysis"
	"github.com/gitfolio/engine/internal/cache"
	"github.com/gitfolio/engine/internal/config"
	"github.com/gitfolio/engine/internal/database"
	"github.com/gitfolio/engine/internal/errors"
	"github.com/gitfolio/engine/internal/monitoring"
	"github.com/gitfolio/engine/internal/portfolio"
	"github.com/gitfolio/engine/internal/ratelimit"
	"github.com/gitfolio/engine/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := monitoring.NewLogger()
	appLogger.SetLevel(parseLogLevel(cfg.LogLevel))
	slog.SetDefault(appLogger.Logger)

	appMetrics := monitoring.NewMetrics()

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := database.NewStore(db)

	baselines, err := analysis.NewBaselineStore(cfg.DataDir).Load(cfg.BaselineCohort)
	if err != nil {
		slog.Error("Failed to load baselines", "cohort", cfg.BaselineCohort, "error", err)
		os.Exit(1)
	}

	builder := portfolio.NewBuilder(portfolio.Options{
		Baselines: baselines,
		Quantile:  cfg.NormalizationQuantile,
		TopN:      cfg.TopProjects,
		Logger:    appLogger.Logger,
	})

	githubAdapter := adapters.NewGitHubAdapter(cfg.GitHubToken, appLogger, appMetrics)

	redisClient, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	defer redisClient.Close()

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimitPerMin:      cfg.IPLimitPerMin,
		GenerateLimitPerHr: cfg.GenerateLimitPerHr,
		BurstMultiplier:    ratelimit.DefaultConfig().BurstMultiplier,
	}, appMetrics)

	appCache := cache.New(time.Duration(cfg.CacheTTLSeconds) * time.Second)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(monitoring.Middleware(appMetrics, appLogger))
	r.Use(errors.ErrorHandler())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(limiter.IPRateLimitMiddleware())
	r.Use(limiter.GenerationRateLimitMiddleware())
	r.Use(appCache.Middleware(appLogger, appMetrics))

	// Score a caller-supplied payload without touching the data source.
	r.POST("/portfolio", func(c *gin.Context) {
		var payload types.UserPayload
		if err := c.BindJSON(&payload); err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		result, err := builder.Build(payload, time.Now())
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, result)
	})

	// Fetch from GitHub, score, persist, and return the artifact.
	r.POST("/portfolio/generate", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
		defer cancel()

		var req types.GenerateRequest
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		username := strings.ToLower(strings.TrimSpace(req.Username))
		if username == "" {
			appErr := errors.NewValidationError("username cannot be empty")
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		start := time.Now()

		payload, err := githubAdapter.FetchUserPayload(ctx, username)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			if logErr := store.LogGeneration(username, "", time.Since(start), 0, 0, err); logErr != nil {
				slog.Warn("Failed to record generation failure", "username", username, "error", logErr)
			}
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		result, err := builder.Build(payload, time.Now())
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			if logErr := store.LogGeneration(username, "", time.Since(start), len(payload.Repositories), 0, err); logErr != nil {
				slog.Warn("Failed to record generation failure", "username", username, "error", logErr)
			}
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		duration := time.Since(start)

		if err := store.SavePortfolio(result); err != nil {
			// The artifact is still valid; persistence failure degrades to a warning.
			slog.Warn("Failed to persist portfolio", "username", username, "error", err)
		}
		if err := store.LogGeneration(username, result.ID, duration, len(payload.Repositories), len(result.TopProjects), nil); err != nil {
			slog.Warn("Failed to record generation", "username", username, "error", err)
		}

		appMetrics.IncrementPortfoliosGenerated()
		appLogger.GenerationLogger(username, len(payload.Repositories), len(result.TopProjects), len(result.Skills), duration, false)

		c.JSON(http.StatusOK, result)
	})

	// Serve the most recent persisted artifact for a username.
	r.GET("/portfolio/:username", func(c *gin.Context) {
		username := strings.ToLower(strings.TrimSpace(c.Param("username")))

		stored, err := store.LatestPortfolio(username)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		if stored == nil {
			appErr := errors.NewNotFoundError("no portfolio generated for " + username)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, stored.Portfolio)
	})

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		httpStatus := http.StatusOK

		checks := gin.H{"redis": "disabled"}
		if redisClient.IsEnabled() {
			if err := redisClient.HealthCheck(c.Request.Context()); err != nil {
				checks["redis"] = "unhealthy"
				status = "degraded"
			} else {
				checks["redis"] = "ok"
			}
		}

		if err := db.PingContext(c.Request.Context()); err != nil {
			checks["database"] = "unhealthy"
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"version":   portfolio.EngineVersion,
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    checks,
		})
	})

	r.GET("/metrics", func(c *gin.Context) {
		stats := appMetrics.GetStats()
		stats["rate_limiter"] = limiter.GetStats()
		c.JSON(http.StatusOK, stats)
	})

	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, appCache.Stats())
	})

	r.GET("/pools/database", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "database",
			"stats": db.GetPoolStats(),
		})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "addr", cfg.Addr, "version", portfolio.EngineVersion)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
