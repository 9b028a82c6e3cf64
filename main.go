package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vaikhari/vaikhari/backend/api/handlers"
	"github.com/vaikhari/vaikhari/backend/api/internal/circles"
	"github.com/vaikhari/vaikhari/backend/api/internal/config"
	"github.com/vaikhari/vaikhari/backend/api/internal/database"
	"github.com/vaikhari/vaikhari/backend/api/internal/fireauth"
	"github.com/vaikhari/vaikhari/backend/api/internal/sessions"
	"github.com/vaikhari/vaikhari/backend/api/internal/storage"
	"github.com/vaikhari/vaikhari/backend/api/internal/users"
	"github.com/vaikhari/vaikhari/backend/api/pkg/logger"
	"github.com/vaikhari/vaikhari/backend/api/pkg/metrics"
	"github.com/vaikhari/vaikhari/backend/api/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: env=%s mongo=%v redis=%v", cfg.Server.Environment, cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if cfg.CORS.Origin == "" || cfg.CORS.Origin == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = strings.Split(cfg.CORS.Origin, ",")
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	if cfg.Server.Compression {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	// Redis first so the revocation list and rate limiter can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("redis unreachable (%s:%s), continuing without revocation list: %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			sessions.SetRevocationClient(redisClient)
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	ctx := context.Background()

	// MongoDB is required; user documents and circle feeds live there
	mongoClient, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = mongoClient.Disconnect(ctx) }()
	db := mongoClient.Database(cfg.MongoDB.Database)

	userSvc := users.NewService(users.NewMongoUserRepository(db.Collection("users")), cfg.Auth.RootAdminEmails)
	circleSvc := circles.NewService(circles.NewMongoRepository(db.Collection("circle_posts")))

	var auth handlers.AuthClient
	if cfg.Auth.AllowInsecureToken {
		logger.Warn("ALLOW_INSECURE_TOKEN=true: token signatures are NOT verified")
		auth = fireauth.NewInsecureClient()
	} else {
		client, err := fireauth.NewClient(ctx, cfg.Firebase)
		if err != nil {
			logger.Fatalf("firebase init failed: %v", err)
		}
		auth = client
	}

	authn := middleware.Authenticate(auth, userSvc)
	api := r.Group("/api")
	handlers.NewAuthHandler(cfg, auth, userSvc).Register(api, authn)
	handlers.NewAdminHandler(userSvc, auth, db).Register(api, authn)
	handlers.NewCirclesHandler(circleSvc).Register(api, authn)

	// media endpoints only when object storage is configured
	var mediaStore *storage.MediaStorage
	if mcfg := storage.LoadMediaConfig(); mcfg != nil && mcfg.Endpoint != "" {
		mediaStore, err = storage.NewMediaStorage(mcfg)
		if err != nil {
			logger.Warnf("media storage unavailable: %v", err)
		} else {
			handlers.NewMediaHandler(mediaStore).Register(api, authn)
			logger.Infof("media storage ready (bucket=%s)", mcfg.Bucket)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["mongodb"] = mongoClient.Ping(c.Request.Context(), nil) == nil
		if !deps["mongodb"] {
			ready = false
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil && redisClient.Ping(c.Request.Context()).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		}
		deps["auth"] = auth != nil
		deps["media"] = mediaStore != nil

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting api on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
