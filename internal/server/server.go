package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pomelo/internal/ai"
	"pomelo/internal/config"
	"pomelo/internal/handler"
	authHandler "pomelo/internal/handler/auth"
	"pomelo/internal/pkg/cache"
	"pomelo/internal/pkg/jwt"
	"pomelo/internal/pkg/mongodb"
	"pomelo/internal/pkg/storagefactory"
	"pomelo/internal/repository"
	authRepo "pomelo/internal/repository/auth"
	"pomelo/internal/server/middleware"
	"pomelo/internal/service"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	mongo  *mongodb.Client
	redis  *cache.RedisCache
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 初始化 MongoDB (可选，未配置时对话与认证接口不可用)
	var mongoClient *mongodb.Client
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			mongoClient = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			if err := mongodb.EnsureIndexes(mongoClient.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	// 初始化 Redis (可选，未配置时配额台账不可用)
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	srv := &Server{
		cfg:    cfg,
		engine: engine,
		mongo:  mongoClient,
		redis:  redisCache,
	}

	if err := srv.setupRoutes(); err != nil {
		return nil, err
	}

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() error {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS(s.cfg.Server.AllowOrigins))

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.mongo, s.redis)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	jwtSecret := s.cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "default-secret-key-change-in-production"
		log.Warn().Msg("JWT secret not configured, using default (NOT SECURE for production)")
	}

	accessTokenExpiry := s.cfg.Auth.AccessTokenExpiry
	if accessTokenExpiry == 0 {
		accessTokenExpiry = 24 * time.Hour
	}

	jwtUtil := jwt.NewJWT(jwtSecret, accessTokenExpiry)

	// API v1
	v1 := s.engine.Group("/api/v1")

	if s.mongo == nil {
		log.Warn().Msg("MongoDB not configured, chat and auth endpoints disabled")
		return nil
	}

	db := s.mongo.Database()

	// 认证接口
	userRepo := authRepo.NewUserRepo(db)
	authSvc := service.NewAuthService(userRepo, jwtSecret, accessTokenExpiry)
	authHdl := authHandler.NewHandler(authSvc)

	v1.POST("/auth/register", authHdl.Register)
	v1.POST("/auth/login", authHdl.Login)
	v1.GET("/auth/me", middleware.Auth(jwtUtil), authHdl.GetMe)

	// 对话接口
	configRepo := repository.NewChatConfigRepo(db)
	chunkRepo := repository.NewChunkRepo(db)
	documentRepo := repository.NewDocumentRepo(db)
	convRepo := repository.NewConversationRepo(db)

	configSvc := service.NewConfigService(configRepo, s.cfg.Chat.ConfigCacheTTL)

	kbClient, err := ai.NewClient(s.cfg, chunkRepo)
	if err != nil {
		return err
	}

	// 文档下载增强（存储未配置时来源里不带下载地址）
	store, err := storagefactory.NewStorage(context.Background(), &s.cfg.Storage)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize storage, document urls disabled")
		store = nil
	}
	sourceSvc := service.NewSourceService(documentRepo, store, 15*time.Minute)

	if s.redis == nil {
		log.Warn().Msg("Redis not configured, chat endpoint disabled")
		return nil
	}

	quotaLedger := repository.NewQuotaLedger(s.redis.Client(), s.cfg.Chat.QuotaRecordTTL)

	chatSvc := service.NewChatService(configSvc, quotaLedger, kbClient, sourceSvc, convRepo)
	chatHdl := handler.NewChatHandler(chatSvc)
	convHdl := handler.NewConversationHandler(convRepo)
	adminHdl := handler.NewAdminHandler(configRepo)

	v1.POST("/chat", middleware.OptionalAuth(jwtUtil), chatHdl.Chat)

	conversations := v1.Group("/conversations", middleware.Auth(jwtUtil))
	conversations.GET("", convHdl.List)
	conversations.GET("/:id", convHdl.Get)
	conversations.DELETE("/:id", convHdl.Delete)

	admin := v1.Group("/admin", middleware.Auth(jwtUtil), middleware.RequireRole("admin"))
	admin.GET("/chat-config", adminHdl.GetChatConfig)
	admin.PUT("/chat-config", adminHdl.UpdateChatConfig)

	return nil
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		if s.mongo != nil {
			if err := s.mongo.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
