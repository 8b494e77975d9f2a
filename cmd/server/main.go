package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"career-roadmap/internal/cache"
	"career-roadmap/internal/config"
	"career-roadmap/internal/events"
	apphttp "career-roadmap/internal/http"
	"career-roadmap/internal/llm"
	"career-roadmap/internal/repository"
	"career-roadmap/internal/repository/mongodb"
	"career-roadmap/internal/repository/sqlite"
	"career-roadmap/internal/service"
	"career-roadmap/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warnf("close: %v", err)
			}
		}
	}()

	userRepo, closer, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	closers = append(closers, closer)
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	var userCache cache.UserCache = cache.Nop{}
	if cfg.Cache.RedisAddr != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr, time.Duration(cfg.Cache.TTLSeconds)*time.Second, logger)
		if err != nil {
			logger.Warnf("redis unavailable, roadmap cache disabled: %v", err)
		} else {
			userCache = redisCache
			closers = append(closers, redisCache)
			logger.Infof("caching roadmaps in redis at %s", cfg.Cache.RedisAddr)
		}
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			logger.Warnf("amqp unavailable, plan events disabled: %v", err)
		} else {
			publisher = amqpPublisher
			closers = append(closers, amqpPublisher)
			logger.Infof("publishing plan events to exchange %s", cfg.Events.Exchange)
		}
	}

	model, err := llm.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup llm client: %v", err)
	}
	logger.Infof("using %s models planner=%s chat=%s", cfg.LLM.Provider, cfg.LLM.PlannerModel, cfg.LLM.ChatModel)

	userService := service.NewUserService(userRepo, userCache)
	tokenService := service.NewTokenService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	planService := service.NewPlanService(service.PlanConfig{
		PlannerModel: cfg.LLM.PlannerModel,
		ChatModel:    cfg.LLM.ChatModel,
		KeyPrefix:    cfg.Storage.KeyPrefix,
	}, service.PlanDeps{
		Users:     userRepo,
		Model:     model,
		Storage:   storageSvc,
		Cache:     userCache,
		Publisher: publisher,
		Logger:    logger,
	})

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20
	handler := apphttp.NewHandler(userService, planService, tokenService, apphttp.Options{
		UploadDir:      cfg.Server.UploadDir,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		AuthHeader:     cfg.Auth.Header,
		AllowOrigins:   cfg.Server.AllowOrigins,
	}, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func openRepository(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.UserRepository, io.Closer, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		return sqlite.NewUserRepository(db), db, nil
	case config.DriverMongo:
		client, err := mongodb.Open(ctx, cfg.Database.URI)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using mongo database %s", cfg.Database.Name)
		closer := closeFunc(func() error {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(disconnectCtx)
		})
		return mongodb.NewUserRepository(client.Database(cfg.Database.Name)), closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// buildStorage returns nil when no bucket is configured; resumes are then
// only kept as extracted text.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured, resume archiving disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("archiving resumes to s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client, cfg.Storage.Bucket), nil
}
