package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/face-pipeline/internal/auth"
	"github.com/example/face-pipeline/internal/config"
	"github.com/example/face-pipeline/internal/handlers"
	"github.com/example/face-pipeline/internal/pipeline"
	"github.com/example/face-pipeline/internal/repository"
	"github.com/example/face-pipeline/internal/stageclient"
	"github.com/example/face-pipeline/internal/usecase"
)

var bffOpts struct {
	addr           string
	converterURL   string
	detectorURL    string
	convertTimeout time.Duration
	detectTimeout  time.Duration
	databaseDSN    string
	redisAddr      string
	jwtSecret      string
	jwtAudience    string
}

var bffCmd = &cobra.Command{
	Use:   "bff",
	Short: "Serve POST /detect-faces, chaining the converter and detector services",
	RunE: func(cmd *cobra.Command, args []string) error {
		if bffOpts.converterURL == "" || bffOpts.detectorURL == "" {
			return errors.New("FILE_CONVERTER_URL and FACE_DETECTION_URL must be set")
		}
		ctx := cmd.Context()
		log := logger.Named("bff")

		repo, err := initRunRepository(ctx, log)
		if err != nil {
			return err
		}
		cache, err := initCache(ctx, log)
		if err != nil {
			return err
		}

		stages := stageclient.New(&http.Client{}, bffOpts.converterURL, bffOpts.detectorURL, log)
		orchestrator := pipeline.New(stages, stages, pipeline.Timeouts{
			Normalize: bffOpts.convertTimeout,
			Detect:    bffOpts.detectTimeout,
		}, log)
		uc := usecase.NewDetectionUseCase(repo, cache, orchestrator, log)

		router := gin.Default()
		handlers.RegisterPipelineRoutes(router, uc, auth.JWTMiddleware(bffOpts.jwtSecret, bffOpts.jwtAudience), log)
		return serve(ctx, "bff", bffOpts.addr, router)
	},
}

func initRunRepository(ctx context.Context, log *zap.Logger) (usecase.RunRepository, error) {
	if bffOpts.databaseDSN == "" {
		log.Warn("DATABASE_DSN not set, pipeline runs are not persisted")
		return usecase.NopRepository{}, nil
	}

	db, err := gorm.Open(postgres.Open(bffOpts.databaseDSN), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access db handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	repo := repository.NewRunRepository(db, log)
	if err := repo.AutoMigrate(pingCtx); err != nil {
		return nil, fmt.Errorf("auto migrate failed: %w", err)
	}
	return repo, nil
}

func initCache(ctx context.Context, log *zap.Logger) (usecase.Cache, error) {
	if bffOpts.redisAddr == "" {
		log.Warn("REDIS_ADDR not set, run status is not cached")
		return usecase.NopCache{}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: bffOpts.redisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return usecase.NewRedisCache(client), nil
}

func init() {
	defaults := pipeline.DefaultTimeouts()
	convertTimeout, err := config.Duration("CONVERT_TIMEOUT", defaults.Normalize)
	exitOnConfigError(err)
	detectTimeout, err := config.Duration("DETECT_TIMEOUT", defaults.Detect)
	exitOnConfigError(err)

	flags := bffCmd.Flags()
	flags.StringVar(&bffOpts.addr, "addr", config.Env("LISTEN_ADDR", ":8000"), "Listen address")
	flags.StringVar(&bffOpts.converterURL, "converter-url", config.Env("FILE_CONVERTER_URL", ""), "Base URL of the converter service")
	flags.StringVar(&bffOpts.detectorURL, "detector-url", config.Env("FACE_DETECTION_URL", ""), "Base URL of the detector service")
	flags.DurationVar(&bffOpts.convertTimeout, "convert-timeout", convertTimeout, "Deadline for the normalize stage")
	flags.DurationVar(&bffOpts.detectTimeout, "detect-timeout", detectTimeout, "Deadline for the detect stage")
	flags.StringVar(&bffOpts.databaseDSN, "database-dsn", config.Env("DATABASE_DSN", ""), "Postgres DSN for the run log (optional)")
	flags.StringVar(&bffOpts.redisAddr, "redis-addr", config.Env("REDIS_ADDR", ""), "Redis address for run status (optional)")
	flags.StringVar(&bffOpts.jwtSecret, "jwt-secret", config.Env("JWT_SECRET", ""), "HMAC secret for operator endpoints")
	flags.StringVar(&bffOpts.jwtAudience, "jwt-audience", config.Env("JWT_AUDIENCE", ""), "Required JWT audience (optional)")
	rootCmd.AddCommand(bffCmd)
}
