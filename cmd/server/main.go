package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"taskboard/internal/api"
	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/repository"
	"taskboard/internal/platform/cache"
	"taskboard/internal/platform/config"
	"taskboard/internal/platform/database"
	"taskboard/internal/platform/logger"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

type stores struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	close    func()
}

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.WithField("store", cfg.StoreDriver).Info("configuration loaded")

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 2. Initialize storage
	st, err := openStores(startCtx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("could not open store")
	}
	defer st.close()

	// 3. Optional revocation set
	var revocations repository.RevocationRepository
	if cfg.TokenRevocation {
		rdb, err := cache.OpenRedis(startCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Fatal("could not connect to redis")
		}
		defer closeRedis(rdb, log)
		revocations = repository.NewRedisRevocationRepository(rdb)
		log.Info("token revocation enabled")
	}

	// 4. Security primitives
	tokens, err := security.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTExp)
	if err != nil {
		log.WithError(err).Fatal("could not create token issuer")
	}
	hasher := security.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)

	// 5. Initialize Services
	userService := service.NewUserService(st.users, hasher, revocations, tokens.TTL(), log)
	svc := api.Services{
		Auth:     service.NewAuthService(st.users, hasher, tokens, log),
		Users:    userService,
		Projects: service.NewProjectService(st.projects, st.users, log),
		Tasks:    service.NewTaskService(st.tasks, st.projects, log),
	}

	if cfg.BootstrapAdminEmail != "" {
		if _, err := userService.EnsureAdmin(startCtx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminName, cfg.BootstrapAdminPassword); err != nil {
			log.WithError(err).Fatal("could not seed bootstrap admin")
		}
	}

	// 6. Initialize Router & HTTP Server
	authn := middleware.NewAuthenticator(tokens, revocations, log)
	router := api.NewRouter(svc, authn, log, cfg.RequestTimeout)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.APIPort).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatalf("could not listen on %s", cfg.APIPort)
		}
	}()

	<-stop // Wait for interrupt signal

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
		return
	}
	log.Info("server stopped gracefully")
}

func openStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := database.OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := ensureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.WithField("database", cfg.MongoDatabase).Info("connected to mongodb")
		return &stores{
			users:    repository.NewMongoUserRepository(db),
			projects: repository.NewMongoProjectRepository(db),
			tasks:    repository.NewMongoTaskRepository(db),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.WithError(err).Warn("mongodb disconnect failed")
				}
			},
		}, nil

	case config.StorePostgres:
		db, err := database.OpenPostgres(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("connected to postgres")
		return &stores{
			users:    repository.NewPgUserRepository(db),
			projects: repository.NewPgProjectRepository(db),
			tasks:    repository.NewPgTaskRepository(db),
			close:    func() { closeSQL(db, log) },
		}, nil

	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return &stores{
			users:    repository.NewMemoryUserRepository(),
			projects: repository.NewMemoryProjectRepository(),
			tasks:    repository.NewMemoryTaskRepository(),
			close:    func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	if err := repository.EnsureUserIndexes(ctx, db); err != nil {
		return err
	}
	return repository.EnsureTaskIndexes(ctx, db)
}

func closeSQL(db *sql.DB, log logrus.FieldLogger) {
	if err := db.Close(); err != nil {
		log.WithError(err).Warn("database close failed")
	}
}

func closeRedis(rdb *redis.Client, log logrus.FieldLogger) {
	if err := rdb.Close(); err != nil {
		log.WithError(err).Warn("redis close failed")
	}
}
