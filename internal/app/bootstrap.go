// Package app is the composition root: it wires configuration, storage,
// the approval engine, services, background jobs and the HTTP router
// into a runnable Application.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"reqflow.io/reqflow/internal/api/handlers"
	"reqflow.io/reqflow/internal/api/middleware"
	"reqflow.io/reqflow/internal/config"
	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/engine"
	"reqflow.io/reqflow/internal/infrastructure"
	"reqflow.io/reqflow/internal/jobs"
	"reqflow.io/reqflow/internal/notification"
	"reqflow.io/reqflow/internal/pkg/worker"
	"reqflow.io/reqflow/internal/repository"
	"reqflow.io/reqflow/internal/service"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.DatabaseClients
	Pools  *worker.Pools
	Store  *repository.Store
}

// Bootstrap initializes all dependencies using manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	store := repository.NewStore(db.Pool)

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		NotifyPoolSize:  cfg.Worker.NotifyPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewNotificationDispatchWorker(store, nil))
	river.AddWorker(workers, jobs.NewNotificationCleanupWorker(db.GetWorkerPool(), jobs.DefaultNotificationRetention))
	if err := db.InitRiverClient(workers, cfg.River); err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init river client: %w", err)
	}

	// Inbox retention cleanup runs daily and once on startup.
	db.RiverClient.PeriodicJobs().Add(
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return jobs.NotificationCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	)

	dispatcher := domain.NewEventDispatcher()
	triggers := notification.NewTriggers(
		notification.NewInboxSender(store),
		pools,
		dispatcher,
		jobs.NewRiverEnqueuer(db.RiverClient),
	)

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSecret),
		Issuer:     cfg.Security.JWTIssuer,
		ExpiresIn:  cfg.Security.TokenLifetime,
	}

	server := handlers.NewServer(handlers.ServerDeps{
		Pool:          db.Pool,
		JWTCfg:        jwtCfg,
		Engine:        engine.New(store, triggers),
		Auth:          service.NewAuthService(store, cfg.Security.PasswordPolicy),
		Requisitions:  service.NewRequisitionService(store),
		Users:         service.NewUserService(store),
		Departments:   service.NewDepartmentService(store),
		Workflows:     service.NewWorkflowAdminService(store),
		Notifications: store,
	})

	return &Application{
		Config: cfg,
		Router: newRouter(cfg, server, jwtCfg),
		DB:     db,
		Pools:  pools,
		Store:  store,
	}, nil
}
