package api

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/config"
	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/db/repositories"
	"seaborne/voyagedesk/internal/logging"
	"seaborne/voyagedesk/internal/metrics"
	"seaborne/voyagedesk/internal/services"
)

type Repositories struct {
	Reports   *repositories.ReportRepo
	Voyages   *repositories.VoyageRepo
	Vessels   *repositories.VesselRepo
	Users     *repositories.UserRepositoryGORM
	Summaries *repositories.VoyageSummaryRepo
}

type Services struct {
	Cache      common.CacheInterface
	Locker     common.VoyageLocker
	Events     common.EventStream
	State      *services.VoyageStateService
	Submission *services.ReportSubmissionService
	Review     *services.ReviewService
	Cascade    *services.CascadeService
	Export     *services.VoyageExportService
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry
	SQL      *sqlx.DB
	Redis    *redis.Client
}

// InitDependencies wires repositories and services. A nil redisClient
// selects the in-process cache, locks and event stream.
func InitDependencies(
	ctx context.Context,
	cfg *config.Config,
	sqlDB *sqlx.DB,
	gormDB *gorm.DB,
	redisClient *redis.Client,
	m *metrics.MetricsRegistry,
) (*Dependencies, error) {

	repos := &Repositories{
		Reports:   repositories.NewReportRepo(gormDB),
		Voyages:   repositories.NewVoyageRepo(gormDB),
		Vessels:   repositories.NewVesselRepo(gormDB),
		Users:     repositories.NewUserRepositoryGORM(gormDB),
		Summaries: repositories.NewVoyageSummaryRepo(sqlDB),
	}

	var (
		cacheSvc common.CacheInterface
		locker   common.VoyageLocker
		events   common.EventStream
	)
	if redisClient != nil {
		stream := common.NewRedisEventStream(redisClient, constants.VoyageEventStream, constants.VoyageEventGroup)
		if err := stream.CreateConsumerGroup(ctx); err != nil {
			return nil, err
		}
		cacheSvc = common.NewRedisCacheService(redisClient)
		locker = common.NewRedisVoyageLocker(redisClient, cfg.VoyageLockTTL)
		events = stream
		logging.Info("Using Redis for cache, locks and voyage events")
	} else {
		cacheSvc = common.NewCacheService(cfg.StateCacheTTL, 10*time.Minute)
		locker = common.NewLocalVoyageLocker()
		events = common.NewMemoryEventStream(1024)
		logging.Info("Using in-memory cache, locks and voyage events")
	}

	state := services.NewVoyageStateService(repos.Reports, repos.Voyages, cacheSvc, cfg.StateCacheTTL, m)

	svcs := &Services{
		Cache:      cacheSvc,
		Locker:     locker,
		Events:     events,
		State:      state,
		Submission: services.NewReportSubmissionService(repos.Reports, repos.Voyages, repos.Vessels, locker, events, state, m),
		Review:     services.NewReviewService(gormDB, repos.Reports, repos.Voyages, repos.Vessels, locker, events, state, m),
		Cascade:    services.NewCascadeService(gormDB, repos.Reports, repos.Voyages, repos.Vessels, locker, events, state, m),
		Export:     services.NewVoyageExportService(repos.Reports, repos.Voyages),
	}

	return &Dependencies{
		Repo:     repos,
		Services: svcs,
		Metrics:  m,
		SQL:      sqlDB,
		Redis:    redisClient,
	}, nil
}
