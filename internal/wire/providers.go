package wire

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cleanuptracker/internal/common"
	"cleanuptracker/internal/config"
	"cleanuptracker/internal/dbmysql"
	"cleanuptracker/internal/health"
	"cleanuptracker/internal/notif"
)

type Application struct {
	Config      *config.Config
	Logger      *zap.SugaredLogger
	DB          *gorm.DB
	Store       *dbmysql.Repository
	Registry    *notif.Registry
	Coordinator *notif.Coordinator
	Dispatcher  *notif.Dispatcher
	Handler     *notif.Handler
	Health      *health.Server
}

func ProvideConfig() *config.Config {
	return config.LoadConfig()
}

func ProvideTokenManager(cfg *config.Config) *common.TokenManager {
	return common.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
}

func ProvideHealthServer(repo *dbmysql.Repository, cfg *config.Config, log *zap.SugaredLogger) *health.Server {
	return health.NewServer(repo, cfg.Notification.HealthCheckInterval, log)
}
