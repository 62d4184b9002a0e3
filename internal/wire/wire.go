//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"cleanuptracker/internal/dbmysql"
	"cleanuptracker/internal/logger"
	"cleanuptracker/internal/notif"
)

func InitializeApplication() (*Application, error) {
	wire.Build(
		ProvideConfig,
		logger.New,
		dbmysql.NewDatabase,
		dbmysql.NewRepository,
		wire.Bind(new(notif.Store), new(*dbmysql.Repository)),
		wire.Bind(new(notif.Directory), new(*dbmysql.Repository)),
		notif.NewRegistry,
		notif.NewCoordinator,
		wire.Bind(new(notif.Announcer), new(*notif.Coordinator)),
		notif.NewDispatcher,
		ProvideTokenManager,
		notif.NewHandler,
		ProvideHealthServer,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
