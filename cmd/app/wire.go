//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/genui-analytics/internal/bootstrap"
	"github.com/yanqian/genui-analytics/internal/domain/dashboard"
	"github.com/yanqian/genui-analytics/internal/domain/location"
	"github.com/yanqian/genui-analytics/internal/domain/profile"
	"github.com/yanqian/genui-analytics/internal/domain/render"
	"github.com/yanqian/genui-analytics/internal/infra/config"
	"github.com/yanqian/genui-analytics/internal/infra/mapkit"
	"github.com/yanqian/genui-analytics/internal/infra/profileapi"
	httpiface "github.com/yanqian/genui-analytics/internal/interface/http"
	"github.com/yanqian/genui-analytics/pkg/logger"
	"github.com/yanqian/genui-analytics/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.New,
		provideProfileClient,
		provideLocator,
		providePositionOptions,
		provideDashboardConfig,
		provideSessionStore,
		provideMapKit,
		providePageConfig,
		profile.NewService,
		location.NewResolver,
		dashboard.NewService,
		render.NewMapRenderer,
		wire.Bind(new(profile.Fetcher), new(*profileapi.Client)),
		wire.Bind(new(dashboard.LocationResolver), new(*location.Resolver)),
		wire.Bind(new(render.SDK), new(*mapkit.SDK)),
		wire.Bind(new(httpiface.TokenSource), new(*mapkit.SDK)),
		wire.Bind(new(httpiface.HealthChecker), new(*profileapi.Client)),
		wire.Bind(new(bootstrap.BackendProbe), new(*profileapi.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
