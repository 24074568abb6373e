//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/codify/internal/bootstrap"
	"github.com/yanqian/codify/internal/domain/forecast"
	"github.com/yanqian/codify/internal/domain/recommendation"
	"github.com/yanqian/codify/internal/domain/region"
	"github.com/yanqian/codify/internal/infra/config"
	httpiface "github.com/yanqian/codify/internal/interface/http"
	"github.com/yanqian/codify/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		providePostgresPool,
		provideValkeyClient,
		provideWeatherCache,
		provideWardrobeRepository,
		provideRecommendationCache,
		provideForecastService,
		provideRefreshTargets,
		provideWeatherRefresher,
		provideScheduler,
		provideChatClient,
		provideTokenCounter,
		provideRecommendationConfig,
		provideTokenVerifier,
		region.NewResolver,
		recommendation.NewService,
		wire.Bind(new(recommendation.Forecaster), new(*forecast.Service)),
		wire.Bind(new(httpiface.WeatherService), new(*forecast.Service)),
		wire.Bind(new(httpiface.RegionResolver), new(*region.Resolver)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
