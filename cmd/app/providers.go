package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/genui-analytics/internal/domain/dashboard"
	"github.com/yanqian/genui-analytics/internal/domain/location"
	"github.com/yanqian/genui-analytics/internal/infra/config"
	"github.com/yanqian/genui-analytics/internal/infra/geolocate"
	"github.com/yanqian/genui-analytics/internal/infra/mapkit"
	"github.com/yanqian/genui-analytics/internal/infra/profileapi"
	"github.com/yanqian/genui-analytics/internal/infra/sessionstore"
	httpiface "github.com/yanqian/genui-analytics/internal/interface/http"
)

func provideProfileClient(cfg *config.Config) *profileapi.Client {
	return profileapi.NewClient(cfg.Backend.BaseURL, profileapi.Mode(strings.ToLower(cfg.Backend.FetchMode)), cfg.Backend.Timeout)
}

func provideLocator(cfg *config.Config) (location.Locator, error) {
	return geolocate.New(cfg.Location.Provider, cfg.Location.IPAPIBaseURL)
}

func providePositionOptions(cfg *config.Config) location.PositionOptions {
	return location.PositionOptions{
		HighAccuracy: cfg.Location.HighAccuracy,
		Timeout:      cfg.Location.Timeout,
		MaximumAge:   cfg.Location.MaximumAge,
	}
}

func provideDashboardConfig(cfg *config.Config) dashboard.Config {
	return dashboard.Config{IntroDelay: cfg.View.IntroDelay}
}

func provideMapKit(cfg *config.Config, logger *slog.Logger) *mapkit.SDK {
	return mapkit.New(mapkit.Config{
		TeamID:         cfg.Maps.TeamID,
		KeyID:          cfg.Maps.KeyID,
		PrivateKeyPEM:  cfg.Maps.PrivateKey,
		PrivateKeyPath: cfg.Maps.PrivateKeyPath,
		Origin:         cfg.Maps.Origin,
		TokenTTL:       cfg.Maps.TokenTTL,
	}, logger)
}

func providePageConfig(cfg *config.Config, opts location.PositionOptions) httpiface.PageConfig {
	return httpiface.PageConfig{
		CookieName:   cfg.Session.CookieName,
		CookieTTL:    cfg.Session.TTL,
		SecureCookie: len(cfg.HTTP.AllowedOrigins) > 0 && strings.HasPrefix(cfg.HTTP.AllowedOrigins[0], "https://"),
		MapWidth:     cfg.View.MapWidth,
		MapHeight:    cfg.View.MapHeight,
		ChartsAssets: cfg.View.ChartsAssets,
		Geolocation:  opts,
	}
}

func provideSessionStore(cfg *config.Config, logger *slog.Logger) dashboard.Store {
	if cfg.Session.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return sessionstore.NewMemoryStore(cfg.Session.TTL)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return sessionstore.NewMemoryStore(cfg.Session.TTL)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
		} else {
			logger.Info("session valkey store enabled", "addr", cfg.Session.Valkey.Addr)
			return sessionstore.NewValkeyStore(client, cfg.Session.Valkey.Prefix, cfg.Session.TTL)
		}
	}
	return sessionstore.NewMemoryStore(cfg.Session.TTL)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Session.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Session.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Session.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
