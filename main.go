package main

import (
	"context"

	"github.com/signalforge/forge-agent/config"
	"github.com/signalforge/forge-agent/internal/auth"
	"github.com/signalforge/forge-agent/internal/certs"
	"github.com/signalforge/forge-agent/internal/dns"
	"github.com/signalforge/forge-agent/internal/engine"
	"github.com/signalforge/forge-agent/internal/fleet"
	"github.com/signalforge/forge-agent/internal/health"
	"github.com/signalforge/forge-agent/internal/logging"
	"github.com/signalforge/forge-agent/internal/nginx"
	"github.com/signalforge/forge-agent/internal/project"
	"github.com/signalforge/forge-agent/internal/websocket"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		config.Module,
		logging.Module,
		engine.Module,
		fleet.Module,
		project.Module,
		nginx.Module,
		certs.Module,
		dns.Module,
		health.Module,
		websocket.Module,
		fx.Provide(NewEcho),
		fx.Invoke(EnsureDirectories),
		fx.Invoke(RegisterRoutes),
		fx.Invoke(StartServer),
		fx.Invoke(StartWebSocketHub),
		fx.Invoke(StartFleetLoops),
		fx.Invoke(StartServiceCountCache),
	).Run()
}

func NewEcho() *echo.Echo {
	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	return e
}

func EnsureDirectories(cfg *config.Config) error {
	return cfg.EnsureDirectories()
}

func RegisterRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *logging.Logger,
	healthHandler *health.Handler,
	fleetHandler *fleet.Handler,
	projectHandler *project.Handler,
	nginxHandler *nginx.Handler,
	certsHandler *certs.Handler,
	dnsHandler *dns.Handler,
	wsHandler *websocket.Handler,
) {
	api := e.Group("/api")
	api.Use(auth.TokenMiddleware(cfg.AccessToken, logger))

	api.GET("/health", healthHandler.Health)

	api.GET("/fleet", fleetHandler.GetFleet)
	api.GET("/fleet/summary", fleetHandler.GetSummary)
	api.POST("/fleet/refresh", fleetHandler.RefreshNow)
	api.GET("/containers", fleetHandler.GetContainers)
	api.POST("/containers/:id/start", fleetHandler.StartContainer)
	api.POST("/containers/:id/stop", fleetHandler.StopContainer)
	api.POST("/containers/:id/restart", fleetHandler.RestartContainer)
	api.GET("/containers/:id/logs", fleetHandler.GetContainerLogs)

	api.GET("/projects", projectHandler.List)
	api.POST("/projects", projectHandler.Create)
	api.GET("/projects/:id", projectHandler.Get)
	api.PUT("/projects/:id", projectHandler.Update)
	api.DELETE("/projects/:id", projectHandler.Delete)
	api.GET("/projects/:id/compose", projectHandler.GetCompose)
	api.PUT("/projects/:id/compose", projectHandler.SaveCompose)
	api.POST("/projects/:id/up", projectHandler.Up)
	api.POST("/projects/:id/down", projectHandler.Down)
	api.POST("/projects/:id/restart", projectHandler.Restart)
	api.GET("/projects/:id/status", projectHandler.Status)
	api.GET("/projects/:id/services", projectHandler.ServiceCount)

	api.GET("/vhosts", nginxHandler.List)
	api.POST("/vhosts", nginxHandler.Create)
	api.GET("/vhosts/:id", nginxHandler.Get)
	api.PUT("/vhosts/:id", nginxHandler.Update)
	api.DELETE("/vhosts/:id", nginxHandler.Delete)
	api.GET("/vhosts/:id/config", nginxHandler.GetConfig)
	api.PUT("/vhosts/:id/config", nginxHandler.SaveConfig)
	api.POST("/nginx/test", nginxHandler.TestConfig)
	api.POST("/nginx/reload", nginxHandler.Reload)
	api.GET("/nginx/default-config", nginxHandler.DefaultConfig)

	api.GET("/certs/status", certsHandler.Status)
	api.POST("/certs/install-ca", certsHandler.InstallCA)
	api.GET("/certs", certsHandler.List)
	api.POST("/certs", certsHandler.Generate)
	api.GET("/certs/:domain", certsHandler.Get)
	api.DELETE("/certs/:domain", certsHandler.Delete)

	api.GET("/dns/status", dnsHandler.Status)
	api.POST("/dns/configure", dnsHandler.ConfigureTLD)
	api.GET("/dns/domains", dnsHandler.List)
	api.POST("/dns/domains", dnsHandler.Add)
	api.DELETE("/dns/domains/:name", dnsHandler.Remove)
	api.GET("/dns/domains/:name/test", dnsHandler.TestResolution)
	api.GET("/dns/hosts", dnsHandler.HostsEntries)

	e.GET("/ws", wsHandler.HandleWebSocket)
}

func StartWebSocketHub(lc fx.Lifecycle, hub *websocket.Hub, bridge *websocket.Bridge) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go hub.Run()
			bridge.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			bridge.Stop()
			hub.Stop()
			return nil
		},
	})
}

// StartFleetLoops brings up the refresh scheduler and the engine event
// monitor, after seeding the store with a first snapshot when the
// engine is already reachable.
func StartFleetLoops(
	lc fx.Lifecycle,
	monitor *fleet.Monitor,
	fetcher *fleet.Fetcher,
	scheduler *fleet.Scheduler,
	events *fleet.EventMonitor,
	client engine.Client,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if monitor.Connect(ctx) {
				go func() {
					_ = fetcher.Refresh(context.Background())
				}()
			}
			scheduler.Start()
			events.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			events.Stop()
			scheduler.Stop()
			return nil
		},
	})
}

func StartServiceCountCache(lc fx.Lifecycle, cache *project.ServiceCountCache) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return cache.Start()
		},
		OnStop: func(ctx context.Context) error {
			cache.Stop()
			return nil
		},
	})
}

func StartServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(":" + cfg.Port); err != nil {
					e.Logger.Fatal("Server failed to start:", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
