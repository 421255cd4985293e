package main

import (
	"github.com/wfunc/georoom/config"
	"github.com/wfunc/georoom/logger"
	"github.com/wfunc/georoom/monitor"
	"github.com/wfunc/georoom/panorama"
	"github.com/wfunc/georoom/server"
	"github.com/wfunc/georoom/store"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the room store
	var roomStore store.Store
	switch cfg.Store.Backend {
	case "postgres":
		pg, err := store.NewPostgres(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer pg.Close()
		roomStore = pg
		logger.Log.Info("Using the postgres room store.")
	default:
		roomStore = store.NewMemory()
		logger.Log.Info("Using the in-memory room store.")
	}

	// Location sampling. AcceptAll stands in until a real imagery provider
	// is configured.
	finder := panorama.NewFinder(panorama.AcceptAll{})

	// Metrics
	mon := monitor.NewMonitor("georoom")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Initialize the gateway
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress, roomStore, finder, mon, cfg.Game)

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
