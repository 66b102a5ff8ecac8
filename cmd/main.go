package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plantsim/internal/config"
	"plantsim/internal/handlers"
	"plantsim/internal/logger"
	"plantsim/internal/repository"
	"plantsim/internal/repository/db"
	"plantsim/internal/server"
	"plantsim/internal/service"
	"plantsim/internal/sim"
)

const defaultDBPath = "plantsim.db"

func main() {
	// load config.yml first; log level comes from it
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	// open DB
	dbPath := cfg.DB.Path
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", defaultDBPath)
		dbPath = defaultDBPath
	}
	sqldb, err := db.InitDB(dbPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqldb.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// assemble the virtual plant from the roster and dependency edges
	engine, err := sim.Assemble(cfg)
	if err != nil {
		log.Fatalw("invalid plant configuration", "err", err)
	}

	// wire dependencies
	repos := repository.NewRepository(sqldb)
	services := service.NewService(repos, engine)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the simulation clock (via composed service)
	go services.Clock.Run(ctx, cfg.Sim.Tick)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	log.Infow("plant simulator up",
		"machines", len(cfg.Machines),
		"mode", cfg.Sim.Mode,
		"tick", cfg.Sim.Tick,
	)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
