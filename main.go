package main

import (
	"context"
	"net/rpc"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/gamebackend/config"
	"github.com/wfunc/gamebackend/logger"
	"github.com/wfunc/gamebackend/monitor"
	"github.com/wfunc/gamebackend/persistence"
	gamebackend_rpc "github.com/wfunc/gamebackend/rpc"
	"github.com/wfunc/gamebackend/server"
	"github.com/wfunc/gamebackend/services"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Database
	db, err := openDatabase(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	// Metrics
	var mon *monitor.Monitor
	if cfg.Server.MetricsAddress != "" {
		mon = monitor.NewMonitor("gamebackend")
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	// Internal RPC for game servers
	var rpcServer *gamebackend_rpc.Server
	if cfg.Server.RPCAddress != "" {
		rpcServer, err = gamebackend_rpc.NewServer(cfg.Server.RPCAddress)
		if err != nil {
			logger.Log.Fatalf("Failed to create RPC server: %v", err)
		}
		profileService := gamebackend_rpc.NewProfileService(services.NewUserService(db))
		rpc.Register(profileService)
		go rpcServer.Start()
	}

	// API server
	apiServer := server.NewAPIServer(cfg.Server.HTTPAddress, db, mon)
	go func() {
		logger.Log.Infof("Starting game backend on %s", cfg.Server.HTTPAddress)
		if err := apiServer.Start(); err != nil {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Block until asked to stop, then tear down in order:
	// listener first, store last.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Log.Errorf("HTTP shutdown error: %v", err)
	}
	if rpcServer != nil {
		rpcServer.Stop()
	}
	if err := db.Close(); err != nil {
		logger.Log.Errorf("Database close error: %v", err)
	}
	logger.Log.Info("Shutdown complete.")
}

func openDatabase(cfg *config.Config) (persistence.Database, error) {
	pg := cfg.Database.Postgres
	if cfg.Database.Driver == "sql" {
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
}
