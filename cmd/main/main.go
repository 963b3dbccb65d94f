package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"nday-analyzer/src/analysis"
	"nday-analyzer/src/cache"
	"nday-analyzer/src/config"
	datasource "nday-analyzer/src/data_source"
	"nday-analyzer/src/grpc_control"
	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/metrics"
	"nday-analyzer/src/network"
	"nday-analyzer/src/server"
	"nday-analyzer/src/storage"
)

const maintenanceInterval = time.Hour

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 1. Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Setup(config.LogLevel, config.LogFormat, os.Stdout); err != nil {
		fmt.Printf("Error configuring logger: %v\n", err)
		os.Exit(1)
	}
	appLogger := logger.NewLogger(config, config.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Storage
	db, err := storage.NewDatabase(config.MConfig, appLogger.Named("Storage"))
	if err != nil {
		appLogger.Critical("%v", err)
	}

	// 3. Cache, network and data sources
	recorder := metrics.New()

	seriesCache, err := cache.NewSeriesCache(ctx, config.MConfig, appLogger.Named("Cache"))
	if err != nil {
		appLogger.Critical("Failed to init cache: %v", err)
	}

	var networkManager interfaces.INetworkManager = network.NewAsyncNetworkManager(config.MConfig, appLogger.Named("Network"))

	sources, err := datasource.BuildSourceRegistry(config.MConfig, networkManager, seriesCache, recorder, appLogger.Named("Sources"))
	if err != nil {
		appLogger.Critical("Failed to build data sources: %v", err)
	}

	// 4. HTTP server and analyzer
	srv := server.NewHTTPServer(config.MConfig, db, recorder, appLogger.Named("HTTP"))
	analyzer := analysis.NewAnalyzer(config.MConfig, sources, db, srv, recorder, appLogger.Named("Analyzer"))
	srv.Analyzer = analyzer

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	// 5. Optional gRPC control plane
	var grpcStop func()
	if config.GrpcPort > 0 {
		addr := fmt.Sprintf("%s:%d", config.GrpcHost, config.GrpcPort)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			appLogger.Critical("Failed to listen for gRPC on %s: %v", addr, err)
		}
		grpcSrv := grpc_control.NewServer(grpc_control.NewControlService(analyzer, db, appLogger.Named("gRPC")), appLogger.Named("gRPC"))
		grpcStop = grpcSrv.GracefulStop

		go func() {
			appLogger.Info("Starting gRPC control on %s", addr)
			if err := grpcSrv.Serve(lis); err != nil {
				appLogger.Error("gRPC server failed: %v", err)
			}
		}()
	}

	// 6. Maintenance: retention cleanup and cache purge
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		runMaintenance(ctx, db, seriesCache, appLogger.Named("Maintenance"))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
	wg.Wait()

	if grpcStop != nil {
		grpcStop()
	}
	if err := srv.Stop(); err != nil {
		appLogger.Error("HTTP shutdown: %v", err)
	}
	if closer, ok := seriesCache.(io.Closer); ok {
		_ = closer.Close()
	}
	if db != nil {
		if err := db.Close(); err != nil {
			appLogger.Error("Failed to close db: %v", err)
		}
	}
}

// -----------------------------------------------------------------------------

func runMaintenance(ctx context.Context, db interfaces.IDatabase, seriesCache interfaces.ISeriesCache, log *logger.Logger) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		if db != nil {
			if err := db.CleanupOldData(); err != nil {
				log.Error("Retention cleanup failed: %v", err)
			}
		}
		if mem, ok := seriesCache.(*cache.MemoryCache); ok {
			if n := mem.Purge(); n > 0 {
				log.Debug("Purged %d expired series", n)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
