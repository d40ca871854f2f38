package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tunedrop/api"
	"github.com/yourusername/tunedrop/internal/app"
	"github.com/yourusername/tunedrop/internal/domain"
	"github.com/yourusername/tunedrop/internal/infrastructure"
	"github.com/yourusername/tunedrop/pkg/logger"
)

var (
	configPath  = flag.String("config", "", "Path to config file (default: ./configs, $HOME/.tunedrop, /etc/tunedrop)")
	envFile     = flag.String("env-file", ".env", "Path to .env file")
	writeConfig = flag.String("write-config", "", "Write the effective configuration to this path and exit")
)

func main() {
	flag.Parse()

	if err := app.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load env file: %v\n", err)
		os.Exit(1)
	}

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig != "" {
		if err := app.SaveConfig(config, *writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", *writeConfig)
		return
	}

	if err := runServer(config); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(config *domain.Config) error {
	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	// Categorized files: pipeline, error and tools
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Downloader.LogsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize multi-logger: %w", err)
	}
	defer multiLog.Close()

	log.Info("Starting tunedrop server",
		zap.String("version", api.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("storage", config.Storage.Driver))

	if err := os.MkdirAll(config.Downloader.TempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := openRepository(ctx, &config.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	host, err := infrastructure.NewCloudinaryHost(&config.Media, log)
	if err != nil {
		return fmt.Errorf("failed to initialize media host: %w", err)
	}

	toolLog := infrastructure.NewToolLog(config.Downloader.LogsDir)
	runner := infrastructure.NewExecRunner(config.Downloader.ToolTimeout, toolLog, log)

	// Probe eagerly; downloads that arrive first probe on demand
	probe := infrastructure.NewCapabilityProbe(runner, config.Downloader.Binary,
		config.Downloader.ProbeTimeout, config.Downloader.OptionalFlags, log)
	probe.Start(ctx)

	var formats infrastructure.AudioFormatLister
	if config.Downloader.ListFormats {
		formats = infrastructure.NewFormatLister(runner, config.Downloader.Binary, log)
	}
	downloader := infrastructure.NewYTDLPDownloader(&config.Downloader, runner, probe, formats, log)
	transcoder := infrastructure.NewFFmpegTranscoder(&config.Transcoder, runner, log)
	metadata := infrastructure.NewMetadataFetcher(runner, config.Downloader.Binary, probe, log)

	uploads := app.NewUploadManager(host, &config.Media, log)
	pipeline := app.NewPipeline(downloader, transcoder, uploads, metadata, repo, config, log, multiLog)
	library := app.NewLibrary(repo, config.Cookies.Path, log)

	router := api.SetupRouter(api.RouterConfig{
		Pipeline: pipeline,
		Library:  library,
		Probe:    probe,
		Server:   &config.Server,
		Logger:   log,
		Events:   multiLog,
		LogsDir:  config.Downloader.LogsDir,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("Shutting down server...")
	cancel()

	// In-flight uploads may run for minutes; give them the tool timeout
	shutdownTimeout := 30 * time.Second
	if config.Downloader.ToolTimeout > shutdownTimeout {
		shutdownTimeout = config.Downloader.ToolTimeout
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}

// openRepository connects the configured storage driver
func openRepository(ctx context.Context, config *domain.StorageConfig) (domain.SongRepository, error) {
	switch config.Driver {
	case domain.StorageMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return infrastructure.NewMongoSongRepository(connectCtx, config.MongoURI, config.MongoDatabase)
	case domain.StorageSQLite, "":
		return infrastructure.NewSQLiteSongRepository(config.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.Driver)
	}
}
