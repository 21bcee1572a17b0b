package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/media-relay-go/api"
	"github.com/yourusername/media-relay-go/internal/app"
	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/internal/infrastructure"
	"github.com/yourusername/media-relay-go/pkg/logger"
)

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// If not in server mode, run as daemon
	if !*serverMode {
		startAsDaemon()
		return
	}

	// Run as server (called by daemon)
	runServer()
}

// startAsDaemon forks the current process and runs the server in background
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}

	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session
	}

	// Redirect output to /dev/null
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open /dev/null: %v\n", err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	// Console logger for the bootstrap phase, before the category loggers
	// have a directory to write to.
	boot := logger.NewDefault()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		boot.Fatal("Failed to load config", zap.Error(err))
	}

	if err := createDirectories(config); err != nil {
		boot.Fatal("Failed to create directories", zap.Error(err))
	}

	// Initialize multi-logger (3 categories: app, notify, error)
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir(),
	})
	if err != nil {
		boot.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer multiLog.Close()

	log := multiLog.App()

	log.Info("Starting media-relay server",
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("extractor", config.Download.ExtractorBinary),
		zap.String("base_dir", config.Download.BaseDir))

	// Initialize history repository
	repo, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize history repository", zap.Error(err))
	}
	defer repo.Close()

	// Notification hooks, fed by the fan-out on every successful run
	hooks := []domain.Hook{
		infrastructure.NewPublishHook(&config.Publish, multiLog.Notify()),
		infrastructure.NewChatHook(&config.Chat, multiLog.Notify()),
		infrastructure.NewWebhookHook(&config.Webhook, multiLog.Notify()),
	}
	fanout := app.NewFanOut(hooks, multiLog.Notify())

	extractor := infrastructure.NewExtractor(&config.Download, log)
	service := app.NewDownloadService(extractor, fanout, repo, log)

	router := api.NewRouter(service, repo, config, multiLog)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,

		// A download request holds its connection open for the whole run;
		// the write timeout is the only bound on it.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: config.Server.RequestTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight notification deliveries settle before exit
	fanout.Drain()

	log.Info("Server exited")
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.BaseDir,
		config.Download.AudioDir(),
		config.Download.VideoDir(),
		config.Download.CookiesDir(),
		config.Download.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
