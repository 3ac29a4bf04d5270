package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-batch/api"
	"github.com/yourusername/yt-batch/api/handlers"
	"github.com/yourusername/yt-batch/internal/app"
	"github.com/yourusername/yt-batch/pkg/logger"
)

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	foreground = flag.Bool("foreground", false, "Run in the foreground instead of as a daemon")
	configPath = flag.String("config", "", "Path to the settings file (default ./config.json)")
)

func main() {
	flag.Parse()

	if !*serverMode && !*foreground {
		startAsDaemon()
		return
	}

	os.Exit(runServer())
}

// startAsDaemon re-executes the binary in server mode, detached from the terminal
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
	detach(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", os.DevNull, err)
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
}

func runServer() int {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	services := app.NewServices(config, log)
	defer services.Close()

	log.Info("Starting yt-batch server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("download_folder", config.Download.DownloadFolder),
		zap.String("logs_dir", services.Logs.LogsDir()))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if version, err := services.Engine.Check(ctx); err != nil {
		log.Warn("yt-dlp is not available, downloads will fail until it is installed", zap.Error(err))
	} else {
		log.Info("Found yt-dlp", zap.String("version", version))
	}

	// Runs outlive individual requests; they end on stop requests or shutdown
	runner := app.NewRunner(ctx, services.Orchestrator, services.RunRepository(), services.Notifier, services.Logs)

	router := api.SetupRouter(api.Dependencies{
		Runner:  runner,
		Preview: services.Preview,
		Engine:  services.Engine,
		Repo:    services.RunRepository(),
		Logs:    services.Logs,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
		exitCode = 1
	}

	log.Info("Shutting down server...")

	if err := runner.Stop(true); err == nil {
		log.Info("Stopping running batch")
	}
	runner.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return exitCode
}
