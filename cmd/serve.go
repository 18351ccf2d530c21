package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/killallgit/study-api/api"
	"github.com/killallgit/study-api/api/types"
	apiversion "github.com/killallgit/study-api/api/version"
	"github.com/killallgit/study-api/internal/database"
	"github.com/killallgit/study-api/internal/metrics"
	"github.com/killallgit/study-api/internal/services/activity"
	"github.com/killallgit/study-api/internal/services/cleanup"
	"github.com/killallgit/study-api/internal/services/studies"
	"github.com/killallgit/study-api/pkg/config"
)

var (
	serverHost string
	serverPort int
	samplesDir string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the Study Sync API server with the configured settings.

The server lists and serves every study under the samples root and persists
annotation and recording changes sent by viewers on the local network.

Example:
  study-api serve
  study-api serve --port 9090
  study-api serve --samples /data/samples --host 0.0.0.0`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
	serveCmd.Flags().StringVar(&samplesDir, "samples", "", "samples root directory (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}
	if samplesDir != "" {
		cfg.Storage.SamplesDir = samplesDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if Version != "dev" {
		apiversion.Version = Version
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps, closeDeps, err := buildDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDeps()

	server := api.NewServer(cfg, deps)
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Storage.CleanupInterval > 0 {
		sweeper := cleanup.NewService(deps.Store.SamplesDir(), cfg.Storage.TempMaxAge, cfg.Storage.CleanupInterval, logger.Named("cleanup"))
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	logger.Info("study api listening",
		zap.String("addr", server.Addr()),
		zap.String("samples", deps.Store.SamplesDir()),
		zap.Bool("activity_log", deps.Activity != nil))
	for _, u := range lanURLs(cfg.Server.Host, cfg.Server.Port) {
		fmt.Fprintf(cmd.OutOrStdout(), "  ➜ %s\n", u)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case runErr = <-serverErr:
		logger.Error("server stopped", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("server gracefully stopped")
	return runErr
}

// buildDependencies wires the study store, the optional activity database
// and metrics. The returned func closes the database.
func buildDependencies(cfg *config.Config, log *zap.Logger) (*types.Dependencies, func(), error) {
	store, err := studies.NewFilesystemStore(cfg.Storage.SamplesDir,
		studies.WithLogger(log.Named("store")),
		studies.WithFileLocks(cfg.Storage.LockFiles))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open samples directory: %w", err)
	}

	deps := &types.Dependencies{
		Store:     store,
		Logger:    log,
		PublicURL: cfg.Server.PublicURL,
		Port:      cfg.Server.Port,
	}
	if cfg.Monitoring.Enabled {
		deps.Metrics = metrics.New()
	}

	closeDB := func() {}
	if cfg.Database.Path != "" {
		db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose, log.Named("database"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		deps.DB = db
		deps.Activity = activity.NewService(activity.NewRepository(db.DB))
		closeDB = func() {
			if err := db.Close(); err != nil {
				log.Warn("failed to close database", zap.Error(err))
			}
		}
	}

	return deps, closeDB, nil
}

// lanURLs lists the addresses viewers on other machines can use
func lanURLs(host string, port int) []string {
	p := strconv.Itoa(port)
	if host != "" && host != "0.0.0.0" && host != "::" {
		return []string{"http://" + net.JoinHostPort(host, p)}
	}

	urls := []string{"http://" + net.JoinHostPort("localhost", p)}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return urls
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() || ipNet.IP.To4() == nil {
			continue
		}
		urls = append(urls, "http://"+net.JoinHostPort(ipNet.IP.String(), p))
	}
	return urls
}
