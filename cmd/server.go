/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sitrack/sitrack-gin/internal/api"
	"github.com/sitrack/sitrack-gin/internal/auth"
	"github.com/sitrack/sitrack-gin/internal/config"
	"github.com/sitrack/sitrack-gin/internal/database"
	"github.com/sitrack/sitrack-gin/internal/metrics"
	"github.com/sitrack/sitrack-gin/internal/notify"
	"github.com/sitrack/sitrack-gin/internal/realtime"
	"github.com/sitrack/sitrack-gin/internal/repository"
	"github.com/sitrack/sitrack-gin/internal/service"
	"github.com/sitrack/sitrack-gin/internal/storage"
	"github.com/sitrack/sitrack-gin/internal/store"
	"github.com/sitrack/sitrack-gin/internal/websocket"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the SiTrack API server.
The server listens on the configured host and port and provides the
dashboard REST API, the public tracking lookup, file uploads and the
websocket/SSE realtime endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		db, err := database.ConnectWithRetry(cfg.Database, 5, 3*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		users := repository.NewUserRepository(db)
		reports := repository.NewReportRepository(db)
		snapshots := repository.NewSnapshotRepository(db)

		st := store.New(snapshots, log)

		hub := websocket.NewHub()
		go hub.Run()
		notifier := notify.New(log, websocket.NewNotificationSink(hub))

		if cfg.Auth.JWTSecret == "" {
			log.Warn("auth.jwt_secret is empty, issued tokens are not safe for production")
		}
		issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTL)*time.Minute)

		objects, err := buildObjectStorage(cmd.Context(), cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}

		// The remote change feed is optional. Without a feed URL the
		// bridge stays disconnected and the store only sees local writes.
		var feed realtime.Feed
		if cfg.Realtime.FeedURL != "" {
			wsFeed := realtime.NewWebSocketFeed(cfg.Realtime.FeedURL, log)
			defer wsFeed.Close()
			feed = wsFeed
		}
		bridge := realtime.NewBridge(feed, log)
		bridge.OnStateChange(func(state realtime.ConnState) {
			metrics.SetRealtimeConnected(state == realtime.Connected)
		})

		tables := cfg.Realtime.Tables
		if len(tables) == 0 {
			tables = realtime.DefaultTables()
		}
		sub := realtime.BindStore(bridge, st, notifier, tables, log)
		defer sub.Unsubscribe()

		reportSvc := service.NewReportService(reports, st, hub, notifier)
		svcs := api.Services{
			Auth:     service.NewAuthService(users, issuer, st),
			Users:    service.NewUserService(users, st, cfg.Auth.BcryptCost),
			Reports:  reportSvc,
			Tracking: service.NewTrackingService(reports),
			Uploads:  service.NewUploadService(objects, reportSvc, cfg.Storage.UploadPrefix),
			Backups:  service.NewBackupService(users, reports, cfg.Backup.Dir, log),
		}

		router := api.SetupRoutes(cfg, svcs, issuer, hub, bridge, db, log)

		stopGauges := startGaugeRefresh(reportSvc, db, log)
		defer stopGauges()

		if configPath != "" {
			watcher := config.NewWatcher(cfg, configPath)
			watcher.OnChange(func(next *config.Config) {
				if level, err := logrus.ParseLevel(next.Log.Level); err == nil {
					log.SetLevel(level)
				}
			})
			if err := watcher.Start(); err != nil {
				log.WithError(err).Warn("config watcher disabled")
			} else {
				defer watcher.Stop()
			}
		}

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		go func() {
			log.WithField("addr", addr).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Fatal("failed to start server")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info("server exited")
		return nil
	},
}

// buildObjectStorage returns S3-backed storage when a bucket is
// configured and the disabled implementation otherwise, so the upload
// endpoint fails cleanly instead of panicking on a nil store.
func buildObjectStorage(ctx context.Context, cfg *config.Config, log *logrus.Logger) (storage.ObjectStorage, error) {
	if cfg.Storage.Bucket == "" {
		log.Warn("no storage bucket configured, file uploads disabled")
		return storage.Disabled{}, nil
	}
	return storage.NewS3Storage(ctx, cfg.Storage, log)
}

// startGaugeRefresh keeps the reports-by-status and connection-pool
// gauges current. Returns a stop function.
func startGaugeRefresh(reports *service.ReportService, db *gorm.DB, log *logrus.Logger) func() {
	ticker := time.NewTicker(30 * time.Second)
	done := make(chan struct{})

	reports.RefreshStatusMetrics()

	go func() {
		for {
			select {
			case <-ticker.C:
				reports.RefreshStatusMetrics()
				if err := metrics.UpdateDatabaseConnections(db); err != nil {
					log.WithError(err).Debug("failed to update connection pool gauges")
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
}
