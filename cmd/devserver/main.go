package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freeradical-go/internal/config"
	"freeradical-go/internal/db"
	httpapi "freeradical-go/internal/http"
	"freeradical-go/internal/logging"
	"freeradical-go/internal/migrations"
	"freeradical-go/internal/services"

	"github.com/joho/godotenv"
)

// metricsRetention bounds server_metric_samples.
const metricsRetention = 24 * time.Hour

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	cleanupLogs, err := logging.Setup(cfg.Log.Dir, cfg.Log.RetentionDays, os.Stdout)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer cleanupLogs()
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := migrations.Apply(database); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blobs, err := blobStore(cfg)
	if err != nil {
		log.Fatalf("media storage: %v", err)
	}

	hub := services.NewMetricsHub()
	go hub.Run(ctx)

	server := httpapi.NewServer(database, cfg, hub, blobs)
	if cfg.AdminEmail != "" {
		created, err := services.EnsureAdmin(database, server.Tokens, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("admin: %v", err)
		}
		if created {
			log.Printf("created admin %s", cfg.AdminEmail)
		}
	}
	server.Webhooks = services.NewWebhookDispatcher(server.Sender)
	go server.Webhooks.Run(ctx)
	go metricsLoop(ctx, server)

	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	_ = database.Close()
	log.Printf("shutdown complete")
}

// blobStore picks S3 when a bucket is configured and the local disk otherwise.
func blobStore(cfg config.Config) (services.BlobStore, error) {
	if cfg.S3Bucket == "" {
		if _, err := services.EnsureStoragePath(cfg.MediaStoragePath, ""); err != nil {
			return nil, err
		}
		return services.DiskStore{Base: cfg.MediaStoragePath, CDNPrefix: cfg.CDNBaseURL}, nil
	}
	store, err := services.NewS3Store(services.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		CDNPrefix:       cfg.CDNBaseURL,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("media stored in s3://%s", cfg.S3Bucket)
	return store, nil
}

func metricsLoop(ctx context.Context, server *httpapi.Server) {
	interval := time.Duration(server.Config.MetricsSampleSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sample, err := services.CaptureMetrics(server.DB, server.Config.MetricsDiskPath)
			if err != nil {
				log.Printf("metrics capture: %v", err)
				continue
			}
			server.MetricsHub.Broadcast(sample)
			if err := services.PruneMetrics(server.DB, time.Now().Add(-metricsRetention)); err != nil {
				log.Printf("metrics prune: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
