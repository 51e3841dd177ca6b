package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brosolve-backend-go/internal/config"
	"brosolve-backend-go/internal/db"
	httpapi "brosolve-backend-go/internal/http"
	"brosolve-backend-go/internal/logging"
	"brosolve-backend-go/internal/migrations"
	"brosolve-backend-go/internal/notify"
	"brosolve-backend-go/internal/services"
	"brosolve-backend-go/internal/storage"
	"brosolve-backend-go/internal/store"
	"brosolve-backend-go/internal/typing"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	retention := cfg.LogRetentionDays
	if retention > 7 {
		retention = 7
	}
	logger, cleanupLogs, err := logging.New(cfg.Production(), cfg.LogDir, retention)
	if err != nil {
		panic("logger setup failed: " + err.Error())
	}
	defer cleanupLogs()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer database.Close()
	applied, err := migrations.Apply(database, migrations.Files())
	if err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", zap.Strings("files", applied))
	}
	st := store.New(database)

	files, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}

	var typingStore typing.Tracker = typing.NewMemory()
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, typing state stays in memory", zap.Error(err))
		} else {
			typingStore = typing.NewRedis(client)
		}
	}

	hub := services.NewHub()
	go hub.Run(ctx)

	notifier := notify.New(st, hub,
		notify.NewSMTPMailer(notify.SMTPConfig{
			Host: cfg.Mail.Host,
			Port: cfg.Mail.Port,
			User: cfg.Mail.User,
			Pass: cfg.Mail.Pass,
			From: cfg.Mail.From,
		}),
		notify.NewTwilioWhatsApp(notify.TwilioConfig{
			AccountSID: cfg.WhatsApp.AccountSID,
			AuthToken:  cfg.WhatsApp.AuthToken,
			From:       cfg.WhatsApp.From,
		}),
		logger,
		notify.Options{StaffEmail: cfg.Mail.StaffEmail},
	)
	if !cfg.Mail.Enabled() {
		logger.Info("smtp not configured, email notifications disabled")
	}

	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		TTL:        time.Duration(cfg.TokenTTLHours) * time.Hour,
		BcryptCost: cfg.BcryptCost,
	}
	audit := services.NewAudit(st, logger)
	categories := &services.Categories{Store: st, Audit: audit}
	complaints := &services.Complaints{
		Store:      st,
		Replies:    st,
		Categories: categories,
		Files:      files,
		Notifier:   notifier,
		Audit:      audit,
		Log:        logger,
	}
	metrics := services.NewMetrics(st, cfg.MetricsDiskPath)

	server := &httpapi.Server{
		Config:     cfg,
		Log:        logger,
		Tokens:     tokens,
		Identity:   services.NewIdentity(st, tokens, audit, logger),
		Categories: categories,
		Complaints: complaints,
		Chat: &services.Chat{
			Complaints: complaints,
			Messages:   st,
			Typing:     typingStore,
			Files:      files,
			Notifier:   notifier,
			Audit:      audit,
			Log:        logger,
		},
		Notifications: &services.Notifications{Store: st},
		Audit:         audit,
		Analytics:     &services.Analytics{Store: st, Categories: categories},
		Exports:       &services.Exports{Complaints: st, Audit: audit},
		QuickReplies:  &services.QuickReplies{Store: st},
		Metrics:       metrics,
		Hub:           hub,
	}
	if cfg.Storage.Driver != "s3" {
		server.UploadDir = cfg.Storage.UploadDir
	}
	go metricsLoop(ctx, logger, metrics, hub, cfg.MetricsSampleSeconds)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.AppEnv))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	notifier.Wait()
	logger.Info("shutdown complete")
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	if cfg.Driver == "s3" {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3Access,
			SecretKey:  cfg.S3Secret,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3Public,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	local, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	return local, nil
}

// metricsLoop persists a usage sample on every tick and pushes it to
// connected staff dashboards.
func metricsLoop(ctx context.Context, logger *zap.Logger, metrics *services.Metrics, hub *services.Hub, seconds int) {
	if seconds <= 0 {
		seconds = 60
	}
	ticker := time.NewTicker(time.Duration(seconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sample, err := metrics.Capture(ctx)
			if err != nil {
				logger.Warn("metrics capture", zap.Error(err))
				continue
			}
			hub.BroadcastStaff("metrics", sample)
		case <-ctx.Done():
			return
		}
	}
}
