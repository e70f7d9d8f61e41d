package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Capstonepdm/Katipudroid/internal/config"
	"github.com/Capstonepdm/Katipudroid/internal/db"
	"github.com/Capstonepdm/Katipudroid/internal/goroutine"
	httpHandlers "github.com/Capstonepdm/Katipudroid/internal/http/handlers"
	"github.com/Capstonepdm/Katipudroid/internal/http/middleware"
	httpRouter "github.com/Capstonepdm/Katipudroid/internal/http/router"
	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/mail"
	"github.com/Capstonepdm/Katipudroid/internal/repository"
	"github.com/Capstonepdm/Katipudroid/internal/repository/memory"
	"github.com/Capstonepdm/Katipudroid/internal/repository/mongostore"
	"github.com/Capstonepdm/Katipudroid/internal/service"
	"github.com/Capstonepdm/Katipudroid/internal/ws"
)

// storage - выбранный драйвер хранилища.
type storage struct {
	otp       service.OTPChallengeRepository
	feedbacks service.FeedbackRepository
	ping      httpHandlers.PingFunc
	close     func()
}

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}
	logr := logger.WithComponent("main")

	store, err := openStorage(ctx, cfg)
	if err != nil {
		logr.WithError(err).Fatal("хранилище недоступно")
	}
	defer store.close()

	mailer, err := mail.New(cfg.Mail, cfg.AppName)
	if err != nil {
		logr.WithError(err).Fatal("не удалось настроить отправку почты")
	}

	tokens := service.NewVerificationTokenManager(cfg.VerificationSecret, cfg.VerificationTokenTTL, nil)
	usedTokens := service.NewCacheService(nil)

	otpService := service.NewVerificationService(store.otp, mailer, tokens, service.NewCodeHasher(cfg.OTPPepper))

	tasks := goroutine.NewGroup(nil)

	hub := ws.NewHub()
	tasks.Go(ctx, "ws-hub", hub.Run)

	feedbackService := service.NewFeedbackService(store.feedbacks, hub, tokens, usedTokens, nil)

	sweeper := service.NewOTPSweeper(otpService, usedTokens, cfg.OTPSweepInterval, nil)
	tasks.Go(ctx, "otp-sweeper", sweeper.Run)

	// HTTP хэндлеры.
	otpHandler := httpHandlers.NewOTPHandler(otpService)
	feedbackHandler := httpHandlers.NewFeedbackHandler(feedbackService)
	wsHandler := httpHandlers.NewWSHandler(hub, middleware.OriginAllowed(cfg.AllowedOrigins))
	healthHandler := httpHandlers.NewHealthHandler(map[string]httpHandlers.PingFunc{"storage": store.ping})

	tokenParser := middleware.TokenParserFunc(func(token string) error {
		_, err := feedbackService.ParseToken(token)
		return err
	})

	engine := httpRouter.SetupRouter(cfg, otpHandler, feedbackHandler, wsHandler, healthHandler, tokenParser)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.WithError(err).Error("ошибка остановки http сервера")
		}
	}()

	logr.WithFields(map[string]interface{}{
		"port":    cfg.HTTPPort,
		"storage": cfg.StorageDriver,
		"mail":    cfg.Mail.Driver,
	}).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.WithError(err).Fatal("сервер завершился с ошибкой")
	}

	if !tasks.Wait(5 * time.Second) {
		logr.Warn("фоновые задачи не остановились вовремя")
	}
}

// openStorage подключает драйвер из STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		conn, err := db.NewPostgres(ctx, cfg.DatabaseURL, cfg.StorageTimeout)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return &storage{
			otp:       repository.NewOTPChallengeRepository(conn),
			feedbacks: repository.NewFeedbackRepository(conn),
			ping:      conn.PingContext,
			close: func() {
				if err := conn.Close(); err != nil {
					log.Printf("main: ошибка закрытия базы: %v", err)
				}
			},
		}, nil

	case config.StorageDriverMongo:
		conn, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		otpRepo := mongostore.NewOTPChallengeRepository(conn.Database)
		feedbackRepo := mongostore.NewFeedbackRepository(conn.Database)
		indexCtx, cancel := context.WithTimeout(ctx, cfg.StorageTimeout)
		defer cancel()
		if err := otpRepo.EnsureIndexes(indexCtx); err != nil {
			_ = conn.Close(context.Background())
			return nil, err
		}
		if err := feedbackRepo.EnsureIndexes(indexCtx); err != nil {
			_ = conn.Close(context.Background())
			return nil, err
		}
		return &storage{
			otp:       otpRepo,
			feedbacks: feedbackRepo,
			ping:      conn.PingContext,
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := conn.Close(closeCtx); err != nil {
					log.Printf("main: ошибка закрытия mongo: %v", err)
				}
			},
		}, nil

	case config.StorageDriverMemory:
		logger.WithComponent("main").Warn("STORAGE_DRIVER=memory: данные не переживут перезапуск")
		return &storage{
			otp:       memory.NewOTPChallengeRepository(),
			feedbacks: memory.NewFeedbackRepository(),
			ping:      func(context.Context) error { return nil },
			close:     func() {},
		}, nil
	}
	return nil, fmt.Errorf("main: неизвестный драйвер хранилища %q", cfg.StorageDriver)
}
