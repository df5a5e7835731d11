// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/auth"
	"github.com/unclebandit/suno-approvals/internal/config"
	"github.com/unclebandit/suno-approvals/internal/db"
	"github.com/unclebandit/suno-approvals/internal/handler"
	"github.com/unclebandit/suno-approvals/internal/idgen"
	"github.com/unclebandit/suno-approvals/internal/logger"
	"github.com/unclebandit/suno-approvals/internal/queue"
	"github.com/unclebandit/suno-approvals/internal/repository"
	"github.com/unclebandit/suno-approvals/internal/service"
	"github.com/unclebandit/suno-approvals/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	database, err := db.Open(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.Migrate(ctx, database); err != nil {
		return err
	}

	ids, err := idgen.New(cfg.NodeID)
	if err != nil {
		return err
	}
	files, err := storage.New(cfg)
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}
	store := repository.NewStore(database)

	var q queue.Queue
	if cfg.AMQP.URL != "" {
		amqpQueue, err := queue.DialAMQP(cfg.AMQP.URL, lg)
		if err != nil {
			return err
		}
		defer amqpQueue.Close()
		q = amqpQueue
		lg.Info("publishing campaign events to rabbitmq")
	} else {
		// Without a broker the notification worker runs in process.
		memQueue := queue.NewInMemoryQueue(lg)
		if err := service.StartNotifier(ctx, memQueue, store, service.LogSender(lg), cfg.PublicBaseURL, lg); err != nil {
			return err
		}
		q = memQueue
	}

	campaigns := &service.CampaignService{
		Store:         store,
		IDs:           ids,
		Queue:         q,
		Files:         files,
		Log:           lg,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.NewRouter(handler.RouterDeps{
			Campaigns:   campaigns,
			Access:      &service.AccessService{Campaigns: campaigns},
			Submissions: &service.SubmissionService{Campaigns: campaigns},
			Verifier:    verifier,
			DB:          database,
			Log:         lg,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	lg.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
