package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/config"
	"github.com/unclebandit/suno-approvals/internal/db"
	"github.com/unclebandit/suno-approvals/internal/logger"
	"github.com/unclebandit/suno-approvals/internal/queue"
	"github.com/unclebandit/suno-approvals/internal/repository"
	"github.com/unclebandit/suno-approvals/internal/service"
)

// The worker consumes campaign events from RabbitMQ and notifies clients
// and agency owners.
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
		lg.Fatal("worker stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	if cfg.AMQP.URL == "" {
		return errors.New("AMQP_URL is required; without a broker the server notifies in process")
	}

	database, err := db.Open(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	defer database.Close()

	q, err := queue.DialAMQP(cfg.AMQP.URL, lg)
	if err != nil {
		return err
	}
	defer q.Close()

	if err := service.StartNotifier(ctx, q, repository.NewStore(database), service.LogSender(lg), cfg.PublicBaseURL, lg); err != nil {
		return err
	}

	lg.Info("worker running, waiting for campaign events")
	<-ctx.Done()
	return nil
}
