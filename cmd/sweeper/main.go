// Command sweeper expires stale pending actions and auto-allocates unallocated
// payments on a fixed interval.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sacco-backend/internal/adapter/notify"
	"sacco-backend/internal/adapter/repository/gormdb"
	"sacco-backend/internal/config"
	"sacco-backend/internal/infrastructure/broker"
	"sacco-backend/internal/infrastructure/db"
	"sacco-backend/internal/usecase/allocation"
	"sacco-backend/internal/usecase/approval"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	notifier := notify.Fanout{notify.NewInApp(gormdb.NewNotificationRepository(gdb))}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := broker.OpenProducer(cfg.KafkaBrokers, 5, 2*time.Second)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		k := notify.NewKafka(p, cfg.KafkaTopic)
		defer k.Close()
		notifier = append(notifier, k)
	}

	tx := gormdb.NewGormUoW(gdb)
	approvals := approval.NewUsecase(tx, cfg.Policy, notifier)
	alloc := allocation.NewUsecase(tx, cfg.Policy)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		if n, err := approvals.ExpireStale(ctx, cfg.Policy.ActionTTL); err != nil {
			log.Printf("sweep: expire: %v", err)
		} else if n > 0 {
			log.Printf("sweep: expired %d actions", n)
		}
		report, err := alloc.AutoAllocate(ctx)
		if err != nil {
			log.Printf("sweep: auto-allocate: %v", err)
			return
		}
		log.Printf("sweep: scanned %d, allocated %d, failed %d, total %s",
			report.Scanned, report.Allocated, report.Failed, report.Total.StringFixed(2))
	}

	log.Printf("sweeper running every %s", cfg.SweepInterval)
	run()
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper stopping")
			return
		case <-ticker.C:
			run()
		}
	}
}
