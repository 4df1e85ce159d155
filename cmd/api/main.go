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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"sacco-backend/internal/adapter/gateway"
	httpadp "sacco-backend/internal/adapter/http"
	idem "sacco-backend/internal/adapter/middleware"
	"sacco-backend/internal/adapter/notify"
	"sacco-backend/internal/adapter/repository/gormdb"
	"sacco-backend/internal/config"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/domain/payment"
	"sacco-backend/internal/infrastructure/broker"
	"sacco-backend/internal/infrastructure/cache"
	"sacco-backend/internal/infrastructure/db"
	"sacco-backend/internal/usecase/allocation"
	"sacco-backend/internal/usecase/approval"
	"sacco-backend/internal/usecase/guarantor"
	"sacco-backend/internal/usecase/inbox"
	"sacco-backend/internal/usecase/loan"
	"sacco-backend/internal/usecase/member"
	paymentuc "sacco-backend/internal/usecase/payment"
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
	if err := gormdb.AutoMigrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	rdb, err := cache.OpenRedis(context.Background(), cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

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

	var gw payment.Gateway
	if cfg.GatewayURL != "" {
		gw = gateway.NewStkPush(cfg.GatewayURL, cfg.GatewayKey, cfg.GatewayTimeout)
	} else {
		log.Printf("GATEWAY_URL not set, payments are recorded without STK push")
	}

	h := wire(gdb, cfg, notifier, gw)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())
	httpadp.Routes(e, h, idem.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.AppPort
		log.Printf("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdown); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func wire(gdb *gorm.DB, cfg *config.Config, n notification.Notifier, gw payment.Gateway) httpadp.Handlers {
	tx := gormdb.NewGormUoW(gdb)
	p := cfg.Policy
	approvals := approval.NewUsecase(tx, p, n)
	alloc := allocation.NewUsecase(tx, p)
	return httpadp.Handlers{
		Health:     httpadp.NewHandler(),
		Approvals:  httpadp.NewApprovalHandler(approvals),
		Loans:      httpadp.NewLoanHandler(loan.NewUsecase(tx, approvals, p, n)),
		Guarantors: httpadp.NewGuarantorHandler(guarantor.NewUsecase(tx, n)),
		Payments:   httpadp.NewPaymentHandler(paymentuc.NewUsecase(tx, gw, alloc, n), alloc, cfg.CallbackToken),
		Members:    httpadp.NewMemberHandler(member.NewUsecase(tx, approvals, p, n), inbox.NewUsecase(tx)),
	}
}
