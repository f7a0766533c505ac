package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-checkout/cmd/checkout/config"
	"go-checkout/internal/checkout"
	"go-checkout/internal/checkout/analytics"
	"go-checkout/internal/checkout/data/database"
	"go-checkout/internal/checkout/data/dbrepository"
	"go-checkout/internal/checkout/notification"
	"go-checkout/internal/checkout/orderstore"
	"go-checkout/internal/checkout/paymentgateway"
	"go-checkout/internal/checkout/paymentsweeper"
	"go-checkout/internal/checkout/service"
	"go-checkout/pkg/logging"
	"go-checkout/pkg/pgxstorage"
	"go-checkout/pkg/tasks"

	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type orderStore struct {
	orders       service.OrderStore
	pendingBills paymentsweeper.PendingBills
	close        func()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewZapLogger(level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	rootCtx, cancelCtx := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGABRT,
	)
	defer cancelCtx()

	store, err := newOrderStore(rootCtx, cfg, logger)
	if err != nil {
		logger.ErrorCtx(rootCtx, "failed to set up order store", zap.Error(err))
		return
	}
	defer store.close()

	gateway := paymentgateway.NewToyyibPay(cfg.Gateway, logger)
	conversions := analytics.NewConversionsAPI(cfg.Analytics, logger)
	if !conversions.Enabled() {
		logger.InfoCtx(rootCtx, "conversion events disabled: no pixel id or access token")
	}
	notifier := notification.NewDiscord(cfg.Notification, logger)
	queue := tasks.NewQueue(cfg.Tasks, logger)

	billing := service.NewBilling(cfg.Billing, store.orders, gateway, conversions, queue, logger)
	reconciler := service.NewReconciler(store.orders, conversions, notifier, cfg.Billing.Content, logger)
	relay := service.NewConversionRelay(cfg.Billing.Content, conversions, logger)
	lookup := service.NewOrderLookup(store.orders)

	var tokenAuth *jwtauth.JWTAuth
	if cfg.JWTConfig.Secret != "" {
		tokenAuth = jwtauth.New(cfg.JWTConfig.Algorithm, []byte(cfg.JWTConfig.Secret), nil)
	} else {
		logger.InfoCtx(rootCtx, "operator order lookup disabled: no jwt secret")
	}

	server := checkout.NewServer(cfg.Server, tokenAuth, checkout.Services{
		Billing:        billing,
		Reconciliation: reconciler,
		Conversions:    relay,
		Orders:         lookup,
	}, logger)

	var sweeper *paymentsweeper.PaymentSweeper
	if cfg.Sweeper.Enabled && store.pendingBills != nil {
		sweeper = paymentsweeper.NewPaymentSweeper(cfg.Sweeper.Settings, store.pendingBills, gateway, reconciler, logger)
	}

	if err := run(rootCtx, cfg, server, queue, sweeper, logger); err != nil {
		logger.ErrorCtx(rootCtx, "Server shutdown with error", zap.Error(err))
	} else {
		logger.InfoCtx(rootCtx, "Server shutdown gracefully")
	}
}

func newOrderStore(ctx context.Context, cfg *config.Config, logger *logging.ZapLogger) (orderStore, error) {
	switch cfg.OrderStore.Driver {
	case config.DriverPostgres:
		dbFactory := database.NewPgxDatabaseFactory(cfg.OrderStore.DB)
		storage, err := pgxstorage.New(ctx, dbFactory)
		if err != nil {
			return orderStore{}, fmt.Errorf("failed to open database: %w", err)
		}
		transactionManager := pgxstorage.NewTransactionsManager(storage)
		repository := dbrepository.New(storage, transactionManager, logger)
		return orderStore{
			orders:       repository,
			pendingBills: repository,
			close:        storage.Close,
		}, nil
	default:
		return orderStore{
			orders: orderstore.NewSheets(cfg.OrderStore.Sheets, logger),
			close:  func() {},
		}, nil
	}
}

func run(
	rootCtx context.Context,
	cfg *config.Config,
	server *checkout.Server,
	queue *tasks.Queue,
	sweeper *paymentsweeper.PaymentSweeper,
	logger *logging.ZapLogger,
) error {
	g, ctx := errgroup.WithContext(rootCtx)

	context.AfterFunc(ctx, func() {
		ctx, cancelCtx := context.WithTimeout(context.Background(), 2*cfg.Server.ShutdownTimeout)
		defer cancelCtx()

		<-ctx.Done()
		log.Fatal("failed to gracefully shutdown the server")
	})

	g.Go(func() error {
		if err := server.Run(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if sweeper != nil {
		g.Go(func() error {
			sweeper.Run(ctx)
			return nil
		})
	}

	g.Go(func() error {
		defer logger.InfoCtx(ctx, "Shutting down server")
		<-ctx.Done()
		if err := server.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		queueCtx, cancelQueue := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancelQueue()
		if err := queue.Stop(queueCtx); err != nil {
			return fmt.Errorf("failed to drain task queue: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("goroutine error occured: %w", err)
	}

	return nil
}
