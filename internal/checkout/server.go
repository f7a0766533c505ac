package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-checkout/internal/checkout/handlers"
	"go-checkout/internal/checkout/middleware"
	"go-checkout/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

type Config struct {
	ServerAddress     string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

type Services struct {
	Billing        handlers.BillingService
	Reconciliation handlers.ReconciliationService
	Conversions    handlers.ConversionRelayService
	Orders         handlers.OrderLookupService
}

type Server struct {
	logger     *logging.ZapLogger
	httpServer *http.Server
	cfg        Config
}

// NewServer mounts the operator order lookup only when tokenAuth is set.
func NewServer(
	cfg Config,
	tokenAuth *jwtauth.JWTAuth,
	services Services,
	logger *logging.ZapLogger,
) *Server {
	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           createMux(tokenAuth, services, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	res := &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: srv,
	}

	return res
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server ListenAndServe failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func createMux(
	tokenAuth *jwtauth.JWTAuth,
	services Services,
	logger *logging.ZapLogger,
) *chi.Mux {
	loggerContext := middleware.NewLoggerContext()
	panicRecover := middleware.NewPanicRecover(logger)

	billCreationHandler := handlers.NewBillCreationHandler(services.Billing, logger)
	paymentCallbackHandler := handlers.NewPaymentCallbackHandler(services.Reconciliation, logger)
	conversionRelayHandler := handlers.NewConversionRelayHandler(services.Conversions, logger)

	router := chi.NewRouter()
	router.Use(loggerContext.CreateHandler, panicRecover.CreateHandler)
	router.MethodNotAllowed(handlers.MethodNotAllowed(logger))

	router.Route("/api", func(router chi.Router) {
		router.Post("/create-bill", billCreationHandler.ServeHTTP)
		router.Post("/payment-callback", paymentCallbackHandler.ServeHTTP)
		router.Post("/conversion", conversionRelayHandler.ServeHTTP)

		if tokenAuth != nil && services.Orders != nil {
			orderStatusHandler := handlers.NewOrderStatusHandler(services.Orders, logger)
			router.Group(func(router chi.Router) {
				router.Use(jwtauth.Verifier(tokenAuth), handlers.OperatorAuthenticator(logger))
				router.Get("/orders/{"+handlers.OrderIDParam+"}", orderStatusHandler.ServeHTTP)
			})
		}
	})

	return router
}
