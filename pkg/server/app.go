package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"LoanGate/internal/usecase"
	pkgch "LoanGate/pkg/clickhouse"
	"LoanGate/pkg/config"
	xhttp "LoanGate/pkg/http"
	pkgkafka "LoanGate/pkg/kafka"
	applogger "LoanGate/pkg/logger"
	pkgqueue "LoanGate/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	intake      *usecase.Intake
	dispatch    *usecase.Dispatch
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	deferrals   *pkgqueue.RedisQueue
	deferralJob pkgqueue.Job
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	intake *usecase.Intake,
	dispatch *usecase.Dispatch,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	deferrals *pkgqueue.RedisQueue,
	deferralJob pkgqueue.Job,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:         cfg,
		logger:      lgr,
		intake:      intake,
		dispatch:    dispatch,
		consumer:    consumer,
		kh:          kh,
		deferrals:   deferrals,
		deferralJob: deferralJob,
		chClient:    chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	)

	// Start stream intake
	go func() {
		if err := a.intake.Start(ctx); err != nil {
			l.Error("intake error", applogger.Error(err))
		}
	}()
	l.Info("intake started", applogger.Strings("portfolios", a.cfg.Generator.Portfolios))

	// Start breach-predictions consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start deferral retry workers if Redis is wired
	if a.deferrals != nil && a.deferralJob != nil {
		a.deferrals.RegisterJob(a.deferralJob)
		if err := a.deferrals.Start(); err != nil {
			l.Error("deferral queue start error", applogger.Error(err))
		} else {
			a.deferrals.StartRetryProcessor()
			l.Info("deferral queue started")
		}
	}

	// Start dispatch loop
	go a.dispatch.Run(ctx)
	l.Info("dispatch loop started")

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger

	if err := a.intake.Shutdown(ctx); err != nil {
		l.Warn("intake stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.deferrals != nil {
		if err := a.deferrals.Stop(shutdownCtx); err != nil {
			l.Warn("deferral queue stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	a.logger.RemoveCollector()
	return nil
}
