// Package server assembles the credential service from its configuration
// and runs it until the context is cancelled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/helpdesk/internal/logging"
	"github.com/dmitrijs2005/helpdesk/internal/notify"
	"github.com/dmitrijs2005/helpdesk/internal/notify/postmark"
	"github.com/dmitrijs2005/helpdesk/internal/notify/twilio"
	"github.com/dmitrijs2005/helpdesk/internal/server/config"
	"github.com/dmitrijs2005/helpdesk/internal/server/dispatch"
	"github.com/dmitrijs2005/helpdesk/internal/server/httpapi"
	"github.com/dmitrijs2005/helpdesk/internal/server/metrics"
	"github.com/dmitrijs2005/helpdesk/internal/server/ratelimit"
	"github.com/dmitrijs2005/helpdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/helpdesk/internal/server/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	redis      *redis.Client
	dispatcher *dispatch.Dispatcher
	server     *http.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	app := &App{config: cfg, logger: logger, db: db}

	m := metrics.New()

	app.dispatcher = dispatch.New(dispatch.Config{
		Workers:    cfg.DispatchWorkers,
		QueueSize:  cfg.DispatchQueueSize,
		JobTimeout: cfg.DispatchJobTimeout,
	}, func(job string, err error) {
		logger.Error(context.Background(), "background job failed", "job", job, "error", err)
	})

	var limiter ratelimit.Limiter = ratelimit.Noop{}
	if cfg.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		limiter = ratelimit.NewRedisFixedWindowLimiter(app.redis, "helpdesk:attempts", cfg.RateLimitAttempts, cfg.RateLimitWindow)
	} else {
		logger.Warn(ctx, "redis address not set, attempt limiting disabled")
	}

	notifier, err := newNotifier(cfg, logger, &http.Client{Timeout: cfg.DispatchJobTimeout})
	if err != nil {
		_ = app.close()
		return nil, err
	}

	svc, err := services.NewAccountService(db, rm, cfg, services.Deps{
		Notifier:   notifier,
		Dispatcher: app.dispatcher,
		Limiter:    limiter,
		Metrics:    m,
		Logger:     logger,
	})
	if err != nil {
		_ = app.close()
		return nil, err
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handler:        httpapi.NewHandler(svc, db, logger),
		SecretKey:      []byte(cfg.SecretKey),
		Metrics:        m,
		MetricsHandler: m.Handler(),
		Logger:         logger,
	})

	app.server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return app, nil
}

// newNotifier builds the email and SMS senders named by the configured
// drivers. A "none" driver leaves that channel disabled.
func newNotifier(cfg *config.Config, logger logging.Logger, client *http.Client) (*notify.Notifier, error) {
	var (
		email notify.EmailSender
		sms   notify.SMSSender
	)

	switch cfg.EmailDriver {
	case config.DriverNone:
	case config.DriverLog:
		email = notify.NewLogSender(logger)
	case config.DriverPostmark:
		email = postmark.NewSender(client, postmark.Settings{
			APIURL:        cfg.PostmarkAPIURL,
			ServerToken:   cfg.PostmarkServerToken,
			From:          cfg.EmailFrom,
			MessageStream: cfg.PostmarkMessageStream,
		})
	default:
		return nil, fmt.Errorf("unknown email driver %q", cfg.EmailDriver)
	}

	switch cfg.SMSDriver {
	case config.DriverNone:
	case config.DriverLog:
		sms = notify.NewLogSender(logger)
	case config.DriverTwilio:
		sms = twilio.NewSender(client, twilio.Settings{
			APIURL:     cfg.TwilioAPIURL,
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioFrom,
		})
	default:
		return nil, fmt.Errorf("unknown sms driver %q", cfg.SMSDriver)
	}

	return notify.New(email, sms), nil
}

// Run serves HTTP and drains background jobs until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	defer func() {
		if err := app.close(); err != nil {
			app.logger.Error(context.Background(), "close resources", "error", err)
		}
	}()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info(gCtx, "starting http server", "addr", app.config.HTTPAddr)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return app.dispatcher.Run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		app.logger.Info(context.Background(), "stopping http server")

		shutCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()

		return app.server.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	app.logger.Info(context.Background(), "server stopped")
	return nil
}

func (app *App) close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}
