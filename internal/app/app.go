package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yettensyvus/InternshipFinder/internal/application/auth"
	"github.com/yettensyvus/InternshipFinder/internal/application/notification"
	"github.com/yettensyvus/InternshipFinder/internal/application/otp"
	"github.com/yettensyvus/InternshipFinder/internal/application/outbox"
	"github.com/yettensyvus/InternshipFinder/internal/application/reaper"
	"github.com/yettensyvus/InternshipFinder/internal/application/user"
	"github.com/yettensyvus/InternshipFinder/internal/config"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/dynamo"
	jwtinfra "github.com/yettensyvus/InternshipFinder/internal/infrastructure/jwt"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/metrics"
	s3infra "github.com/yettensyvus/InternshipFinder/internal/infrastructure/s3"
	"github.com/yettensyvus/InternshipFinder/internal/infrastructure/smtp"
	"github.com/yettensyvus/InternshipFinder/internal/pkg/password"
	transporthttp "github.com/yettensyvus/InternshipFinder/internal/transport/http"
)

// App holds the long-lived components of one process.
type App struct {
	Stores     *Stores
	Metrics    *metrics.Recorder
	Reaper     *reaper.Reaper
	Dispatcher *outbox.Dispatcher

	cfg      *config.Config
	registry *prometheus.Registry
}

// New opens the stores and builds the background workers.
func New(ctx context.Context, cfg *config.Config, prepare bool) (*App, error) {
	stores, err := OpenStores(ctx, cfg, prepare)
	if err != nil {
		return nil, err
	}
	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("aws config: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	blobs := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg.S3BucketName)

	return &App{
		Stores:  stores,
		Metrics: rec,
		Reaper:  reaper.New(stores.Otp, cfg.ReaperInterval, rec),
		Dispatcher: outbox.NewDispatcher(outbox.DispatcherDeps{
			OutboxRepo:       stores.Outbox,
			Blobs:            blobs,
			NotificationRepo: stores.Notifications,
			OtpRepo:          stores.Otp,
			Interval:         cfg.OutboxInterval,
			Batch:            cfg.OutboxBatch,
			MaxAttempts:      cfg.OutboxMaxTries,
			Metrics:          rec,
		}),
		cfg:      cfg,
		registry: reg,
	}, nil
}

// Router builds the services and the HTTP router on top of the stores.
// The returned closer stops the rate limiter.
func (a *App) Router() (http.Handler, func(), error) {
	jwtProvider, err := jwtinfra.NewProvider(a.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("jwt provider: %w", err)
	}

	ledger := otp.NewLedger(otp.LedgerDeps{
		Tokens:  a.Stores.Otp,
		TTL:     a.cfg.OtpTTL,
		Metrics: a.Metrics,
	})
	notifications := notification.NewService(notification.ServiceDeps{
		NotificationRepo: a.Stores.Notifications,
		UserRepo:         a.Stores.Users,
		Metrics:          a.Metrics,
	})
	mailer := smtp.NewOtpMailer(smtp.NewMailer(a.cfg), a.cfg.MailBrand, a.cfg.OtpTTL)

	deps := &transporthttp.Deps{
		AuthService: auth.NewService(auth.ServiceDeps{
			UserRepo:    a.Stores.Users,
			Ledger:      ledger,
			Mailer:      mailer,
			Hasher:      password.New(),
			JWTProvider: jwtProvider,
			Notifier:    notifications,
		}),
		UserService:         user.NewService(user.ServiceDeps{UserRepo: a.Stores.Users}),
		NotificationService: notifications,
		JWTProvider:         jwtProvider,
		MetricsHandler:      promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
	}

	router, limiter := transporthttp.NewRouter(a.cfg, deps)
	return router, limiter.Close, nil
}

// Close releases the store connection.
func (a *App) Close() error {
	return a.Stores.Close()
}
