package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/partkeep/partkeep/config"
	"github.com/partkeep/partkeep/internal/adapters/localauth"
	"github.com/partkeep/partkeep/internal/adapters/s3store"
	"github.com/partkeep/partkeep/internal/data"
	"github.com/partkeep/partkeep/internal/observability/notify/pagerduty"
	"github.com/partkeep/partkeep/internal/observability/notify/slack"
	"github.com/partkeep/partkeep/internal/observability/statsd"
	"github.com/partkeep/partkeep/internal/ports"
	"github.com/partkeep/partkeep/internal/service"
	"github.com/partkeep/partkeep/internal/service/incidentnotifier"
	"github.com/redis/go-redis/v9"
)

// ServicesConfig carries the shared dependencies service construction needs.
type ServicesConfig struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// ServiceContainer holds the application services the HTTP layer consumes.
type ServiceContainer struct {
	Components *service.ComponentService
	Users      *service.UserService
	Auth       *service.AuthService

	// Metrics is nil when metrics emission is disabled.
	Metrics statsd.Sink
	// Incidents is nil when no notification sinks are configured.
	Incidents *incidentnotifier.Service
}

// repositories groups the data access layer built from one *sql.DB.
type repositories struct {
	Users       *data.UserRepo
	Components  *data.ComponentRepo
	Credentials *data.CredentialRepo
}

// BuildServices wires repositories, adapters, and services from loaded config.
func BuildServices(cfg ServicesConfig) (ServiceContainer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	repos := buildRepositories(cfg.DB)

	drawings, err := buildDrawingStore(appCfg.Storage, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	components, err := service.NewComponentService(service.ComponentServiceOptions{
		Repo:     repos.Components,
		Drawings: drawings,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	users, err := service.NewUserService(service.UserServiceOptions{
		Users:    repos.Users,
		Verifier: localauth.NewVerifier(repos.Credentials),
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	auth := BuildAuthService(AuthConfig{
		Auth:        appCfg.Auth,
		RedisClient: cfg.RedisClient,
		Users:       repos.Users,
		Credentials: repos.Credentials,
		Logger:      logger,
	})

	metrics, err := buildMetrics(appCfg.Observability.Metrics, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	incidents := buildIncidentNotifier(appCfg.Observability.Notifications, appCfg.HTTP.BaseURL, logger)

	return ServiceContainer{
		Components: components,
		Users:      users,
		Auth:       auth,
		Metrics:    metrics,
		Incidents:  incidents,
	}, nil
}

func buildRepositories(db *sql.DB) repositories {
	return repositories{
		Users:       data.NewUserRepo(db),
		Components:  data.NewComponentRepo(db),
		Credentials: data.NewCredentialRepo(db),
	}
}

// buildDrawingStore returns nil when storage is disabled; component
// submissions then proceed without drawing uploads.
//
//nolint:ireturn // the drawing store port keeps the S3 client out of the service layer.
func buildDrawingStore(cfg config.StorageConfig, logger *slog.Logger) (ports.DrawingStore, error) {
	if !cfg.Enabled {
		logger.Info("drawing storage disabled")
		return nil, nil
	}

	store, err := s3store.New(s3store.Config{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("drawing storage connected", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return store, nil
}

// buildMetrics returns nil when metrics emission is disabled.
//
//nolint:ireturn // statsd.Sink lets tests substitute a recording sink.
func buildMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) (statsd.Sink, error) {
	if !cfg.IsEnabled() {
		return nil, nil
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  "partkeep",
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("metrics emission enabled", "address", cfg.StatsdAddress)
	return client, nil
}

func buildIncidentNotifier(
	cfg config.ObservabilityNotificationsConfig,
	appBaseURL string,
	logger *slog.Logger,
) *incidentnotifier.Service {
	if !cfg.Enabled {
		return nil
	}

	var sinks []incidentnotifier.SinkRegistration

	if cfg.Slack.Enabled {
		prefix := cfg.Slack.AppURLPrefix
		if prefix == "" {
			prefix = appBaseURL
		}
		client, err := slack.NewClient(slack.Config{
			WebhookURL:   cfg.Slack.WebhookURL,
			Channel:      cfg.Slack.Channel,
			Username:     cfg.Slack.Username,
			Timeout:      cfg.Timeout,
			RetryLimit:   cfg.RetryLimit,
			AppURLPrefix: prefix,
		})
		if err != nil {
			logger.Warn("slack sink disabled", "error", err)
		} else {
			sinks = append(sinks, incidentnotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Warn("pagerduty sink disabled", "error", err)
		} else {
			sinks = append(sinks, incidentnotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	if len(sinks) == 0 {
		return nil
	}

	notifier := incidentnotifier.NewService(incidentnotifier.Options{
		Logger: logger,
		Sinks:  sinks,
	})

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name)
	}
	logger.Info("incident notifications enabled", "sinks", names)

	return notifier
}
