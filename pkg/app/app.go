// Package app builds the services shared by the API server and the CLI
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/jordanlanch/leadtriage/config"
	"github.com/jordanlanch/leadtriage/pkg/ai/llm"
	"github.com/jordanlanch/leadtriage/pkg/cache"
	"github.com/jordanlanch/leadtriage/pkg/classifier"
	"github.com/jordanlanch/leadtriage/pkg/database"
	"github.com/jordanlanch/leadtriage/pkg/directory"
	"github.com/jordanlanch/leadtriage/pkg/email"
	"github.com/jordanlanch/leadtriage/pkg/export"
	"github.com/jordanlanch/leadtriage/pkg/followup"
	"github.com/jordanlanch/leadtriage/pkg/leadimport"
	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/metrics"
	"github.com/jordanlanch/leadtriage/pkg/secrets"
	"github.com/jordanlanch/leadtriage/pkg/session"
	"github.com/jordanlanch/leadtriage/pkg/slack"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
	"github.com/jordanlanch/leadtriage/pkg/storage"
	"github.com/jordanlanch/leadtriage/pkg/workflow"
	"github.com/prometheus/client_golang/prometheus"
)

// App holds the wired services. DB, Cache, Directory and FilterLeads are nil
// when their backing store is not configured.
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	DB        *database.Client
	Cache     *cache.Client
	Directory *directory.Directory

	Smartlead  *smartlead.CachedClient
	Classifier *classifier.Service
	Store      storage.Store
	Archiver   *storage.Archiver
	Slack      *slack.Service
	Email      *email.Service
	Notifiers  Notifiers

	FilterLeads *workflow.FilterLeads
	FollowUps   *workflow.FollowUps
	Sessions    session.Store
	Runner      *workflow.Runner
	CSV         leadimport.CSVConfig
}

// New validates cfg and builds every service. Call Close when done.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	return NewWithSecrets(ctx, cfg, nil, log)
}

// NewWithSecrets is New with empty credentials filled from a secrets manager
// first. A nil manager picks the backend from the environment, and the
// environment backend adds nothing config.Load has not read already.
func NewWithSecrets(ctx context.Context, cfg *config.Config, mgr secrets.Manager, log logger.Logger) (*App, error) {
	if mgr == nil {
		sc := secrets.AutoDetectConfig()
		if sc.Backend != "env" {
			var err error
			if mgr, err = secrets.NewManager(sc); err != nil {
				return nil, err
			}
		}
	}
	if mgr != nil {
		if _, err := secrets.Fill(ctx, mgr, cfg.SecretTargets()); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Default()
	}

	format, err := export.ParseFormat(cfg.ArtifactFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid ARTIFACT_FORMAT: %w", err)
	}

	reg := prometheus.NewRegistry()
	a := &App{
		Config:   cfg,
		Logger:   log,
		Registry: reg,
		Metrics:  metrics.New(reg),
		Runner:   workflow.NewRunner(),
		CSV: leadimport.CSVConfig{
			MaxRows:         cfg.ImportMaxRows,
			NormalizePhones: cfg.NormalizePhones,
			PhoneRegion:     cfg.PhoneDefaultRegion,
		},
	}

	if err := a.openStores(cfg); err != nil {
		a.Close()
		return nil, err
	}

	client := smartlead.NewClient(smartlead.Config{
		APIKey:        cfg.SmartleadAPIKey,
		InternalToken: cfg.SmartleadInternalToken,
		BaseURL:       cfg.SmartleadBaseURL,
		InternalURL:   cfg.SmartleadInternalURL,
		GraphQLURL:    cfg.SmartleadGraphQLURL,
		Timeout:       cfg.SmartleadTimeout,
		PageRetry: smartlead.PageRetry{
			MaxAttempts: cfg.LeadsPageMaxAttempts,
			BaseDelay:   cfg.LeadsPageBaseDelay,
		},
	}, log, a.Metrics)
	// a nil *cache.Client must not reach the interface as a typed nil
	var jc smartlead.JSONCache
	if a.Cache != nil {
		jc = a.Cache
	}
	a.Smartlead = smartlead.NewCachedClient(client, jc, cfg.CacheTTL)

	llmClient, err := llm.NewOpenAIClient(llm.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel}, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Classifier = classifier.NewService(llmClient, log, a.Metrics)

	a.Store, err = storage.New(ctx, storage.Config{
		Type:            cfg.StorageType,
		LocalPath:       cfg.StorageLocalPath,
		LocalURL:        cfg.ArtifactBaseURL(),
		Bucket:          cfg.StorageContainer,
		Prefix:          cfg.StoragePrefix,
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Endpoint:        cfg.S3Endpoint,
		URLExpiry:       cfg.ArtifactURLExpiry,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Archiver = storage.NewArchiver(a.Store, log, a.Metrics)

	a.Slack = slack.NewService(nil)
	if cfg.SlackWebhookURL != "" {
		a.Slack = slack.NewService(slack.NewWebhookClient(cfg.SlackWebhookURL))
	}

	a.Email = email.NewService(cfg.EmailFrom, cfg.EmailFromName, cfg.SendGridAPIKey, cfg.NotifyEmailTo)
	a.Notifiers = Notifiers{a.Slack, a.Email}.Enabled()

	a.FollowUps = workflow.NewFollowUps(a.Smartlead, followup.NewDuplicator(client, log), a.Notifiers, log, a.Metrics)
	if a.Directory != nil {
		a.FilterLeads = workflow.NewFilterLeads(workflow.FilterLeadsConfig{
			Directory:  a.Directory,
			Client:     a.Smartlead,
			Classifier: a.Classifier,
			Archiver:   a.Archiver,
			Notifier:   a.Notifiers,
			Format:     format,
		}, log, a.Metrics)
	} else {
		log.Warn("DATABASE_URL is not set, lead filtering is disabled")
	}

	return a, nil
}

func (a *App) openStores(cfg *config.Config) error {
	if cfg.DatabaseURL != "" {
		db, err := database.NewClient(cfg.DatabaseURL, &database.SSLConfig{Mode: cfg.DatabaseSSLMode})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		a.Directory = directory.New(db.DB, a.Metrics)
	}

	if cfg.RedisURL != "" {
		redisClient, err := cache.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.Cache = redisClient
		a.Sessions = session.NewRedisStore(redisClient, session.DefaultTTL)
	} else {
		a.Sessions = session.NewMemoryStore(session.DefaultTTL)
	}
	return nil
}

// Close releases the database and cache connections
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Printf("⚠️  Failed to close database: %v", err)
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis: %v", err)
		}
	}
}
