package container

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/gatelink/internal/auth"
	"github.com/serroba/gatelink/internal/handlers"
	"github.com/serroba/gatelink/internal/health"
	"github.com/serroba/gatelink/internal/link"
	"github.com/serroba/gatelink/internal/mailer"
	"github.com/serroba/gatelink/internal/messaging"
	"github.com/serroba/gatelink/internal/middleware"
	"github.com/serroba/gatelink/internal/store"
	"go.uber.org/zap"
)

// capabilityTokenLength sizes sign-in capability tokens. Same alphabet as
// short ids, but long enough to be unguessable.
const capabilityTokenLength = 21

type Options struct {
	Port         int    `default:"8888"           help:"Port to listen on"                                                      short:"p"`
	BaseURL      string `default:""               help:"Public base URL for short links and sign-in emails (defaults to http://localhost:<port>)"`
	CodeLength   int    `default:"8"              help:"Length of generated short ids"                                          short:"c"`
	RedisAddr    string `default:"localhost:6379" help:"Redis server address"                                                   short:"r"`
	PostgresDSN  string `default:""               help:"PostgreSQL DSN for the link store; empty runs on the in-memory store"`
	JWTSecret    string `default:"dev-only-secret" help:"HMAC secret for session tokens"`
	ChallengeTTL int    `default:"0"              help:"Sign-in challenge validity in minutes; 0 never expires"`
	SessionTTL   int    `default:"0"              help:"Session token validity in minutes; 0 never expires"`
	CaseFold     bool   `default:"false"          help:"Case-insensitive allowlist matching"`
	CacheTTL     int    `default:"300"            help:"Link cache TTL in seconds"`
	LogFormat    string `default:"console"        help:"Log format: console or json"`
	SMTPHost     string `default:""               help:"SMTP relay host; empty logs sign-in emails instead of sending"`
	SMTPPort     int    `default:"587"            help:"SMTP relay port (465 uses implicit TLS)"`
	SMTPUsername string `default:""               help:"SMTP username"`
	SMTPPassword string `default:""               help:"SMTP password"`
	MailFrom     string `default:"signin@localhost" help:"From address on sign-in emails"`
	MailerGroup  string `default:"mailer"         help:"Redis stream consumer group for the mailer"`
}

// ResolvedBaseURL returns the configured public base URL without a trailing
// slash, defaulting to localhost on the listen port.
func (o *Options) ResolvedBaseURL() string {
	if o.BaseURL != "" {
		return strings.TrimSuffix(o.BaseURL, "/")
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// PostgresPackage provides the pgx pool. Only invoked when a DSN is set.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		return pgxpool.New(context.Background(), options.PostgresDSN)
	})
}

// StorePackage provides the link store and the challenge store.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (link.Store, error) {
		options := do.MustInvoke[*Options](i)

		if options.PostgresDSN == "" {
			return store.NewMemoryLinkStore(), nil
		}

		pool := do.MustInvoke[*pgxpool.Pool](i)
		client := do.MustInvoke[*redis.Client](i)
		ttl := time.Duration(options.CacheTTL) * time.Second

		return store.NewRedisLinkCache(store.NewPostgresLinkStore(pool), client, ttl), nil
	})

	do.Provide(injector, func(i *do.Injector) (auth.ChallengeStore, error) {
		client := do.MustInvoke[*redis.Client](i)

		return store.NewRedisChallengeStore(client), nil
	})
}

// PublisherGroupPackage provides the redis stream publisher and the typed
// challenge-issued publish function.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[auth.ChallengeIssuedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[auth.ChallengeIssuedEvent](group.Publisher(), auth.TopicChallengeIssued), nil
	})
}

// AuthPackage provides the auth service.
func AuthPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*auth.Service, error) {
		options := do.MustInvoke[*Options](i)
		challenges := do.MustInvoke[auth.ChallengeStore](i)
		publish := do.MustInvoke[messaging.Publish[auth.ChallengeIssuedEvent]](i)
		logger := do.MustInvoke[*zap.Logger](i)

		generator, err := nanoid.Standard(capabilityTokenLength)
		if err != nil {
			return nil, err
		}

		cfg := auth.Config{
			JWTSecret:    []byte(options.JWTSecret),
			ChallengeTTL: time.Duration(options.ChallengeTTL) * time.Minute,
			SessionTTL:   time.Duration(options.SessionTTL) * time.Minute,
		}

		return auth.NewService(challenges, publish, auth.TokenGenerator(generator), cfg, logger), nil
	})
}

// LinkPackage provides the registry and the access evaluator.
func LinkPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*link.Registry, error) {
		options := do.MustInvoke[*Options](i)
		linkStore := do.MustInvoke[link.Store](i)
		logger := do.MustInvoke[*zap.Logger](i)

		generator, err := nanoid.Standard(options.CodeLength)
		if err != nil {
			return nil, err
		}

		return link.NewRegistry(linkStore, link.Generator(generator), options.CaseFold, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*link.Evaluator, error) {
		options := do.MustInvoke[*Options](i)

		return link.NewEvaluator(options.CaseFold), nil
	})
}

// HTTPPackage provides the router and the API with all routes registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		registry := do.MustInvoke[*link.Registry](i)
		evaluator := do.MustInvoke[*link.Evaluator](i)
		authService := do.MustInvoke[*auth.Service](i)
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(router, huma.DefaultConfig("Gatelink", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.Auth(authService),
		)

		linkHandler := handlers.NewLinkHandler(registry, evaluator, authService, options.ResolvedBaseURL(), logger)
		authHandler := handlers.NewAuthHandler(authService, logger)
		handlers.RegisterRoutes(api, linkHandler, authHandler)

		var postgresChecker health.Checker
		if options.PostgresDSN != "" {
			postgresChecker = health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i))
		}

		health.RegisterRoutes(api, health.NewHandler(health.NewRedisChecker(client), postgresChecker))

		return api, nil
	})
}

// MailerGroupPackage provides the consumer group that delivers sign-in emails.
func MailerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (mailer.Sender, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if options.SMTPHost == "" {
			return mailer.NewLogSender(logger), nil
		}

		return mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     options.SMTPHost,
			Port:     options.SMTPPort,
			Username: options.SMTPUsername,
			Password: options.SMTPPassword,
			From:     options.MailFrom,
		}, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		options := do.MustInvoke[*Options](i)
		client := do.MustInvoke[*redis.Client](i)
		sender := do.MustInvoke[mailer.Sender](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: options.MailerGroup,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(mailer.NewConsumer(subscriber, sender, options.ResolvedBaseURL(), logger))

		return group, nil
	})
}
