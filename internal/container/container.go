// Package container wires the application together. Each Package
// function registers one concern with the injector; the binaries compose
// the subset they need.
package container

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/engagekit/onsite/internal/ack"
	"github.com/engagekit/onsite/internal/bridge"
	"github.com/engagekit/onsite/internal/fetcher"
	"github.com/engagekit/onsite/internal/handlers"
	"github.com/engagekit/onsite/internal/health"
	"github.com/engagekit/onsite/internal/messaging"
	"github.com/engagekit/onsite/internal/middleware"
	"github.com/engagekit/onsite/internal/notification"
	"github.com/engagekit/onsite/internal/push"
	"github.com/engagekit/onsite/internal/store"
	"github.com/engagekit/onsite/internal/throttle"
	"github.com/engagekit/onsite/internal/tracking"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// Options configures both binaries. The server populates it through
// humacli flags, the worker from environment variables.
type Options struct {
	Port             int    `default:"8888"            help:"Port to listen on"                                      short:"p"`
	RedisAddr        string `default:"localhost:6379"  help:"Redis server address"                                   short:"r"`
	PostgresDSN      string `default:""                help:"Postgres connection string (postgres backend only)"`
	StoreBackend     string `default:"redis"           help:"Record store backend: redis, postgres, or memory"`
	AppID            string `default:""                help:"Application ID sent to the notification source"`
	NotificationsURL string `default:""                help:"Remote notification source endpoint"`
	AckURL           string `default:""                help:"Acknowledgement endpoint"`
	TrackingURL      string `default:""                help:"Event collection endpoint (empty logs events instead)"`
	FetchWindow      string `default:"1h"              help:"Minimum interval between remote fetches per visitor"`
	VisitorIDLength  int    `default:"16"              help:"Length of issued visitor IDs"`
	AllowedOrigins   string `default:"*"               help:"Comma-separated CORS origins"`
	SweepSchedule    string `default:"*/10 * * * *"    help:"Cron schedule of the record eviction sweep"`
	LogFormat        string `default:"console"         help:"Log format: console or json"`
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

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// PostgresPackage provides the pgx pool. Only invoked when the postgres
// backend is selected.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)
		if options.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend selected but no DSN configured")
		}

		return pgxpool.New(context.Background(), options.PostgresDSN)
	})
}

// StoresPackage provides the record, throttle marker, and push
// subscription stores for the configured backend. The marker and push
// stores stay on Redis even with the postgres record backend: they are
// small key-value state, not relational data.
func StoresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (notification.StoreProvider, error) {
		options := do.MustInvoke[*Options](i)

		switch options.StoreBackend {
		case "postgres":
			return store.NewPostgresRecordStores(do.MustInvoke[*pgxpool.Pool](i)), nil
		case "memory":
			return store.NewMemoryRecordStores(), nil
		default:
			return store.NewRedisRecordStores(do.MustInvoke[*redis.Client](i)), nil
		}
	})

	do.Provide(injector, func(i *do.Injector) (notification.Pruner, error) {
		pruner, ok := do.MustInvoke[notification.StoreProvider](i).(notification.Pruner)
		if !ok {
			return nil, fmt.Errorf("record store backend does not support pruning")
		}

		return pruner, nil
	})

	do.Provide(injector, func(i *do.Injector) (throttle.Store, error) {
		options := do.MustInvoke[*Options](i)

		if options.StoreBackend == "memory" {
			return store.NewMemoryMarkerStore(), nil
		}

		return store.NewRedisMarkerStore(do.MustInvoke[*redis.Client](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (push.Store, error) {
		options := do.MustInvoke[*Options](i)

		if options.StoreBackend == "memory" {
			return store.NewMemoryPushStore(), nil
		}

		return store.NewRedisPushStore(do.MustInvoke[*redis.Client](i)), nil
	})
}

// PublisherGroupPackage provides the broker publisher over Redis Streams.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// AckRelayPackage provides the server-side dispatcher: acknowledgements
// go onto the broker so page requests never block on the vendor.
func AckRelayPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ack.Dispatcher, error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return bridge.NewAckRelay(group.Publisher()), nil
	})
}

// AckClientPackage provides the worker-side dispatcher: a direct HTTP
// client on the acknowledgement endpoint.
func AckClientPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ack.Dispatcher, error) {
		options := do.MustInvoke[*Options](i)

		return ack.NewClient(http.DefaultClient, options.AckURL), nil
	})
}

// EnginePackage provides the notification engine and its collaborators.
// The ack.Dispatcher comes from whichever ack package the binary
// registered.
func EnginePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*throttle.Throttle, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		window, err := time.ParseDuration(options.FetchWindow)
		if err != nil {
			logger.Warn("invalid fetch window, using default",
				zap.String("fetchWindow", options.FetchWindow),
				zap.Error(err),
			)

			window = 0
		}

		return throttle.New(do.MustInvoke[throttle.Store](i), window), nil
	})

	do.Provide(injector, func(i *do.Injector) (notification.RemoteSource, error) {
		options := do.MustInvoke[*Options](i)

		return fetcher.New(
			http.DefaultClient,
			options.NotificationsURL,
			options.AppID,
			do.MustInvoke[ack.Dispatcher](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (notification.Presenter, error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return bridge.NewPresenter(group.Publisher()), nil
	})

	do.Provide(injector, func(i *do.Injector) (*notification.Engine, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		selector := notification.NewSelector(nil, logger)

		return notification.NewEngine(
			do.MustInvoke[notification.StoreProvider](i),
			do.MustInvoke[*throttle.Throttle](i),
			do.MustInvoke[notification.RemoteSource](i),
			selector,
			do.MustInvoke[ack.Dispatcher](i),
			do.MustInvoke[notification.Presenter](i),
			nil,
			logger,
		), nil
	})
}

// HTTPPackage provides the router and the huma API with every route
// registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: strings.Split(options.AllowedOrigins, ","),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		api := humachi.New(router, huma.DefaultConfig("On-site Notifications", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		newVisitorID, err := nanoid.Standard(options.VisitorIDLength)
		if err != nil {
			return nil, fmt.Errorf("visitor id generator: %w", err)
		}

		group := do.MustInvoke[*messaging.PublisherGroup](i)

		sdk := handlers.NewSDKHandler(
			do.MustInvoke[*notification.Engine](i),
			do.MustInvoke[ack.Dispatcher](i),
			do.MustInvoke[push.Store](i),
			messaging.NewPublishFunc[tracking.Event](group.Publisher(), tracking.TopicEventTracked),
			messaging.NewPublishFunc[bridge.FetchFromAPIMessage](group.Publisher(), bridge.TopicFetchAPI),
			messaging.NewPublishFunc[bridge.LogoutMessage](group.Publisher(), bridge.TopicLogout),
			newVisitorID,
			logger,
		)
		handlers.RegisterRoutes(api, sdk)

		var postgres health.Checker
		if options.StoreBackend == "postgres" {
			postgres = health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i))
		}

		redisChecker := health.NewRedisChecker(do.MustInvoke[*redis.Client](i))
		health.RegisterRoutes(api, health.NewHandler(redisChecker, postgres))

		return api, nil
	})
}

// ConsumerGroupPackage provides the worker's consumers: the four control
// topics plus tracked events.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (tracking.Sink, error) {
		options := do.MustInvoke[*Options](i)

		if options.TrackingURL == "" {
			return tracking.NewNoop(do.MustInvoke[*zap.Logger](i)), nil
		}

		return tracking.NewForwarder(http.DefaultClient, options.TrackingURL), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		client := do.MustInvoke[*redis.Client](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: "onsite-worker",
		}, watermill.NopLogger{})
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		control := bridge.NewHandlers(
			do.MustInvoke[*notification.Engine](i),
			do.MustInvoke[ack.Dispatcher](i),
			do.MustInvoke[push.Store](i),
			logger,
		)

		sink := do.MustInvoke[tracking.Sink](i)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, bridge.TopicFetchAPI, control.HandleFetchFromAPI, logger))
		group.Add(messaging.NewConsumer(subscriber, bridge.TopicFetchStore, control.HandleFetchFromStore, logger))
		group.Add(messaging.NewConsumer(subscriber, bridge.TopicAck, control.HandleAck, logger))
		group.Add(messaging.NewConsumer(subscriber, bridge.TopicLogout, control.HandleLogout, logger))
		group.Add(messaging.NewConsumer(subscriber, tracking.TopicEventTracked, sink.Track, logger))

		return group, nil
	})
}

// CronPackage provides the scheduled eviction sweep. Lazy eviction during
// selection keeps selections correct; the sweep reclaims space held by
// visitors who stopped coming back.
func CronPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*cron.Cron, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		pruner := do.MustInvoke[notification.Pruner](i)

		c := cron.New()

		_, err := c.AddFunc(options.SweepSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			pruned, err := pruner.Prune(ctx, time.Now())
			if err != nil {
				logger.Error("eviction sweep failed", zap.Error(err))

				return
			}

			if pruned > 0 {
				logger.Info("evicted stale notification records", zap.Int("count", pruned))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", options.SweepSchedule, err)
		}

		return c, nil
	})
}
