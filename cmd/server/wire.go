package main

import (
	"context"
	"fmt"

	"github.com/lalith-99/seniorbuddy/internal/alerts"
	"github.com/lalith-99/seniorbuddy/internal/api"
	"github.com/lalith-99/seniorbuddy/internal/auth"
	"github.com/lalith-99/seniorbuddy/internal/booking"
	"github.com/lalith-99/seniorbuddy/internal/catalog"
	"github.com/lalith-99/seniorbuddy/internal/chat"
	"github.com/lalith-99/seniorbuddy/internal/config"
	"github.com/lalith-99/seniorbuddy/internal/db"
	"github.com/lalith-99/seniorbuddy/internal/gate"
	"github.com/lalith-99/seniorbuddy/internal/profile"
	"github.com/lalith-99/seniorbuddy/internal/repository"
	"github.com/lalith-99/seniorbuddy/internal/repository/postgres"
	"github.com/lalith-99/seniorbuddy/internal/session"
	"github.com/lalith-99/seniorbuddy/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// backendDeps is everything that talks to the network. In the disabled
// variant every field except notifier is nil and sessions is the disabled
// manager, so each component short-circuits with backend.ErrDisabled.
type backendDeps struct {
	database *db.DB
	rdb      *redis.Client
	blobs    storage.Blobs
	notifier alerts.Notifier
	sessions *session.Manager

	profiles      repository.ProfileRepository
	subscriptions repository.SubscriptionRepository
	bookings      repository.BookingRepository
	messages      repository.MessageRepository
	identities    repository.IdentityRepository

	closers []func()
}

func (d *backendDeps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func disabledBackend(logger *zap.Logger) *backendDeps {
	return &backendDeps{
		notifier: alerts.NewLogNotifier(logger),
		sessions: session.NewManager(nil, "", 0),
	}
}

func connectBackend(ctx context.Context, cfg *config.Config, migrate bool, logger *zap.Logger) (*backendDeps, error) {
	d := &backendDeps{}
	fail := func(err error) (*backendDeps, error) {
		d.Close()
		return nil, err
	}

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fail(fmt.Errorf("connect to database: %w", err))
	}
	d.database = database
	d.closers = append(d.closers, database.Close)

	if migrate {
		if err := database.Migrate(ctx); err != nil {
			return fail(fmt.Errorf("migrate database: %w", err))
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fail(fmt.Errorf("parse redis url: %w", err))
	}
	d.rdb = redis.NewClient(redisOpts)
	d.closers = append(d.closers, func() { _ = d.rdb.Close() })
	if err := d.rdb.Ping(ctx).Err(); err != nil {
		return fail(fmt.Errorf("ping redis: %w", err))
	}

	blobs, err := storage.NewS3(ctx, storage.S3Options{
		Bucket:        cfg.Storage.Bucket,
		Region:        cfg.Storage.Region,
		Endpoint:      cfg.Storage.Endpoint,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		URLExpiry:     cfg.Storage.URLExpiry,
	}, logger)
	if err != nil {
		return fail(fmt.Errorf("configure storage: %w", err))
	}
	d.blobs = blobs

	if cfg.MQTT.Broker != "" {
		n, err := alerts.NewMQTTNotifier(alerts.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, logger)
		if err != nil {
			return fail(fmt.Errorf("connect alerts: %w", err))
		}
		d.notifier = n
		d.closers = append(d.closers, n.Close)
	} else {
		d.notifier = alerts.NewLogNotifier(logger)
	}

	// Each repo gets the same pool. The pool is goroutine-safe.
	pool := database.Pool()
	d.profiles = postgres.NewProfileStore(pool)
	d.subscriptions = postgres.NewSubscriptionStore(pool)
	d.bookings = postgres.NewBookingStore(pool)
	d.messages = postgres.NewMessageStore(pool)
	d.identities = postgres.NewIdentityStore(pool)

	d.sessions = session.NewManager(d.rdb, cfg.JWTSecret, cfg.SessionTTL)
	return d, nil
}

func smsSender(cfg *config.Config, logger *zap.Logger) auth.SMSSender {
	if cfg.SMS.BaseURL != "" {
		return auth.NewGatewaySender(cfg.SMS.BaseURL, cfg.SMS.APIKey, cfg.SMS.Sender, logger)
	}
	// Without a gateway, codes only show up in development logs.
	return auth.NewLogSender(logger, cfg.Env != "production")
}

func newHandlers(cfg *config.Config, d *backendDeps, cat *catalog.Catalog, logger *zap.Logger) api.Handlers {
	checks := map[string]api.Check{}
	if d.database != nil {
		checks["postgres"] = d.database.Health
	}
	if d.rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return d.rdb.Ping(ctx).Err() }
	}

	var sms auth.SMSSender
	if d.rdb != nil {
		sms = smsSender(cfg, logger)
	}

	profiles := profile.NewStore(d.profiles, d.blobs, logger)
	verifier := auth.NewVerifier(d.rdb, d.identities, sms, logger)
	recorder := booking.NewRecorder(d.bookings, d.subscriptions, cat, d.notifier, logger)
	rooms := chat.NewRooms(d.messages, d.rdb, d.blobs, logger)
	chatGate := gate.New(d.subscriptions, logger)

	return api.Handlers{
		Health:   api.NewHealthHandler(cfg.BackendEnabled(), cfg.Missing, checks),
		Auth:     api.NewAuthHandler(verifier, d.sessions, profiles, logger),
		Profile:  api.NewProfileHandler(profiles, logger),
		Services: api.NewServiceHandler(cat),
		Bookings: api.NewBookingHandler(recorder, logger),
		SOS:      api.NewSOSHandler(d.notifier, logger),
		Chat:     api.NewChatHandler(rooms, chatGate, profiles, cfg.AllowedOrigins, logger),
	}
}
