// Command server runs the Conference Central API, the background job worker
// and the periodic announcement refresh in one process.
//
//	@title						Conference Central API
//	@version					1.0
//	@description				Conferences, sessions, speakers, registrations and wishlists.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"conferencecentral/config"
	_ "conferencecentral/docs"
	"conferencecentral/internal/adapters/auth"
	"conferencecentral/internal/adapters/cache"
	"conferencecentral/internal/adapters/email"
	"conferencecentral/internal/adapters/queue"
	httpdelivery "conferencecentral/internal/delivery/http"
	"conferencecentral/internal/delivery/http/controllers"
	"conferencecentral/internal/domain"
	"conferencecentral/internal/keys"
	"conferencecentral/internal/query"
	"conferencecentral/internal/repository/memory"
	"conferencecentral/internal/repository/postgres"
	"conferencecentral/internal/services"
	"conferencecentral/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

type backends struct {
	store   domain.EntityStore
	queue   domain.JobQueue
	source  domain.JobSource
	cache   domain.Cache
	closers []io.Closer
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i].Close()
	}
}

func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}
	var db *sql.DB
	if cfg.StoreBackend == "postgres" || cfg.QueueBackend == "postgres" {
		var err error
		db, err = sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		b.closers = append(b.closers, db)
		if err := db.PingContext(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			b.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	switch cfg.StoreBackend {
	case "postgres":
		b.store = postgres.NewStore(db)
	case "memory":
		b.store = memory.NewStore()
	default:
		b.Close()
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.QueueBackend {
	case "postgres":
		q := postgres.NewJobQueue(db)
		b.queue, b.source = q, q
	case "memory":
		q := queue.NewMemory(queue.DefaultCapacity)
		b.queue, b.source = q, q
	default:
		b.Close()
		return nil, fmt.Errorf("unknown QUEUE_BACKEND %q", cfg.QueueBackend)
	}

	switch cfg.CacheBackend {
	case "badger":
		c, err := cache.OpenBadger(cfg.CacheDir)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("open badger cache: %w", err)
		}
		b.cache = c
		b.closers = append(b.closers, c)
	case "dynamodb":
		client, err := cache.NewDynamoClient(ctx, cfg.AWSRegion)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("dynamodb client: %w", err)
		}
		b.cache = cache.NewDynamo(client, cfg.CacheTable)
	default:
		b.Close()
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}

	logger.Info("backends ready", "store", cfg.StoreBackend, "queue", cfg.QueueBackend, "cache", cfg.CacheBackend)
	return b, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	registry, err := keys.NewRegistry(cfg.KeySecret)
	if err != nil {
		return fmt.Errorf("key registry: %w", err)
	}
	mailer, err := email.NewMailer(ctx, email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	jwt := auth.NewJWT(cfg.JWTSecret)

	planner := query.NewPlanner(b.store)
	timeout := cfg.RequestTimeout
	profiles := services.NewProfileService(b.store, timeout)
	featured := services.NewFeaturedSpeakerPipeline(b.store, b.cache, cfg.FeaturedSpeakerThreshold, logger)
	announcements := services.NewAnnouncementService(b.store, b.cache, logger)

	router := httpdelivery.NewRouter(httpdelivery.Controllers{
		Conferences: controllers.NewConferenceController(logger, services.NewConferenceService(b.store, planner, b.queue, logger, timeout), profiles, registry),
		Sessions:    controllers.NewSessionController(logger, services.NewSessionService(b.store, planner, b.queue, cfg.SessionTypes, logger, timeout), featured, registry),
		Speakers:    controllers.NewSpeakerController(logger, services.NewSpeakerService(b.store, timeout)),
		Profiles:    controllers.NewProfileController(logger, profiles, services.NewWishlistService(b.store, timeout), announcements, registry),
	}, jwt, cfg.CORSAllowedOrigins, logger)

	runner := worker.New(b.source, map[domain.JobType]domain.JobHandler{
		domain.JobFeaturedSpeaker:             featured,
		domain.JobConferenceConfirmationEmail: services.NewConfirmationEmailHandler(b.store, mailer, email.NewTemplateRenderer(), logger),
	}, worker.Config{
		PollInterval: cfg.WorkerPollInterval,
		MaxAttempts:  cfg.WorkerMaxAttempts,
	}, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCanceled(runner.Run(ctx))
	})
	g.Go(func() error {
		return ignoreCanceled(worker.RunPeriodic(ctx, logger, "announcement", cfg.AnnouncementInterval, func(ctx context.Context) error {
			_, err := announcements.Refresh(ctx)
			return err
		}))
	})
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
