package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sheetwatch/internal/abuse"
	abusehandler "sheetwatch/internal/abuse/handler"
	"sheetwatch/internal/audit"
	"sheetwatch/internal/jwttoken"
	"sheetwatch/internal/platform/config"
	"sheetwatch/internal/platform/httpserver"
	"sheetwatch/internal/platform/logger"
	"sheetwatch/internal/platform/postgres"
	redisplatform "sheetwatch/internal/platform/redis"
	"sheetwatch/internal/ratelimit"
	"sheetwatch/internal/reconcile"
	reconcilehandler "sheetwatch/internal/reconcile/handler"
	"sheetwatch/internal/report"
	reporthandler "sheetwatch/internal/report/handler"
	"sheetwatch/internal/risk"
	riskhandler "sheetwatch/internal/risk/handler"
	"sheetwatch/internal/snapshot"
	snapshothandler "sheetwatch/internal/snapshot/handler"
	"sheetwatch/internal/station"
	stationhandler "sheetwatch/internal/station/handler"
	"sheetwatch/internal/submission"
	submissionhandler "sheetwatch/internal/submission/handler"
	httptransport "sheetwatch/internal/transport/http"
)

// stores groups the persistence layer so the postgres and in-memory
// selections stay in one place.
type stores struct {
	stations    station.Store
	submissions submission.Store
	reports     report.Store
	tallies     reconcile.TallyStore
	log         reconcile.LogStore

	// snapshotSource reads the aggregator's three datasets as one
	// consistent view; the postgres flavor wraps them in a single
	// REPEATABLE READ transaction.
	snapshotSource snapshot.Source
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStores, err := buildStores(cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected", "url", cfg.Redis.URL)
	}

	g, ctx := errgroup.WithContext(ctx)

	auditor, err := buildAuditor(ctx, g, cfg, log)
	if err != nil {
		return err
	}

	var bucketStore ratelimit.BucketStore
	if redisClient != nil {
		bucketStore = ratelimit.NewRedisBucketStore(redisClient.Client,
			cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.RateLimit.BlockFor)
	} else {
		bucketStore = ratelimit.NewInMemoryBucketStore(
			cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.RateLimit.BlockFor)
	}
	limiter := ratelimit.NewLimiter(bucketStore,
		ratelimit.WithLogger(log),
		ratelimit.WithAuditPublisher(auditor),
	)

	stationSvc := station.NewService(st.stations, log)
	submissionSvc := submission.NewService(st.submissions, st.stations, submission.WithLogger(log))
	reportSvc := report.NewService(st.reports, st.stations, report.WithLogger(log))
	riskSvc := risk.NewService(st.stations, st.submissions, st.reports, st.tallies, risk.WithLogger(log))
	reconcileSvc := reconcile.NewService(st.submissions, st.tallies, st.log,
		reconcile.WithLogger(log),
		reconcile.WithAuditPublisher(auditor),
	)
	abuseSvc := abuse.NewService(submissionSvc, reportSvc,
		abuse.WithLogger(log),
		abuse.WithAuditPublisher(auditor),
	)

	publisherOpts := []snapshot.PublisherOption{snapshot.WithPublisherLogger(log)}
	if redisClient != nil {
		publisherOpts = append(publisherOpts, snapshot.WithCache(redisClient))
	}
	publisher := snapshot.NewPublisher(publisherOpts...)
	runner := snapshot.NewRunner(st.snapshotSource, publisher,
		snapshot.WithInterval(cfg.SnapshotInterval),
		snapshot.WithRunnerLogger(log),
	)
	g.Go(func() error {
		runner.Run(ctx)
		return nil
	})

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		JWT:        jwttoken.NewJWTService(cfg.JWTSigningKey, "sheetwatch"),
		KillSwitch: func() bool { return cfg.WriteKillSwitch },
		Limiter:    limiter,

		Submissions: submissionhandler.New(submissionSvc, log),
		Reports:     reporthandler.New(reportSvc, log),
		Stations:    stationhandler.New(stationSvc, submissionSvc, reportSvc, riskSvc, log),
		Risk:        riskhandler.New(riskSvc, log),
		Snapshot:    snapshothandler.New(publisher),
		Reconcile:   reconcilehandler.New(reconcileSvc, log),
		Abuse:       abusehandler.New(abuseSvc, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.Info("starting sheetwatch", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildStores(cfg config.Server, log *slog.Logger) (*stores, func(), error) {
	if cfg.PostgresURL == "" {
		log.Warn("no postgres url configured, using in-memory stores")
		stations := station.NewInMemoryStore()
		submissions := submission.NewInMemoryStore()
		tallies := reconcile.NewInMemoryTallyStore()
		return &stores{
			stations:       stations,
			submissions:    submissions,
			reports:        report.NewInMemoryStore(),
			tallies:        tallies,
			log:            reconcile.NewInMemoryLogStore(),
			snapshotSource: snapshot.NewStoreSource(stations, submissions, tallies),
		}, func() {}, nil
	}

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("postgres connected")
	stations := station.NewPostgres(db)
	submissions := submission.NewPostgres(db)
	tallies := reconcile.NewPostgresTallyStore(db)
	return &stores{
		stations:       stations,
		submissions:    submissions,
		reports:        report.NewPostgres(db),
		tallies:        tallies,
		log:            reconcile.NewPostgresLogStore(db),
		snapshotSource: snapshot.NewPostgresSource(db, stations, submissions, tallies),
	}, func() { _ = db.Close() }, nil
}

// buildAuditor picks the audit sink: Kafka when brokers are configured,
// otherwise an in-process worker draining into the in-memory store.
func buildAuditor(ctx context.Context, g *errgroup.Group, cfg config.Server, log *slog.Logger) (audit.Publisher, error) {
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			<-ctx.Done()
			return pub.Close()
		})
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
		return pub, nil
	}

	async := audit.NewAsyncPublisher(256)
	worker := audit.NewWorker(audit.NewInMemoryStore(), async.Inbox())
	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return async, nil
}
