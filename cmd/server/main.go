package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"stepway/internal/audit"
	dochandler "stepway/internal/document/handler"
	docservice "stepway/internal/document/service"
	docstore "stepway/internal/document/store"
	"stepway/internal/notification"
	"stepway/internal/pipeline/cache"
	"stepway/internal/pipeline/catalog"
	"stepway/internal/pipeline/gating"
	pipelinehandler "stepway/internal/pipeline/handler"
	"stepway/internal/pipeline/metadata"
	pipelinemetrics "stepway/internal/pipeline/metrics"
	"stepway/internal/pipeline/reopen"
	"stepway/internal/pipeline/requirements"
	pipelineservice "stepway/internal/pipeline/service"
	"stepway/internal/pipeline/store/phasemeta"
	"stepway/internal/pipeline/store/profile"
	"stepway/internal/platform/config"
	"stepway/internal/platform/database"
	"stepway/internal/platform/httpserver"
	"stepway/internal/platform/logger"
	"stepway/internal/platform/metrics"
	"stepway/internal/platform/middleware"
	platformredis "stepway/internal/platform/redis"
	studenthandler "stepway/internal/student/handler"
	studentservice "stepway/internal/student/service"
	studentstore "stepway/internal/student/store"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages. Postgres, Redis, and Kafka
// are optional: without them the server runs on in-memory stores with reopen
// tracking degraded where noted.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := database.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres unavailable", "error", err.Error())
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, snapshot cache disabled", "error", err.Error())
	}

	var (
		profiles  pipelineservice.ProfileStore
		phaseMeta metadata.Store
		students  studentservice.Store
		documents docservice.Store
		auditLog  audit.Store
	)
	if db != nil {
		profiles = profile.NewPostgres(db)
		phaseMeta = phasemeta.NewPostgres(db)
		students = studentstore.NewPostgres(db)
		documents = docstore.NewPostgres(db)
		auditLog = audit.NewPostgresStore(db)
	} else {
		log.Warn("no postgres configured, using in-memory stores")
		profiles = profile.NewInMemory()
		phaseMeta = phasemeta.NewInMemory()
		students = studentstore.NewInMemory()
		documents = docstore.NewInMemory()
		auditLog = audit.NewInMemoryStore()
	}

	var kafka *audit.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err = audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Warn("kafka unavailable, event fan-out disabled", "error", err.Error())
		}
	}
	var stream audit.StreamPublisher
	if kafka != nil {
		stream = kafka
		defer kafka.Close()
	}

	inbox := make(chan audit.Event, 256)
	auditWorker := audit.NewWorker(auditLog, stream, inbox, log)

	var snapshots *cache.SnapshotCache
	if redisClient != nil {
		snapshots = cache.New(redisClient.Client, cfg.SnapshotTTL)
	}

	var sink notification.Sink = notification.NewSlogSink(log)
	if redisClient != nil {
		sink = notification.NewRedisSink(redisClient.Client, "")
	}

	tracker := metadata.NewTracker(phaseMeta, log)
	catalogs := catalog.NewProvider(catalog.NewDefaultSource(), log)

	pipelineSvc := pipelineservice.New(pipelineservice.Deps{
		Catalog:   catalogs,
		Gate:      gating.NewEngine(requirements.NewResolver()),
		Reopen:    reopen.NewPolicy(tracker, log),
		Tracker:   tracker,
		Profiles:  profiles,
		Documents: documents,
		Sink:      sink,
		Audit:     audit.NewPublisher(inbox, log),
		Cache:     snapshots,
		Metrics:   pipelinemetrics.New(),
		Logger:    log,
	})
	studentSvc := studentservice.NewService(students)
	documentSvc := docservice.NewService(documents)

	httpMetrics := metrics.New()
	router := chi.NewRouter()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Latency(httpMetrics),
	)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		pipelinehandler.New(pipelineSvc, log).Register(r)
		studenthandler.New(studentSvc, log).Register(r)
		dochandler.New(documentSvc, log).Register(r)
		audit.NewHandler(audit.NewReader(auditLog), log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := auditWorker.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		log.Info("starting stepway", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
