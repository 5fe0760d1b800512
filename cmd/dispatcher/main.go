package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/nikhil/fleetdispatch/config"
	"github.com/nikhil/fleetdispatch/internal/handler"
	"github.com/nikhil/fleetdispatch/internal/middleware"
	"github.com/nikhil/fleetdispatch/internal/model"
	"github.com/nikhil/fleetdispatch/internal/pricing"
	"github.com/nikhil/fleetdispatch/internal/report"
	"github.com/nikhil/fleetdispatch/internal/repository"
	"github.com/nikhil/fleetdispatch/internal/service"
	"github.com/nikhil/fleetdispatch/pkg/cache"
	"github.com/nikhil/fleetdispatch/pkg/db"
	"github.com/nikhil/fleetdispatch/pkg/geo"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	params, err := simParams(cfg.Sim)
	if err != nil {
		log.Fatalf("invalid simulation config: %v", err)
	}

	// ── Tee console output into the log file ────────────
	out, closeLog, err := report.Tee(cfg.Data.LogFile)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer closeLog()
	log.SetOutput(out)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Load datasets ───────────────────────────────────
	fleet, err := repository.LoadVehicles(cfg.Data.VehiclesFile)
	if err != nil {
		log.Fatalf("failed to load vehicles: %v", err)
	}
	scheduled, err := repository.LoadBookings(cfg.Data.BookingsFile, model.OriginScheduled)
	if err != nil {
		log.Fatalf("failed to load scheduled bookings: %v", err)
	}
	instants, err := repository.LoadBookings(cfg.Data.InstantsFile, model.OriginInstant)
	if err != nil {
		log.Fatalf("failed to load instant bookings: %v", err)
	}
	log.Printf("✓ datasets loaded: %d vehicles, %d scheduled, %d instants",
		len(fleet), len(scheduled), len(instants))

	// ── Optional backends ───────────────────────────────
	var pgPool *pgxpool.Pool
	var snapshots *repository.SnapshotRepository
	var runID uuid.UUID
	if cfg.Postgres.Enabled {
		pgPool, err = db.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			log.Fatalf("failed to connect to PostgreSQL: %v", err)
		}
		defer pgPool.Close()

		snapshots = repository.NewSnapshotRepository(pgPool)
		if err := snapshots.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to prepare run archive: %v", err)
		}
		runID, err = snapshots.CreateRun(ctx, cfg.Sim.RandomSeed, params.DayStart, params.DayEnd)
		if err != nil {
			log.Fatalf("failed to register run: %v", err)
		}
		log.Printf("✓ PostgreSQL connected, run %s", runID)
	}

	var rdb *redis.Client
	var metricsCache *repository.MetricsCache
	dist := geo.RoadDistance(cfg.Sim.RoadFactor)
	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		defer rdb.Close()

		dist = repository.CachedDistance(rdb, cfg.Redis.TTL, dist)
		metricsCache = repository.NewMetricsCache(rdb, cfg.Redis.TTL)
		log.Println("✓ Redis connected, distance cache on")
	}

	// ── Build the engine ────────────────────────────────
	rates := pricing.Default()
	engine := service.NewEngine(params, dist, rates, fleet)
	engine.AddBookings(scheduled)

	rng := rand.New(rand.NewSource(cfg.Sim.RandomSeed))
	loader := service.NewInstantLoader(instants, params, rng)

	store := service.NewSnapshotStore()
	reporter := report.New(out)
	reporter.Banner(params.DayStart, params.DayEnd, len(fleet), len(scheduled), len(instants), cfg.Sim.RandomSeed)

	onTick := func(snap model.TickSnapshot) {
		reporter.Tick(snap)
		store.Publish(snap)
		if snapshots != nil && (snap.Reassigned || snap.Final) {
			if err := snapshots.SaveTick(ctx, runID, snap); err != nil {
				log.Printf("[archive] %v", err)
			}
		}
		if metricsCache != nil {
			if err := metricsCache.Publish(ctx, snap.Metrics); err != nil {
				log.Printf("[cache] %v", err)
			}
		}
	}

	sim := service.NewSimulator(engine, loader, params,
		time.Duration(cfg.Sim.TickSleepSeconds)*time.Second, onTick)

	// ── Run simulation + monitor ────────────────────────
	simDone, finishSim := context.WithCancel(ctx)
	defer finishSim()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer finishSim()
		if err := sim.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if cfg.Monitor.Enabled {
		router := mux.NewRouter()
		handler.NewMonitor(store, pgPool, rdb).Register(router)

		srv := &http.Server{
			Addr:         cfg.Monitor.ServerAddr(),
			Handler:      middleware.CORS(middleware.RequestLogger(middleware.Recoverer(router))),
			ReadTimeout:  cfg.Monitor.ReadTimeout,
			WriteTimeout: cfg.Monitor.WriteTimeout,
			IdleTimeout:  cfg.Monitor.IdleTimeout,
		}

		g.Go(func() error {
			log.Printf("🚀 monitor listening on %s", cfg.Monitor.ServerAddr())
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-simDone.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("run failed: %v", err)
	}

	// ── Close out the run ───────────────────────────────
	final := engine.Metrics()
	if snapshots != nil {
		if err := snapshots.FinishRun(context.Background(), runID, final); err != nil {
			log.Printf("[archive] %v", err)
		}
	}
	log.Printf("✅ day complete: profit %.2f, efficiency %.1f%%, %d/%d bookings assigned",
		final.Profit, final.Efficiency*100, final.Assigned, final.Visible)
}

// simParams converts the string-typed config surface into engine
// parameters.
func simParams(c config.SimConfig) (service.Params, error) {
	dayStart, err := geo.ParseClock(c.DayStart)
	if err != nil {
		return service.Params{}, err
	}
	dayEnd, err := geo.ParseClock(c.DayEnd)
	if err != nil {
		return service.Params{}, err
	}
	return service.Params{
		DayStart:         dayStart,
		DayEnd:           dayEnd,
		TickStep:         c.TickStepMinutes,
		LockWindow:       c.LockWindowMinutes,
		UrgentWindow:     c.UrgentWindowMinutes,
		ServiceTime:      c.ServiceTimeMinutes,
		OverloadCap:      c.OverloadCap,
		OverloadCapFinal: c.OverloadCapFinal,
		ClassUpgradeMax:  c.ClassUpgradeMax,
		RouteFillMax:     c.RouteFillMax,
		AvgSpeedKmph:     c.AvgSpeedKmph,
	}, nil
}
