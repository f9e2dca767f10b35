// Command scheduler is the process entrypoint: it wires the schedule
// store, change-notify channel, event publisher, status transition
// translator, scheduler loop, and diagnostics surface together, in
// construction order — store first, then notification and publishing,
// then scheduler, then HTTP. The populator is not part of this process.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/bretmckee/game-scheduler/internal/clock"
	"github.com/bretmckee/game-scheduler/internal/config"
	"github.com/bretmckee/game-scheduler/internal/diagnostics"
	"github.com/bretmckee/game-scheduler/internal/notify"
	"github.com/bretmckee/game-scheduler/internal/publish"
	"github.com/bretmckee/game-scheduler/internal/schedule"
	"github.com/bretmckee/game-scheduler/internal/schedulerloop"
	"github.com/bretmckee/game-scheduler/internal/transition"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("scheduler: config: %v", err)
	}

	// 1. Schedule Store: migrate then open the pool.
	if err := schedule.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("scheduler: migrate: %v", err)
	}
	store, err := schedule.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("scheduler: connect store: %v", err)
	}
	defer store.Close()
	log.Println("scheduler: connected to schedule store")

	// 2. Change-Notify Channel.
	notifier := notify.New(cfg.DatabaseURL)

	// 3. Event bus: Kafka when brokers are configured, otherwise a log
	// sink for local/dev operation.
	var bus publish.Bus
	if len(cfg.KafkaBrokers) > 0 {
		bus = publish.NewKafkaBus(cfg.KafkaBrokers)
		log.Printf("scheduler: publishing to Kafka brokers %v", cfg.KafkaBrokers)
	} else {
		bus = publish.NewLogBus()
		log.Println("scheduler: no KAFKA_BROKERS set, publishing to log")
	}
	defer bus.Close()
	adapter := publish.NewAdapter(bus, cfg.PublishRate, cfg.PublishBurst)

	// 4. Diagnostics hub decorates the publisher so status-transition
	// rows fan out to connected operator dashboards as they dispatch.
	hub := diagnostics.NewHub()
	var pub schedulerloop.Publisher = transition.Wrap(adapter, hub)

	// 5. Retry tracking: Redis-backed when configured so dead-letter
	// counting survives across replicas, otherwise per-process memory.
	retries := schedulerloop.RetryTracker(schedulerloop.NewInMemoryRetryTracker())
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		retries = schedulerloop.NewRedisRetryTracker(rdb)
		log.Printf("scheduler: retry tracking via Redis at %s", cfg.RedisAddr)
	}

	// 6. Scheduler Loop.
	loop := schedulerloop.New(store, notifier, pub, clock.Real{}, retries, cfg.Loop)

	// 7. Diagnostics HTTP/websocket server.
	diagServer := diagnostics.NewServer(cfg.DiagnosticsAddr, hub)
	go func() {
		if err := diagServer.Run(ctx); err != nil {
			log.Printf("scheduler: diagnostics server stopped: %v", err)
		}
	}()

	log.Println("scheduler: entering main loop")
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("scheduler: loop exited: %v", err)
	}
	log.Println("scheduler: shut down cleanly")
}
