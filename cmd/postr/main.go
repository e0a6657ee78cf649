package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	config "github.com/maheshrc27/postr/configs"
	"github.com/maheshrc27/postr/internal/api"
	"github.com/maheshrc27/postr/internal/database"
	job "github.com/maheshrc27/postr/internal/jobs"
	"github.com/maheshrc27/postr/internal/metrics"
	"github.com/maheshrc27/postr/internal/queue"
	"github.com/maheshrc27/postr/internal/relay"
	"github.com/maheshrc27/postr/internal/repository"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/maheshrc27/postr/pkg/utils"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	root := &cli.Command{
		Name:  "postr",
		Usage: "Schedule and publish nostr events",
		Commands: []*cli.Command{
			serveCommand(),
			workerCommand(),
			allCommand(),
			migrateCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// runtime holds the dependencies shared by every long running command.
type runtime struct {
	cfg     config.Config
	db      *sql.DB
	client  *repository.Client
	asynq   *asynq.Client
	redis   asynq.RedisClientOpt
	metrics metrics.Metrics

	schedules service.ScheduleService
	publisher service.PublishService
}

func setup(ctx context.Context) (*runtime, error) {
	cfg := config.LoadConfig()
	utils.SetupLogger(cfg.LogLevel)

	db, err := database.Open(*cfg)
	if err != nil {
		return nil, err
	}
	client := repository.NewClient(db)
	if err := client.Connect(ctx); err != nil {
		db.Close()
		return nil, err
	}

	redis := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	asynqClient := asynq.NewClient(redis)
	dispatcher := queue.NewDispatcher(asynqClient)
	m := metrics.NewMetrics()

	rp := relay.NewPublisher(relay.Options{
		Concurrency:   cfg.PublishConcurrency,
		Timeout:       cfg.RelayTimeout,
		RatePerSecond: cfg.RelayRatePerSecond,
	})

	return &runtime{
		cfg:       *cfg,
		db:        db,
		client:    client,
		asynq:     asynqClient,
		redis:     redis,
		metrics:   m,
		schedules: service.NewScheduleService(*cfg, client, dispatcher, m),
		publisher: service.NewPublishService(client, rp, dispatcher, m),
	}, nil
}

func (r *runtime) close() {
	if err := r.asynq.Close(); err != nil {
		slog.Error("failed to close queue client", "error", err)
	}
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := r.client.Disconnect(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func (r *runtime) services() api.Services {
	return api.Services{
		Auth:         service.NewAuthService(r.cfg, r.client),
		User:         service.NewUserService(r.client.User),
		Account:      service.NewAccountService(r.cfg, r.client),
		Collaborator: service.NewCollaboratorService(r.client),
		Post:         service.NewPostService(r.client),
		Queue:        service.NewQueueService(r.client),
		Schedule:     r.schedules,
		Subscription: service.NewSubscriptionService(r.cfg, r.client, r.metrics),
		Media:        service.NewMediaService(r.client, service.NewR2Service(r.cfg)),
		Audit:        service.NewAuditService(r.client),
	}
}

// startServer serves the HTTP API until ctx is cancelled.
func (r *runtime) startServer(ctx context.Context) error {
	app := api.NewApp(r.cfg, r.services(), r.metrics)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", r.cfg.ListenAddr)
		errCh <- app.Listen(r.cfg.ListenAddr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	}

	slog.Info("Shutting down server...")
	return app.ShutdownWithTimeout(shutdownTimeout)
}

// startWorker runs the asynq server and the cron sweeper until ctx is cancelled.
func (r *runtime) startWorker(ctx context.Context) error {
	server := asynq.NewServer(r.redis, asynq.Config{
		Concurrency: r.cfg.PublishConcurrency,
	})
	worker := queue.NewQueue(r.publisher)
	if err := server.Start(worker.Mux()); err != nil {
		return fmt.Errorf("could not start asynq server: %w", err)
	}
	slog.Info("asynq server started")

	sweep := job.NewScheduleSweepJob(r.schedules, r.metrics)
	c, err := sweep.Start(r.cfg.SweepSchedule)
	if err != nil {
		server.Shutdown()
		return fmt.Errorf("invalid SWEEP_SCHEDULE %q: %w", r.cfg.SweepSchedule, err)
	}
	// catch up on anything that came due while no worker was running
	go sweep.Sweep()

	<-ctx.Done()
	slog.Info("Shutting down worker...")
	c.Stop()
	server.Shutdown()
	return nil
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signalContext(ctx)
			defer stop()
			return rt.startServer(ctx)
		},
	}
}

func workerCommand() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Run the publish worker and the schedule sweeper",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve /metrics on this address"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			if addr := c.String("metrics-addr"); addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", rt.metrics.Handler())
				srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						slog.Error("metrics server stopped", "error", err)
					}
				}()
				defer srv.Close()
			}

			ctx, stop := signalContext(ctx)
			defer stop()
			return rt.startWorker(ctx)
		},
	}
}

func allCommand() *cli.Command {
	return &cli.Command{
		Name:  "all",
		Usage: "Run the HTTP API and the worker in one process",
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signalContext(ctx)
			defer stop()

			workerErr := make(chan error, 1)
			go func() { workerErr <- rt.startWorker(ctx) }()

			if err := rt.startServer(ctx); err != nil {
				stop()
				<-workerErr
				return err
			}
			return <-workerErr
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "direction", Value: "up", Usage: "up or down"},
			&cli.IntFlag{Name: "steps", Value: 0, Usage: "number of migrations to apply, 0 for all"},
			&cli.IntFlag{Name: "force", Value: -1, Usage: "force the schema version and exit"},
			&cli.BoolFlag{Name: "force-dirty", Usage: "clear the dirty flag at the current version"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := config.LoadConfig()
			utils.SetupLogger(cfg.LogLevel)

			db, err := database.Open(*cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			msg, err := database.Migrate(db, database.MigrateOptions{
				Direction:  c.String("direction"),
				Steps:      int(c.Int("steps")),
				Force:      int(c.Int("force")),
				ForceDirty: c.Bool("force-dirty"),
			})
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}
