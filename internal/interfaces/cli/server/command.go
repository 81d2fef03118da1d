package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"metergate/internal/application/alerting"
	"metergate/internal/application/gate"
	"metergate/internal/application/quota"
	"metergate/internal/infrastructure/auth"
	"metergate/internal/infrastructure/cache"
	"metergate/internal/infrastructure/config"
	"metergate/internal/infrastructure/database"
	"metergate/internal/infrastructure/migration"
	"metergate/internal/infrastructure/notification"
	"metergate/internal/infrastructure/repository"
	"metergate/internal/infrastructure/scheduler"
	httpRouter "metergate/internal/interfaces/http"
	"metergate/internal/shared/biztime"
	"metergate/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the metergate HTTP server with the quota, alerting, and admin APIs.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		manager := migration.NewManager(env)
		if err := manager.Migrate(database.Get(), migration.AutoMigrateModels()...); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Infow("auto-migration completed")
	}

	rdb, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	db := database.Get()
	usageRepo := repository.NewUsageRepository(db, log)
	gaugeRepo := repository.NewGaugeRepository(db, log)
	planRepo := repository.NewPlanRepository(db, log)
	orgRepo := repository.NewOrganizationRepository(db, log)
	alertRepo := repository.NewAlertRepository(db, log)
	configRepo := repository.NewNotificationConfigRepository(db, log)
	feedRepo := repository.NewFeedRepository(db, log)
	ruleRepo := repository.NewCustomRuleRepository(db, log)

	decisions := cache.NewDecisionCache(cfg.Quota.CacheTTL)
	dedup := cache.NewAlertDeduplicator(rdb, cfg.Alerting.DedupWindow)
	samples := cache.NewRedisUsageSampleCache(rdb, log)

	emailChannel := notification.NewEmailChannel(notification.SMTPConfig{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUser,
		Password:    cfg.Email.SMTPPassword,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	})
	channels := []notification.Channel{
		emailChannel,
		notification.NewWebhookChannel(),
		notification.NewChatWebhookChannel(),
		notification.NewFeedChannel(feedRepo),
	}

	retryQueue := notification.NewRetryQueue(notification.RetryQueueConfig{
		Interval:   cfg.Alerting.RetryInterval,
		MaxRetries: cfg.Alerting.MaxRetries,
		Size:       cfg.Alerting.QueueSize,
	}, log)
	retryCtx, retryCancel := context.WithCancel(context.Background())
	defer retryCancel()
	retryQueue.Start(retryCtx)
	defer retryQueue.Stop()

	dispatcher := alerting.NewDispatcher(configRepo, channels, retryQueue, log)
	engine := alerting.NewEngine(alerting.EngineConfig{
		Thresholds:  cfg.Alerting.Thresholds,
		SpikeWindow: cfg.Alerting.SpikeWindow,
	}, alertRepo, configRepo, dedup, samples, dispatcher, log)

	resolver := quota.NewLimitResolver(orgRepo, planRepo, usageRepo, gaugeRepo, cfg.Quota.FreePlanSlug, log)

	svc := gate.NewService(gate.ServiceDeps{
		Limiter:    resolver,
		OrgRepo:    orgRepo,
		PlanRepo:   planRepo,
		UsageRepo:  usageRepo,
		GaugeRepo:  gaugeRepo,
		RuleRepo:   ruleRepo,
		AlertRepo:  alertRepo,
		ConfigRepo: configRepo,
		FeedRepo:   feedRepo,
		Decisions:  decisions,
		AlertLocks: dedup,
		Evaluator:  engine,
		Notifier:   emailChannel,
		Logger:     log,
	})

	sched, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := registerJobs(sched, svc, usageRepo, samples, decisions); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}
	sched.Start()
	defer sched.Shutdown()

	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)

	router := httpRouter.SetupRouter(httpRouter.RouterDeps{
		Service:    svc,
		JWTService: jwtService,
		Server:     &cfg.Server,
		Logger:     log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func registerJobs(
	sched *scheduler.SchedulerManager,
	svc *gate.Service,
	usageRepo interface {
		ResetStaleRecords(ctx context.Context, currentMonth string) (int64, error)
	},
	samples cache.UsageSampleCache,
	decisions *cache.DecisionCache,
) error {
	if err := sched.RegisterRolloverJob(scheduler.BatchJobFunc(func(ctx context.Context) (int, error) {
		swept, err := usageRepo.ResetStaleRecords(ctx, biztime.CurrentMonthKey())
		return int(swept), err
	})); err != nil {
		return err
	}

	if err := sched.RegisterPlanChangeJob(scheduler.BatchJobFunc(func(ctx context.Context) (int, error) {
		return svc.ApplyDuePlanChanges(ctx)
	})); err != nil {
		return err
	}

	if err := sched.RegisterSamplePruneJob(scheduler.BatchJobFunc(func(ctx context.Context) (int, error) {
		cutoff := time.Now().Add(-cache.SampleRetention)
		return 0, samples.PruneBefore(ctx, cutoff)
	})); err != nil {
		return err
	}

	return sched.RegisterCachePurgeJob(scheduler.BatchJobFunc(func(ctx context.Context) (int, error) {
		return decisions.Purge(), nil
	}))
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
