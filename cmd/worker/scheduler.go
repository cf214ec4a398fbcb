package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cadencehq/audit-engine/internal/config"
	"github.com/cadencehq/audit-engine/internal/db"
	"github.com/cadencehq/audit-engine/internal/logger"
	"github.com/cadencehq/audit-engine/internal/metrics"
	"github.com/cadencehq/audit-engine/internal/notify"
	"github.com/cadencehq/audit-engine/internal/repository"
	"github.com/cadencehq/audit-engine/internal/scheduler"
	"github.com/cadencehq/audit-engine/internal/service/lifecycle"
	"github.com/cadencehq/audit-engine/internal/service/overdue"
	"github.com/cadencehq/audit-engine/internal/tier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the periodic job coordinator headless (no HTTP)",
	RunE:  runScheduler,
}

func runScheduler(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Logging.Level)
	defer logger.Sync()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) DB connection (MySQL)
	dbx, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
		PingTimeout:     cfg.MySQL.PingTimeout,
	})
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	defer dbx.Close()

	// 3) repositories + services
	companiesRepo := repository.NewCompaniesRepository(dbx)
	auditsRepo := repository.NewAuditsRepository(dbx)
	usersRepo := repository.NewUsersRepository(dbx)
	outboxRepo := repository.NewOutboxRepository(dbx)

	gateway := notify.NewOutboxGateway(outboxRepo, cfg.Notifications.Topic)
	mgr := lifecycle.NewManager(companiesRepo, auditsRepo, usersRepo, logger.Log)
	tiers := tier.NewSyncer(companiesRepo, logger.Log)
	overdueProc := overdue.NewProcessor(auditsRepo, gateway, logger.Log)

	// 4) coordinator
	coordinator := scheduler.New(logger.Log)
	coordinator.Initialize(scheduler.BuildSpecs(cfg.Jobs, scheduler.JobDeps{
		Tiers:     tiers,
		Lifecycle: mgr,
		Overdue:   overdueProc,
		Log:       logger.Log,
	}))
	defer coordinator.Stop()

	// 5) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf(">> scheduler started tier_sync=%s schedule_sync=%s overdue_scan=%s orphan_cleanup=%s",
		cfg.Jobs.TierSync, cfg.Jobs.ScheduleSync, cfg.Jobs.OverdueScan, cfg.Jobs.OrphanCleanup)

	<-ctx.Done()
	return nil
}
