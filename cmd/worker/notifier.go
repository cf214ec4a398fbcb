package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cadencehq/audit-engine/internal/config"
	"github.com/cadencehq/audit-engine/internal/db"
	"github.com/cadencehq/audit-engine/internal/kafka"
	"github.com/cadencehq/audit-engine/internal/logger"
	"github.com/cadencehq/audit-engine/internal/repository"
	"github.com/cadencehq/audit-engine/internal/worker"
	"github.com/spf13/cobra"
)

var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Consume audit reminders from Kafka and deliver them",
	RunE:  runNotifier,
}

func runNotifier(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Logging.Level)
	defer logger.Sync()

	// 2) DB connection (MySQL, for assignee lookups)
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

	usersRepo := repository.NewUsersRepository(dbx)

	// 3) kafka consumer
	topic := cfg.Notifications.Topic
	if topic == "" {
		topic = "audit.reminders"
	}
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "auditeng-notifier"
	}

	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	n := worker.NewNotifier(consumer, usersRepo, logger.Log, cfg.Notifications.DeliveryEnabled)

	// 4) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf(">> notifier started topic=%s group=%s delivery_enabled=%t",
		topic, groupID, cfg.Notifications.DeliveryEnabled)

	return n.Run(ctx)
}
