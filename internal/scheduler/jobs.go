package scheduler

import (
	"context"

	"github.com/cadencehq/audit-engine/internal/config"
	"github.com/cadencehq/audit-engine/internal/service/lifecycle"
	"github.com/cadencehq/audit-engine/internal/service/overdue"
	"github.com/cadencehq/audit-engine/internal/tier"
	"go.uber.org/zap"
)

// Job names, also the keys accepted by Restart overrides and the jobs
// section of the config file.
const (
	JobTierSync      = "tier_sync"
	JobScheduleSync  = "schedule_sync"
	JobOverdueScan   = "overdue_scan"
	JobOrphanCleanup = "orphan_cleanup"
)

// JobDeps are the services the standard job set drives.
type JobDeps struct {
	Tiers     *tier.Syncer
	Lifecycle *lifecycle.Manager
	Overdue   *overdue.Processor
	Log       *zap.Logger
}

// BuildSpecs binds the configured intervals to the engine's batch
// operations: tier re-classification, schedule reconciliation, overdue
// processing, and orphan cleanup.
func BuildSpecs(cfg config.JobsConfig, d JobDeps) []JobSpec {
	return []JobSpec{
		{
			Name:     JobTierSync,
			Interval: cfg.TierSync,
			Task: func(ctx context.Context) error {
				changed, err := d.Tiers.UpdateAllTiers(ctx)
				if err != nil {
					return err
				}
				d.Log.Info("tier sync finished", zap.Int("changed", changed))
				return nil
			},
		},
		{
			Name:     JobScheduleSync,
			Interval: cfg.ScheduleSync,
			Task: func(ctx context.Context) error {
				res, err := d.Lifecycle.SyncAllSchedules(ctx)
				if err != nil {
					return err
				}
				d.Log.Info("schedule sync finished",
					zap.Int("created", res.Created),
					zap.Int("updated", res.Updated))
				return nil
			},
		},
		{
			Name:     JobOverdueScan,
			Interval: cfg.OverdueScan,
			Task: func(ctx context.Context) error {
				marked, err := d.Overdue.ProcessOverdueAudits(ctx)
				if err != nil {
					return err
				}
				d.Log.Info("overdue scan finished", zap.Int("marked", marked))
				return nil
			},
		},
		{
			Name:     JobOrphanCleanup,
			Interval: cfg.OrphanCleanup,
			Task: func(ctx context.Context) error {
				removed, err := d.Lifecycle.RemoveOrphanedAudits(ctx)
				if err != nil {
					return err
				}
				d.Log.Info("orphan cleanup finished", zap.Int("removed", removed))
				return nil
			},
		},
	}
}
