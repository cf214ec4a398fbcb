package tier

import (
	"context"
	"time"

	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/cadencehq/audit-engine/internal/repository"
	"go.uber.org/zap"
)

// HighSpendThreshold is the recurring ad-spend above which (strictly) a
// settled company is audited on the quarterly TIER_1 cadence.
const HighSpendThreshold = 2500

// OnboardingPeriodMonths is how long a company counts as "new" and stays
// on the weekly TIER_2 cadence regardless of spend.
const OnboardingPeriodMonths = 3

// Calculate maps a company's age and spend to its cadence tier.
// Younger than three months wins over any spend level; at exactly three
// months the company is no longer new. The spend boundary is strict:
// exactly 2500 does not qualify for TIER_1.
func Calculate(now, startDate time.Time, adSpend int64) model.Tier {
	if now.Before(startDate.AddDate(0, OnboardingPeriodMonths, 0)) {
		return model.TierTwo
	}
	if adSpend > HighSpendThreshold {
		return model.TierOne
	}
	return model.TierThree
}

// Syncer recomputes and persists tiers for the whole company set.
type Syncer struct {
	companies repository.CompaniesRepository
	now       func() time.Time
	log       *zap.Logger
}

func NewSyncer(companies repository.CompaniesRepository, log *zap.Logger) *Syncer {
	return &Syncer{
		companies: companies,
		now:       time.Now,
		log:       log,
	}
}

// UpdateAllTiers recomputes every company's tier and persists only the rows
// whose stored tier differs. Returns the number of companies changed.
// A failure on one company is logged and does not affect the rest.
func (s *Syncer) UpdateAllTiers(ctx context.Context) (int, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	changed := 0
	for _, c := range companies {
		want := Calculate(now, c.StartDate, c.AdSpend)
		if want == c.Tier {
			continue
		}
		if err := s.companies.UpdateTier(ctx, nil, c.ID, want); err != nil {
			s.log.Error("tier update failed",
				zap.Int64("company_id", c.ID),
				zap.String("tier", want.String()),
				zap.Error(err))
			continue
		}
		changed++
	}
	return changed, nil
}
