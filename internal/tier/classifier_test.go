package tier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCalculate(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		startDate time.Time
		adSpend   int64
		want      model.Tier
	}{
		{
			name:      "new company low spend",
			startDate: now.AddDate(0, 0, -10),
			adSpend:   100,
			want:      model.TierTwo,
		},
		{
			name:      "new company huge spend still tier 2",
			startDate: now.AddDate(0, 0, -89),
			adSpend:   1_000_000,
			want:      model.TierTwo,
		},
		{
			name:      "one day short of three months",
			startDate: now.AddDate(0, -3, 1),
			adSpend:   5000,
			want:      model.TierTwo,
		},
		{
			name:      "exactly three months high spend",
			startDate: now.AddDate(0, -3, 0),
			adSpend:   3000,
			want:      model.TierOne,
		},
		{
			name:      "exactly three months at spend boundary",
			startDate: now.AddDate(0, -3, 0),
			adSpend:   2500,
			want:      model.TierThree,
		},
		{
			name:      "settled just above spend boundary",
			startDate: now.AddDate(0, -6, 0),
			adSpend:   2501,
			want:      model.TierOne,
		},
		{
			name:      "settled low spend",
			startDate: now.AddDate(-2, 0, 0),
			adSpend:   0,
			want:      model.TierThree,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(now, tc.startDate, tc.adSpend)
			assert.Equal(t, tc.want, got)
		})
	}
}

// fakeCompanies is an in-memory CompaniesRepository.
type fakeCompanies struct {
	mu        sync.Mutex
	rows      map[int64]*model.Company
	failIDs   map[int64]bool
	tierCalls int
}

func newFakeCompanies(companies ...model.Company) *fakeCompanies {
	f := &fakeCompanies{
		rows:    make(map[int64]*model.Company),
		failIDs: make(map[int64]bool),
	}
	for i := range companies {
		c := companies[i]
		f.rows[c.ID] = &c
	}
	return f
}

func (f *fakeCompanies) GetByID(_ context.Context, id int64) (*model.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCompanies) List(_ context.Context) ([]model.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Company, 0, len(f.rows))
	for i := int64(1); int(i) <= len(f.rows); i++ {
		if c, ok := f.rows[i]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCompanies) UpdateTier(_ context.Context, _ *sqlx.Tx, id int64, tier model.Tier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tierCalls++
	if f.failIDs[id] {
		return errors.New("store unavailable")
	}
	c, ok := f.rows[id]
	if !ok {
		return errors.New("missing company")
	}
	c.Tier = tier
	return nil
}

func TestUpdateAllTiersPersistsOnlyChanges(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	companies := newFakeCompanies(
		// stored tier already correct: untouched
		model.Company{ID: 1, StartDate: now.AddDate(0, 0, -30), AdSpend: 100, Tier: model.TierTwo},
		// aged out of onboarding, still marked TIER_2: becomes TIER_1
		model.Company{ID: 2, StartDate: now.AddDate(0, -4, 0), AdSpend: 3000, Tier: model.TierTwo},
		// aged out, low spend: becomes TIER_3
		model.Company{ID: 3, StartDate: now.AddDate(0, -4, 0), AdSpend: 2500, Tier: model.TierTwo},
	)

	s := NewSyncer(companies, zap.NewNop())
	s.now = func() time.Time { return now }

	changed, err := s.UpdateAllTiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Equal(t, 2, companies.tierCalls, "unchanged tiers must not be written")
	assert.Equal(t, model.TierOne, companies.rows[2].Tier)
	assert.Equal(t, model.TierThree, companies.rows[3].Tier)

	// second run is a no-op
	changed, err = s.UpdateAllTiers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestUpdateAllTiersIsolatesFailures(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	companies := newFakeCompanies(
		model.Company{ID: 1, StartDate: now.AddDate(0, -4, 0), AdSpend: 3000, Tier: model.TierTwo},
		model.Company{ID: 2, StartDate: now.AddDate(0, -4, 0), AdSpend: 3000, Tier: model.TierTwo},
	)
	companies.failIDs[1] = true

	s := NewSyncer(companies, zap.NewNop())
	s.now = func() time.Time { return now }

	changed, err := s.UpdateAllTiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, changed, "failure on one company must not block the rest")
	assert.Equal(t, model.TierOne, companies.rows[2].Tier)
}
