package overdue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/cadencehq/audit-engine/internal/notify"
	"github.com/cadencehq/audit-engine/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC)

// fakeAudits implements just enough of repository.AuditsRepository for the
// overdue pass.
type fakeAudits struct {
	mu      sync.Mutex
	rows    map[string]*model.Audit
	failIDs map[string]bool
}

func newFakeAudits(audits ...model.Audit) *fakeAudits {
	f := &fakeAudits{rows: make(map[string]*model.Audit), failIDs: make(map[string]bool)}
	for i := range audits {
		a := audits[i]
		f.rows[a.ID] = &a
	}
	return f
}

func (f *fakeAudits) Insert(_ context.Context, _ *sqlx.Tx, a model.Audit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[a.ID] = &a
	return nil
}

func (f *fakeAudits) GetByID(_ context.Context, id string) (*model.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAudits) ListByCompanyAndStatus(context.Context, int64, model.AuditStatus) ([]model.Audit, error) {
	return nil, nil
}

func (f *fakeAudits) ListByFilter(context.Context, repository.AuditFilter) ([]model.Audit, error) {
	return nil, nil
}

func (f *fakeAudits) ListScheduledBefore(_ context.Context, cutoff time.Time) ([]model.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Audit{}
	for _, a := range f.rows {
		if a.Status == model.StatusScheduled && a.ScheduledDate.Before(cutoff) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	return out, nil
}

func (f *fakeAudits) ListOrphaned(context.Context) ([]model.Audit, error) { return nil, nil }

func (f *fakeAudits) UpdateScheduledDate(context.Context, *sqlx.Tx, string, time.Time) error {
	return nil
}

func (f *fakeAudits) UpdateStatus(_ context.Context, _ *sqlx.Tx, id string, status model.AuditStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[id] {
		return errors.New("store unavailable")
	}
	a, ok := f.rows[id]
	if !ok {
		return errors.New("missing audit")
	}
	a.Status = status
	return nil
}

func (f *fakeAudits) MarkCompleted(context.Context, *sqlx.Tx, string, time.Time, string) error {
	return nil
}

func (f *fakeAudits) Delete(context.Context, *sqlx.Tx, string) error { return nil }

type fakeGateway struct {
	mu       sync.Mutex
	requests []notify.Request
	fail     bool
}

func (g *fakeGateway) Request(_ context.Context, r notify.Request) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return errors.New("outbox down")
	}
	g.requests = append(g.requests, r)
	return nil
}

func newTestProcessor(audits *fakeAudits, gw *fakeGateway) *Processor {
	p := NewProcessor(audits, gw, zap.NewNop())
	p.now = func() time.Time { return testNow }
	return p
}

func TestMarkOverdueAuditsScoping(t *testing.T) {
	completedAt := testNow.AddDate(0, 0, -1)
	audits := newFakeAudits(
		// lapsed SCHEDULED: transitions
		model.Audit{ID: "01A", CompanyID: 1, ScheduledDate: testNow.AddDate(0, 0, -2), AssignedTo: 1, Status: model.StatusScheduled},
		// future SCHEDULED: untouched
		model.Audit{ID: "01B", CompanyID: 1, ScheduledDate: testNow.AddDate(0, 0, 5), AssignedTo: 1, Status: model.StatusScheduled},
		// past but COMPLETED: never transitions
		model.Audit{ID: "01C", CompanyID: 2, ScheduledDate: testNow.AddDate(0, 0, -9), CompletedDate: &completedAt, AssignedTo: 1, Status: model.StatusCompleted},
		// already OVERDUE: not re-marked
		model.Audit{ID: "01D", CompanyID: 3, ScheduledDate: testNow.AddDate(0, 0, -20), AssignedTo: 1, Status: model.StatusOverdue},
	)

	p := newTestProcessor(audits, &fakeGateway{})

	marked, err := p.MarkOverdueAudits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	assert.Equal(t, model.StatusOverdue, audits.rows["01A"].Status)
	assert.Equal(t, model.StatusScheduled, audits.rows["01B"].Status)
	assert.Equal(t, model.StatusCompleted, audits.rows["01C"].Status)
}

func TestMarkOverduePreservesScheduledDate(t *testing.T) {
	lapsed := testNow.AddDate(0, 0, -4)
	audits := newFakeAudits(model.Audit{
		ID: "01A", CompanyID: 1, ScheduledDate: lapsed, AssignedTo: 1, Status: model.StatusScheduled,
	})

	p := newTestProcessor(audits, &fakeGateway{})

	_, err := p.MarkOverdueAudits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lapsed, audits.rows["01A"].ScheduledDate)
}

func TestProcessOverdueAuditsRequestsReminders(t *testing.T) {
	audits := newFakeAudits(
		model.Audit{ID: "01A", CompanyID: 1, ScheduledDate: testNow.AddDate(0, 0, -2), AssignedTo: 11, Status: model.StatusScheduled},
		model.Audit{ID: "01B", CompanyID: 2, ScheduledDate: testNow.AddDate(0, 0, -8), AssignedTo: 22, Status: model.StatusScheduled},
	)
	gw := &fakeGateway{}

	p := newTestProcessor(audits, gw)

	marked, err := p.ProcessOverdueAudits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, marked)
	require.Len(t, gw.requests, 2)

	// listing order is by scheduled date
	assert.Equal(t, "01B", gw.requests[0].AuditID)
	assert.Equal(t, int64(22), gw.requests[0].UserID)
	assert.Equal(t, notify.KindAuditOverdue, gw.requests[0].Kind)
	assert.Equal(t, "01A", gw.requests[1].AuditID)
}

func TestProcessOverdueIsolatesMarkFailures(t *testing.T) {
	audits := newFakeAudits(
		model.Audit{ID: "01A", CompanyID: 1, ScheduledDate: testNow.AddDate(0, 0, -2), AssignedTo: 11, Status: model.StatusScheduled},
		model.Audit{ID: "01B", CompanyID: 2, ScheduledDate: testNow.AddDate(0, 0, -8), AssignedTo: 22, Status: model.StatusScheduled},
	)
	audits.failIDs["01B"] = true
	gw := &fakeGateway{}

	p := newTestProcessor(audits, gw)

	marked, err := p.ProcessOverdueAudits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, marked, "failed transition does not block the rest")
	assert.Len(t, gw.requests, 2, "reminder requests are issued even when the transition failed")
}

func TestProcessOverdueGatewayFailureDoesNotAbort(t *testing.T) {
	audits := newFakeAudits(model.Audit{
		ID: "01A", CompanyID: 1, ScheduledDate: testNow.AddDate(0, 0, -2), AssignedTo: 11, Status: model.StatusScheduled,
	})
	gw := &fakeGateway{fail: true}

	p := newTestProcessor(audits, gw)

	marked, err := p.ProcessOverdueAudits(context.Background())
	require.NoError(t, err, "notification failures are logged, not surfaced")
	assert.Equal(t, 1, marked)
}
