package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/risk"
	"github.com/alejandrodnm/kalshibot/internal/scheduler"
)

type fakeRoller struct {
	dates []string
	err   error
}

func (f *fakeRoller) RollupDailySummary(_ context.Context, d time.Time) (domain.DailySummary, error) {
	f.dates = append(f.dates, d.Format("2006-01-02"))
	return domain.DailySummary{Date: d.Format("2006-01-02")}, f.err
}

func TestDailyRollup_YesterdayAndToday(t *testing.T) {
	roller := &fakeRoller{}
	now := func() time.Time { return time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC) }

	require.NoError(t, scheduler.DailyRollup(roller, now)(context.Background()))
	assert.Equal(t, []string{"2024-02-29", "2024-03-01"}, roller.dates)
}

func TestDailyRollup_Error(t *testing.T) {
	roller := &fakeRoller{err: errors.New("disk full")}
	err := scheduler.DailyRollup(roller, time.Now)(context.Background())
	require.Error(t, err)
	assert.Len(t, roller.dates, 1)
}

func TestRiskDayBoundary(t *testing.T) {
	day := time.Date(2024, 1, 21, 23, 59, 0, 0, time.UTC)
	clock := func() time.Time { return day }
	m, err := risk.NewManager(risk.DefaultLimits(), risk.WithClock(clock))
	require.NoError(t, err)

	m.RecordTrade(domain.TradeSignal{Kind: domain.SignalBuy, Ticker: "T", Size: 3}, 50, -200)
	day = day.Add(2 * time.Minute)

	require.NoError(t, scheduler.RiskDayBoundary(m)(context.Background()))
	st := m.State()
	assert.Zero(t, st.DailyPnL)
	assert.Empty(t, st.Trades)
	assert.Equal(t, 3, st.Positions["T"])
}

type fakePruner struct {
	calls int
	err   error
}

func (f *fakePruner) Prune(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

func TestStoragePrune(t *testing.T) {
	p := &fakePruner{}
	require.NoError(t, scheduler.StoragePrune(p)(context.Background()))
	assert.Equal(t, 1, p.calls)

	p.err = errors.New("database is locked")
	assert.ErrorContains(t, scheduler.StoragePrune(p)(context.Background()), "database is locked")
}

func TestRunner_InvalidSpec(t *testing.T) {
	r := scheduler.New(context.Background())
	_, err := r.Add("bad", "not a spec", func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestRunner_RunsJobs(t *testing.T) {
	r := scheduler.New(context.Background())
	var runs atomic.Int32
	_, err := r.Add("tick", "@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	r.Start()
	defer r.Stop()
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}
