package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kalshibot/config"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/strategy"
)

func build(t *testing.T, yml string) (strategy.Strategy, error) {
	t.Helper()
	def, err := config.ParseStrategy([]byte(yml))
	require.NoError(t, err)
	return config.BuildStrategy(def)
}

func game(home, away, period int, clock float64) domain.GameState {
	return domain.GameState{
		EventID:      "401547001",
		Sport:        domain.SportNFL,
		Home:         domain.Team{Abbreviation: "BUF"},
		Away:         domain.Team{Abbreviation: "KC"},
		HomeScore:    home,
		AwayScore:    away,
		Period:       period,
		ClockSeconds: clock,
		Status:       domain.GameLive,
		ObservedAt:   time.Date(2024, 1, 21, 23, 0, 0, 0, time.UTC),
	}
}

func market() domain.MarketState {
	return domain.MarketState{Ticker: "KXNFL-BUF-KC", Status: domain.MarketOpen, YesBid: 60, YesAsk: 62, NoBid: 36, NoAsk: 38}
}

func TestBuildStrategy_SingleConditionTakesParentName(t *testing.T) {
	s, err := build(t, `
name: blowout
entry_conditions:
  - type: score_margin
    params:
      min_margin: 10
trade:
  side: no
  size: 4
  limit_offset: 1
`)
	require.NoError(t, err)

	assert.Equal(t, "blowout", s.Name)
	assert.Equal(t, strategy.KindMargin, s.Kind)
	assert.Equal(t, domain.SideNo, s.Margin.Side)
	assert.Equal(t, 4, s.Margin.Size)
	assert.Equal(t, 1, s.Margin.LimitOffset)
	assert.Equal(t, strategy.DirectionLeading, s.Margin.Direction)
}

func TestBuildStrategy_SeveralConditionsAreImplicitAnd(t *testing.T) {
	s, err := build(t, `
name: late_lead
targets:
  - sport: nfl
entry_conditions:
  - type: score_margin
    params:
      min_margin: 7
  - type: game_time
    params:
      min_period: 4
      max_clock: 300
trade:
  size: 3
`)
	require.NoError(t, err)

	require.Equal(t, strategy.KindComposite, s.Kind)
	assert.Equal(t, strategy.OperatorAnd, s.Composite.Operator)
	require.Len(t, s.Composite.Children, 2)
	assert.Equal(t, "late_lead_condition_0", s.Composite.Children[0].Name)
	assert.Equal(t, 3, s.Composite.Children[0].Margin.Size)
	assert.True(t, s.AppliesTo(domain.SportNFL))
	assert.False(t, s.AppliesTo(domain.SportNBA))

	_, ok := s.Evaluate(game(21, 7, 3, 100), market(), nil)
	assert.False(t, ok, "period 3 fails the window")

	sig, ok := s.Evaluate(game(21, 7, 4, 120), market(), nil)
	require.True(t, ok)
	assert.Equal(t, 64, sig.Price)
	assert.Equal(t, 3, sig.Size)
}

func TestBuildStrategy_DirectComposite(t *testing.T) {
	s, err := build(t, `
name: either
type: composite
params:
  operator: OR
  strategies:
    - type: score_margin
      params:
        min_margin: 30
    - name: trailing
      type: score_margin
      params:
        min_margin: 5
        direction: trailing
`)
	require.NoError(t, err)

	require.Len(t, s.Composite.Children, 2)
	assert.Equal(t, strategy.OperatorOr, s.Composite.Operator)
	assert.Equal(t, "either_child_0", s.Composite.Children[0].Name)
	assert.Equal(t, "trailing", s.Composite.Children[1].Name)

	sig, ok := s.Evaluate(game(3, 10, 2, 500), market(), nil)
	require.True(t, ok)
	assert.Contains(t, sig.Reason, "trailing")
}

func TestBuildStrategy_DirectTimeWindow(t *testing.T) {
	s, err := build(t, "name: late\ntype: game_time\nparams:\n  min_period: 2\n")
	require.NoError(t, err)
	assert.Equal(t, strategy.KindTimeWindow, s.Kind)
	assert.Nil(t, s.Window.MaxClock)
}

func TestBuildStrategy_Errors(t *testing.T) {
	cases := map[string]string{
		"no type":          "name: x\nparams:\n  min_margin: 3\n",
		"unknown type":     "name: x\ntype: momentum\n",
		"unknown cond":     "name: x\nentry_conditions:\n  - type: momentum\n",
		"missing margin":   "name: x\ntype: score_margin\nparams: {}\n",
		"float margin":     "name: x\ntype: score_margin\nparams:\n  min_margin: 7.5\n",
		"string period":    "name: x\ntype: game_time\nparams:\n  min_period: \"3\"\n",
		"bad clock":        "name: x\ntype: game_time\nparams:\n  min_period: 3\n  max_clock: soon\n",
		"bad side":         "name: x\ntype: score_margin\nparams:\n  min_margin: 3\n  side: maybe\n",
		"bad operator":     "name: x\ntype: composite\nparams:\n  operator: xor\n",
		"bad target":       "name: x\ntargets:\n  - sport: mlb\ntype: game_time\nparams:\n  min_period: 1\n",
		"child scalar":     "name: x\ntype: composite\nparams:\n  strategies: nope\n",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := build(t, yml)
			assert.ErrorIs(t, err, strategy.ErrInvalidConfig)
		})
	}
}

func TestLoadStrategies_SkipsDisabledAndInvalid(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	write("a_good.yaml", "name: good\ntype: score_margin\nparams:\n  min_margin: 7\n")
	write("b_off.yaml", "name: off\nenabled: false\ntype: score_margin\nparams:\n  min_margin: 7\n")
	write("c_bad.yml", "name: bad\ntype: score_margin\nparams: {}\n")
	write("d_unnamed.yml", "type: game_time\nparams:\n  min_period: 3\n")
	write("notes.txt", "ignored")

	got, err := config.LoadStrategies(dir)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "good", got[0].Name)
	assert.Equal(t, "d_unnamed", got[1].Name)
}

func TestLoadStrategies_MissingDir(t *testing.T) {
	got, err := config.LoadStrategies(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadStrategyFile_Disabled(t *testing.T) {
	_, err := config.LoadStrategyFile(filepath.Join("strategies", "nba_comeback.yaml"))
	assert.ErrorIs(t, err, config.ErrStrategyDisabled)
}

func TestLoadStrategies_ShippedExamples(t *testing.T) {
	got, err := config.LoadStrategies("strategies")
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, s := range got {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"cfb_margin", "nfl_blowout"}, names)
}
