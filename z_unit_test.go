package scratchlab

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/demo/demo_configs"
	"github.com/zintix-labs/scratchlab/dto"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/logger"
	"github.com/zintix-labs/scratchlab/sdk/core"
	"github.com/zintix-labs/scratchlab/spec"
)

const allA = `{
	"game_name": "all_a",
	"columns": 3, "rows": 3,
	"symbols": {
		"A": {"reward_multiplier": 2, "type": "standard"},
		"MISS": {"type": "bonus", "impact": "miss"}
	},
	"probabilities": {
		"standard_symbols": [
			{"row": 0, "column": 0, "symbols": {"A": 1}}, {"row": 0, "column": 1, "symbols": {"A": 1}}, {"row": 0, "column": 2, "symbols": {"A": 1}},
			{"row": 1, "column": 0, "symbols": {"A": 1}}, {"row": 1, "column": 1, "symbols": {"A": 1}}, {"row": 1, "column": 2, "symbols": {"A": 1}},
			{"row": 2, "column": 0, "symbols": {"A": 1}}, {"row": 2, "column": 1, "symbols": {"A": 1}}, {"row": 2, "column": 2, "symbols": {"A": 1}}
		],
		"bonus_symbols": {"symbols": {"MISS": 1}}
	},
	"win_combinations": {
		"same_symbols_3": {"reward_multiplier": 1, "when": "linear_symbols", "group": "top", "covered_areas": [["0:0", "0:1", "0:2"]]}
	}
}`

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newDemoLab(t *testing.T) *Lab {
	t.Helper()
	lab, err := NewAuto(Configs(demo_configs.FS))
	if err != nil {
		t.Fatalf("new lab failed: %v", err)
	}
	return lab
}

func TestMachineScenario(t *testing.T) {
	gs, err := spec.GetGameSettingByJSON([]byte(allA))
	if err != nil {
		t.Fatal(err)
	}
	src := core.NewScripted(0.3, 0.6, 0.9, 0.1, 0.2, 0.4, 0.5, 0.7, 0.8, 0.99)
	m, err := NewMachine(gs, core.FromUniform(src))
	if err != nil {
		t.Fatal(err)
	}
	rr, err := m.Play(dec("10"))
	if err != nil {
		t.Fatal(err)
	}
	if !rr.Reward.Equal(dec("20")) {
		t.Fatalf("expected reward 20, got %s", rr.Reward)
	}
	if rr.AppliedBonusSymbol == nil || *rr.AppliedBonusSymbol != "MISS" {
		t.Fatalf("MISS should be reported, got %v", rr.AppliedBonusSymbol)
	}
	if !slices.Equal(rr.AppliedWinningCombinations["A"], []string{"same_symbols_3"}) {
		t.Fatalf("unexpected applied combinations %v", rr.AppliedWinningCombinations)
	}
	// 9 格 + 1 次 bonus
	if src.Drawn() != 10 {
		t.Fatalf("expected 10 draws, got %d", src.Drawn())
	}
	for _, row := range rr.Matrix {
		for _, s := range row {
			if s != "A" {
				t.Fatalf("unexpected symbol %q", s)
			}
		}
	}
}

func TestInvalidBetConsumesNoDraws(t *testing.T) {
	gs, err := spec.GetGameSettingByJSON([]byte(allA))
	if err != nil {
		t.Fatal(err)
	}
	src := core.NewScripted(0.5)
	m, err := NewMachine(gs, core.FromUniform(src))
	if err != nil {
		t.Fatal(err)
	}
	for _, bet := range []string{"0", "-1"} {
		_, err := m.Play(dec(bet))
		if err == nil {
			t.Fatalf("bet %s should be rejected", bet)
		}
		if errs.LevelOf(err) != errs.Warn {
			t.Fatalf("bet %s should be a warn error, got %v", bet, err)
		}
	}
	if _, err := m.PlayRequest(&dto.RoundRequest{BettingAmount: "abc"}); err == nil {
		t.Fatalf("malformed bet should be rejected")
	}
	if src.Drawn() != 0 {
		t.Fatalf("invalid bet consumed %d draws", src.Drawn())
	}
}

func TestSameSeedSameRounds(t *testing.T) {
	lab := newDemoLab(t)
	m1, err := lab.NewMachineWithSeed("classic", 42)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := lab.NewMachineWithSeed("classic", 42)
	if err != nil {
		t.Fatal(err)
	}
	bet := dec("10")
	for i := 0; i < 50; i++ {
		r1, err := m1.Play(bet)
		if err != nil {
			t.Fatal(err)
		}
		r2, err := m2.Play(bet)
		if err != nil {
			t.Fatal(err)
		}
		b1, _ := json.Marshal(r1)
		b2, _ := json.Marshal(r2)
		if string(b1) != string(b2) {
			t.Fatalf("round %d differs:\n%s\n%s", i, b1, b2)
		}
	}
}

func TestPlayRequestReplay(t *testing.T) {
	lab := newDemoLab(t)
	m, err := lab.NewMachineWithSeed("classic", 7)
	if err != nil {
		t.Fatal(err)
	}
	first, err := m.PlayRequest(&dto.RoundRequest{BettingAmount: "5"})
	if err != nil {
		t.Fatal(err)
	}
	if first.State == nil {
		t.Fatalf("state snapshot missing")
	}
	next, err := m.PlayRequest(&dto.RoundRequest{BettingAmount: "5"})
	if err != nil {
		t.Fatal(err)
	}
	if next.State.StartCoreSnapB64U != first.State.AfterCoreSnapB64U {
		t.Fatalf("stream should continue from the previous after snapshot")
	}

	replay, err := m.PlayRequest(&dto.RoundRequest{
		BettingAmount: "5",
		StartState:    &dto.StartState{StartCoreSnapB64U: first.State.StartCoreSnapB64U},
	})
	if err != nil {
		t.Fatal(err)
	}
	b1, _ := json.Marshal(first)
	b2, _ := json.Marshal(replay)
	if string(b1) != string(b2) {
		t.Fatalf("replay differs:\n%s\n%s", b1, b2)
	}

	// 回放後機台回到原本的亂數流
	after, err := m.PlayRequest(&dto.RoundRequest{BettingAmount: "5"})
	if err != nil {
		t.Fatal(err)
	}
	if after.State.StartCoreSnapB64U != next.State.AfterCoreSnapB64U {
		t.Fatalf("replay must not move the live stream")
	}
}

func TestPlayRequestBadSnapshot(t *testing.T) {
	lab := newDemoLab(t)
	m, err := lab.NewMachineWithSeed("classic", 7)
	if err != nil {
		t.Fatal(err)
	}
	live, err := m.SnapshotCore()
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.PlayRequest(&dto.RoundRequest{BettingAmount: "5", StartState: &dto.StartState{StartCoreSnapB64U: "***"}})
	var corrupt base64.CorruptInputError
	if !errors.As(err, &corrupt) {
		t.Fatalf("decode failure should keep its cause, got %v", err)
	}
	if errs.LevelOf(err) != errs.Warn {
		t.Fatalf("bad snapshot is an input error, got %s", errs.ErrLv(errs.LevelOf(err)))
	}

	// 可解碼但不是合法的 PCG 狀態
	_, err = m.PlayRequest(&dto.RoundRequest{BettingAmount: "5", StartState: &dto.StartState{StartCoreSnapB64U: "AAAA"}})
	if err == nil || errors.Unwrap(err) == nil {
		t.Fatalf("restore failure should wrap its cause, got %v", err)
	}
	if errs.LevelOf(err) != errs.Warn {
		t.Fatalf("bad snapshot is an input error, got %s", errs.ErrLv(errs.LevelOf(err)))
	}

	after, err := m.SnapshotCore()
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(live) {
		t.Fatalf("failed requests must not move the live stream")
	}

	d, err := lab.NewDevSimulator("classic", 7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.RestoreRounds("***", dec("5"), 1); !errors.As(err, &corrupt) {
		t.Fatalf("dev restore should keep the decode cause, got %v", err)
	}
}

func TestLabRegisterAll(t *testing.T) {
	lab := newDemoLab(t)
	names := lab.Names()
	for _, want := range []string{"classic", "rowline"} {
		if !slices.Contains(names, want) {
			t.Fatalf("expected %q in %v", want, names)
		}
	}
	sum, err := lab.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if len(sum) != len(names) {
		t.Fatalf("summary size mismatch: %d vs %d", len(sum), len(names))
	}
	for _, s := range sum {
		if s.Name == "classic" && (s.Columns != 3 || s.Rows != 3) {
			t.Fatalf("unexpected classic summary %+v", s)
		}
	}
	if _, err := lab.NewMachine("nope"); err == nil {
		t.Fatalf("unknown game should fail")
	}
}

func TestLabNotFrozen(t *testing.T) {
	lab, err := New(Configs(demo_configs.FS))
	if err != nil {
		t.Fatal(err)
	}
	if err := lab.RegisterAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := lab.NewSimulatorWithSeed("classic", 1); err == nil {
		t.Fatalf("simulator before freeze should fail")
	}
	if _, err := New(nil); err == nil {
		t.Fatalf("empty configs should fail")
	}
}

func TestSimulator(t *testing.T) {
	lab := newDemoLab(t)
	s, err := lab.NewSimulatorWithSeed("classic", 11)
	if err != nil {
		t.Fatal(err)
	}
	bet := dec("2")
	st, _, err := s.Sim(bet, 500, false)
	if err != nil {
		t.Fatal(err)
	}
	if st.Summary.Rounds != 500 {
		t.Fatalf("expected 500 rounds, got %d", st.Summary.Rounds)
	}
	if !st.Summary.TotalBet.Equal(dec("1000")) {
		t.Fatalf("unexpected total bet %s", st.Summary.TotalBet)
	}
	if st.Player != nil {
		t.Fatalf("plain simulation has no player report")
	}

	mp, _, err := s.SimMP(bet, 300, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	if mp.Summary.Rounds != 1200 {
		t.Fatalf("expected 1200 rounds, got %d", mp.Summary.Rounds)
	}

	if _, _, err := s.Sim(dec("0"), 10, false); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("zero bet should be a warn error, got %v", err)
	}
	if _, _, err := s.SimMP(bet, 10, 0, false); err == nil {
		t.Fatalf("zero workers should fail")
	}
}

func TestSimulatorDeterministic(t *testing.T) {
	lab := newDemoLab(t)
	run := func() decimal.Decimal {
		s, err := lab.NewSimulatorWithSeed("rowline", 99)
		if err != nil {
			t.Fatal(err)
		}
		st, _, err := s.SimMP(dec("1"), 200, 3, false)
		if err != nil {
			t.Fatal(err)
		}
		return st.Summary.TotalWin
	}
	if a, b := run(), run(); !a.Equal(b) {
		t.Fatalf("same seed should give the same total win: %s vs %s", a, b)
	}
}

func TestSimPlayers(t *testing.T) {
	lab := newDemoLab(t)
	s, err := lab.NewSimulatorWithSeed("classic", 5)
	if err != nil {
		t.Fatal(err)
	}
	st, est, _, err := s.SimPlayers(2, 20, 10, dec("1"), 50, false)
	if err != nil {
		t.Fatal(err)
	}
	if est == nil || st == nil {
		t.Fatalf("reports missing")
	}
	if st.Summary.Rounds < 1 || st.Summary.Rounds > 20*50 {
		t.Fatalf("unexpected rounds %d", st.Summary.Rounds)
	}
	if st.Player != nil {
		t.Fatalf("merged report should not carry a player")
	}
	ss := est.SessionStat
	if sum := ss.Bust.Hat + ss.Cashout.Hat + ss.Alive.Hat; math.Abs(sum-1) > 1e-9 {
		t.Fatalf("session outcomes should add up to 1, got %v", sum)
	}
	if _, _, _, err := s.SimPlayers(1, 0, 10, dec("1"), 50, false); err == nil {
		t.Fatalf("zero players should fail")
	}
}

type scriptedFactory struct{ src *core.Scripted }

func (f *scriptedFactory) New(int64) core.PRNG { return core.FromUniform(f.src) }

func TestSimPlayersStopsAfterError(t *testing.T) {
	gs, err := spec.GetGameSettingByJSON([]byte(allA))
	if err != nil {
		t.Fatal(err)
	}
	src := core.NewScripted()
	s, err := newSimulatorWithSeed(gs, &scriptedFactory{src: src}, 1, logger.Silent())
	if err != nil {
		t.Fatal(err)
	}
	// bonus 表指向不存在的符號：每局在抽 bonus 時失敗
	gs.Probabilities.BonusSymbols.Symbols = spec.WeightTable{{Key: "GHOST", Weight: 1}}

	_, _, _, err = s.SimPlayers(1, 50, 10, dec("1"), 20, false)
	if errs.LevelOf(err) != errs.Fatal {
		t.Fatalf("expected fatal round error, got %v", err)
	}
	// 只有第一位玩家開過一局（9 格 + 1 次 bonus）
	if got := src.Drawn(); got != 10 {
		t.Fatalf("remaining players should be skipped, drawn %d", got)
	}
}

func TestDevSimulatorReplay(t *testing.T) {
	lab := newDemoLab(t)
	d, err := lab.NewDevSimulator("classic", 3)
	if err != nil {
		t.Fatal(err)
	}
	bet := dec("10")
	rep, err := d.Rounds(bet, 20)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Rounds != 20 || len(rep.Results) != 20 {
		t.Fatalf("unexpected report size %d", rep.Rounds)
	}
	if !rep.TotalBet.Equal(dec("200")) {
		t.Fatalf("unexpected total bet %s", rep.TotalBet)
	}

	again, err := d.RestoreRounds(rep.Before, bet, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !again.TotalWin.Equal(rep.TotalWin) || again.After != rep.After {
		t.Fatalf("restored rounds differ")
	}

	if _, err := d.Rounds(bet, 0); err == nil {
		t.Fatalf("round 0 should fail")
	}
	if _, err := d.Rounds(bet, 5001); err == nil {
		t.Fatalf("round 5001 should fail")
	}

	sr, err := d.Sim(bet, 1000)
	if err != nil {
		t.Fatal(err)
	}
	sr2, err := d.RestoreSim(sr.Before, bet, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if sr.After != sr2.After || !sr.Stat.Summary.TotalWin.Equal(sr2.Stat.Summary.TotalWin) {
		t.Fatalf("restored sim differs")
	}
}

func TestSeedMakerDistinct(t *testing.T) {
	sm := newSeedMaker(1)
	seen := map[int64]struct{}{}
	for i := 0; i < 1000; i++ {
		v := sm.next()
		if v < 0 {
			t.Fatalf("seed must be non-negative, got %d", v)
		}
		if _, dup := seen[v]; dup {
			t.Fatalf("duplicate seed %d", v)
		}
		seen[v] = struct{}{}
	}
}
