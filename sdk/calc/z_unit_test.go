// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package calc

import (
	"slices"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/sdk/core"
	"github.com/zintix-labs/scratchlab/sdk/gen"
	"github.com/zintix-labs/scratchlab/spec"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buildSymbols(t *testing.T, syms ...spec.Symbol) *spec.SymbolSetting {
	t.Helper()
	ss := &spec.SymbolSetting{Symbols: syms}
	if err := ss.Init(); err != nil {
		t.Fatalf("symbol setting init failed: %v", err)
	}
	return ss
}

func standard(id, mult string) spec.Symbol {
	return spec.Symbol{ID: id, Type: spec.SymbolTypeStandard, RewardMultiplier: dec(mult)}
}

func linear(id, symbol string, count int) spec.WinCombination {
	return spec.WinCombination{ID: id, Kind: spec.RuleKindLinear, Symbol: symbol, Count: count}
}

func area(id string, areas ...spec.Area) spec.WinCombination {
	return spec.WinCombination{ID: id, Kind: spec.RuleKindArea, CoveredAreas: areas}
}

func rowHasAtLeast(m gen.Matrix, s string, n int) bool {
	for _, row := range m {
		c := 0
		for _, v := range row {
			if v == s {
				c++
			}
		}
		if c >= n {
			return true
		}
	}
	return false
}

// TestLinearRuleMatchesRowCount 隨機盤面上與直接計數比對
func TestLinearRuleMatchesRowCount(t *testing.T) {
	rules := []spec.WinCombination{linear("same_symbol_3_times", "", 3)}
	c := core.New(core.Default().New(3))
	syms := []string{"A", "B"}
	seenTrue, seenFalse := false, false

	for i := 0; i < 500; i++ {
		m := make(gen.Matrix, 3)
		for r := range m {
			m[r] = make([]string, 3)
			for col := range m[r] {
				m[r][col] = syms[c.IntN(2)]
			}
		}
		hits, err := Evaluate(m, "A", spec.SymbolTypeStandard, rules)
		if err != nil {
			t.Fatal(err)
		}
		want := rowHasAtLeast(m, "A", 3)
		if (len(hits) == 1) != want {
			t.Fatalf("matrix %v: expected satisfied=%v, got hits %v", m, want, hits)
		}
		if want {
			seenTrue = true
		} else {
			seenFalse = true
		}
	}
	if !seenTrue || !seenFalse {
		t.Fatalf("random matrices should cover both outcomes")
	}
}

// TestLinearRuleCountsOncePerRound 多列同時成立仍只記一次
func TestLinearRuleCountsOncePerRound(t *testing.T) {
	m := gen.Matrix{{"A", "A", "A"}, {"A", "A", "A"}, {"B", "A", "A"}}
	hits, err := Evaluate(m, "A", spec.SymbolTypeStandard, []spec.WinCombination{linear("same_symbolA", "A", 3)})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected one hit, got %v", hits)
	}
	// 綁定 A 的規則不會套用到 B
	hits, _ = Evaluate(gen.Matrix{{"B", "B", "B"}}, "B", spec.SymbolTypeStandard, []spec.WinCombination{linear("same_symbolA", "A", 3)})
	if len(hits) != 0 {
		t.Fatalf("rule bound to A must not match B: %v", hits)
	}
}

// TestAreaRule 覆蓋 (0,0),(0,1) 的區域，四種組合窮舉
func TestAreaRule(t *testing.T) {
	rules := []spec.WinCombination{area("same_symbols_pair", spec.Area{{Row: 0, Column: 0}, {Row: 0, Column: 1}})}
	for _, a := range []string{"A", "B"} {
		for _, b := range []string{"A", "B"} {
			m := gen.Matrix{{a, b}, {"B", "B"}}
			hits, err := Evaluate(m, "A", spec.SymbolTypeStandard, rules)
			if err != nil {
				t.Fatal(err)
			}
			want := a == "A" && b == "A"
			if (len(hits) == 1) != want {
				t.Fatalf("m00=%s m01=%s: expected %v, got %v", a, b, want, hits)
			}
		}
	}
}

func TestAreaRuleAnyAreaMatches(t *testing.T) {
	rules := []spec.WinCombination{area("same_symbols_vertically",
		spec.Area{{Row: 0, Column: 0}, {Row: 1, Column: 0}},
		spec.Area{{Row: 0, Column: 1}, {Row: 1, Column: 1}},
	)}
	m := gen.Matrix{{"B", "A"}, {"A", "A"}}
	hits, err := Evaluate(m, "A", spec.SymbolTypeStandard, rules)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("second column should satisfy the rule: %v", hits)
	}
}

func TestEvaluateOutOfRangeCoordinate(t *testing.T) {
	rules := []spec.WinCombination{area("same_symbols_far", spec.Area{{Row: 5, Column: 0}})}
	_, err := Evaluate(gen.Matrix{{"A"}}, "A", spec.SymbolTypeStandard, rules)
	if err == nil {
		t.Fatalf("expected out of range error")
	}
	if !strings.Contains(err.Error(), "rule=same_symbols_far") || !strings.Contains(err.Error(), "coord=5:0") {
		t.Fatalf("error should name rule and coordinate: %v", err)
	}
}

func TestEvaluateSkipsBonusAndUnresolved(t *testing.T) {
	m := gen.Matrix{{"A", "A", "A"}}
	rules := []spec.WinCombination{
		{ID: "mystery", Kind: spec.RuleKindNone, Count: 1},
		linear("same_symbol_3_times", "", 3),
	}
	hits, err := Evaluate(m, "A", spec.SymbolTypeBonus, rules)
	if err != nil || len(hits) != 0 {
		t.Fatalf("bonus symbols never participate: %v %v", hits, err)
	}
	hits, err = Evaluate(m, "A", spec.SymbolTypeStandard, rules)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(hits, []string{"same_symbol_3_times"}) {
		t.Fatalf("unresolved rule must never match: %v", hits)
	}
}

func TestEvaluateAllOrder(t *testing.T) {
	symbols := buildSymbols(t,
		standard("B", "3"),
		standard("A", "5"),
		standard("C", "1"),
		spec.Symbol{ID: "MISS", Type: spec.SymbolTypeBonus, Impact: spec.ImpactMiss},
	)
	mc := &MatrixCalculator{
		SymbolSetting: symbols,
		Rules: []spec.WinCombination{
			area("same_symbols_top", spec.Area{{Row: 0, Column: 0}, {Row: 0, Column: 1}}),
			linear("same_symbol_2_times", "", 2),
		},
	}
	m := gen.Matrix{{"A", "A"}, {"B", "B"}}
	applied, err := mc.EvaluateAll(m)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(applied.Order, []string{"B", "A"}) {
		t.Fatalf("symbols should follow config order: %v", applied.Order)
	}
	if !slices.Equal(applied.Hits["A"], []string{"same_symbols_top", "same_symbol_2_times"}) {
		t.Fatalf("rules should follow config order: %v", applied.Hits["A"])
	}
	if _, ok := applied.Hits["C"]; ok {
		t.Fatalf("symbol without hits must be absent")
	}

	// B: 10×3×1 = 30，A: 10×5×2 = 100
	sub, err := Subtotal(applied, symbols, dec("10"))
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Equal(dec("130")) {
		t.Fatalf("expected subtotal 130, got %s", sub)
	}
}

func TestSymbolReward(t *testing.T) {
	a := standard("A", "5")
	if got := SymbolReward(&a, 2, dec("10")); !got.Equal(dec("100")) {
		t.Fatalf("expected 100, got %s", got)
	}
	if got := SymbolReward(&a, 0, dec("10")); !got.IsZero() {
		t.Fatalf("no satisfied rule yields zero, got %s", got)
	}
	e := standard("E", "1.2")
	if got := SymbolReward(&e, 1, dec("0.1")); !got.Equal(dec("0.12")) {
		t.Fatalf("decimal arithmetic must be exact, got %s", got)
	}
}

func TestApplyBonus(t *testing.T) {
	pre := dec("100")
	cases := []struct {
		name string
		sym  *spec.Symbol
		want string
	}{
		{"multiply", &spec.Symbol{ID: "3x", Type: spec.SymbolTypeBonus, Impact: spec.ImpactMultiplyReward, RewardMultiplier: dec("3")}, "300"},
		{"extra", &spec.Symbol{ID: "+50", Type: spec.SymbolTypeBonus, Impact: spec.ImpactExtraBonus, Extra: dec("50")}, "150"},
		{"miss", &spec.Symbol{ID: "MISS", Type: spec.SymbolTypeBonus, Impact: spec.ImpactMiss}, "100"},
		{"unknown impact", &spec.Symbol{ID: "??", Type: spec.SymbolTypeBonus, Impact: spec.ImpactNone, RewardMultiplier: dec("9")}, "100"},
		{"nil", nil, "100"},
	}
	for _, tc := range cases {
		if got := ApplyBonus(pre, tc.sym); !got.Equal(dec(tc.want)) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
	// 獎金為 0 時 extra 仍會加上
	extra := &spec.Symbol{ID: "+50", Type: spec.SymbolTypeBonus, Impact: spec.ImpactExtraBonus, Extra: dec("50")}
	if got := ApplyBonus(decimal.Zero, extra); !got.Equal(dec("50")) {
		t.Fatalf("extra bonus on zero reward should be 50, got %s", got)
	}
}

func TestPickBonus(t *testing.T) {
	symbols := buildSymbols(t,
		standard("A", "1"),
		spec.Symbol{ID: "10x", Type: spec.SymbolTypeBonus, Impact: spec.ImpactMultiplyReward, RewardMultiplier: dec("10")},
		spec.Symbol{ID: "MISS", Type: spec.SymbolTypeBonus, Impact: spec.ImpactMiss},
	)
	table := spec.WeightTable{{Key: "10x", Weight: 1}, {Key: "MISS", Weight: 3}}

	src := core.NewScripted(0.1, 0.9)
	r := core.FromUniform(src)
	first, err := PickBonus(table, symbols, r)
	if err != nil || first.ID != "10x" {
		t.Fatalf("expected 10x, got %v err=%v", first, err)
	}
	second, err := PickBonus(table, symbols, r)
	if err != nil || second.ID != "MISS" {
		t.Fatalf("expected MISS, got %v err=%v", second, err)
	}

	src = core.NewScripted(0.5)
	none, err := PickBonus(nil, symbols, core.FromUniform(src))
	if err != nil || none != nil {
		t.Fatalf("empty table yields no bonus: %v %v", none, err)
	}
	if src.Drawn() != 0 {
		t.Fatalf("empty table must not consume randomness")
	}
}

// TestRoundScenario 3×3 全 A（倍率 2），bet 10，頂列區域規則成立 -> 20
func TestRoundScenario(t *testing.T) {
	raw := `{
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
	gs, err := spec.GetGameSettingByJSON([]byte(raw))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	c := core.New(core.Default().New(1))
	m, err := gen.NewMatrixGenerator(c, gs).GenMatrix()
	if err != nil {
		t.Fatal(err)
	}
	applied, err := NewMatrixCalculator(gs).EvaluateAll(m)
	if err != nil {
		t.Fatal(err)
	}
	bet := dec("10")
	sub, err := Subtotal(applied, &gs.Symbols, bet)
	if err != nil {
		t.Fatal(err)
	}
	bonus, err := PickBonus(gs.Probabilities.BonusSymbols.Symbols, &gs.Symbols, c)
	if err != nil {
		t.Fatal(err)
	}
	reward := ApplyBonus(sub, bonus)
	if !reward.Equal(dec("20")) {
		t.Fatalf("expected reward 20, got %s", reward)
	}
	if bonus == nil || bonus.ID != "MISS" {
		t.Fatalf("MISS should be reported as applied, got %v", bonus)
	}
	if !slices.Equal(applied.Hits["A"], []string{"same_symbols_3"}) {
		t.Fatalf("unexpected hits %v", applied.Hits)
	}
}

// TestNamedRulesResolvePerSymbol 命名推斷對每個符號各自決定 linear / area
func TestNamedRulesResolvePerSymbol(t *testing.T) {
	// same_symbol_AB 同時以 B 與 AB 結尾：全 B 的一列要算 B 成立
	suffix := `{
	"columns": 3, "rows": 1,
	"symbols": {
		"B": {"reward_multiplier": 2, "type": "standard"},
		"AB": {"reward_multiplier": 5, "type": "standard"}
	},
	"probabilities": {
		"standard_symbols": [
			{"row": 0, "column": 0, "symbols": {"B": 1}}, {"row": 0, "column": 1, "symbols": {"B": 1}}, {"row": 0, "column": 2, "symbols": {"B": 1}}
		]
	},
	"win_combinations": {
		"same_symbol_AB": {"reward_multiplier": 1, "when": "same_symbols", "count": 3, "group": "same_symbols"}
	}
}`
	gs, err := spec.GetGameSettingByJSON([]byte(suffix))
	if err != nil {
		t.Fatal(err)
	}
	applied, err := NewMatrixCalculator(gs).EvaluateAll(gen.Matrix{{"B", "B", "B"}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(applied.Hits["B"], []string{"same_symbol_AB"}) {
		t.Fatalf("B should satisfy same_symbol_AB, got %v", applied.Hits)
	}
	sub, err := Subtotal(applied, &gs.Symbols, dec("10"))
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Equal(dec("20")) {
		t.Fatalf("expected subtotal 20, got %s", sub)
	}

	// same_symbols_B：B 走列計數，其餘符號走 covered area
	mixed := `{
	"columns": 3, "rows": 2,
	"symbols": {
		"A": {"reward_multiplier": 1, "type": "standard"},
		"B": {"reward_multiplier": 1, "type": "standard"}
	},
	"probabilities": {
		"standard_symbols": [
			{"row": 0, "column": 0, "symbols": {"B": 1}}, {"row": 0, "column": 1, "symbols": {"B": 1}}, {"row": 0, "column": 2, "symbols": {"B": 1}},
			{"row": 1, "column": 0, "symbols": {"A": 1}}, {"row": 1, "column": 1, "symbols": {"A": 1}}, {"row": 1, "column": 2, "symbols": {"A": 1}}
		]
	},
	"win_combinations": {
		"same_symbols_B": {"reward_multiplier": 1, "when": "same_symbols", "count": 3, "group": "g", "covered_areas": [["0:0", "1:0"]]}
	}
}`
	gs, err = spec.GetGameSettingByJSON([]byte(mixed))
	if err != nil {
		t.Fatal(err)
	}
	mc := NewMatrixCalculator(gs)
	applied, err = mc.EvaluateAll(gen.Matrix{{"B", "B", "B"}, {"A", "A", "A"}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(applied.Hits["B"], []string{"same_symbols_B"}) {
		t.Fatalf("B should satisfy the row count, got %v", applied.Hits)
	}
	if _, ok := applied.Hits["A"]; ok {
		t.Fatalf("A needs the covered area, got %v", applied.Hits)
	}
	applied, err = mc.EvaluateAll(gen.Matrix{{"A", "B", "B"}, {"A", "B", "B"}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(applied.Hits["A"], []string{"same_symbols_B"}) || len(applied.Hits["B"]) != 0 {
		t.Fatalf("A should satisfy the covered area only, got %v", applied.Hits)
	}
}
