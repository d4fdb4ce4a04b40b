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
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/sdk/gen"
	"github.com/zintix-labs/scratchlab/spec"
)

// RuleFn 判斷單一規則對某符號是否成立。
type RuleFn func(m gen.Matrix, symbolID string, rule *spec.WinCombination) (bool, error)

var fromRuleKindGetRuleFn = map[spec.RuleKind]RuleFn{
	spec.RuleKindLinear: matchLinear,
	spec.RuleKindArea:   matchArea,
}

// Evaluate 回傳 symbolID 在盤面上成立的規則 id（依設定順序）。
//
// 只有 standard 符號參與；bonus 符號直接回傳空結果。
// 同一條規則一局最多成立一次（多列、多區域同時命中仍算一次）。
func Evaluate(m gen.Matrix, symbolID string, symbolType spec.SymbolType, rules []spec.WinCombination) ([]string, error) {
	if symbolType != spec.SymbolTypeStandard {
		return nil, nil
	}
	var hits []string
	for i := range rules {
		rule := &rules[i]
		fn, ok := fromRuleKindGetRuleFn[rule.KindFor(symbolID)]
		if !ok {
			continue
		}
		hit, err := fn(m, symbolID, rule)
		if err != nil {
			return nil, err
		}
		if hit {
			hits = append(hits, rule.ID)
		}
	}
	return hits, nil
}

// matchLinear 任一列中 symbolID 出現次數 >= Count。
func matchLinear(m gen.Matrix, symbolID string, rule *spec.WinCombination) (bool, error) {
	if rule.Count < 1 {
		return false, errs.NewFatal("linear rule requires count >= 1").With("rule", rule.ID)
	}
	for _, row := range m {
		n := 0
		for _, s := range row {
			if s == symbolID {
				n++
			}
		}
		if n >= rule.Count {
			return true, nil
		}
	}
	return false, nil
}

// matchArea 任一 covered area 的所有座標皆為 symbolID。
//
// 座標超出盤面視為設定錯誤，不論該區域是否已經可以判定不成立。
func matchArea(m gen.Matrix, symbolID string, rule *spec.WinCombination) (bool, error) {
	matched := false
	for _, area := range rule.CoveredAreas {
		all := len(area) > 0
		for _, c := range area {
			s, ok := m.At(c)
			if !ok {
				return false, errs.NewFatal("covered area coordinate out of matrix").With("rule", rule.ID).With("coord", c)
			}
			if s != symbolID {
				all = false
			}
		}
		if all {
			matched = true
		}
	}
	return matched, nil
}

// MatrixCalculator 對整個盤面、所有設定中的符號做規則判斷。
type MatrixCalculator struct {
	SymbolSetting *spec.SymbolSetting
	Rules         []spec.WinCombination
}

// NewMatrixCalculator 依已初始化的 GameSetting 建立。
func NewMatrixCalculator(gs *spec.GameSetting) *MatrixCalculator {
	return &MatrixCalculator{
		SymbolSetting: &gs.Symbols,
		Rules:         gs.WinCombinations.Rules,
	}
}

// Applied 每個符號成立的規則；Order 記錄有成立規則的符號（設定順序）。
type Applied struct {
	Hits  map[string][]string
	Order []string
}

// Count 回傳 symbolID 成立的規則數。
func (a *Applied) Count(symbolID string) int {
	return len(a.Hits[symbolID])
}

// EvaluateAll 依設定順序對每個符號呼叫 Evaluate；沒有成立規則的符號不會出現在結果中。
func (mc *MatrixCalculator) EvaluateAll(m gen.Matrix) (*Applied, error) {
	out := &Applied{Hits: make(map[string][]string)}
	for i := range mc.SymbolSetting.Symbols {
		sym := &mc.SymbolSetting.Symbols[i]
		hits, err := Evaluate(m, sym.ID, sym.Type, mc.Rules)
		if err != nil {
			return nil, errs.Wrap(err, "evaluate symbol failed").With("symbol", sym.ID)
		}
		if len(hits) == 0 {
			continue
		}
		out.Hits[sym.ID] = hits
		out.Order = append(out.Order, sym.ID)
	}
	return out, nil
}
