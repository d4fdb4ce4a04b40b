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
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/sdk/sampler"
	"github.com/zintix-labs/scratchlab/spec"
)

// SymbolReward 單一符號的獎金：bet × M × N。
//
// 多條規則同時成立時逐條累加（不取最大、不連乘）。
func SymbolReward(symbol *spec.Symbol, satisfied int, bet decimal.Decimal) decimal.Decimal {
	if satisfied <= 0 {
		return decimal.Zero
	}
	return bet.Mul(symbol.RewardMultiplier).Mul(decimal.NewFromInt(int64(satisfied)))
}

// Subtotal 加總所有有成立規則的符號，即 Bonus 前的獎金。
func Subtotal(applied *Applied, symbols *spec.SymbolSetting, bet decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, id := range applied.Order {
		sym, ok := symbols.Get(id)
		if !ok {
			return decimal.Zero, errs.NewFatal("unknown symbol in applied combinations").With("symbol", id)
		}
		total = total.Add(SymbolReward(sym, applied.Count(id), bet))
	}
	return total, nil
}

// PickBonus 以整數輪盤從 bonus 權重表抽出一個符號。
//
// 權重表為空時不抽（不消耗亂數），回傳 nil。
func PickBonus(table spec.WeightTable, symbols *spec.SymbolSetting, r sampler.IntSource) (*spec.Symbol, error) {
	if len(table) == 0 {
		return nil, nil
	}
	id, err := sampler.RouletteInt(r, table)
	if err != nil {
		return nil, errs.Wrap(err, "sample bonus failed")
	}
	sym, ok := symbols.Get(id)
	if !ok {
		return nil, errs.NewFatal("unknown bonus symbol").With("symbol", id)
	}
	return sym, nil
}

// ApplyBonus 依 bonus 符號的 impact 調整獎金。
//
//   - MULTIPLY_REWARD：pre × RewardMultiplier
//   - EXTRA_BONUS：pre + Extra
//   - MISS 或其他：不變
func ApplyBonus(pre decimal.Decimal, bonus *spec.Symbol) decimal.Decimal {
	if bonus == nil {
		return pre
	}
	switch bonus.Impact {
	case spec.ImpactMultiplyReward:
		return pre.Mul(bonus.RewardMultiplier)
	case spec.ImpactExtraBonus:
		return pre.Add(bonus.Extra)
	default:
		return pre
	}
}
