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
	"github.com/zintix-labs/scratchlab/sdk/gen"
	"github.com/zintix-labs/scratchlab/spec"
)

// Outcome 一局的內部結果（尚未轉成對外 DTO）。
type Outcome struct {
	Bet      decimal.Decimal
	Matrix   gen.Matrix
	Applied  *Applied
	Subtotal decimal.Decimal
	Bonus    *spec.Symbol // 沒有 bonus 權重表時為 nil
	Reward   decimal.Decimal
}

// HasWin 回傳是否有任何規則成立。
func (o *Outcome) HasWin() bool {
	return o.Applied != nil && len(o.Applied.Order) > 0
}

// BonusID 回傳套用的 bonus 符號 id；沒有時回傳空字串。
func (o *Outcome) BonusID() string {
	if o.Bonus == nil {
		return ""
	}
	return o.Bonus.ID
}
