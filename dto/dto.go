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
package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/corefmt"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/sdk/calc"
)

// RoundResult 一局對外輸出的結果。
//
// JSON 形狀：
//
//	{"matrix":[["A","B"]],"reward":20,"applied_winning_combinations":{"A":["same_symbols_3"]},"applied_bonus_symbol":"MISS"}
type RoundResult struct {
	Matrix                     [][]string          `json:"matrix"`
	Reward                     decimal.Decimal     `json:"reward"`
	AppliedWinningCombinations map[string][]string `json:"applied_winning_combinations"`
	AppliedBonusSymbol         *string             `json:"applied_bonus_symbol"`
	State                      *RoundState         `json:"state,omitempty"` // 審計/回放用，預設不輸出

	// order 記錄 AppliedWinningCombinations 的符號順序（設定順序），給文字輸出使用。
	order []string
}

// RoundState 開局前/結束後的 PRNG 快照（base64url）。
//
// 帶入 StartCoreSnapB64U 可以重現同一局；帶入 AfterCoreSnapB64U 則延續亂數流。
type RoundState struct {
	StartCoreSnapB64U string `json:"start_b64u"`
	AfterCoreSnapB64U string `json:"after_b64u"`
}

// NewRoundResultDTO 把內部 Outcome 轉成對外結構（深拷貝，不與內部共用切片）。
func NewRoundResultDTO(o *calc.Outcome) (RoundResult, error) {
	if o == nil {
		return RoundResult{}, errs.NewWarn("round outcome is nil")
	}
	rr := RoundResult{
		Matrix:                     o.Matrix.Clone(),
		Reward:                     o.Reward,
		AppliedWinningCombinations: make(map[string][]string),
	}
	if o.Applied != nil {
		for _, id := range o.Applied.Order {
			rr.AppliedWinningCombinations[id] = append([]string(nil), o.Applied.Hits[id]...)
			rr.order = append(rr.order, id)
		}
	}
	if o.Bonus != nil {
		id := o.Bonus.ID
		rr.AppliedBonusSymbol = &id
	}
	return rr, nil
}

// WithState 附上開局前與結束後的 PRNG 快照。
func (rr *RoundResult) WithState(start, after []byte) {
	rr.State = &RoundState{
		StartCoreSnapB64U: corefmt.EncodeBase64URL(start),
		AfterCoreSnapB64U: corefmt.EncodeBase64URL(after),
	}
}

// Order 回傳有成立規則的符號（設定順序）。
func (rr *RoundResult) Order() []string {
	if len(rr.order) == len(rr.AppliedWinningCombinations) {
		return rr.order
	}
	// 由 JSON 解回來的結果沒有順序資訊，退回 map 走訪後排序
	return sortedKeys(rr.AppliedWinningCombinations)
}

// MarshalJSON reward 以 JSON 數字輸出（decimal 預設是字串）。
func (rr RoundResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Matrix                     [][]string          `json:"matrix"`
		Reward                     json.Number         `json:"reward"`
		AppliedWinningCombinations map[string][]string `json:"applied_winning_combinations"`
		AppliedBonusSymbol         *string             `json:"applied_bonus_symbol"`
		State                      *RoundState         `json:"state,omitempty"`
	}{
		Matrix:                     rr.Matrix,
		Reward:                     json.Number(rr.Reward.String()),
		AppliedWinningCombinations: rr.AppliedWinningCombinations,
		AppliedBonusSymbol:         rr.AppliedBonusSymbol,
		State:                      rr.State,
	})
}
