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
	"io"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/corefmt"
	"github.com/zintix-labs/scratchlab/errs"
)

// maxRequestBytes 請求大小上限（1MiB）。
const maxRequestBytes = 1 << 20

// RoundRequest 一局的輸入。
//
//	{"betting_amount":"10","start_state":{"start_b64u":"..."}}
//
// StartState 缺省 / null：新局，沿用機台目前的亂數流。
// StartState.StartCoreSnapB64U 有值：回放，先把 PRNG 還原到該快照再開局。
type RoundRequest struct {
	BettingAmount string      `json:"betting_amount"`
	StartState    *StartState `json:"start_state,omitempty"`
}

// StartState 回放用的 PRNG 快照（base64url，或 "hex:" 前綴）。
type StartState struct {
	StartCoreSnapB64U string `json:"start_b64u"`
}

func (ss *StartState) HasPayload() bool {
	return ss != nil && ss.StartCoreSnapB64U != ""
}

// DecodeRoundRequest 以 JSON 解碼請求；未知欄位一律拒絕。
func DecodeRoundRequest(r io.Reader) (*RoundRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request reader")
	}
	req := new(RoundRequest)
	dec := json.NewDecoder(io.LimitReader(r, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return nil, errs.WrapWarn(err, "decode round request failed")
	}
	return req, nil
}

// Parse 檢查並轉換成可直接開局的參數。
func (rq *RoundRequest) Parse() (bet decimal.Decimal, startSnap []byte, err error) {
	bet, err = ParseBet(rq.BettingAmount)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if rq.StartState.HasPayload() {
		startSnap, err = corefmt.DecodeSnapshot(rq.StartState.StartCoreSnapB64U)
		if err != nil {
			return decimal.Zero, nil, errs.Wrap(err, "core snap decode failed")
		}
	}
	return bet, startSnap, nil
}

// ParseBet 下注金額必須是正的十進位數字。
func ParseBet(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, errs.NewWarn("betting amount is required")
	}
	bet, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errs.NewWarn("betting amount is not a number").With("bet", s)
	}
	if err := ValidBet(bet); err != nil {
		return decimal.Zero, err
	}
	return bet, nil
}

// ValidBet 下注金額必須 > 0。
func ValidBet(bet decimal.Decimal) error {
	if !bet.IsPositive() {
		return errs.NewWarn("betting amount must be positive").With("bet", bet.String())
	}
	return nil
}
