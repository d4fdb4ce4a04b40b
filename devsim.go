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

package scratchlab

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/corefmt"
	"github.com/zintix-labs/scratchlab/dto"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/stats"
)

const (
	maxDevRounds = 5000
	maxDevSim    = 3_000_000
)

// DevSimulator
//
// 審計用的模擬器，單線(不併發)，重點在可審計、可重現
type DevSimulator struct {
	sim *Simulator // 只開放Sim功能
	m   *Machine   // 與 sim 共用同一台機台（同一條亂數流）
}

func newDevSimulator(s *Simulator) *DevSimulator {
	return &DevSimulator{sim: s, m: s.Machine()}
}

type DevRoundReport struct {
	Before   string            `json:"start_b64u"`
	After    string            `json:"after_b64u"`
	Rounds   int               `json:"rounds"`
	Rtp      float64           `json:"rtp"`
	TotalBet decimal.Decimal   `json:"total_bet"`
	TotalWin decimal.Decimal   `json:"total_win"`
	Results  []dto.RoundResult `json:"results"`
}

func (d *DevSimulator) playOne(bet decimal.Decimal) (dto.RoundResult, error) {
	req := &dto.RoundRequest{BettingAmount: bet.String()}
	return d.m.PlayRequest(req)
}

// Rounds 連續開 round 局，每局都附帶前後快照。
func (d *DevSimulator) Rounds(bet decimal.Decimal, round int) (DevRoundReport, error) {
	// 限制檢查
	if round < 1 || round > maxDevRounds {
		return DevRoundReport{}, errs.NewWarn("round must be between 1 and 5,000")
	}
	if err := dto.ValidBet(bet); err != nil {
		return DevRoundReport{}, err
	}

	rs := make([]dto.RoundResult, 0, round)
	for range round {
		result, err := d.playOne(bet)
		if err != nil {
			return DevRoundReport{}, errs.Wrap(err, "round error")
		}
		rs = append(rs, result)
	}
	// 統計
	totalBet := bet.Mul(decimal.NewFromInt(int64(len(rs))))
	totalWin := decimal.Zero
	for _, r := range rs {
		totalWin = totalWin.Add(r.Reward)
	}

	return DevRoundReport{
		Before:   rs[0].State.StartCoreSnapB64U,
		After:    rs[len(rs)-1].State.AfterCoreSnapB64U,
		Rounds:   len(rs),
		Rtp:      100.0 * totalWin.Div(totalBet).InexactFloat64(),
		TotalBet: totalBet,
		TotalWin: totalWin,
		Results:  rs,
	}, nil
}

// RestoreRounds 先把亂數流還原到 be64，再連續開局。
func (d *DevSimulator) RestoreRounds(be64 string, bet decimal.Decimal, round int) (DevRoundReport, error) {
	if round < 1 || round > maxDevRounds {
		return DevRoundReport{}, errs.NewWarn("round must be between 1 and 5,000")
	}
	be, err := corefmt.DecodeSnapshot(be64)
	if err != nil {
		return DevRoundReport{}, errs.Wrap(err, "decode snapshot failed")
	}
	if err := d.m.RestoreCore(be); err != nil {
		return DevRoundReport{}, errs.Wrap(err, "machine restore failed")
	}
	return d.Rounds(bet, round)
}

type DevSimReport struct {
	Before string            `json:"before"`
	After  string            `json:"after"`
	Stat   *stats.StatReport `json:"statistic"`
}

func (d *DevSimulator) Sim(bet decimal.Decimal, round int) (DevSimReport, error) {
	if round < 1 || round > maxDevSim {
		return DevSimReport{}, errs.NewWarn("round must be between 1 and 3,000,000")
	}
	// 先存 before 快照
	be, err := d.m.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}

	stat, _, err := d.sim.Sim(bet, round, false)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "sim failed")
	}

	// 再存 after 快照
	af, err := d.m.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}

	return DevSimReport{
		Before: corefmt.EncodeBase64URL(be),
		After:  corefmt.EncodeBase64URL(af),
		Stat:   stat,
	}, nil
}

func (d *DevSimulator) RestoreSim(be64 string, bet decimal.Decimal, round int) (DevSimReport, error) {
	// 反解析 string -> []byte
	be, err := corefmt.DecodeSnapshot(be64)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "decode snapshot failed")
	}
	// restore
	if err := d.m.RestoreCore(be); err != nil {
		return DevSimReport{}, errs.Wrap(err, "restore simulator failed")
	}
	return d.Sim(bet, round)
}
