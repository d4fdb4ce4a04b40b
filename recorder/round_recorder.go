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

package recorder

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/sdk/calc"
	"github.com/zintix-labs/scratchlab/spec"
	"github.com/zintix-labs/scratchlab/stats"
)

// RoundRecorder 遊戲紀錄員
//
// RoundRecorder 負責紀錄每局結果，並透過Done輸出統計報表
type RoundRecorder struct {
	GameName string
	Bet      decimal.Decimal
	InitBets int
	Basic    *BasicRecord
	Dist     *DistRecord
	Hits     *HitRecord
	Player   *PlayerRecord
}

// BasicRecord 基本遊戲資料紀錄
type BasicRecord struct {
	TotalBet     decimal.Decimal
	TotalWin     decimal.Decimal
	WinMultSum   float64 // 贏倍和
	WinMultSqSum float64 // 贏倍平方和
	NoWinRounds  int
	ComboRounds  int
	BonusRounds  int
	MultiRounds  int // MULTIPLY_REWARD
	ExtraRounds  int // EXTRA_BONUS
	Rounds       int
}

// DistRecord 贏倍區間落點統計
type DistRecord struct {
	TotalWinCollect []int
}

// HitRecord 規則與 bonus 符號命中次數（依設定檔順序）
//
// 規則：同一局內每個 (符號, 規則) 成立各算一次
type HitRecord struct {
	RuleIDs   []string
	RuleHits  []int
	BonusIDs  []string
	BonusHits []int
	ruleIdx   map[string]int
	bonusIdx  map[string]int
}

// PlayerRecord 玩家統計
type PlayerRecord struct {
	leaveLine   decimal.Decimal
	InitBalance decimal.Decimal
	Balance     decimal.Decimal
	MaxBalance  decimal.Decimal
	MinBalance  decimal.Decimal
	Bust        bool
	Cashout     bool
}

func NewRoundRecorder(gs *spec.GameSetting, bet decimal.Decimal, initBets int) (*RoundRecorder, error) {
	s := new(RoundRecorder)
	if gs == nil {
		return s, errs.NewFatal("game setting is nil")
	}
	if !bet.IsPositive() {
		return s, errs.NewWarn("betting amount must be positive").With("bet", bet)
	}
	if initBets < 0 {
		return s, errs.NewFatal("init bets must not negative integer").With("init_bets", initBets)
	}
	// 通過valid
	s.GameName = gs.GameName
	s.Bet = bet
	s.InitBets = initBets
	s.Basic = &BasicRecord{TotalBet: decimal.Zero, TotalWin: decimal.Zero}
	s.Dist = &DistRecord{TotalWinCollect: make([]int, stats.Buckets.Len())}
	s.Hits = newHitRecord(gs)
	s.Player = newPlayerRecord(bet, initBets)
	return s, nil
}

// MergeRoundRecorder 合併多個併發紀錄員（遊戲、下注、初始籌碼必須一致）
func MergeRoundRecorder(r []*RoundRecorder) (*RoundRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge round record err : no recorder")
	}
	r0 := r[0]
	s := &RoundRecorder{
		GameName: r0.GameName,
		Bet:      r0.Bet,
		InitBets: r0.InitBets,
		Basic:    &BasicRecord{TotalBet: decimal.Zero, TotalWin: decimal.Zero},
		Dist:     &DistRecord{TotalWinCollect: make([]int, len(r0.Dist.TotalWinCollect))},
		Hits:     r0.Hits.empty(),
		Player:   newPlayerRecord(r0.Bet, r0.InitBets),
	}
	for _, v := range r {
		if v.GameName != r0.GameName {
			return s, errs.NewFatal("merge round record err : different game name")
		}
		if !v.Bet.Equal(r0.Bet) {
			return s, errs.NewFatal("merge round record err : different bet")
		}
		if v.InitBets != r0.InitBets {
			return s, errs.NewFatal("merge round record err : different init bets")
		}
		if len(v.Hits.RuleHits) != len(s.Hits.RuleHits) || len(v.Hits.BonusHits) != len(s.Hits.BonusHits) {
			return s, errs.NewFatal("merge round record err : different win combinations")
		}
		s.Basic.TotalBet = s.Basic.TotalBet.Add(v.Basic.TotalBet)
		s.Basic.TotalWin = s.Basic.TotalWin.Add(v.Basic.TotalWin)
		s.Basic.WinMultSum += v.Basic.WinMultSum
		s.Basic.WinMultSqSum += v.Basic.WinMultSqSum
		s.Basic.NoWinRounds += v.Basic.NoWinRounds
		s.Basic.ComboRounds += v.Basic.ComboRounds
		s.Basic.BonusRounds += v.Basic.BonusRounds
		s.Basic.MultiRounds += v.Basic.MultiRounds
		s.Basic.ExtraRounds += v.Basic.ExtraRounds
		s.Basic.Rounds += v.Basic.Rounds

		// 整合Dist
		for i := range v.Dist.TotalWinCollect {
			s.Dist.TotalWinCollect[i] += v.Dist.TotalWinCollect[i]
		}
		// 整合Hits
		for i := range v.Hits.RuleHits {
			s.Hits.RuleHits[i] += v.Hits.RuleHits[i]
		}
		for i := range v.Hits.BonusHits {
			s.Hits.BonusHits[i] += v.Hits.BonusHits[i]
		}
	}
	return s, nil
}

// Record 以單局 Outcome 更新統計（不含玩家）
func (s *RoundRecorder) Record(o *calc.Outcome) {
	s.recordBasic(o)
	s.recordHits(o)
}

// RecordWithPlayer 在 Record 的基礎上，進一步更新玩家餘額／離場狀態，並回傳玩家是否停止遊戲。
func (s *RoundRecorder) RecordWithPlayer(o *calc.Outcome) bool {
	if s.Player.Balance.LessThan(s.Bet) {
		return true
	}
	s.recordBasic(o)
	s.recordHits(o)
	return s.recordPlayer(o)
}

// Done 輸出統計報表（衍生指標由 StatReport.Done 計算）
func (s *RoundRecorder) Done() *stats.StatReport {
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			GameName:       s.GameName,
			Bet:            s.Bet,
			TotalBet:       s.Basic.TotalBet,
			TotalWin:       s.Basic.TotalWin,
			ComboRounds:    s.Basic.ComboRounds,
			BonusRounds:    s.Basic.BonusRounds,
			MultiplyRounds: s.Basic.MultiRounds,
			ExtraRounds:    s.Basic.ExtraRounds,
			NoWinRounds:    s.Basic.NoWinRounds,
			Rounds:         s.Basic.Rounds,
		},
		Mult: &stats.MultReport{
			TotalWinMult:      s.Basic.WinMultSum,
			TotalWinMultSqSum: s.Basic.WinMultSqSum,
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.WinBucketStr(),
			TotalWinCollect: append([]int(nil), s.Dist.TotalWinCollect...),
		},
		Rules: &stats.HitReport{
			Labels: append([]string(nil), s.Hits.RuleIDs...),
			Counts: append([]int(nil), s.Hits.RuleHits...),
		},
		Bonus: &stats.HitReport{
			Labels: append([]string(nil), s.Hits.BonusIDs...),
			Counts: append([]int(nil), s.Hits.BonusHits...),
		},
	}
	if s.InitBets > 0 {
		report.Player = &stats.PlayerReport{
			InitBalance: s.Player.InitBalance,
			Balance:     s.Player.Balance,
			MaxBalance:  s.Player.MaxBalance,
			MinBalance:  s.Player.MinBalance,
			Bust:        s.Player.Bust,
			Cashout:     s.Player.Cashout,
		}
	}
	return report
}

func (s *RoundRecorder) recordBasic(o *calc.Outcome) {
	b := s.Basic
	b.TotalBet = b.TotalBet.Add(s.Bet)
	b.TotalWin = b.TotalWin.Add(o.Reward)

	m := o.Reward.Div(s.Bet).InexactFloat64()
	b.WinMultSum += m
	b.WinMultSqSum += m * m

	if o.Reward.IsZero() {
		b.NoWinRounds++
	}
	if o.HasWin() {
		b.ComboRounds++
	}
	if o.Bonus != nil {
		switch o.Bonus.Impact {
		case spec.ImpactMultiplyReward:
			b.BonusRounds++
			b.MultiRounds++
		case spec.ImpactExtraBonus:
			b.BonusRounds++
			b.ExtraRounds++
		}
	}
	b.Rounds++

	s.Dist.TotalWinCollect[stats.Buckets.Index(m)]++
}

func (s *RoundRecorder) recordHits(o *calc.Outcome) {
	h := s.Hits
	if o.Applied != nil {
		for _, sym := range o.Applied.Order {
			for _, rule := range o.Applied.Hits[sym] {
				if i, ok := h.ruleIdx[rule]; ok {
					h.RuleHits[i]++
				}
			}
		}
	}
	if o.Bonus != nil {
		if i, ok := h.bonusIdx[o.Bonus.ID]; ok {
			h.BonusHits[i]++
		}
	}
}

func (s *RoundRecorder) recordPlayer(o *calc.Outcome) bool {
	p := s.Player

	// 更新資金
	p.Balance = p.Balance.Sub(s.Bet).Add(o.Reward)

	// 更新歷史最高資產
	if p.Balance.GreaterThan(p.MaxBalance) {
		p.MaxBalance = p.Balance
	}
	// 更新歷史最低資產
	if p.Balance.LessThan(p.MinBalance) {
		p.MinBalance = p.Balance
	}

	// 更新結局
	leave := false
	if p.Balance.LessThan(s.Bet) {
		p.Bust = true
		leave = true
	}
	if p.Balance.GreaterThanOrEqual(p.leaveLine) {
		p.Cashout = true
		leave = true
	}
	return leave
}

func newHitRecord(gs *spec.GameSetting) *HitRecord {
	h := &HitRecord{
		ruleIdx:  make(map[string]int, len(gs.WinCombinations.Rules)),
		bonusIdx: make(map[string]int),
	}
	for i, r := range gs.WinCombinations.Rules {
		h.RuleIDs = append(h.RuleIDs, r.ID)
		h.ruleIdx[r.ID] = i
	}
	for i, e := range gs.Probabilities.BonusSymbols.Symbols {
		h.BonusIDs = append(h.BonusIDs, e.Key)
		h.bonusIdx[e.Key] = i
	}
	h.RuleHits = make([]int, len(h.RuleIDs))
	h.BonusHits = make([]int, len(h.BonusIDs))
	return h
}

// empty 複製標籤與索引，計數歸零
func (h *HitRecord) empty() *HitRecord {
	return &HitRecord{
		RuleIDs:   h.RuleIDs,
		RuleHits:  make([]int, len(h.RuleHits)),
		BonusIDs:  h.BonusIDs,
		BonusHits: make([]int, len(h.BonusHits)),
		ruleIdx:   h.ruleIdx,
		bonusIdx:  h.bonusIdx,
	}
}

func newPlayerRecord(bet decimal.Decimal, initBets int) *PlayerRecord {
	b := bet.Mul(decimal.NewFromInt(int64(initBets))) // 初始帶入總金額(以張數計)

	return &PlayerRecord{
		InitBalance: b,
		Balance:     b,
		MaxBalance:  b,
		MinBalance:  b,
		leaveLine:   b.Mul(decimal.NewFromInt(3)), // 離場條件(3倍本金)
	}
}
