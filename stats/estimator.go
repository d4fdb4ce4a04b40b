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

package stats

import (
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

const confidence = 0.95

var (
	// 玩家體驗分位：最差 10% / 33% / 67% / 90% 的玩家拿到的 RTP
	expQuantiles = []float64{0.10, 1.0 / 3.0, 2.0 / 3.0, 0.90}
	// RTP 門檻：有多少比例的玩家 RTP 不超過該值
	rtpThresholds = []float64{0.30, 0.50, 0.70, 1.00}
)

// EstimatorPlayers 多玩家刮卡體驗評估
//
// 每位玩家一份 StatReport（SimPlayers 產生），以玩家為樣本單位做點估計與 95% CI。
type EstimatorPlayers struct {
	Players     int
	RtpStat     RtpStat
	EventStat   EventStat
	SessionStat SessionStat
}

// PointStat 點估計與信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// RtpStat 玩家 RTP 分布
type RtpStat struct {
	Median     PointStat
	Quantiles  []QuantileStat
	Thresholds []ThresholdStat
}

// QuantileStat 第 Q 分位玩家的 RTP
type QuantileStat struct {
	Q float64
	PointStat
}

// ThresholdStat RTP ≤ Rtp 的玩家比例
type ThresholdStat struct {
	Rtp float64
	PointStat
}

// EventStat 每位玩家遇到各事件的次數分布
type EventStat struct {
	Multiply EventCount    // 抽中 MULTIPLY_REWARD bonus 的張數
	Extra    EventCount    // 抽中 EXTRA_BONUS bonus 的張數
	Rules    LabeledEvents // 各中獎規則成立次數
	Buckets  LabeledEvents // 各贏倍區間落點次數
}

// EventCount 玩家中 0 / 1 / 2 / 3 次以上的比例
type EventCount struct {
	Zero PointStat
	One  PointStat
	Two  PointStat
	More PointStat
}

// LabeledEvents 依標籤順序的 EventCount
type LabeledEvents struct {
	Labels []string
	Counts []EventCount
}

// SessionStat 離場結局
type SessionStat struct {
	Bust    PointStat // 破產
	Cashout PointStat // 贏滿離場
	Alive   PointStat // 刮完所有卡
}

// EstimatorPlayerExp 由每位玩家的統計報告估計整體玩家體驗
//
// 規則與 bonus 的標籤取自第一份報告；同一次 SimPlayers 產生的報告標籤一致。
func EstimatorPlayerExp(sts []*StatReport) *EstimatorPlayers {
	n := len(sts)
	out := &EstimatorPlayers{Players: n}
	if n == 0 {
		return out
	}

	rtp := make([]float64, n)
	for i, s := range sts {
		rtp[i] = s.Rtp()
	}
	slices.Sort(rtp)
	out.RtpStat.Median = quantile(rtp, 0.5)
	for _, q := range expQuantiles {
		out.RtpStat.Quantiles = append(out.RtpStat.Quantiles, QuantileStat{Q: q, PointStat: quantile(rtp, q)})
	}
	for _, x := range rtpThresholds {
		k := 0
		for k < n && rtp[k] <= x {
			k++
		}
		out.RtpStat.Thresholds = append(out.RtpStat.Thresholds, ThresholdStat{Rtp: x, PointStat: proportion(k, n)})
	}

	out.EventStat.Multiply = countEvents(sts, func(s *StatReport) int { return s.Summary.MultiplyRounds })
	out.EventStat.Extra = countEvents(sts, func(s *StatReport) int { return s.Summary.ExtraRounds })
	if r := sts[0].Rules; r != nil {
		out.EventStat.Rules = labeledEvents(sts, r.Labels, func(s *StatReport, i int) int {
			if s.Rules == nil || i >= len(s.Rules.Counts) {
				return 0
			}
			return s.Rules.Counts[i]
		})
	}
	out.EventStat.Buckets = labeledEvents(sts, Buckets.WinBucketStr(), func(s *StatReport, i int) int {
		if s.Dist == nil || i >= len(s.Dist.TotalWinCollect) {
			return 0
		}
		return s.Dist.TotalWinCollect[i]
	})

	var bust, cash, alive int
	for _, s := range sts {
		switch {
		case s.Player == nil:
		case s.Player.Bust:
			bust++
		case s.Player.Cashout:
			cash++
		case s.Player.Alive:
			alive++
		}
	}
	out.SessionStat = SessionStat{
		Bust:    proportion(bust, n),
		Cashout: proportion(cash, n),
		Alive:   proportion(alive, n),
	}
	return out
}

func countEvents(sts []*StatReport, times func(*StatReport) int) EventCount {
	var c [4]int
	for _, s := range sts {
		c[min(max(times(s), 0), 3)]++
	}
	n := len(sts)
	return EventCount{
		Zero: proportion(c[0], n),
		One:  proportion(c[1], n),
		Two:  proportion(c[2], n),
		More: proportion(c[3], n),
	}
}

func labeledEvents(sts []*StatReport, labels []string, times func(*StatReport, int) int) LabeledEvents {
	le := LabeledEvents{
		Labels: append([]string(nil), labels...),
		Counts: make([]EventCount, len(labels)),
	}
	for i := range labels {
		le.Counts[i] = countEvents(sts, func(s *StatReport) int { return times(s, i) })
	}
	return le
}

// proportion k/n 與 Clopper–Pearson 精確區間
func proportion(k, n int) PointStat {
	if n == 0 {
		return PointStat{CI: CI{Lo: 0, Hi: 1}}
	}
	alpha := 1 - confidence
	ps := PointStat{Hat: float64(k) / float64(n), CI: CI{Lo: 0, Hi: 1}}
	if k > 0 {
		ps.CI.Lo = distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}.Quantile(alpha / 2)
	}
	if k < n {
		ps.CI.Hi = distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}.Quantile(1 - alpha/2)
	}
	return ps
}

// quantile 最近秩點估計；CI 以秩的二項分布反推 p 範圍後換回樣本值。sorted 需已排序。
func quantile(sorted []float64, q float64) PointStat {
	n := len(sorted)
	if n == 0 {
		return PointStat{}
	}
	at := func(i int) float64 { return sorted[min(max(i, 0), n-1)] }
	hat := at(int(q * float64(n)))
	if n < 2 {
		return PointStat{Hat: hat, CI: CI{Lo: hat, Hi: hat}}
	}

	k := min(max(int(q*float64(n)), 1), n-1)
	alpha := 1 - confidence
	pLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}.Quantile(alpha / 2)
	pHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}.Quantile(1 - alpha/2)
	return PointStat{
		Hat: hat,
		CI:  CI{Lo: at(int(pLo * float64(n))), Hi: at(int(pHi*float64(n)) - 1)},
	}
}
