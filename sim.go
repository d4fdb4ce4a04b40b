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
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/dto"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/recorder"
	"github.com/zintix-labs/scratchlab/sdk/core"
	"github.com/zintix-labs/scratchlab/spec"
	"github.com/zintix-labs/scratchlab/stats"
)

const capPrepare int = 100

// Simulator 用於大量模擬獨立的局，可建立多台機台並平行紀錄統計。
type Simulator struct {
	GameName  string                    // 遊戲名稱
	gs        *spec.GameSetting         // 方便重用建立 RoundRecorder
	cf        core.PRNGFactory          // 亂數生成器
	initSeed  int64                     // 初始下的種子
	seedmaker *seedMaker                // 種子生成器
	log       *slog.Logger              // 日誌
	mBuf      []*Machine                // 併發執行機台實例
	rBuf      []*recorder.RoundRecorder // 併發遊戲紀錄員
	sBuf      []*stats.StatReport       // 併發統計結果報表(僅Players需要)
}

func newSimulatorWithSeed(gs *spec.GameSetting, cf core.PRNGFactory, seed int64, log *slog.Logger) (*Simulator, error) {
	s := &Simulator{
		GameName:  gs.GameName,
		gs:        gs,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		log:       log,
		mBuf:      make([]*Machine, 1, capPrepare),
		rBuf:      make([]*recorder.RoundRecorder, 0, capPrepare),
		sBuf:      make([]*stats.StatReport, 0, capPrepare),
	}
	m, err := newMachineWithSeed(gs, cf, s.initSeed, log)
	if err != nil {
		return nil, err
	}
	s.mBuf[0] = m
	return s, nil
}

// Machine 回傳單線模擬使用的機台（與 Sim 共用亂數流）。
func (s *Simulator) Machine() *Machine {
	return s.mBuf[0]
}

// Sim 單線模擬器：以一台機台連續跑指定 round 並回傳統計結果與用時
func (s *Simulator) Sim(bet decimal.Decimal, round int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if err := dto.ValidBet(bet); err != nil {
		return nil, 0, err
	}
	if round < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	r, err := recorder.NewRoundRecorder(s.gs, bet, 0)
	if err != nil {
		return nil, 0, err
	}
	m := s.mBuf[0]

	bar := newBar(round, showpb)
	for i := 0; i < round; i++ {
		o, err := m.PlayInternal(bet)
		if err != nil {
			bar.Finish()
			return nil, 0, err
		}
		r.Record(o)
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// SimMP 平行執行多個機台，總計 rounds*mp 局，合併統計結果後 回傳統計結果與用時
func (s *Simulator) SimMP(bet decimal.Decimal, rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if err := dto.ValidBet(bet); err != nil {
		return nil, 0, err
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if err := s.prepareMachines(mp); err != nil {
		return nil, 0, err
	}
	for len(s.rBuf) < mp {
		r, err := recorder.NewRoundRecorder(s.gs, bet, 0)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := newBar(rounds*mp, showpb)
	firstErr := new(firstError)
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			g := s.mBuf[i]
			st := s.rBuf[i]
			for r := 0; r < rounds; r++ {
				o, err := g.PlayInternal(bet)
				if err != nil {
					firstErr.set(err)
					return
				}
				st.Record(o)
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err := firstErr.get(); err != nil {
		return nil, 0, err
	}

	st, err := recorder.MergeRoundRecorder(s.rBuf)
	if err != nil {
		return nil, 0, err
	}
	result := st.Done()
	result.Done()

	return result, used, nil
}

// SimPlayers 模擬多個玩家各自帶入 initBets 張的本金購買彩券，並產出機台報表與玩家報表。
//
// 玩家在本金不足一張、贏到 3 倍本金、或買滿 rounds 張時離場。
func (s *Simulator) SimPlayers(mp int, players int, initBets int, bet decimal.Decimal, rounds int, showpb bool) (*stats.StatReport, *stats.EstimatorPlayers, time.Duration, error) {
	defer s.reset()
	if players < 1 || initBets < 1 || rounds < 1 || mp < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}
	if err := dto.ValidBet(bet); err != nil {
		return nil, nil, 0, err
	}

	// 準備並行機台
	if err := s.prepareMachines(mp); err != nil {
		return nil, nil, 0, err
	}

	// 準備玩家
	s.sBuf = make([]*stats.StatReport, players)
	for len(s.rBuf) < players {
		r, err := recorder.NewRoundRecorder(s.gs, bet, initBets)
		if err != nil {
			return nil, nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	// 作一個緩衝channel 使player依序處理
	jobs := make(chan *recorder.RoundRecorder, 2048)

	wg := new(sync.WaitGroup)
	wg.Add(mp)

	bar := newBar(players, showpb)
	firstErr := new(firstError)
	for w := 0; w < mp; w++ {
		go simPlayer(wg, s.mBuf[w], jobs, bet, rounds, bar, firstErr)
	}

	// 塞進玩家，開始模擬
	for _, j := range s.rBuf {
		jobs <- j
	}
	close(jobs) // 玩家送完關閉通道，通知所有機台不會再有新資料
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err := firstErr.get(); err != nil {
		return nil, nil, 0, err
	}

	// 機台基準報表
	record, err := recorder.MergeRoundRecorder(s.rBuf)
	if err != nil {
		return nil, nil, 0, err
	}
	st := record.Done()
	st.Player = nil // 合併後的報表不代表任何單一玩家
	st.Done()

	// 玩家分析報表
	for i, r := range s.rBuf {
		s.sBuf[i] = r.Done()
		s.sBuf[i].Done()
	}
	est := stats.EstimatorPlayerExp(s.sBuf)
	return st, est, used, nil
}

func simPlayer(wg *sync.WaitGroup, m *Machine, jobs chan *recorder.RoundRecorder, bet decimal.Decimal, rounds int, bar *pb.ProgressBar, firstErr *firstError) {
	defer wg.Done()
	for j := range jobs {
		// 已有錯誤時只消化剩下的玩家，不再開局
		if firstErr.get() != nil {
			bar.Increment()
			continue
		}
		for range rounds {
			o, err := m.PlayInternal(bet)
			if err != nil {
				firstErr.set(err)
				break
			}
			if j.RecordWithPlayer(o) {
				break
			}
		}
		bar.Increment()
	}
}

// firstError 保存併發工作中第一個發生的錯誤
type firstError struct {
	mu  sync.Mutex
	err error
}

func (f *firstError) set(err error) {
	f.mu.Lock()
	if f.err == nil {
		f.err = err
	}
	f.mu.Unlock()
}

func (f *firstError) get() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (s *Simulator) prepareMachines(mp int) error {
	for len(s.mBuf) < mp {
		m, err := newMachineWithSeed(s.gs, s.cf, s.seedmaker.next(), s.log)
		if err != nil {
			return err
		}
		s.mBuf = append(s.mBuf, m)
	}
	return nil
}

func newBar(total int, show bool) *pb.ProgressBar {
	bar := pb.StartNew(total)
	if !show {
		bar.SetWriter(io.Discard)
	}
	return bar
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 注意：此方法可能在併發環境下被多 goroutines 同時呼叫。
// state 的推進以 CAS 迴圈確保每次呼叫都會取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
