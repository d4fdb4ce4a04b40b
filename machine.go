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
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/dto"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/logger"
	"github.com/zintix-labs/scratchlab/sdk/calc"
	"github.com/zintix-labs/scratchlab/sdk/core"
	"github.com/zintix-labs/scratchlab/sdk/gen"
	"github.com/zintix-labs/scratchlab/spec"
)

// Machine 封裝一台「可對外開局」的刮刮樂機台。
//
//   - 對外：提供 Play / PlayRequest 入口。
//   - 對內：持有 RNG（Core）、盤面生成器與規則計算器。
//
// 並發語意：
//   - 同一台 Machine 不應被多 goroutine 同時使用；Play 內有鎖防誤用。
//   - 若要併發模擬，由 Simulator 建立多台 Machine 分散到不同 worker。
//
// 一局的流程固定：檢查下注 -> 產生盤面 -> 判斷規則 -> 計算小計 -> 抽 bonus -> 組裝結果。
// 沒有重試，任何錯誤都不會回傳部分結果。
type Machine struct {
	gameName string                 // 遊戲名稱（來自 GameSetting.GameName，主要用於觀測/日誌）
	gs       *spec.GameSetting      // 唯讀設定
	core     *core.Core             // RNG 核心（盤面每格一次、bonus 一次）
	gen      *gen.MatrixGenerator   // 盤面生成器（綁定 core）
	calc     *calc.MatrixCalculator // 規則判斷
	mu       sync.Mutex             // 防併發鎖：保護核心狀態一致性
	initseed int64                  // 出生 seed（便於追溯；完整重現請用 Snapshot/Restore）
	log      *slog.Logger
}

// NewMachine 以外部注入的 PRNG 建立 Machine。
//
// 測試時可注入 core.FromUniform(core.NewScripted(...)) 控制每一次抽樣。
func NewMachine(gs *spec.GameSetting, rng core.PRNG) (*Machine, error) {
	if rng == nil {
		return nil, errs.NewFatal("prng is nil")
	}
	return newMachineWithCore(gs, core.New(rng), 0, nil)
}

// newMachineWithSeed 以指定 seed 建立 Machine。
//
// 同一份 GameSetting + 同一個 seed，得到一致的隨機序列（取決於 PRNG 實作）。
func newMachineWithSeed(gs *spec.GameSetting, cf core.PRNGFactory, seed int64, log *slog.Logger) (*Machine, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	return newMachineWithCore(gs, core.New(cf.New(seed)), seed, log)
}

func newMachineWithCore(gs *spec.GameSetting, c *core.Core, seed int64, log *slog.Logger) (*Machine, error) {
	if gs == nil {
		return nil, errs.NewFatal("game setting is nil")
	}
	if log == nil {
		log = logger.Silent()
	}
	return &Machine{
		gameName: gs.GameName,
		gs:       gs,
		core:     c,
		gen:      gen.NewMatrixGenerator(c, gs),
		calc:     calc.NewMatrixCalculator(gs),
		initseed: seed,
		log:      log,
	}, nil
}

// Play 為主要公開入口：檢查下注並開一局，回傳對外結果。
//
// 下注金額 <= 0 時回傳 Warn 等級錯誤，且不會消耗任何亂數。
func (m *Machine) Play(bet decimal.Decimal) (dto.RoundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := dto.ValidBet(bet); err != nil {
		return dto.RoundResult{}, err
	}
	o, err := m.play(bet)
	if err != nil {
		logger.LogErr(m.log, "round aborted", err, "game", m.gameName)
		return dto.RoundResult{}, err
	}
	return dto.NewRoundResultDTO(o)
}

// PlayRequest 以請求開局，並附上開局前/結束後的 PRNG 快照。
//
// 請求帶有 start_state 時為回放：先還原到該快照開局，結束後機台退回原本的亂數流。
func (m *Machine) PlayRequest(r *dto.RoundRequest) (dto.RoundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r == nil {
		return dto.RoundResult{}, errs.NewWarn("round request is nil")
	}
	// 1. 校驗請求合法性
	bet, startSnap, err := r.Parse()
	if err != nil {
		return dto.RoundResult{}, err
	}

	// 2. get start snapshot
	rem, err := m.core.Snapshot()
	if err != nil {
		return dto.RoundResult{}, errs.Wrap(err, "before snapshot error")
	}
	replay := len(startSnap) != 0
	if replay {
		if err := m.core.Restore(startSnap); err != nil {
			return dto.RoundResult{}, errs.Wrap(err, "restore core err")
		}
	} else {
		startSnap = rem
	}

	// 3. play
	o, perr := m.play(bet)

	// 4. get after snapshot
	after, serr := m.core.Snapshot()

	// 5. restore if needed
	if replay {
		if err := m.core.Restore(rem); err != nil {
			return dto.RoundResult{}, errs.Wrap(err, "restore core back err")
		}
	}
	if perr != nil {
		logger.LogErr(m.log, "round aborted", perr, "game", m.gameName)
		return dto.RoundResult{}, perr
	}
	if serr != nil {
		return dto.RoundResult{}, errs.Wrap(serr, "after snapshot error")
	}

	// 6. dto
	rr, err := dto.NewRoundResultDTO(o)
	if err != nil {
		return dto.RoundResult{}, err
	}
	rr.WithState(startSnap, after)
	return rr, nil
}

// PlayInternal 直接取得內部 Outcome；用於模擬器或測試
//
// 跳過鎖與下注檢查，呼叫端須自行保證 bet > 0 且不併發使用
func (m *Machine) PlayInternal(bet decimal.Decimal) (*calc.Outcome, error) {
	return m.play(bet)
}

func (m *Machine) play(bet decimal.Decimal) (*calc.Outcome, error) {
	// 1. 盤面
	matrix, err := m.gen.GenMatrix()
	if err != nil {
		return nil, errs.Wrap(err, "generate matrix failed")
	}
	// 2. 規則
	applied, err := m.calc.EvaluateAll(matrix)
	if err != nil {
		return nil, errs.Wrap(err, "evaluate combinations failed")
	}
	// 3. 小計
	sub, err := calc.Subtotal(applied, &m.gs.Symbols, bet)
	if err != nil {
		return nil, err
	}
	// 4. bonus（即使小計為 0 也會抽）
	bonus, err := calc.PickBonus(m.gs.Probabilities.BonusSymbols.Symbols, &m.gs.Symbols, m.core)
	if err != nil {
		return nil, err
	}
	return &calc.Outcome{
		Bet:      bet,
		Matrix:   matrix,
		Applied:  applied,
		Subtotal: sub,
		Bonus:    bonus,
		Reward:   calc.ApplyBonus(sub, bonus),
	}, nil
}

func (m *Machine) GameName() string { return m.gameName }

// Setting 回傳唯讀設定。
func (m *Machine) Setting() *spec.GameSetting { return m.gs }

func (m *Machine) InitSeed() int64 { return m.initseed }

// SnapshotCore 取得 Core 狀態暫存
func (m *Machine) SnapshotCore() ([]byte, error) {
	return m.core.Snapshot()
}

// RestoreCore 恢復 Core 狀態暫存
func (m *Machine) RestoreCore(src []byte) error {
	return m.core.Restore(src)
}
