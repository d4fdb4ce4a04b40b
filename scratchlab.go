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

// Package scratchlab 提供刮刮樂引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把兩個必需的地基組裝在一起，並提供建立 Machine / Simulator 的入口：
//  1. Catalog：遊戲目錄，定義有哪些遊戲（game_name）、各自對應的設定檔名稱。
//  2. PRNGFactory：亂數核心工廠，保證可重現（reproducible）與可審計（auditable）。
//
// 設計重點：
//   - Lab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//   - Machine 是開一局的最小單位；同一台 Machine 不應被多個 goroutine 同時使用。
//   - 設定檔在註冊時就完整解析與檢查，錯誤在組裝階段就回報，不會等到開局。
//
// 典型使用：
//
//	lab, _ := scratchlab.NewAuto(scratchlab.Configs(demo_configs.FS))
//	m, _ := lab.NewMachine("classic")
//	rr, _ := m.Play(decimal.NewFromInt(10))
package scratchlab

import (
	"crypto/rand"
	"io/fs"
	"log/slog"
	"math"
	"math/big"
	"strings"

	"github.com/zintix-labs/scratchlab/catalog"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/logger"
	"github.com/zintix-labs/scratchlab/sdk/core"
	"github.com/zintix-labs/scratchlab/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把 configs 直接編進 binary，也可以用 os.DirFS 在本機開發時讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Option 調整 Lab 的組裝選項。
type Option func(*Lab)

// WithLogger 注入 logger；預設靜默。
func WithLogger(l *slog.Logger) Option {
	return func(lab *Lab) {
		if l != nil {
			lab.log = l
		}
	}
}

// WithPRNG 指定亂數核心工廠；預設 PCG64。
func WithPRNG(cf core.PRNGFactory) Option {
	return func(lab *Lab) {
		if cf != nil {
			lab.cf = cf
		}
	}
}

// Lab 是「組裝器（assembler）」與「運行入口（runtime entry）」。
//
// 使用流程分成兩階段：
//   - 註冊/組裝階段：建立 catalog、解析並檢查所有設定檔。
//   - 執行階段：依遊戲名稱產生 Machine 或 Simulator。
type Lab struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
	log *slog.Logger
	gs  map[string]*spec.GameSetting // 註冊時解析好的設定（唯讀）
	sum []catalog.Summary
}

// New 建立一個 Lab instance（尚未註冊任何遊戲）。
func New(cfgs []fs.FS, opts ...Option) (*Lab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	lab := &Lab{
		cat: cata,
		cf:  core.Default(),
		log: logger.Silent(),
		gs:  make(map[string]*spec.GameSetting),
	}
	for _, opt := range opts {
		opt(lab)
	}
	return lab, nil
}

// NewAuto 建立一個直接進入執行階段的 Lab instance：註冊所有設定檔並 Freeze。
func NewAuto(cfgs []fs.FS, opts ...Option) (*Lab, error) {
	lab, err := New(cfgs, opts...)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

// RegisterAll
//
// 依檔名排序掃描所有設定檔（.yaml/.yml/.json，可再加 .zst），解析成 *spec.GameSetting 後批次註冊。
//
//  1. Fail-fast：任何一個檔案讀取/解析失敗都立刻回傳 error。
//  2. 原子性：全部成功才一次性寫入 catalog。
//  3. 無法歸類的中獎規則（永遠不成立）會以 Warn 記錄。
func (l *Lab) RegisterAll() error {
	cfgs := l.cat.Cfg()
	files := cfgs.Files()
	if len(files) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	entries := make([]catalog.Entry, 0, len(files))
	parsed := make(map[string]*spec.GameSetting, len(files))
	seenName := map[string]string{}

	for _, file := range files {
		src, _ := cfgs.GetFS(file)
		gs, err := spec.LoadFS(src, file)
		if err != nil {
			return errs.Wrap(err, "parse game setting failed").With("config", file)
		}
		name := strings.TrimSpace(gs.GameName)
		if name == "" {
			name = catalog.NameFromFile(file)
		}
		key := catalog.NameKey(name)
		if prev, ok := seenName[key]; ok {
			return errs.NewFatal("duplicate game name").With("game", key).With("config", prev+","+file)
		}
		if _, ok := l.cat.GetByName(key); ok {
			return errs.NewFatal("game name already registered").With("game", key).With("config", file)
		}
		seenName[key] = file
		parsed[key] = gs
		entries = append(entries, catalog.Entry{Name: key, ConfigName: file})
	}

	if err := l.cat.Register(entries...); err != nil {
		return err
	}
	for key, gs := range parsed {
		l.gs[key] = gs
		l.warnUnresolved(key, gs)
	}
	l.sum = nil
	return nil
}

func (l *Lab) warnUnresolved(name string, gs *spec.GameSetting) {
	for _, id := range gs.Unresolved() {
		l.log.Warn("win combination never matches: no rule kind resolved", "game", name, "rule", id)
	}
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) Logger() *slog.Logger {
	return l.log
}

func (l *Lab) Names() []string {
	return l.cat.Names()
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

// GameSetting 取得已註冊遊戲的設定（唯讀，請勿修改）。
func (l *Lab) GameSetting(name string) (*spec.GameSetting, error) {
	gs, ok := l.gs[catalog.NameKey(name)]
	if !ok {
		return nil, errs.NewWarn("game not registered").With("game", name)
	}
	return gs, nil
}

// Summary 回傳目錄內所有遊戲的概要（依名稱排序）。
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if l.sum != nil {
		return l.sum, nil
	}
	out := make([]catalog.Summary, 0, len(l.gs))
	for _, e := range l.cat.All() {
		gs := l.gs[e.Name]
		out = append(out, catalog.Summary{
			Name:       e.Name,
			ConfigName: e.ConfigName,
			Columns:    gs.Columns,
			Rows:       gs.Rows,
			Symbols:    len(gs.Symbols.Symbols),
			Rules:      len(gs.WinCombinations.Rules),
			Unresolved: gs.Unresolved(),
		})
	}
	l.sum = out
	return l.sum, nil
}

// NewMachine 依遊戲名稱建立一台 Machine（seed 由 crypto/rand 產生）。
func (l *Lab) NewMachine(name string) (*Machine, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return l.NewMachineWithSeed(name, seed)
}

// NewMachineWithSeed 與 NewMachine 相同，但由呼叫端指定初始 seed。
//
// 同一份設定 + 同一個 seed + 同一個 PRNG 工廠，產生完全相同的局序列。
func (l *Lab) NewMachineWithSeed(name string, seed int64) (*Machine, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := l.GameSetting(name)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(gs, l.cf, seed, l.log)
}

// NewMachineBySetting 以外部載入的設定建立 Machine（例如 --config 指定的檔案）。
func (l *Lab) NewMachineBySetting(gs *spec.GameSetting, seed int64) (*Machine, error) {
	if gs == nil {
		return nil, errs.NewFatal("game setting is nil")
	}
	l.warnUnresolved(gs.GameName, gs)
	return newMachineWithSeed(gs, l.cf, seed, l.log)
}

func (l *Lab) NewSimulator(name string) (*Simulator, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return l.NewSimulatorWithSeed(name, seed)
}

func (l *Lab) NewSimulatorWithSeed(name string, seed int64) (*Simulator, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := l.GameSetting(name)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(gs, l.cf, seed, l.log)
}

// NewSimulatorBySetting 以外部載入的設定建立 Simulator。
func (l *Lab) NewSimulatorBySetting(gs *spec.GameSetting, seed int64) (*Simulator, error) {
	if gs == nil {
		return nil, errs.NewFatal("game setting is nil")
	}
	l.warnUnresolved(gs.GameName, gs)
	return newSimulatorWithSeed(gs, l.cf, seed, l.log)
}

// NewDevSimulator 建立審計用模擬器（單線、每局附帶快照）。
func (l *Lab) NewDevSimulator(name string, seed int64) (*DevSimulator, error) {
	s, err := l.NewSimulatorWithSeed(name, seed)
	if err != nil {
		return nil, err
	}
	return newDevSimulator(s), nil
}

// cryptoSeed 對外服務情境避免可預測的起點；seed 仍會記錄在 Machine 上以便追溯。
func cryptoSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return seed.Int64(), nil
}
