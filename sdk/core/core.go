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

// Package core 定義刮刮樂引擎使用的亂數來源合約與預設實作。
//
// 每一台 Machine 擁有自己的 Core（不共用），因此同一局內的所有抽樣
// （盤面每格一次、Bonus 一次）都從同一條可重現的亂數流取得。
package core

import (
	"math"

	"github.com/zintix-labs/scratchlab/errs"
)

// Uniform 是抽樣所需的最小能力：回傳 [0,1) 的均勻亂數。
//
// 測試時可直接注入固定序列（見 Scripted），不需要實作完整 PRNG。
type Uniform interface {
	Float64() float64
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原內部狀態。
	Restore([]byte) error
}

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	Uniform
	Restorable
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// PRNGFactory 以 seed 建立 PRNG。
//
// 合約：同一實作、同一版本下 New(seed) 必須是決定性的，
// 相同 seed 產生相同的輸出序列（回放與審計依賴這一點）。
type PRNGFactory interface {
	New(int64) PRNG
}

// DefaultPRNG 預設工廠，產生 PCG64。
type DefaultPRNG struct{}

func (d *DefaultPRNG) New(seed int64) PRNG {
	return NewPCG64(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// PCG32PRNG 產生 32-bit 輸出的 PCG32，給需要對齊 32-bit 平台序列的場合。
type PCG32PRNG struct{}

func (p *PCG32PRNG) New(seed int64) PRNG {
	return NewPCG32(seed)
}

// FactoryByName 依名稱取得工廠："pcg64"（預設，空字串同義）或 "pcg32"。
func FactoryByName(name string) (PRNGFactory, error) {
	switch name {
	case "", "pcg64":
		return Default(), nil
	case "pcg32":
		return &PCG32PRNG{}, nil
	default:
		return nil, errs.NewWarn("unknown prng").With("prng", name)
	}
}

// Core 封裝 PRNG；一台 Machine 一個 Core，不跨 goroutine 共用。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// FromUniform 把只會產生 [0,1) 的來源包裝成完整 PRNG。
//
// IntN 以 floor(u*n) 推導；Uint64 以 53-bit 精度推導。
// 若來源本身實作 Restorable，快照/還原會直接委派。
func FromUniform(u Uniform) PRNG {
	return &uniformPRNG{u: u}
}

type uniformPRNG struct {
	u Uniform
}

func (p *uniformPRNG) Float64() float64 {
	return clampUnit(p.u.Float64())
}

func (p *uniformPRNG) Uint64() uint64 {
	return uint64(p.Float64()*(1<<53)) << 11
}

func (p *uniformPRNG) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	v := int(p.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

func (p *uniformPRNG) Snapshot() ([]byte, error) {
	if r, ok := p.u.(Restorable); ok {
		return r.Snapshot()
	}
	return nil, errs.NewWarn("uniform source is not restorable")
}

func (p *uniformPRNG) Restore(b []byte) error {
	if r, ok := p.u.(Restorable); ok {
		return r.Restore(b)
	}
	return errs.NewWarn("uniform source is not restorable")
}

var almostOne = math.Nextafter(1, 0)

// clampUnit 把值壓回 [0,1)，NaN 視為 0。
func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v >= 1 {
		return almostOne
	}
	return v
}
