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

// Package sampler 提供刮刮樂使用的加權抽樣（輪盤法）。
//
// 演算法原理：
//   - 依權重表的「文件順序」走訪並累加權重。
//   - 抽一個落在總權重範圍內的值，回傳第一個累積和 >= 該值的項目。
//
// 特性：
//   - 建表時間：無（直接使用有序權重表）
//   - 抽樣時間：O(n)，n 為項目數；刮刮樂每格通常只有個位數符號。
//   - 結果只取決於亂數序列與權重表順序，因此可重現。
//
// 兩種形式：
//   - Roulette：浮點版，u ∈ [0,total)，盤面每格使用。
//   - RouletteInt：整數版，d ∈ [1,total]，無偏差，Bonus 使用。
package sampler

import (
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/sdk/core"
	"github.com/zintix-labs/scratchlab/spec"
)

// IntSource 整數版輪盤所需的能力。
type IntSource interface {
	// IntN 回傳 [0,n) 的均勻整數。
	IntN(n int) int
}

// Roulette 浮點版輪盤抽樣。
//
// 舉例：權重 [A:1, B:2, C:3]，總和 6
//
//	u ∈ [0,1] -> A；u ∈ (1,3] -> B；u ∈ (3,6) -> C
//
// 浮點誤差導致沒有任何項目命中時，回傳第一個項目。
func Roulette(u core.Uniform, wt spec.WeightTable) (string, error) {
	total, err := checkTable(wt)
	if err != nil {
		return "", err
	}
	x := u.Float64() * float64(total)
	acc := 0
	for _, e := range wt {
		acc += e.Weight
		if float64(acc) >= x {
			return e.Key, nil
		}
	}
	return wt[0].Key, nil
}

// RouletteInt 整數版輪盤抽樣，d = IntN(total)+1 ∈ [1,total]。
//
// 每個項目被選中的機率恰為 weight/total。
func RouletteInt(r IntSource, wt spec.WeightTable) (string, error) {
	total, err := checkTable(wt)
	if err != nil {
		return "", err
	}
	d := r.IntN(total) + 1
	acc := 0
	for _, e := range wt {
		acc += e.Weight
		if acc >= d {
			return e.Key, nil
		}
	}
	return wt[0].Key, nil
}

func checkTable(wt spec.WeightTable) (int, error) {
	if len(wt) == 0 {
		return 0, errs.NewFatal("empty weight table")
	}
	total := wt.Total()
	if total <= 0 {
		return 0, errs.NewFatal("total weight must be positive").With("total", total)
	}
	return total, nil
}
