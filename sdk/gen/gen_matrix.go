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

package gen

import (
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/sdk/core"
	"github.com/zintix-labs/scratchlab/sdk/sampler"
	"github.com/zintix-labs/scratchlab/spec"
)

// Matrix rows x columns 的符號盤面，Matrix[row][col] 為符號 id。
type Matrix [][]string

// Rows 列數
func (m Matrix) Rows() int { return len(m) }

// Cols 行數（以第 0 列為準）
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// At 取得座標上的符號；越界回傳 false。
func (m Matrix) At(c spec.Coord) (string, bool) {
	if c.Row < 0 || c.Row >= len(m) || c.Column < 0 || c.Column >= len(m[c.Row]) {
		return "", false
	}
	return m[c.Row][c.Column], true
}

// Clone 深拷貝
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for r := range m {
		out[r] = append([]string(nil), m[r]...)
	}
	return out
}

// CellTables 提供每一格的權重表（spec.ProbabilitySetting 即實作此介面）。
type CellTables interface {
	Cell(row, col int) spec.WeightTable
}

// Generate 逐格以輪盤法抽出符號，走訪順序為 row-major。
//
// 任何一格缺少權重表（或表為空）都是設定錯誤，錯誤會帶上該格座標。
func Generate(rows, cols int, cells CellTables, u core.Uniform) (Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errs.NewFatal("invalid matrix dimensions").With("rows", rows).With("cols", cols)
	}
	m := make(Matrix, rows)
	for r := 0; r < rows; r++ {
		m[r] = make([]string, cols)
		for c := 0; c < cols; c++ {
			wt := cells.Cell(r, c)
			if len(wt) == 0 {
				return nil, errs.NewFatal("missing probability table for cell").With("cell", spec.Coord{Row: r, Column: c})
			}
			key, err := sampler.Roulette(u, wt)
			if err != nil {
				return nil, errs.Wrap(err, "sample cell failed").With("cell", spec.Coord{Row: r, Column: c})
			}
			m[r][c] = key
		}
	}
	return m, nil
}

// MatrixGenerator 綁定一台機台的 Core 與設定，重複產生盤面。
type MatrixGenerator struct {
	core  *core.Core
	Rows  int
	Cols  int
	cells CellTables
}

// NewMatrixGenerator 依已初始化的 GameSetting 建立生成器。
func NewMatrixGenerator(c *core.Core, gs *spec.GameSetting) *MatrixGenerator {
	return &MatrixGenerator{
		core:  c,
		Rows:  gs.Rows,
		Cols:  gs.Columns,
		cells: &gs.Probabilities,
	}
}

// GenMatrix 產生一個新的盤面（每局一份，不重用）。
func (mg *MatrixGenerator) GenMatrix() (Matrix, error) {
	return Generate(mg.Rows, mg.Cols, mg.cells, mg.core)
}
