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
	"strings"
	"testing"

	"github.com/zintix-labs/scratchlab/demo/demo_configs"
	"github.com/zintix-labs/scratchlab/sdk/core"
	"github.com/zintix-labs/scratchlab/spec"
)

// gridTables 測試用：grid[row][col] 直接給權重表
type gridTables [][]spec.WeightTable

func (g gridTables) Cell(row, col int) spec.WeightTable {
	if row >= len(g) || col >= len(g[row]) {
		return nil
	}
	return g[row][col]
}

func uniformGrid(rows, cols int, wt spec.WeightTable) gridTables {
	g := make(gridTables, rows)
	for r := range g {
		g[r] = make([]spec.WeightTable, cols)
		for c := range g[r] {
			g[r][c] = wt
		}
	}
	return g
}

func TestGenerateScripted(t *testing.T) {
	wt := spec.WeightTable{{Key: "A", Weight: 1}, {Key: "B", Weight: 1}}
	src := core.NewScripted(0, 0.9, 0.9, 0)

	m, err := Generate(2, 2, uniformGrid(2, 2, wt), src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	want := Matrix{{"A", "B"}, {"B", "A"}}
	for r := range want {
		for c := range want[r] {
			if m[r][c] != want[r][c] {
				t.Fatalf("cell %d:%d expected %s, got %s", r, c, want[r][c], m[r][c])
			}
		}
	}
	if src.Drawn() != 4 {
		t.Fatalf("expected exactly one draw per cell, got %d", src.Drawn())
	}
}

func TestGenerateShapeAndMembership(t *testing.T) {
	g := uniformGrid(3, 4, spec.WeightTable{{Key: "A", Weight: 1}, {Key: "B", Weight: 2}, {Key: "C", Weight: 3}})
	g[1][2] = spec.WeightTable{{Key: "Z", Weight: 5}}
	c := core.New(core.Default().New(7))

	for i := 0; i < 200; i++ {
		m, err := Generate(3, 4, g, c)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if m.Rows() != 3 || m.Cols() != 4 {
			t.Fatalf("unexpected shape %dx%d", m.Rows(), m.Cols())
		}
		for r := 0; r < 3; r++ {
			for col := 0; col < 4; col++ {
				if !g[r][col].Has(m[r][col]) {
					t.Fatalf("cell %d:%d symbol %s not in its table", r, col, m[r][col])
				}
			}
		}
		if m[1][2] != "Z" {
			t.Fatalf("single entry cell must always be Z")
		}
	}
}

func TestGenerateMissingCell(t *testing.T) {
	g := uniformGrid(2, 2, spec.WeightTable{{Key: "A", Weight: 1}})
	g[1][0] = nil
	_, err := Generate(2, 2, g, core.NewScripted(0.5))
	if err == nil {
		t.Fatalf("expected missing cell error")
	}
	if !strings.Contains(err.Error(), "cell=1:0") {
		t.Fatalf("error should name the coordinate: %v", err)
	}
	if _, err := Generate(0, 2, g, core.NewScripted(0.5)); err == nil {
		t.Fatalf("expected invalid dimension error")
	}
}

func TestMatrixHelpers(t *testing.T) {
	m := Matrix{{"A", "B"}, {"C", "D"}}
	if s, ok := m.At(spec.Coord{Row: 1, Column: 0}); !ok || s != "C" {
		t.Fatalf("unexpected At result %q %v", s, ok)
	}
	if _, ok := m.At(spec.Coord{Row: 2, Column: 0}); ok {
		t.Fatalf("out of range At should fail")
	}
	cp := m.Clone()
	cp[0][0] = "X"
	if m[0][0] != "A" {
		t.Fatalf("clone must not share rows")
	}
	if (Matrix{}).Cols() != 0 {
		t.Fatalf("empty matrix has no columns")
	}
}

func TestMatrixGeneratorDeterministic(t *testing.T) {
	gs, err := spec.LoadFS(demo_configs.FS, demo_configs.Default)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	a := NewMatrixGenerator(core.New(core.Default().New(99)), gs)
	b := NewMatrixGenerator(core.New(core.Default().New(99)), gs)
	for i := 0; i < 50; i++ {
		ma, err := a.GenMatrix()
		if err != nil {
			t.Fatal(err)
		}
		mb, err := b.GenMatrix()
		if err != nil {
			t.Fatal(err)
		}
		for r := range ma {
			for c := range ma[r] {
				if ma[r][c] != mb[r][c] {
					t.Fatalf("round %d diverged at %d:%d", i, r, c)
				}
			}
		}
	}
}
