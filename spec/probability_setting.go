package spec

import (
	"github.com/zintix-labs/scratchlab/errs"
)

// CellProbability 單一格子的 standard 符號權重表。
type CellProbability struct {
	Column  int         `yaml:"column"  json:"column"`
	Row     int         `yaml:"row"     json:"row"`
	Symbols WeightTable `yaml:"symbols" json:"symbols"`
}

// BonusProbability 與位置無關的 bonus 符號權重表。
type BonusProbability struct {
	Symbols WeightTable `yaml:"symbols" json:"symbols"`
}

// ProbabilitySetting 對應設定檔的 probabilities 區塊。
//
// Init 之後 Grid[row][col] 指向該格的權重表（每格恰好一個）。
type ProbabilitySetting struct {
	StandardSymbols []CellProbability `yaml:"standard_symbols" json:"standard_symbols"`
	BonusSymbols    BonusProbability  `yaml:"bonus_symbols"    json:"bonus_symbols"`
	Grid            [][]WeightTable   `yaml:"-"                json:"-"`
}

// Init 依盤面尺寸建立 Grid，並檢查符號引用。
func (ps *ProbabilitySetting) Init(screen *ScreenSetting, symbols *SymbolSetting) error {
	ps.Grid = make([][]WeightTable, screen.Rows)
	for r := range ps.Grid {
		ps.Grid[r] = make([]WeightTable, screen.Columns)
	}

	for _, cp := range ps.StandardSymbols {
		coord := Coord{Row: cp.Row, Column: cp.Column}
		if !screen.Contains(coord) {
			return errs.NewFatal("probability cell out of range").With("cell", coord)
		}
		if ps.Grid[cp.Row][cp.Column] != nil {
			return errs.NewFatal("duplicate probability cell").With("cell", coord)
		}
		if err := cp.Symbols.Valid(); err != nil {
			return errs.Wrap(err, "invalid cell weight table").With("cell", coord)
		}
		for _, e := range cp.Symbols {
			s, ok := symbols.Get(e.Key)
			if !ok {
				return errs.NewFatal("unknown symbol in cell weight table").With("cell", coord).With("symbol", e.Key)
			}
			if !s.IsStandard() {
				return errs.NewFatal("bonus symbol in standard cell weight table").With("cell", coord).With("symbol", e.Key)
			}
		}
		ps.Grid[cp.Row][cp.Column] = cp.Symbols
	}

	for r := range ps.Grid {
		for c := range ps.Grid[r] {
			if ps.Grid[r][c] == nil {
				return errs.NewFatal("missing probability cell").With("cell", Coord{Row: r, Column: c})
			}
		}
	}

	// bonus 表允許為空：此時每局不抽 bonus
	bonus := ps.BonusSymbols.Symbols
	if len(bonus) > 0 {
		if err := bonus.Valid(); err != nil {
			return errs.Wrap(err, "invalid bonus weight table")
		}
		for _, e := range bonus {
			s, ok := symbols.Get(e.Key)
			if !ok {
				return errs.NewFatal("unknown symbol in bonus weight table").With("symbol", e.Key)
			}
			if !s.IsBonus() {
				return errs.NewFatal("standard symbol in bonus weight table").With("symbol", e.Key)
			}
		}
	}
	return nil
}

// Cell 取得 (row, col) 的權重表；越界或未設定時回傳 nil。
func (ps *ProbabilitySetting) Cell(row, col int) WeightTable {
	if row < 0 || row >= len(ps.Grid) || col < 0 || col >= len(ps.Grid[row]) {
		return nil
	}
	return ps.Grid[row][col]
}
