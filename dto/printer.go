package dto

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Printer 以文字格式輸出一局結果：
//
//	A  B  C
//	A  A  A
//	F  E  D
//	Total Reward: 20
//	Winning Combinations:
//	  A: same_symbols_horizontally
//	Applied Bonus Symbol: MISS
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print 寫出一局結果。
func (p *Printer) Print(rr *RoundResult) error {
	var sb strings.Builder

	width := 0
	for _, row := range rr.Matrix {
		for _, s := range row {
			width = max(width, runewidth.StringWidth(s))
		}
	}
	for _, row := range rr.Matrix {
		cells := make([]string, len(row))
		for i, s := range row {
			cells[i] = runewidth.FillRight(s, width)
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "Total Reward: %s\n", rr.Reward.String())

	if len(rr.AppliedWinningCombinations) > 0 {
		sb.WriteString("Winning Combinations:\n")
		for _, id := range rr.Order() {
			fmt.Fprintf(&sb, "  %s: %s\n", id, strings.Join(rr.AppliedWinningCombinations[id], ", "))
		}
	}

	bonus := "none"
	if rr.AppliedBonusSymbol != nil {
		bonus = *rr.AppliedBonusSymbol
	}
	fmt.Fprintf(&sb, "Applied Bonus Symbol: %s\n", bonus)

	_, err := io.WriteString(p.w, sb.String())
	return err
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
