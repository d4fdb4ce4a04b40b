package core

import (
	"encoding/binary"

	"github.com/zintix-labs/scratchlab/errs"
)

// Scripted 依序回放一組固定的 [0,1) 亂數，用完後從頭循環。
//
// 主要用於測試：可以精準控制每一格盤面與 Bonus 抽到的值。
// 超出 [0,1) 的值會被壓回範圍內。
type Scripted struct {
	vals []float64
	pos  uint64
}

// NewScripted 建立回放來源；vals 為空時永遠回傳 0。
func NewScripted(vals ...float64) *Scripted {
	cp := make([]float64, len(vals))
	for i, v := range vals {
		cp[i] = clampUnit(v)
	}
	return &Scripted{vals: cp}
}

// NewScriptedCore 是 New(FromUniform(NewScripted(vals...))) 的縮寫。
func NewScriptedCore(vals ...float64) *Core {
	return New(FromUniform(NewScripted(vals...)))
}

func (s *Scripted) Float64() float64 {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[s.pos%uint64(len(s.vals))]
	s.pos++
	return v
}

// Drawn 回傳目前已經取了幾個值。
func (s *Scripted) Drawn() int { return int(s.pos) }

func (s *Scripted) Snapshot() ([]byte, error) {
	return binary.BigEndian.AppendUint64(nil, s.pos), nil
}

func (s *Scripted) Restore(b []byte) error {
	if len(b) != 8 {
		return errs.NewWarn("scripted snapshot must be 8 bytes").With("len", len(b))
	}
	s.pos = binary.BigEndian.Uint64(b)
	return nil
}
