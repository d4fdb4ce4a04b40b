package spec

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/errs"
	"gopkg.in/yaml.v3"
)

// SymbolType 符號種類。
type SymbolType int

const (
	SymbolTypeNone SymbolType = iota
	SymbolTypeStandard
	SymbolTypeBonus
)

var symbolTypeMap = map[string]SymbolType{
	"standard": SymbolTypeStandard,
	"bonus":    SymbolTypeBonus,
}

// ParseSymbolType 大小寫不敏感。
func ParseSymbolType(s string) (SymbolType, bool) {
	t, ok := symbolTypeMap[strings.ToLower(s)]
	return t, ok
}

func (t SymbolType) String() string {
	switch t {
	case SymbolTypeStandard:
		return "standard"
	case SymbolTypeBonus:
		return "bonus"
	default:
		return "none"
	}
}

// BonusImpact Bonus 符號對總獎金的影響方式。
type BonusImpact int

const (
	ImpactNone BonusImpact = iota
	ImpactMultiplyReward
	ImpactExtraBonus
	ImpactMiss
)

var bonusImpactMap = map[string]BonusImpact{
	"multiply_reward": ImpactMultiplyReward,
	"extra_bonus":     ImpactExtraBonus,
	"miss":            ImpactMiss,
}

// ParseBonusImpact 大小寫不敏感。
func ParseBonusImpact(s string) (BonusImpact, bool) {
	b, ok := bonusImpactMap[strings.ToLower(s)]
	return b, ok
}

func (b BonusImpact) String() string {
	switch b {
	case ImpactMultiplyReward:
		return "multiply_reward"
	case ImpactExtraBonus:
		return "extra_bonus"
	case ImpactMiss:
		return "miss"
	default:
		return "none"
	}
}

// Symbol 一個符號的完整屬性。
//
//   - Standard：RewardMultiplier 為基礎賠率。
//   - Bonus：Impact 決定效果；MULTIPLY_REWARD 用 RewardMultiplier 當倍數，EXTRA_BONUS 加上 Extra。
type Symbol struct {
	ID               string
	Type             SymbolType
	RewardMultiplier decimal.Decimal
	Extra            decimal.Decimal
	Impact           BonusImpact
}

func (s *Symbol) IsStandard() bool { return s.Type == SymbolTypeStandard }
func (s *Symbol) IsBonus() bool    { return s.Type == SymbolTypeBonus }

type symbolDoc struct {
	RewardMultiplier string `yaml:"reward_multiplier"`
	Type             string `yaml:"type"`
	Extra            string `yaml:"extra"`
	Impact           string `yaml:"impact"`
}

// SymbolSetting 有序的符號表（依設定檔順序）。
type SymbolSetting struct {
	Symbols []Symbol
	index   map[string]int
}

// UnmarshalYAML 解析 symbols mapping 並保留順序。
func (ss *SymbolSetting) UnmarshalYAML(n *yaml.Node) error {
	pairs, err := mappingPairs(n)
	if err != nil {
		return errs.Wrap(err, "symbols must be a mapping")
	}
	ss.Symbols = make([]Symbol, 0, len(pairs))
	for _, p := range pairs {
		if err := strictKeys(p.val, "reward_multiplier", "type", "extra", "impact"); err != nil {
			return errs.Wrap(err, "invalid symbol").With("symbol", p.key)
		}
		var doc symbolDoc
		if err := p.val.Decode(&doc); err != nil {
			return errs.Wrap(err, "decode symbol failed").With("symbol", p.key)
		}
		sym, err := doc.toSymbol(p.key)
		if err != nil {
			return err
		}
		ss.Symbols = append(ss.Symbols, sym)
	}
	return nil
}

func (d *symbolDoc) toSymbol(id string) (Symbol, error) {
	sym := Symbol{ID: id}
	t, ok := ParseSymbolType(d.Type)
	if !ok {
		return sym, errs.NewFatal("invalid symbol type").With("symbol", id).With("type", d.Type)
	}
	sym.Type = t

	var err error
	if sym.RewardMultiplier, err = parseDecimal(d.RewardMultiplier); err != nil {
		return sym, errs.Wrap(err, "invalid reward_multiplier").With("symbol", id)
	}
	if sym.Extra, err = parseDecimal(d.Extra); err != nil {
		return sym, errs.Wrap(err, "invalid extra").With("symbol", id)
	}

	if d.Impact != "" {
		impact, ok := ParseBonusImpact(d.Impact)
		if !ok {
			return sym, errs.NewFatal("invalid bonus impact").With("symbol", id).With("impact", d.Impact)
		}
		sym.Impact = impact
	}
	return sym, nil
}

// parseDecimal 空字串視為 0（欄位未填）。
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// Init 建立索引並檢查每個符號的必要欄位。
func (ss *SymbolSetting) Init() error {
	if len(ss.Symbols) == 0 {
		return errs.NewFatal("symbols is empty")
	}
	ss.index = make(map[string]int, len(ss.Symbols))
	for i := range ss.Symbols {
		s := &ss.Symbols[i]
		if s.ID == "" {
			return errs.NewFatal("symbol id is empty")
		}
		if _, dup := ss.index[s.ID]; dup {
			return errs.NewFatal("duplicate symbol").With("symbol", s.ID)
		}
		switch s.Type {
		case SymbolTypeStandard:
			if s.RewardMultiplier.IsNegative() {
				return errs.NewFatal("reward_multiplier must not be negative").With("symbol", s.ID)
			}
		case SymbolTypeBonus:
			if s.Impact == ImpactNone {
				return errs.NewFatal("bonus symbol requires impact").With("symbol", s.ID)
			}
		default:
			return errs.NewFatal("invalid symbol type").With("symbol", s.ID)
		}
		ss.index[s.ID] = i
	}
	return nil
}

// Get 以 id 取得符號。
func (ss *SymbolSetting) Get(id string) (*Symbol, bool) {
	i, ok := ss.index[id]
	if !ok {
		return nil, false
	}
	return &ss.Symbols[i], true
}

// StandardIDs 依序回傳所有 standard 符號 id。
func (ss *SymbolSetting) StandardIDs() []string {
	out := make([]string, 0, len(ss.Symbols))
	for _, s := range ss.Symbols {
		if s.IsStandard() {
			out = append(out, s.ID)
		}
	}
	return out
}
