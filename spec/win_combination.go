package spec

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/errs"
	"gopkg.in/yaml.v3"
)

// Coord 盤面座標 (row, column)。
type Coord struct {
	Row    int
	Column int
}

func (c Coord) String() string {
	return strconv.Itoa(c.Row) + ":" + strconv.Itoa(c.Column)
}

// ParseCoord 解析 "row:column" 格式。
func ParseCoord(s string) (Coord, error) {
	r, c, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Coord{}, errs.NewFatal("malformed coordinate, want row:column").With("coord", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return Coord{}, errs.Wrap(err, "malformed coordinate row").With("coord", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return Coord{}, errs.Wrap(err, "malformed coordinate column").With("coord", s)
	}
	return Coord{Row: row, Column: col}, nil
}

// Area 一個 covered area：所有座標都必須是同一個符號。
type Area []Coord

// RuleKind 中獎規則家族（明確的 tagged variant，不再靠名稱推斷）。
type RuleKind int

const (
	// RuleKindNone 無法歸類的規則，永遠不成立。
	RuleKindNone RuleKind = iota
	// RuleKindLinear 任一列（row）中目標符號出現 >= Count 次。
	RuleKindLinear
	// RuleKindArea 任一 covered area 全部是目標符號。
	RuleKindArea
	// RuleKindMixed 依命名推斷時，部分符號走 Linear、其餘走 Area。
	RuleKindMixed
)

var ruleKindMap = map[string]RuleKind{
	"linear": RuleKindLinear,
	"area":   RuleKindArea,
}

func ParseRuleKind(s string) (RuleKind, bool) {
	k, ok := ruleKindMap[strings.ToLower(s)]
	return k, ok
}

func (k RuleKind) String() string {
	switch k {
	case RuleKindLinear:
		return "linear"
	case RuleKindArea:
		return "area"
	case RuleKindMixed:
		return "mixed"
	default:
		return "none"
	}
}

const (
	linearRulePrefix = "same_symbol"
	areaRulePrefix   = "same_symbols_"
)

// WinCombination 一條中獎規則。
//
// 家族在 Init 時對每個 standard 符號各自決定（見 KindFor）：
//   - 明確 kind：linear 綁定 Symbol（空字串代表所有 standard 符號）；area 適用所有符號。
//   - 依命名推斷：LinearFor 內的符號走 Linear，其餘符號在 same_symbols_ 前綴下走 Area。
//
// Kind 為整條規則的概況，Init 之後僅供顯示與 Unresolved 判斷。
type WinCombination struct {
	ID               string
	RewardMultiplier decimal.Decimal
	When             string
	Count            int
	Group            string
	CoveredAreas     []Area
	Kind             RuleKind
	Symbol           string
	LinearFor        []string

	kindStr string
	kinds   map[string]RuleKind
}

type winCombinationDoc struct {
	RewardMultiplier string     `yaml:"reward_multiplier"`
	When             string     `yaml:"when"`
	Count            int        `yaml:"count"`
	Group            string     `yaml:"group"`
	CoveredAreas     [][]string `yaml:"covered_areas"`
	Kind             string     `yaml:"kind"`
	Symbol           string     `yaml:"symbol"`
}

// WinCombinationSetting 有序的中獎規則表（依設定檔順序）。
type WinCombinationSetting struct {
	Rules []WinCombination
	// Unresolved 記錄 Init 後歸類為 RuleKindNone 的規則 id，供上層記錄警告。
	Unresolved []string
}

// UnmarshalYAML 解析 win_combinations mapping 並保留順序。
func (ws *WinCombinationSetting) UnmarshalYAML(n *yaml.Node) error {
	pairs, err := mappingPairs(n)
	if err != nil {
		return errs.Wrap(err, "win_combinations must be a mapping")
	}
	ws.Rules = make([]WinCombination, 0, len(pairs))
	for _, p := range pairs {
		if err := strictKeys(p.val, "reward_multiplier", "when", "count", "group", "covered_areas", "kind", "symbol"); err != nil {
			return errs.Wrap(err, "invalid win combination").With("rule", p.key)
		}
		var doc winCombinationDoc
		if err := p.val.Decode(&doc); err != nil {
			return errs.Wrap(err, "decode win combination failed").With("rule", p.key)
		}
		wc := WinCombination{
			ID:      p.key,
			When:    doc.When,
			Count:   doc.Count,
			Group:   doc.Group,
			Symbol:  doc.Symbol,
			kindStr: doc.Kind,
		}
		if wc.RewardMultiplier, err = parseDecimal(doc.RewardMultiplier); err != nil {
			return errs.Wrap(err, "invalid reward_multiplier").With("rule", p.key)
		}
		for ai, area := range doc.CoveredAreas {
			a := make(Area, 0, len(area))
			for _, s := range area {
				c, err := ParseCoord(s)
				if err != nil {
					return errs.Wrap(err, "invalid covered area").With("rule", p.key).With("area", ai)
				}
				a = append(a, c)
			}
			wc.CoveredAreas = append(wc.CoveredAreas, a)
		}
		ws.Rules = append(ws.Rules, wc)
	}
	return nil
}

// Init 決定每條規則對每個符號的家族並檢查內容。
func (ws *WinCombinationSetting) Init(screen *ScreenSetting, symbols *SymbolSetting) error {
	ws.Unresolved = ws.Unresolved[:0]
	standard := symbols.StandardIDs()
	seen := make(map[string]struct{}, len(ws.Rules))
	for i := range ws.Rules {
		wc := &ws.Rules[i]
		if _, dup := seen[wc.ID]; dup {
			return errs.NewFatal("duplicate win combination").With("rule", wc.ID)
		}
		seen[wc.ID] = struct{}{}

		if wc.Symbol != "" {
			s, ok := symbols.Get(wc.Symbol)
			if !ok {
				return errs.NewFatal("unknown symbol in win combination").With("rule", wc.ID).With("symbol", wc.Symbol)
			}
			if !s.IsStandard() {
				return errs.NewFatal("linear rule bound to non-standard symbol").With("rule", wc.ID).With("symbol", wc.Symbol)
			}
		}
		if err := wc.resolveKinds(standard); err != nil {
			return err
		}
		if wc.Kind == RuleKindNone {
			ws.Unresolved = append(ws.Unresolved, wc.ID)
			continue
		}
		if len(wc.LinearFor) > 0 && wc.Count < 1 {
			return errs.NewFatal("linear rule requires count >= 1").With("rule", wc.ID)
		}
		if wc.Kind == RuleKindArea || wc.Kind == RuleKindMixed {
			if len(wc.CoveredAreas) == 0 {
				return errs.NewFatal("area rule requires covered_areas").With("rule", wc.ID)
			}
			for ai, area := range wc.CoveredAreas {
				if len(area) == 0 {
					return errs.NewFatal("empty covered area").With("rule", wc.ID).With("area", ai)
				}
				for _, c := range area {
					if !screen.Contains(c) {
						return errs.NewFatal("covered area coordinate out of range").With("rule", wc.ID).With("coord", c)
					}
				}
			}
		}
	}
	return nil
}

// resolveKinds 對每個 standard 符號決定家族：
//  1. 明確的 kind 欄位：linear 只給 Symbol（或全部），area 給全部
//  2. same_symbol 前綴且以該符號 id 結尾 -> Linear（每個符合的符號都算，不取最長者）
//  3. same_symbols_ 前綴 -> 其餘符號走 Area；沒有 covered_areas 時只保留 Linear 的部分
//  4. 其餘 -> None
func (wc *WinCombination) resolveKinds(standard []string) error {
	wc.kinds = make(map[string]RuleKind, len(standard))
	wc.LinearFor = nil

	if wc.kindStr != "" {
		k, ok := ParseRuleKind(wc.kindStr)
		if !ok {
			return errs.NewFatal("invalid rule kind").With("rule", wc.ID).With("kind", wc.kindStr)
		}
		for _, s := range standard {
			switch {
			case k == RuleKindArea:
				wc.kinds[s] = RuleKindArea
			case wc.Symbol == "" || wc.Symbol == s:
				wc.kinds[s] = RuleKindLinear
				wc.LinearFor = append(wc.LinearFor, s)
			}
		}
		wc.Kind = k
		return nil
	}
	if wc.Symbol != "" {
		return errs.NewFatal("symbol binding requires kind: linear").With("rule", wc.ID).With("symbol", wc.Symbol)
	}

	id := wc.ID
	linearName := strings.HasPrefix(id, linearRulePrefix)
	areaName := strings.HasPrefix(id, areaRulePrefix)
	for _, s := range standard {
		if linearName && strings.HasSuffix(id, s) {
			wc.kinds[s] = RuleKindLinear
			wc.LinearFor = append(wc.LinearFor, s)
		}
	}
	areaFallback := areaName && (len(wc.CoveredAreas) > 0 || len(wc.LinearFor) == 0)
	if areaFallback {
		for _, s := range standard {
			if _, ok := wc.kinds[s]; !ok {
				wc.kinds[s] = RuleKindArea
			}
		}
	}

	switch {
	case len(wc.LinearFor) == 0 && !areaFallback:
		wc.Kind = RuleKindNone
	case len(wc.LinearFor) == 0:
		wc.Kind = RuleKindArea
	case areaFallback && len(wc.LinearFor) < len(standard):
		wc.Kind = RuleKindMixed
	default:
		wc.Kind = RuleKindLinear
	}
	return nil
}

// KindFor 回傳此規則對 symbolID 採用的家族；RuleKindNone 代表不檢查。
//
// 未經 Init 的規則（例如直接組出來的測試規則）依 Kind / Symbol 判斷。
func (wc *WinCombination) KindFor(symbolID string) RuleKind {
	if wc.kinds != nil {
		return wc.kinds[symbolID]
	}
	switch wc.Kind {
	case RuleKindLinear:
		if wc.Symbol == "" || wc.Symbol == symbolID {
			return RuleKindLinear
		}
	case RuleKindArea:
		return RuleKindArea
	}
	return RuleKindNone
}

// AppliesTo 回傳此規則是否需要對 symbolID 檢查。
func (wc *WinCombination) AppliesTo(symbolID string) bool {
	return wc.KindFor(symbolID) != RuleKindNone
}
