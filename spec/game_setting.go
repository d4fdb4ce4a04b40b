package spec

import (
	"github.com/zintix-labs/scratchlab/errs"
)

// GameSetting 一款刮刮樂的完整設定，Init 之後視為唯讀。
type GameSetting struct {
	GameName        string                `yaml:"game_name"        json:"game_name"`
	ScreenSetting   `yaml:",inline"`
	Symbols         SymbolSetting         `yaml:"symbols"          json:"symbols"`
	Probabilities   ProbabilitySetting    `yaml:"probabilities"    json:"probabilities"`
	WinCombinations WinCombinationSetting `yaml:"win_combinations" json:"win_combinations"`
}

// init 依相依順序初始化：盤面 -> 符號 -> 機率表 -> 中獎規則。
func (gs *GameSetting) init() error {
	if err := gs.ScreenSetting.Init(); err != nil {
		return err
	}
	if err := gs.Symbols.Init(); err != nil {
		return err
	}
	if err := gs.Probabilities.Init(&gs.ScreenSetting, &gs.Symbols); err != nil {
		return err
	}
	if err := gs.WinCombinations.Init(&gs.ScreenSetting, &gs.Symbols); err != nil {
		return err
	}
	return gs.valid()
}

// valid 跨區塊的檢查。
func (gs *GameSetting) valid() error {
	if len(gs.Symbols.StandardIDs()) == 0 {
		return errs.NewFatal("no standard symbol configured").With("game", gs.GameName)
	}
	return nil
}

// Init 供直接以程式組出 GameSetting 的呼叫端使用（例如測試）。
func (gs *GameSetting) Init() error {
	return gs.init()
}

// Unresolved 回傳無法歸類、永遠不會成立的規則 id。
func (gs *GameSetting) Unresolved() []string {
	return append([]string(nil), gs.WinCombinations.Unresolved...)
}
