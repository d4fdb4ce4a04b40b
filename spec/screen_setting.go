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

package spec

import "github.com/zintix-labs/scratchlab/errs"

// ScreenSetting 描述盤面尺寸（設定檔最外層的 columns / rows）。
//
// Fields:
//   - Columns: 盤面行數
//   - Rows: 盤面列數
type ScreenSetting struct {
	Columns    int `yaml:"columns"   json:"columns"`
	Rows       int `yaml:"rows"      json:"rows"`
	ScreenSize int `yaml:"-"         json:"-"`
}

// Init 檢查不合法的設定
func (ss *ScreenSetting) Init() error {
	if ss.Columns <= 0 || ss.Rows <= 0 {
		return errs.NewFatal("invalid screen dimensions").With("cols", ss.Columns).With("rows", ss.Rows)
	}
	ss.ScreenSize = ss.Rows * ss.Columns
	return nil
}

// Contains 回傳座標是否落在盤面內。
func (ss *ScreenSetting) Contains(c Coord) bool {
	return c.Row >= 0 && c.Row < ss.Rows && c.Column >= 0 && c.Column < ss.Columns
}
