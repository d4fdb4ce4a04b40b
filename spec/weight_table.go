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

import (
	"math"

	"github.com/zintix-labs/scratchlab/errs"
	"gopkg.in/yaml.v3"
)

// WeightEntry 權重表中的一筆 (key, weight)。
type WeightEntry struct {
	Key    string `yaml:"key"    json:"key"`
	Weight int    `yaml:"weight" json:"weight"`
}

// WeightTable 有序的權重表。
//
// 設定檔中是 map 形式（symbol-id -> weight），但輪盤抽樣依賴走訪順序，
// 所以解碼時保留文件中的出現順序，而不是交給 Go map 打亂。
type WeightTable []WeightEntry

// UnmarshalYAML 依文件順序解碼 mapping。JSON 也走這條路（JSON 是 YAML 的子集）。
func (wt *WeightTable) UnmarshalYAML(n *yaml.Node) error {
	pairs, err := mappingPairs(n)
	if err != nil {
		return err
	}
	out := make(WeightTable, 0, len(pairs))
	for _, p := range pairs {
		var w int
		if err := p.val.Decode(&w); err != nil {
			return errs.Wrap(err, "weight must be an integer").With("key", p.key).With("line", p.val.Line)
		}
		out = append(out, WeightEntry{Key: p.key, Weight: w})
	}
	*wt = out
	return nil
}

// Total 回傳權重總和。
func (wt WeightTable) Total() int {
	total := 0
	for _, e := range wt {
		total += e.Weight
	}
	return total
}

// Keys 依序回傳所有 key。
func (wt WeightTable) Keys() []string {
	keys := make([]string, len(wt))
	for i, e := range wt {
		keys[i] = e.Key
	}
	return keys
}

// Has 回傳 key 是否存在。
func (wt WeightTable) Has(key string) bool {
	for _, e := range wt {
		if e.Key == key {
			return true
		}
	}
	return false
}

// Valid 檢查：非空、權重為正、key 不重複、總和不溢位。
func (wt WeightTable) Valid() error {
	if len(wt) == 0 {
		return errs.NewFatal("empty weight table")
	}
	seen := make(map[string]struct{}, len(wt))
	total := 0
	for _, e := range wt {
		if e.Weight <= 0 {
			return errs.NewFatal("weight must be positive").With("key", e.Key).With("weight", e.Weight)
		}
		if _, dup := seen[e.Key]; dup {
			return errs.NewFatal("duplicate key in weight table").With("key", e.Key)
		}
		seen[e.Key] = struct{}{}
		if total > math.MaxInt-e.Weight {
			return errs.NewFatal("total weight overflow")
		}
		total += e.Weight
	}
	return nil
}

// -----------------------------------------------------------------------------
// yaml.Node 小工具
// -----------------------------------------------------------------------------

type nodePair struct {
	key string
	val *yaml.Node
}

// mappingPairs 依序攤平一個 mapping node；重複 key 視為錯誤。
func mappingPairs(n *yaml.Node) ([]nodePair, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return nil, errs.NewFatal("expected a mapping").With("line", n.Line)
	}
	pairs := make([]nodePair, 0, len(n.Content)/2)
	seen := make(map[string]struct{}, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		if _, dup := seen[k]; dup {
			return nil, errs.NewFatal("duplicate mapping key").With("key", k).With("line", n.Content[i].Line)
		}
		seen[k] = struct{}{}
		pairs = append(pairs, nodePair{key: k, val: n.Content[i+1]})
	}
	return pairs, nil
}

// strictKeys 嚴格檢查：多寫/拼錯欄位就報錯。
func strictKeys(n *yaml.Node, allowed ...string) error {
	pairs, err := mappingPairs(n)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		ok := false
		for _, a := range allowed {
			if p.key == a {
				ok = true
				break
			}
		}
		if !ok {
			return errs.NewFatal("unknown field").With("field", p.key).With("line", p.val.Line)
		}
	}
	return nil
}
