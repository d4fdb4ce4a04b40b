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

package demo

import (
	"log/slog"

	"github.com/zintix-labs/scratchlab"
	"github.com/zintix-labs/scratchlab/catalog"
	"github.com/zintix-labs/scratchlab/demo/demo_configs"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/sdk/core"
)

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

// NewLab 以內建的示範設定建立一個已 Freeze 的 Lab。
func NewLab(log *slog.Logger, cf core.PRNGFactory) (*scratchlab.Lab, error) {
	lab, err := scratchlab.NewAuto(
		scratchlab.Configs(demo_configs.FS),
		scratchlab.WithLogger(log),
		scratchlab.WithPRNG(cf),
	)
	if err != nil {
		return nil, errs.Wrap(err, "new scratchlab failed")
	}
	return lab, nil
}
