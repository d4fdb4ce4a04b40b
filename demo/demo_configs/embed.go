package demo_configs

import (
	"embed"
)

// FS provides embedded default configs (JSON and YAML) for external usage.
//
//go:embed *.json *.yaml
var FS embed.FS

// Default 預設設定檔名稱。
const Default = "classic.json"
