package spec

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/scratchlab/errs"
	"gopkg.in/yaml.v3"
)

// GetGameSettingByYAML
// 會讀取 YAML 設定、初始化各子設定並執行基本檢查後回傳。
func GetGameSettingByYAML(data []byte) (*GameSetting, error) {
	gs := &GameSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 嚴格檢查：多寫/拼錯欄位就報錯
	if err := dec.Decode(gs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshal yaml")
	}

	// 設定檔初始化
	if err := gs.init(); err != nil {
		return nil, errs.Wrap(err, "game setting initialized err")
	}

	return gs, nil
}

// GetGameSettingByJSON
// 會讀取 Json 設定、初始化各子設定並執行基本檢查後回傳。
//
// 語法由 encoding/json 把關；解碼走 yaml.v3（JSON 是 YAML 的子集），
// 才能保留權重表與規則表在文件中的順序。
func GetGameSettingByJSON(data []byte) (*GameSetting, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return nil, errs.Wrap(err, "malformed json config")
	}
	gs, err := GetGameSettingByYAML(compact.Bytes())
	if err != nil {
		return nil, err
	}
	return gs, nil
}

// GetGameSettingByExt 依副檔名選擇解碼方式；.zst 結尾先解壓再看內層副檔名。
func GetGameSettingByExt(filename string, raw []byte) (*GameSetting, error) {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".zst") {
		plain, err := decompress(raw)
		if err != nil {
			return nil, errs.Wrap(err, "decompress config failed").With("file", filename)
		}
		return GetGameSettingByExt(strings.TrimSuffix(filename, filepath.Ext(filename)), plain)
	}
	switch filepath.Ext(lower) {
	case ".yaml", ".yml":
		return GetGameSettingByYAML(raw)
	case ".json":
		return GetGameSettingByJSON(raw)
	default:
		return nil, errs.NewFatal("unsupported config format").With("file", filename)
	}
}

// IsConfigFile 回傳檔名是否為可辨識的設定檔（.yaml/.yml/.json，可再加 .zst）。
func IsConfigFile(name string) bool {
	lower := strings.TrimSuffix(strings.ToLower(name), ".zst")
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json")
}

// LoadFile 從本機路徑載入設定檔。
func LoadFile(path string) (*GameSetting, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, "read config failed").With("path", path)
	}
	return GetGameSettingByExt(filepath.Base(path), raw)
}

// LoadFS 從 fs.FS（例如 go:embed）載入設定檔。
func LoadFS(fsys fs.FS, name string) (*GameSetting, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, "read config failed").With("file", name)
	}
	return GetGameSettingByExt(name, raw)
}

func decompress(compressed []byte) ([]byte, error) {
	zr, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errs.Wrap(err, "create zstd reader failed")
	}
	defer zr.Close()
	plain, err := zr.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errs.Wrap(err, "zstd decode failed")
	}
	return plain, nil
}
