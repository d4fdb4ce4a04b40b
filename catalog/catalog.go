// Package catalog 刮刮樂遊戲目錄：game_name -> 設定檔名稱。
package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/spec"
)

var (
	ErrDupName = errs.NewFatal("duplicate game name")
)

type Entry struct {
	Name       string
	ConfigName string
}

// Summary 目錄中每款遊戲的概要，給 CLI 列表使用。
type Summary struct {
	Name       string   `json:"name"`
	ConfigName string   `json:"config"`
	Columns    int      `json:"columns"`
	Rows       int      `json:"rows"`
	Symbols    int      `json:"symbols"`
	Rules      int      `json:"rules"`
	Unresolved []string `json:"unresolved,omitempty"`
}

type Catalog struct {
	byName map[string]Entry
	names  []string            // 用來穩定排序
	unique map[string]struct{} // 一組遊戲，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
		frozen: false,
	}, nil
}

// NameKey 目錄內名稱一律小寫、去空白。
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NameFromFile 設定檔沒有 game_name 時，以檔名（去掉所有副檔名）代替。
func NameFromFile(file string) string {
	base := path.Base(file)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = NameKey(meta.Name)
		if meta.Name == "" {
			return errs.NewFatal("game name required").With("config", meta.ConfigName)
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal("config file not found").With("config", meta.ConfigName)
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.NewFatal("duplicate config name").With("config", meta.ConfigName)
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.NewFatal("duplicate config name").With("config", meta.ConfigName)
		}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byName[meta.Name] = meta
		c.names = append(c.names, meta.Name)
	}
	sort.Strings(c.names)
	return nil
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[NameKey(name)]
	return m, ok
}

func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		if meta, ok := c.byName[n]; ok {
			m = append(m, meta)
		}
	}
	return m
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal("invalid config filename (must be a basename; no / \\ :)").With("config", file)
	}
	// 2) 必須是 .yaml/.yml/.json（可再加 .zst）
	if !spec.IsConfigFile(file) {
		return errs.NewFatal("invalid config filename (must end with .yaml, .yml or .json, optionally .zst)").With("config", file)
	}
	// 3) 不能以 . 開頭（防止直接 .yaml / .yml）
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal("invalid config filename (cannot start with '.')").With("config", file)
	}
	return nil
}

// GameSettingByName
//
// 會讀取 fs.FS 中的 YAML/JSON 設定、初始化各子設定並執行基本檢查後回傳
func (c *Catalog) GameSettingByName(name string) (*spec.GameSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.NewWarn("name does not exist in catalog").With("game", name)
	}
	src, ok := c.config.GetFS(e.ConfigName)
	if !ok {
		return nil, errs.NewWarn("file name does not exist in catalog").With("config", e.ConfigName)
	}
	return spec.LoadFS(src, e.ConfigName)
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 64),
	}

	// eager validate: build index and detect duplicates
	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 設定檔目錄必須是平的，只允許根目錄 "."
				if p == "." {
					return nil
				}
				return errs.NewFatal("config FS must be flat (no subdirectories)").With("path", p)
			}
			if strings.Contains(p, "/") {
				return errs.NewFatal("config FS must be flat (no subdirectories)").With("path", p)
			}
			if strings.HasPrefix(p, ".") || !spec.IsConfigFile(p) {
				return nil
			}
			if prev, ok := m.index[p]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", p, prev, i))
			}
			m.index[p] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}

// Files 依檔名排序回傳所有已索引的設定檔。
func (m *multiFS) Files() []string {
	out := make([]string, 0, len(m.index))
	for n := range m.index {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Sources exposes config FS sources for read-only iteration.
func (m *multiFS) Sources() []fs.FS {
	if m == nil || len(m.src) == 0 {
		return nil
	}
	return append([]fs.FS(nil), m.src...)
}
