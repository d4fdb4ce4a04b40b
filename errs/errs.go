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

package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
//
//   - Fatal: 設定檔錯誤（缺符號、空權重表、座標錯誤），整局中止
//   - Warn: 輸入錯誤（下注金額非正數等），在開局前就拒絕
//   - Log: 僅需記錄
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
//
// Message 為主訊息；Extra 為定位問題用的上下文（例如 rule=same_symbols_3 coord=0:3）；
// Cause 可串接下層錯誤（wrap）；ErrLv 表示嚴重程度。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// With 追加一組 key=value 上下文到 Extra，回傳自身方便串接。
//
//	errs.NewFatal("coordinate out of range").With("rule", id).With("coord", "3:0")
func (e *E) With(key string, val any) *E {
	kv := fmt.Sprintf("%s=%v", key, val)
	if e.Extra == "" {
		e.Extra = kv
		return e
	}
	e.Extra = strings.Join([]string{e.Extra, kv}, " ")
	return e
}

// IsFatal 回傳是否為設定面（不可恢復）的錯誤。
func (e *E) IsFatal() bool { return e.ErrLv == Fatal }

func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定訊息包裝底層錯誤。
//
// ErrLevel 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv（保持原本嚴重度）。
//   - 若 cause 不是本包定義的 *E（標準庫或三方依賴錯誤），ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	if errors.As(cause, &e) {
		errLv = e.ErrLv
	}
	r := New(errLv, msg)
	r.Cause = cause
	return r
}

// WrapWarn 與 Wrap 相同，但外部錯誤不升級成 Fatal。
//
// 用於輸入端（請求、快照）的解碼失敗：錯的是呼叫者給的資料，不是設定。
func WrapWarn(cause error, msg string) *E {
	r := Wrap(cause, msg)
	if _, ok := AsErr(cause); !ok {
		r.ErrLv = Warn
	}
	return r
}

// WrapWithExtra 與 Wrap 相同，並附帶上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

// AsErr 嘗試把任意 error 轉回 *E。
func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// LevelOf 回傳 err 的嚴重程度；非 *E 的錯誤視為 Fatal，nil 為 None。
func LevelOf(err error) ErrLevel {
	if err == nil {
		return None
	}
	if e, ok := AsErr(err); ok {
		return e.ErrLv
	}
	return Fatal
}
