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

package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/scratchlab/errs"
)

// LogMode 對應 --log 旗標
type LogMode uint8

const (
	ModeDev     LogMode = iota // text, debug 以上
	ModeProd                   // json, info 以上
	ModeSilence                // 全部丟棄
)

var logModeMap = map[string]LogMode{
	"dev":     ModeDev,
	"prod":    ModeProd,
	"silence": ModeSilence,
}

// ParseLogMode 大小寫不敏感，忽略前後空白
func ParseLogMode(s string) (LogMode, bool) {
	m, ok := logModeMap[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// stdout 保留給刮卡結果與報表，日誌一律寫 stderr
func handlerFor(mode LogMode) slog.Handler {
	switch mode {
	case ModeProd:
		return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.DiscardHandler
	default:
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// Silent 丟棄所有輸出，Lab 與 Machine 未注入 logger 時使用
func Silent() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewAsync 依 mode 建立非阻塞 logger；結束前需呼叫 AsyncHandler.Close 把佇列寫完。
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(handlerFor(mode), buf)
	return slog.New(ah), ah
}

// AsyncHandler 把紀錄丟進佇列，由背景 goroutine 交給 next 寫出。
//
// 佇列滿或 Close 之後的紀錄直接丟棄並計數，不會阻塞模擬迴圈。
type AsyncHandler struct {
	next slog.Handler
	q    *queue
}

type queue struct {
	items   chan queued
	done    chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

type queued struct {
	ctx context.Context
	h   slog.Handler
	rec slog.Record
}

// NewAsyncHandler buf <= 0 時取 1024
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if buf <= 0 {
		buf = 1024
	}
	q := &queue{
		items: make(chan queued, buf),
		done:  make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return &AsyncHandler{next: next, q: q}
}

func (q *queue) run() {
	defer q.wg.Done()
	for {
		select {
		case it := <-q.items:
			_ = it.h.Handle(it.ctx, it.rec)
		case <-q.done:
			q.drain()
			return
		}
	}
}

func (q *queue) drain() {
	for {
		select {
		case it := <-q.items:
			_ = it.h.Handle(it.ctx, it.rec)
		default:
			return
		}
	}
}

// Dropped 被丟棄的紀錄數
func (h *AsyncHandler) Dropped() uint64 {
	return h.q.dropped.Load()
}

// Close 停止收件並寫完佇列，可重複呼叫
func (h *AsyncHandler) Close() {
	h.q.stop.Do(func() { close(h.q.done) })
	h.q.wg.Wait()
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	select {
	case <-h.q.done:
	default:
		select {
		case h.q.items <- queued{ctx: ctx, h: h.next, rec: r.Clone()}:
			return nil
		default:
		}
	}
	h.q.dropped.Add(1)
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}

// LogErr 依 errs 等級決定 slog 等級：Fatal -> Error，Warn -> Warn，其餘 -> Info
func LogErr(log *slog.Logger, msg string, err error, attrs ...any) {
	if log == nil || err == nil {
		return
	}
	lv := slog.LevelInfo
	switch errs.LevelOf(err) {
	case errs.Fatal:
		lv = slog.LevelError
	case errs.Warn:
		lv = slog.LevelWarn
	}
	log.Log(context.Background(), lv, msg, append(attrs, slog.String("err", err.Error()))...)
}
