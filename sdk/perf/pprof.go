package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/scratchlab/errs"
)

// DefaultDir cmd/run 寫出 profile 的目錄
const DefaultDir = "build/profiling"

// Mode 對應 -p 旗標
type Mode string

const (
	ModeOff    Mode = ""
	ModeCPU    Mode = "cpu"    // 包住整段執行，可作為 PGO 的輸入
	ModeHeap   Mode = "heap"   // 執行結束、GC 後的 in-use 快照
	ModeAllocs Mode = "allocs" // 執行期間的累積配置
)

// ParseMode 只接受 "" / cpu / heap / allocs
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case ModeOff, ModeCPU, ModeHeap, ModeAllocs:
		return m, true
	}
	return ModeOff, false
}

// Run 執行 exe，並依 mode 把 profile 寫到 dir/<mode>.pprof。
//
// ModeOff 直接執行，不建立目錄。
func Run(exe func(), mode Mode, dir string) error {
	if mode == ModeOff {
		exe()
		return nil
	}
	if _, ok := ParseMode(string(mode)); !ok {
		return errs.NewWarn("unknown pprof mode").With("mode", mode)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create profiling dir")
	}
	path := filepath.Join(dir, string(mode)+".pprof")
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create profile").With("path", path)
	}
	defer f.Close()

	switch mode {
	case ModeCPU:
		if err := pprof.StartCPUProfile(f); err != nil {
			return errs.Wrap(err, "start cpu profile")
		}
		exe()
		pprof.StopCPUProfile()
	case ModeHeap:
		exe()
		runtime.GC()
		err = pprof.WriteHeapProfile(f)
	case ModeAllocs:
		exe()
		err = pprof.Lookup("allocs").WriteTo(f, 0)
	}
	if err != nil {
		return errs.Wrap(err, "write profile").With("path", path)
	}
	return nil
}
