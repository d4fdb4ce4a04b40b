package main

import (
	"fmt"
	"os"

	"github.com/zintix-labs/scratchlab/sdk/perf"
)

// 開一局刮刮樂，或以 --rounds 跑模擬報表
func main() {
	bindVar()
	mode, ok := perf.ParseMode(cfg.pprofmode)
	if !ok {
		fmt.Fprintln(os.Stderr, "invalid -p:", cfg.pprofmode)
		os.Exit(1)
	}
	if err := perf.Run(execute, mode, perf.DefaultDir); err != nil {
		fmt.Fprintln(os.Stderr, "pprof:", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}
