package main

import (
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab"
	"github.com/zintix-labs/scratchlab/catalog"
	"github.com/zintix-labs/scratchlab/corefmt"
	"github.com/zintix-labs/scratchlab/demo"
	"github.com/zintix-labs/scratchlab/demo/demo_configs"
	"github.com/zintix-labs/scratchlab/dto"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/logger"
	"github.com/zintix-labs/scratchlab/sdk/core"
	"github.com/zintix-labs/scratchlab/spec"
	"github.com/zintix-labs/scratchlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	cfg      *config = new(config)
	exitCode int
)

type config struct {
	configPath string
	game       string
	betting    string
	seed       int64
	prng       string
	format     string
	rounds     int
	worker     int
	players    int
	initBets   int
	report     string
	logMode    string
	pprofmode  string
	restore    string
	request    string
	snapshot   bool

	bet   decimal.Decimal
	quiet bool
}

const (
	maxPlayers         = 100000
	maxRoundsPerPlayer = 15000
)

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.StringVar(&cfg.configPath, "config", "", "path to a game config (.json/.yaml/.yml, optionally .zst); default: embedded demo")
	flag.StringVar(&cfg.game, "game", catalog.NameFromFile(demo_configs.Default), "embedded demo game name (ignored with --config)")
	flag.StringVar(&cfg.betting, "betting-amount", "", "betting amount, a positive decimal (required unless --request)")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.prng, "prng", "pcg64", "prng: pcg64, pcg32")
	flag.StringVar(&cfg.format, "format", "text", "round output: text, json")
	flag.IntVar(&cfg.rounds, "rounds", 1, "rounds to play; > 1 prints a simulation report")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.players, "players", 0, "number of simulated players (0: machine simulation only)")
	flag.IntVar(&cfg.initBets, "init-bets", 200, "initial balance of each player, in bets")
	flag.StringVar(&cfg.report, "report", "text", "simulation report: text, json, yaml")
	flag.StringVar(&cfg.logMode, "log", "dev", "log mode: dev, prod, silence")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")
	flag.StringVar(&cfg.restore, "restore", "", "replay a round from a base64url PRNG snapshot")
	flag.StringVar(&cfg.request, "request", "", "play one round from a JSON round request file ('-' for stdin)")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "print the PRNG snapshots of the round")

	flag.Parse()

	// given seed illeagel -> crypto seed
	if cfg.seed < 0 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			fmt.Fprintln(os.Stderr, "new crypto seed failed:", err)
			os.Exit(1)
		}
		cfg.seed = seed.Int64()
	}
}

func execute() {
	mode, ok := logger.ParseLogMode(cfg.logMode)
	if !ok {
		mode = logger.ModeDev
	}
	cfg.quiet = mode == logger.ModeSilence
	log, ah := logger.NewAsync(1024, mode)
	defer ah.Close()

	if err := cfg.valid(); err != nil {
		fatal(log, err)
		return
	}
	m, s, err := build(log)
	if err != nil {
		fatal(log, err)
		return
	}
	log.Debug("machine ready", "game", m.GameName(), "seed", m.InitSeed(), "prng", cfg.prng)

	if cfg.rounds > 1 || cfg.players > 0 {
		err = simulate(os.Stdout, s)
	} else {
		err = playOne(os.Stdout, m)
	}
	if err != nil {
		fatal(log, err)
	}
}

// build 依旗標組出機台與模擬器（兩者各自持有亂數流，模擬器的第一台機台與 m 同 seed）
func build(log *slog.Logger) (*scratchlab.Machine, *scratchlab.Simulator, error) {
	cf, err := core.FactoryByName(cfg.prng)
	if err != nil {
		return nil, nil, err
	}
	lab, err := demo.NewLab(log, cf)
	if err != nil {
		return nil, nil, err
	}
	if cfg.configPath == "" {
		m, err := lab.NewMachineWithSeed(cfg.game, cfg.seed)
		if err != nil {
			return nil, nil, err
		}
		s, err := lab.NewSimulatorWithSeed(cfg.game, cfg.seed)
		if err != nil {
			return nil, nil, err
		}
		return m, s, nil
	}

	// 外部設定檔不進目錄，直接以解析好的設定建立
	gs, err := spec.LoadFile(cfg.configPath)
	if err != nil {
		return nil, nil, err
	}
	if gs.GameName == "" {
		gs.GameName = catalog.NameFromFile(filepath.Base(cfg.configPath))
	}
	m, err := lab.NewMachineBySetting(gs, cfg.seed)
	if err != nil {
		return nil, nil, err
	}
	s, err := lab.NewSimulatorBySetting(gs, cfg.seed)
	if err != nil {
		return nil, nil, err
	}
	return m, s, nil
}

// roundRequest 讀 --request 檔（"-" 為 stdin）；未指定時由 --betting-amount / --restore 組成
func roundRequest(stdin io.Reader) (*dto.RoundRequest, error) {
	if cfg.request == "" {
		req := &dto.RoundRequest{BettingAmount: cfg.bet.String()}
		if cfg.restore != "" {
			req.StartState = &dto.StartState{StartCoreSnapB64U: cfg.restore}
		}
		return req, nil
	}
	if cfg.request == "-" {
		return dto.DecodeRoundRequest(stdin)
	}
	f, err := os.Open(cfg.request)
	if err != nil {
		return nil, errs.WrapWarn(err, "open --request failed")
	}
	defer f.Close()
	return dto.DecodeRoundRequest(f)
}

func playOne(w io.Writer, m *scratchlab.Machine) error {
	req, err := roundRequest(os.Stdin)
	if err != nil {
		return err
	}
	rr, err := m.PlayRequest(req)
	if err != nil {
		return err
	}
	if !cfg.snapshot && !req.StartState.HasPayload() {
		rr.State = nil
	}

	switch cfg.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rr)
	default:
		if err := dto.NewPrinter(w).Print(&rr); err != nil {
			return err
		}
		if rr.State != nil {
			fmt.Fprintf(w, "start snapshot: %s\n", rr.State.StartCoreSnapB64U)
			fmt.Fprintf(w, "after snapshot: %s\n", rr.State.AfterCoreSnapB64U)
		}
		return nil
	}
}

func simulate(w io.Writer, s *scratchlab.Simulator) error {
	render, _ := stats.NewStatReportRender(cfg.report)
	if cfg.restore != "" {
		snap, err := corefmt.DecodeSnapshot(cfg.restore)
		if err != nil {
			return errs.Wrap(err, "decode snapshot failed")
		}
		if err := s.Machine().RestoreCore(snap); err != nil {
			return errs.Wrap(err, "restore simulator failed")
		}
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	text := cfg.report == "text"

	var (
		st   *stats.StatReport
		est  *stats.EstimatorPlayers
		used time.Duration
		err  error
	)
	switch {
	case cfg.players > 0: // 模擬多玩家體驗
		if text {
			p.Fprintf(w, "%s[WORKERS:%d] [GAME:%s] [PLAYERS:%d BALANCE:%d BET:%s ROUNDS:%d]%s\n", green, cfg.worker, s.GameName, cfg.players, cfg.initBets, cfg.bet, cfg.rounds, reset)
		}
		st, est, used, err = s.SimPlayers(cfg.worker, cfg.players, cfg.initBets, cfg.bet, cfg.rounds, text)
	case cfg.worker > 1: // 併發
		if text {
			p.Fprintf(w, "%s[WORKERS:%d] [GAME:%s] [BET:%s] [ROUNDS:%d]%s\n", green, cfg.worker, s.GameName, cfg.bet, cfg.worker*cfg.rounds, reset)
		}
		st, used, err = s.SimMP(cfg.bet, cfg.rounds, cfg.worker, text)
	default: // 單線程
		if text {
			p.Fprintf(w, "%s[GAME:%s] [BET:%s] [ROUNDS:%d]%s\n", green, s.GameName, cfg.bet, cfg.rounds, reset)
		}
		st, used, err = s.Sim(cfg.bet, cfg.rounds, text)
	}
	if err != nil {
		return err
	}

	if text {
		stats.FormatDuration(w, used, st.Summary.Rounds)
	}
	if err := st.WriteWith(w, render); err != nil {
		return err
	}
	if est == nil {
		return nil
	}
	return estimatorRender(cfg.report).Write(w, est)
}

func estimatorRender(name string) stats.EstimatorRender {
	switch name {
	case "json":
		return &stats.JsonEstimatorRender{}
	case "yaml", "yml":
		return &stats.YAMLEstimatorRender{}
	default:
		return &stats.TextEstimatorRender{}
	}
}

func (cfg *config) valid() error {
	if cfg.request != "" {
		// 下注與快照都由請求檔提供
		if cfg.rounds > 1 || cfg.players > 0 || cfg.restore != "" {
			return errs.NewWarn("--request plays a single round; drop --rounds, --players and --restore")
		}
	} else {
		bet, err := dto.ParseBet(cfg.betting)
		if err != nil {
			return errs.Wrap(err, "invalid --betting-amount")
		}
		cfg.bet = bet
	}

	if _, ok := logger.ParseLogMode(cfg.logMode); !ok {
		return errs.NewWarn("invalid --log").With("log", cfg.logMode)
	}
	if cfg.format != "text" && cfg.format != "json" {
		return errs.NewWarn("invalid --format").With("format", cfg.format)
	}
	if _, ok := stats.NewStatReportRender(cfg.report); !ok {
		return errs.NewWarn("invalid --report").With("report", cfg.report)
	}

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	// 局數檢查
	if cfg.rounds < 1 {
		return errs.NewWarn("value err : rounds must > 0")
	}
	if cfg.players < 0 {
		return errs.NewWarn("value err : players must >= 0")
	}
	if cfg.players == 0 {
		return nil
	}

	p := message.NewPrinter(language.English)
	// 模擬玩家行為的時候，玩家帶入資金不能<1
	if cfg.initBets < 1 {
		return errs.NewWarn("value err : init-bets must >= 1")
	}
	// 玩家數量太多 resize
	if cfg.players > maxPlayers {
		p.Fprintf(os.Stderr, "too much players: %d resized to 100k players\n", cfg.players)
		cfg.players = maxPlayers
	}
	// 每個玩家最多 15000 張，再多就是長期行為，直接模擬機台即可
	if cfg.rounds > maxRoundsPerPlayer {
		p.Fprintf(os.Stderr, "too much rounds for each player : %d resized to 15k rounds for each player\n", cfg.rounds)
		cfg.rounds = maxRoundsPerPlayer
	}
	return nil
}

func fatal(log *slog.Logger, err error) {
	exitCode = 1
	if cfg.quiet {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}
	logger.LogErr(log, "scratchlab run failed", err)
}
