package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"Lo"`
	Hi float64 `json:"Hi" yaml:"Hi"`
}

// StatReport 刮刮樂模擬統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary"          yaml:"Summary"`
	Mult    *MultReport    `json:"Mult"             yaml:"Mult"`
	Dist    *DistReport    `json:"Dist"             yaml:"Dist"`
	Rules   *HitReport     `json:"Rules"            yaml:"Rules"`
	Bonus   *HitReport     `json:"Bonus"            yaml:"Bonus"`
	Player  *PlayerReport  `json:"Player,omitempty" yaml:"Player,omitempty"`
	isDone  bool
}

type SummaryReport struct {
	GameName       string          `json:"GameName"       yaml:"GameName"`
	Bet            decimal.Decimal `json:"Bet"            yaml:"Bet"`
	TotalBet       decimal.Decimal `json:"TotalBet"       yaml:"TotalBet"`
	TotalWin       decimal.Decimal `json:"TotalWin"       yaml:"TotalWin"`
	RTP            float64         `json:"RTP"            yaml:"RTP"`
	RtpCI          CI              `json:"RtpCI"          yaml:"RtpCI"`
	Std            float64         `json:"Std"            yaml:"Std"`
	Cv             float64         `json:"Cv"             yaml:"Cv"`
	ComboRounds    int             `json:"ComboRounds"    yaml:"ComboRounds"`    // 至少一條規則成立的局數
	BonusRounds    int             `json:"BonusRounds"    yaml:"BonusRounds"`    // 抽到非 MISS bonus 的局數
	MultiplyRounds int             `json:"MultiplyRounds" yaml:"MultiplyRounds"` // 其中 MULTIPLY_REWARD
	ExtraRounds    int             `json:"ExtraRounds"    yaml:"ExtraRounds"`    // 其中 EXTRA_BONUS
	BonusRate      float64         `json:"BonusRate"      yaml:"BonusRate"`
	NoWinRounds    int             `json:"NoWinRounds"    yaml:"NoWinRounds"`
	HitRate        float64         `json:"HitRate"        yaml:"HitRate"`
	HitRateCI      CI              `json:"HitRateCI"      yaml:"HitRateCI"`
	Rounds         int             `json:"Rounds"         yaml:"Rounds"`
}

// MultReport 贏倍統計（獎金 / 下注）
type MultReport struct {
	TotalWinMult      float64 `json:"TotalWinMult"      yaml:"TotalWinMult"`
	TotalWinMultSqSum float64 `json:"TotalWinMultSqSum" yaml:"TotalWinMultSqSum"` // 平方和
}

// DistReport 贏倍區間落點統計
type DistReport struct {
	WinBucket       []string  `json:"WinBucket"       yaml:"WinBucket"`
	TotalWinCollect []int     `json:"TotalWinCollect" yaml:"TotalWinCollect"`
	TotalWinDist    []float64 `json:"TotalWinDist"    yaml:"TotalWinDist"`
}

// HitReport 依設定檔順序的命中次數，Rates 在 Done 時以總局數換算。
type HitReport struct {
	Labels []string  `json:"Labels" yaml:"Labels"`
	Counts []int     `json:"Counts" yaml:"Counts"`
	Rates  []float64 `json:"Rates"  yaml:"Rates"`
}

// PlayerReport 玩家統計
//
// 需使用 RecordWithPlayer 才會統計
type PlayerReport struct {
	InitBalance decimal.Decimal `json:"InitBalance" yaml:"InitBalance"`
	Balance     decimal.Decimal `json:"Balance"     yaml:"Balance"`
	MaxBalance  decimal.Decimal `json:"MaxBalance"  yaml:"MaxBalance"`
	MinBalance  decimal.Decimal `json:"MinBalance"  yaml:"MinBalance"`
	Bust        bool            `json:"Bust"        yaml:"Bust"`
	Cashout     bool            `json:"Cashout"     yaml:"Cashout"`
	Alive       bool            `json:"Alive"       yaml:"Alive"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 紀錄過程只累加計數與和，統計完成後請呼叫 Done 一次性計算衍生指標
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	// Summary
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()
	s.Summary.HitRate, s.Summary.HitRateCI = s.HitRate()
	s.Summary.BonusRate = s.rate(s.Summary.BonusRounds)

	// Dist
	if s.Dist != nil {
		s.Dist.TotalWinDist = make([]float64, len(s.Dist.TotalWinCollect))
		for i, c := range s.Dist.TotalWinCollect {
			s.Dist.TotalWinDist[i] = s.rate(c)
		}
	}
	s.Rules.done(s.Summary.Rounds)
	s.Bonus.done(s.Summary.Rounds)

	// Player
	if s.Player != nil {
		s.Player.Alive = !(s.Player.Bust || s.Player.Cashout)
	}

	s.isDone = true
}

// Rtp 回傳整體 RTP（總贏分 / 總押注）
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 || s.Summary.TotalBet.IsZero() {
		return 0
	}
	return s.Summary.TotalWin.Div(s.Summary.TotalBet).InexactFloat64()
}

// Std 回傳單局贏倍的樣本標準差
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)

	winMultPow := s.Mult.TotalWinMult * s.Mult.TotalWinMult
	variance := (s.Mult.TotalWinMultSqSum - winMultPow/rounds) / (rounds - 1)

	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv 回傳單局贏倍的變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	if rtp <= 0 {
		return 0
	}
	return s.Std() / rtp
}

// Ci 回傳(95% Rtp)信賴區間，z 值取自標準常態分位數
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	rtpSe := float64(0)
	if s.Summary.Rounds > 1 {
		rtpSe = s.Std() / math.Sqrt(float64(s.Summary.Rounds))
	}
	z := distuv.UnitNormal.Quantile(0.975)
	return CI{
		Lo: max(rtp-z*rtpSe, 0.0),
		Hi: rtp + z*rtpSe,
	}
}

// HitRate 回傳有獎局比例與 Clopper–Pearson 95% CI
func (s *StatReport) HitRate() (float64, CI) {
	p := proportion(s.Summary.Rounds-s.Summary.NoWinRounds, s.Summary.Rounds)
	return p.Hat, p.CI
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 印出用時與統計表
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	FormatDuration(os.Stdout, ut, s.Summary.Rounds)
	fmt.Println(s.table())
}

// ============================================================
// ** 內部方法 **
// ============================================================

func (s *StatReport) rate(c int) float64 {
	if s.Summary.Rounds == 0 {
		return 0
	}
	return float64(c) / float64(s.Summary.Rounds)
}

func (h *HitReport) done(rounds int) {
	if h == nil {
		return
	}
	h.Rates = make([]float64, len(h.Counts))
	if rounds == 0 {
		return
	}
	for i, c := range h.Counts {
		h.Rates[i] = float64(c) / float64(rounds)
	}
}

// FormatDuration 印出用時與每秒局數
func FormatDuration(w io.Writer, d time.Duration, rounds int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	rps := int(float64(rounds) / sec)
	if sec < 60.0 {
		p.Fprintf(w, "used: %.2f seconds\nrps : %d rounds/sec\n", sec, rps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Fprintf(w, "used: %dm %ds\nrps : %d rounds/sec\n", m, s, rps)
		return
	}
	p.Fprintf(w, "used: %dh:%dm:%ds\nrps : %d rounds/sec\n", h, m, s, rps)
}

func (s *StatReport) table() string {
	sk, sm := s.fmtBasic()
	out := fmtTable(s.Summary.GameName, sk, sm)
	if s.Rules != nil && len(s.Rules.Labels) > 0 {
		k, m := fmtHits(s.Rules)
		out += fmtTable("Winning Combinations", k, m)
	}
	if s.Bonus != nil && len(s.Bonus.Labels) > 0 {
		k, m := fmtHits(s.Bonus)
		out += fmtTable("Bonus Symbols", k, m)
	}
	return out
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Game Name":    p.Sprintf("%s", s.Summary.GameName),
		"Bet":          s.Summary.Bet.String(),
		"Total Rounds": p.Sprintf("%d", s.Summary.Rounds),
		"Total RTP":    p.Sprintf("%.2f %%", 100.0*s.Summary.RTP),
		"RTP 95% CI":   p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.RtpCI.Lo, 100.0*s.Summary.RtpCI.Hi),
		"Total Bet":    s.Summary.TotalBet.StringFixed(2),
		"Total Win":    s.Summary.TotalWin.StringFixed(2),
		"Hit Rate":     p.Sprintf("%.2f %%", 100.0*s.Summary.HitRate),
		"Hit 95% CI":   p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.HitRateCI.Lo, 100.0*s.Summary.HitRateCI.Hi),
		"NoWin Rounds": p.Sprintf("%d", s.Summary.NoWinRounds),
		"Combo Rounds": p.Sprintf("%d", s.Summary.ComboRounds),
		"Bonus Rounds": p.Sprintf("%d (x%d / +%d)", s.Summary.BonusRounds, s.Summary.MultiplyRounds, s.Summary.ExtraRounds),
		"STD":          p.Sprintf("%.3f", s.Summary.Std),
		"CV":           p.Sprintf("%.3f", s.Summary.Cv),
	}
	keys := []string{"Game Name", "Bet", "Total Rounds", "Total RTP", "RTP 95% CI", "Total Bet", "Total Win", "Hit Rate", "Hit 95% CI", "NoWin Rounds", "Combo Rounds", "Bonus Rounds", "STD", "CV"}
	return keys, basic
}

func fmtHits(h *HitReport) ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	msg := make(map[string]string, len(h.Labels))
	for i, l := range h.Labels {
		rate := 0.0
		if i < len(h.Rates) {
			rate = h.Rates[i]
		}
		msg[l] = p.Sprintf("%d (%.4f %%)", h.Counts[i], 100.0*rate)
	}
	return h.Labels, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
