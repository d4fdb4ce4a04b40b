package stats

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// StatReportRender 定義輸出行為
type StatReportRender interface {
	Write(w io.Writer, r *StatReport) error
}

// 文字表格渲染
type TextStatReportRender struct{}

func (tr *TextStatReportRender) Write(w io.Writer, r *StatReport) error {
	_, err := io.WriteString(w, r.table())
	return err
}

// Json渲染
type JsonStatReportRender struct{}

func (jr *JsonStatReportRender) Write(w io.Writer, r *StatReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// YAML渲染
type YAMLStatReportRender struct{}

func (yr *YAMLStatReportRender) Write(w io.Writer, r *StatReport) error {
	// 不管欄位，只要是陣列（YAML Sequence），就維持外層預設展開；
	// 只有「最內層的一維陣列」或「本身就是一維陣列」時才輸出成 flow style：[..., ...]
	return forceReadableList(w, r)
}

// NewStatReportRender 依名稱取得渲染器：text / json / yaml
func NewStatReportRender(name string) (StatReportRender, bool) {
	switch name {
	case "", "text":
		return &TextStatReportRender{}, true
	case "json":
		return &JsonStatReportRender{}, true
	case "yaml", "yml":
		return &YAMLStatReportRender{}, true
	default:
		return nil, false
	}
}

type EstimatorRender interface {
	Write(w io.Writer, e *EstimatorPlayers) error
}

// 文字渲染
type TextEstimatorRender struct{}

func (tr *TextEstimatorRender) Write(w io.Writer, e *EstimatorPlayers) error {
	_, err := io.WriteString(w, e.table())
	return err
}

// Json渲染
type JsonEstimatorRender struct{}

func (jr *JsonEstimatorRender) Write(w io.Writer, e *EstimatorPlayers) error {
	return json.NewEncoder(w).Encode(e)
}

// YAML渲染
type YAMLEstimatorRender struct{}

func (yr *YAMLEstimatorRender) Write(w io.Writer, e *EstimatorPlayers) error {
	// 不管欄位，只要是陣列（YAML Sequence），就維持外層預設展開；
	// 只有「最內層的一維陣列」或「本身就是一維陣列」時才輸出成 flow style：[..., ...]
	return forceReadableList(w, e)
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}

	// 自頂向下調整所有 sequence node 的 style：
	// - 若該 sequence 內部「沒有子 sequence」，代表它是最內層的一維（或本身就是一維）=> 用 flow style: [...]
	// - 若該 sequence 內部「有子 sequence」，代表它是外層維度 => 保持預設 block（展開）
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		return

	case yaml.SequenceNode:
		// 先判斷這個 sequence 是否包含子 sequence（代表外層維度）
		hasChildSeq := false
		for _, c := range n.Content {
			if c != nil && c.Kind == yaml.SequenceNode {
				hasChildSeq = true
				break
			}
		}

		// 先遞迴處理子節點（讓最內層先被標記成 flow）
		for _, c := range n.Content {
			styleReadableSequences(c)
		}

		// 最內層一維（或本身就是一維）=> flow style: [a, b, c]
		// 外層維度 => 保持預設 block style（不強制設定 style）
		if !hasChildSeq {
			n.Style = yaml.FlowStyle
		}
		return

	default:
		// Scalar / Alias 等不處理
		return
	}
}

// 玩家體驗文字表格，沿用 StatReport 的框線格式

func (e *EstimatorPlayers) table() string {
	p := message.NewPrinter(lang)
	title := p.Sprintf("Player Experience (%d players)", e.Players)

	keys := []string{"Median RTP"}
	msg := map[string]string{"Median RTP": fmtPoint(e.RtpStat.Median)}
	for _, q := range e.RtpStat.Quantiles {
		k := fmt.Sprintf("P%.0f RTP", 100*q.Q)
		keys = append(keys, k)
		msg[k] = fmtPoint(q.PointStat)
	}
	for _, th := range e.RtpStat.Thresholds {
		k := fmt.Sprintf("RTP <= %.0f%% (players)", 100*th.Rtp)
		keys = append(keys, k)
		msg[k] = fmtPoint(th.PointStat)
	}
	out := fmtTable(title, keys, msg)

	ek := []string{"MULTIPLY_REWARD", "EXTRA_BONUS"}
	out += fmtTable("Bonus Tickets per Player", ek, map[string]string{
		"MULTIPLY_REWARD": fmtEvent(e.EventStat.Multiply),
		"EXTRA_BONUS":     fmtEvent(e.EventStat.Extra),
	})
	if len(e.EventStat.Rules.Labels) > 0 {
		out += fmtTable("Rule Hits per Player", e.EventStat.Rules.Labels, e.EventStat.Rules.msg())
	}
	out += fmtTable("Win Buckets per Player", e.EventStat.Buckets.Labels, e.EventStat.Buckets.msg())

	out += fmtTable("Session Outcome", []string{"Bust", "Cashout", "Alive"}, map[string]string{
		"Bust":    fmtPoint(e.SessionStat.Bust),
		"Cashout": fmtPoint(e.SessionStat.Cashout),
		"Alive":   fmtPoint(e.SessionStat.Alive),
	})
	return out
}

func (le LabeledEvents) msg() map[string]string {
	m := make(map[string]string, len(le.Labels))
	for i, l := range le.Labels {
		m[l] = fmtEvent(le.Counts[i])
	}
	return m
}

func fmtPoint(ps PointStat) string {
	return fmt.Sprintf("%.2f%% [%.2f%%, %.2f%%]", 100*ps.Hat, 100*ps.CI.Lo, 100*ps.CI.Hi)
}

func fmtEvent(ec EventCount) string {
	return fmt.Sprintf("0x %.2f%% | 1x %.2f%% | 2x %.2f%% | 3+x %.2f%%",
		100*ec.Zero.Hat, 100*ec.One.Hat, 100*ec.Two.Hat, 100*ec.More.Hat)
}
