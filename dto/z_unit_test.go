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
package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scratchlab/errs"
	"github.com/zintix-labs/scratchlab/sdk/calc"
	"github.com/zintix-labs/scratchlab/sdk/gen"
	"github.com/zintix-labs/scratchlab/spec"
)

func sampleOutcome() *calc.Outcome {
	return &calc.Outcome{
		Bet:    decimal.NewFromInt(10),
		Matrix: gen.Matrix{{"A", "A", "A"}, {"B", "+1000", "C"}},
		Applied: &calc.Applied{
			Hits:  map[string][]string{"A": {"same_symbols_3", "same_symbolA"}, "B": {"same_symbolB"}},
			Order: []string{"B", "A"},
		},
		Reward: decimal.RequireFromString("20.5"),
		Bonus:  &spec.Symbol{ID: "MISS", Type: spec.SymbolTypeBonus, Impact: spec.ImpactMiss},
	}
}

func TestRoundResultJSON(t *testing.T) {
	rr, err := NewRoundResultDTO(sampleOutcome())
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(rr)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if reward, ok := got["reward"].(float64); !ok || reward != 20.5 {
		t.Fatalf("reward should be a JSON number, got %v (%s)", got["reward"], raw)
	}
	if got["applied_bonus_symbol"] != "MISS" {
		t.Fatalf("unexpected bonus: %v", got["applied_bonus_symbol"])
	}
	if _, ok := got["state"]; ok {
		t.Fatalf("state must be omitted unless requested")
	}
	combos := got["applied_winning_combinations"].(map[string]any)
	if len(combos) != 2 || len(combos["A"].([]any)) != 2 {
		t.Fatalf("unexpected combinations: %v", combos)
	}
	matrix := got["matrix"].([]any)
	if len(matrix) != 2 || len(matrix[0].([]any)) != 3 {
		t.Fatalf("unexpected matrix: %v", matrix)
	}

	var back RoundResult
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Reward.Equal(rr.Reward) {
		t.Fatalf("reward lost in json: %s", back.Reward)
	}
}

func TestRoundResultNoBonus(t *testing.T) {
	o := sampleOutcome()
	o.Bonus = nil
	o.Applied = &calc.Applied{Hits: map[string][]string{}}
	rr, err := NewRoundResultDTO(o)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := json.Marshal(rr)
	if !strings.Contains(string(raw), `"applied_bonus_symbol":null`) {
		t.Fatalf("missing bonus should be null: %s", raw)
	}
	if !strings.Contains(string(raw), `"applied_winning_combinations":{}`) {
		t.Fatalf("no combinations should be an empty object: %s", raw)
	}
	if _, err := NewRoundResultDTO(nil); err == nil {
		t.Fatalf("expected error for nil outcome")
	}
}

func TestRoundResultDoesNotShareMatrix(t *testing.T) {
	o := sampleOutcome()
	rr, _ := NewRoundResultDTO(o)
	o.Matrix[0][0] = "Z"
	if rr.Matrix[0][0] != "A" {
		t.Fatalf("dto must deep copy the matrix")
	}
}

func TestRoundResultState(t *testing.T) {
	rr, _ := NewRoundResultDTO(sampleOutcome())
	rr.WithState([]byte{1, 2, 3}, []byte{4, 5, 6})
	raw, _ := json.Marshal(rr)
	if !strings.Contains(string(raw), `"start_b64u":"AQID"`) || !strings.Contains(string(raw), `"after_b64u":"BAUG"`) {
		t.Fatalf("unexpected state: %s", raw)
	}
}

func TestPrinter(t *testing.T) {
	rr, _ := NewRoundResultDTO(sampleOutcome())
	var buf bytes.Buffer
	if err := NewPrinter(&buf).Print(&rr); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"A      A      A",
		"B      +1000  C",
		"Total Reward: 20.5",
		"Winning Combinations:",
		"  B: same_symbolB",
		"  A: same_symbols_3, same_symbolA",
		"Applied Bonus Symbol: MISS",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestDecodeRoundRequest(t *testing.T) {
	req, err := DecodeRoundRequest(strings.NewReader(`{"betting_amount":"10.5","start_state":{"start_b64u":"AQID"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bet, snap, err := req.Parse()
	if err != nil {
		t.Fatal(err)
	}
	if !bet.Equal(decimal.RequireFromString("10.5")) || !bytes.Equal(snap, []byte{1, 2, 3}) {
		t.Fatalf("unexpected parse: %s %v", bet, snap)
	}

	if _, err := DecodeRoundRequest(strings.NewReader(`{"betting_amount":"1","unknown":true}`)); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestParseBet(t *testing.T) {
	for _, bad := range []string{"", "abc", "0", "-5"} {
		_, err := ParseBet(bad)
		if err == nil {
			t.Fatalf("expected error for %q", bad)
		}
		if errs.LevelOf(err) != errs.Warn {
			t.Fatalf("bet errors are input errors, got level %v", errs.LevelOf(err))
		}
	}
	bet, err := ParseBet("0.01")
	if err != nil || !bet.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("unexpected bet %s err=%v", bet, err)
	}
}
