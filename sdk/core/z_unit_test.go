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

package core

import (
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	for _, name := range []string{"pcg64", "pcg32"} {
		f, err := FactoryByName(name)
		if err != nil {
			t.Fatalf("factory %s: %v", name, err)
		}
		c1 := New(f.New(7))
		c2 := New(f.New(7))
		for i := 0; i < 5; i++ {
			if c1.Uint64() != c2.Uint64() {
				t.Fatalf("[%s] Uint64 mismatch at %d", name, i)
			}
		}
		if c1.IntN(10) != c2.IntN(10) {
			t.Fatalf("[%s] IntN mismatch", name)
		}
		if c1.Float64() != c2.Float64() {
			t.Fatalf("[%s] Float64 mismatch", name)
		}
	}
}

func TestFactoryByNameUnknown(t *testing.T) {
	if _, err := FactoryByName("mt19937"); err == nil {
		t.Fatalf("expected error for unknown prng")
	}
}

func TestBoundedRanges(t *testing.T) {
	c := New(Default().New(3))
	c32 := New(NewPCG32(3))
	for i := 0; i < 1000; i++ {
		if v := c.IntN(7); v < 0 || v >= 7 {
			t.Fatalf("pcg64 IntN out of range: %d", v)
		}
		if v := c32.IntN(7); v < 0 || v >= 7 {
			t.Fatalf("pcg32 IntN out of range: %d", v)
		}
		if f := c.Float64(); f < 0 || f >= 1 {
			t.Fatalf("pcg64 Float64 out of range: %v", f)
		}
		if f := c32.Float64(); f < 0 || f >= 1 {
			t.Fatalf("pcg32 Float64 out of range: %v", f)
		}
	}
	if c.IntN(0) != -1 || c32.IntN(-1) != -1 {
		t.Fatalf("expected -1 for non-positive bound")
	}
}

func TestSnapshotRestore(t *testing.T) {
	for _, rng := range []PRNG{NewPCG64(11), NewPCG32(11)} {
		_ = rng.Uint64()
		snap, err := rng.Snapshot()
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		want := []uint64{rng.Uint64(), rng.Uint64(), rng.Uint64()}
		if err := rng.Restore(snap); err != nil {
			t.Fatalf("restore: %v", err)
		}
		for i, w := range want {
			if got := rng.Uint64(); got != w {
				t.Fatalf("replay mismatch at %d: got %d want %d", i, got, w)
			}
		}
	}
}

func TestPCG32RestoreRejectsBadInput(t *testing.T) {
	r := NewPCG32(1)
	if err := r.Restore([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected length error")
	}
	bad := make([]byte, 16) // inc = 0 (even)
	if err := r.Restore(bad); err == nil {
		t.Fatalf("expected even increment error")
	}
}

func TestScriptedReplay(t *testing.T) {
	s := NewScripted(0.1, 0.5, 2.0, -1)
	want := []float64{0.1, 0.5, almostOne, 0, 0.1}
	for i, w := range want {
		if got := s.Float64(); got != w {
			t.Fatalf("draw %d: got %v want %v", i, got, w)
		}
	}
	if s.Drawn() != 5 {
		t.Fatalf("expected 5 draws, got %d", s.Drawn())
	}

	snap, _ := s.Snapshot()
	a := s.Float64()
	if err := s.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if b := s.Float64(); a != b {
		t.Fatalf("scripted restore mismatch: %v vs %v", a, b)
	}
}

func TestFromUniformIntN(t *testing.T) {
	c := NewScriptedCore(0, 0.25, 0.999999, 0.5)
	want := []int{0, 1, 3, 2}
	for i, w := range want {
		if got := c.IntN(4); got != w {
			t.Fatalf("IntN draw %d: got %d want %d", i, got, w)
		}
	}
	if c.IntN(0) != -1 {
		t.Fatalf("expected -1 for zero bound")
	}
}

type plainUniform struct{}

func (plainUniform) Float64() float64 { return 0.5 }

func TestFromUniformNotRestorable(t *testing.T) {
	p := FromUniform(plainUniform{})
	if _, err := p.Snapshot(); err == nil {
		t.Fatalf("expected snapshot error for non-restorable source")
	}
	if err := p.Restore(nil); err == nil {
		t.Fatalf("expected restore error for non-restorable source")
	}
}
