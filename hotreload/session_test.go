package hotreload_test

import (
	"testing"
	"time"

	"github.com/deevus/livefrag/hotreload"
	"pgregory.net/rapid"
)

func TestBackoff_Sequence(t *testing.T) {
	b := hotreload.Backoff{Base: time.Second}
	want := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 10, 10}
	for i, w := range want {
		if got := b.Next(); got != w*time.Second {
			t.Fatalf("attempt %d: expected %v, got %v", i, w*time.Second, got)
		}
	}
	b.Reset()
	if got := b.Next(); got != time.Second {
		t.Errorf("expected reset to base, got %v", got)
	}
}

func TestBackoff_Bounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Duration(rapid.IntRange(1, 5000).Draw(t, "base_ms")) * time.Millisecond
		s := hotreload.NewSession(base)
		ops := rapid.SliceOf(rapid.SampledFrom([]string{"open", "close"})).Draw(t, "ops")

		prev := time.Duration(0)
		for _, op := range ops {
			switch op {
			case "open":
				s.Opened(time.Time{})
				if s.Delay() != base {
					t.Fatalf("delay %v not reset to base %v", s.Delay(), base)
				}
				prev = 0
			case "close":
				d := s.Closed()
				if d < base || d > 10*base {
					t.Fatalf("delay %v outside [%v, %v]", d, base, 10*base)
				}
				if prev != 0 && d != min(prev+base, 10*base) {
					t.Fatalf("delay %v after %v is not additive", d, prev)
				}
				prev = d
			}
			if d := s.Delay(); d < base || d > 10*base {
				t.Fatalf("next delay %v outside [%v, %v]", d, base, 10*base)
			}
		}
	})
}

func TestSession_DefaultBase(t *testing.T) {
	s := hotreload.NewSession(0)
	if s.Delay() != hotreload.DefaultBaseDelay {
		t.Errorf("expected %v, got %v", hotreload.DefaultBaseDelay, s.Delay())
	}
	if s.State() != hotreload.Connecting {
		t.Errorf("expected connecting, got %v", s.State())
	}
}

func TestSession_FirstTokenIsBaseline(t *testing.T) {
	s := hotreload.NewSession(time.Second)
	s.Opened(time.Time{})

	if s.Message("v1") {
		t.Fatal("first token triggered a reload")
	}
	if base, ok := s.Baseline(); !ok || base != "v1" {
		t.Fatalf("expected baseline v1, got %q %v", base, ok)
	}
	if s.Message("v1") {
		t.Error("identical token triggered a reload")
	}
	if !s.Message("v2") {
		t.Fatal("changed token did not trigger a reload")
	}
	if s.State() != hotreload.Reloading {
		t.Errorf("expected reloading, got %v", s.State())
	}
	if s.Message("v3") || s.Message("v1") {
		t.Error("message handled after reload began")
	}
}

func TestSession_EmptyTokenIsAValidBaseline(t *testing.T) {
	s := hotreload.NewSession(time.Second)
	if s.Message("") {
		t.Fatal("first token triggered a reload")
	}
	if !s.Message("v1") {
		t.Error("change from empty baseline did not trigger a reload")
	}
}

func TestSession_BaselineSurvivesReconnect(t *testing.T) {
	s := hotreload.NewSession(time.Second)
	s.Opened(time.Time{})
	s.Message("v1")
	s.Closed()
	s.Opened(time.Time{})
	if !s.Message("v2") {
		t.Error("new version after reconnect did not trigger a reload")
	}
}

func TestSession_ReloadsAtMostOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tokens := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c"}), 1, 50).Draw(t, "tokens")
		s := hotreload.NewSession(time.Second)

		reloads := 0
		firstDiff := -1
		for i, tok := range tokens {
			if s.Message(tok) {
				reloads++
			}
			if firstDiff < 0 && tok != tokens[0] {
				firstDiff = i
			}
		}
		want := 0
		if firstDiff > 0 {
			want = 1
		}
		if reloads != want {
			t.Fatalf("tokens %v: expected %d reloads, got %d", tokens, want, reloads)
		}
	})
}

func TestSession_ConnectedAt(t *testing.T) {
	s := hotreload.NewSession(time.Second)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !s.ConnectedAt().IsZero() {
		t.Error("expected zero before connecting")
	}
	s.Opened(at)
	if !s.ConnectedAt().Equal(at) {
		t.Errorf("expected %v, got %v", at, s.ConnectedAt())
	}
	s.Closed()
	if !s.ConnectedAt().IsZero() {
		t.Error("expected zero after close")
	}
}
