package widgets_test

import (
	"testing"

	"github.com/deevus/livefrag/widgets"
)

func TestSparkline_Draw_Empty(t *testing.T) {
	sl := &widgets.Sparkline{}
	s, err := sl.Draw(testDrawContext(20, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Size.Height != 1 {
		t.Errorf("expected height=1, got %d", s.Size.Height)
	}
}

func TestSparkline_Draw_ScalesFromZero(t *testing.T) {
	sl := &widgets.Sparkline{Values: []float64{0, 35, 70}}
	s, err := sl.Draw(testDrawContext(10, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"▁", "▅", "█"}
	for i, w := range want {
		if g := cellText(s.Buffer[i]); g != w {
			t.Errorf("col %d: expected %q, got %q", i, w, g)
		}
	}
}

func TestSparkline_Draw_MoreDataThanWidth(t *testing.T) {
	vals := make([]float64, 60)
	for i := range vals {
		vals[i] = float64(i)
	}
	sl := &widgets.Sparkline{Values: vals}
	s, err := sl.Draw(testDrawContext(10, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The newest value is the largest and lands in the last column.
	if g := cellText(s.Buffer[9]); g != "█" {
		t.Errorf("expected full block in last column, got %q", g)
	}
}

func TestSparkline_Draw_FlatZero(t *testing.T) {
	sl := &widgets.Sparkline{Values: []float64{0, 0, 0}}
	s, err := sl.Draw(testDrawContext(20, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g := cellText(s.Buffer[0]); g != "▁" {
		t.Errorf("expected lowest block, got %q", g)
	}
}
