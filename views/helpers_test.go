package views_test

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/deevus/livefrag/charts"
)

func testDrawContext(w, h uint16) vxfw.DrawContext {
	return vxfw.DrawContext{
		Max: vxfw.Size{Width: w, Height: h},
		Min: vxfw.Size{},
		Characters: func(s string) []vaxis.Character {
			chars := make([]vaxis.Character, 0, len(s))
			for _, r := range s {
				chars = append(chars, vaxis.Character{Grapheme: string(r), Width: 1})
			}
			return chars
		},
	}
}

func barChartOptions() charts.Options {
	return charts.Options{
		Kind:       charts.KindBar,
		Title:      "Push",
		Series:     []charts.Series{{Name: "volume", Data: []float64{480, 625}}},
		Categories: []string{"S1", "S2"},
		Unit:       "kg",
	}
}
