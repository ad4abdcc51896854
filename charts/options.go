package charts

// Kind selects how a chart draws its series.
type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
)

// Series is one named sequence of values.
type Series struct {
	Name string
	Data []float64
}

// Options describes a chart's content. Collaborators decide how to lay it out.
type Options struct {
	Kind       Kind
	Title      string
	Series     []Series
	Categories []string
	// Unit is appended to value labels, e.g. "kg".
	Unit string
}

// Max returns the largest value across all series, or 0 when empty.
func (o Options) Max() float64 {
	var m float64
	first := true
	for _, s := range o.Series {
		for _, v := range s.Data {
			if first || v > m {
				m = v
				first = false
			}
		}
	}
	return m
}

// Len returns the length of the longest series.
func (o Options) Len() int {
	n := 0
	for _, s := range o.Series {
		if len(s.Data) > n {
			n = len(s.Data)
		}
	}
	return n
}
