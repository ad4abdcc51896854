package internal

import (
	"github.com/deevus/livefrag/charts"
	"github.com/deevus/livefrag/clock"
	"github.com/deevus/livefrag/hotreload"
)

// Services holds the collaborators injected into a page host.
type Services struct {
	Charter charts.Charter
	Dialer  hotreload.Dialer
	Clock   clock.Clock
}

// NewServices creates a Services container. A nil clock defaults to
// clock.Real{} and a nil dialer to hotreload.WebSocketDialer{}.
func NewServices(ch charts.Charter, d hotreload.Dialer, c clock.Clock) *Services {
	if d == nil {
		d = hotreload.WebSocketDialer{}
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Services{
		Charter: ch,
		Dialer:  d,
		Clock:   c,
	}
}
