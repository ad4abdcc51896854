package views

import (
	"fmt"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
	"github.com/deevus/livefrag/hotreload"
	"github.com/dustin/go-humanize"
)

// SessionStatus is the part of a hot-reload session the status line shows.
type SessionStatus interface {
	State() hotreload.State
	ConnectedAt() time.Time
	Delay() time.Duration
}

// StatusLine shows the hot-reload connection state and the reload count.
type StatusLine struct {
	session SessionStatus
	reloads func() int
	now     func() time.Time
}

// NewStatusLine creates a StatusLine. now defaults to time.Now.
func NewStatusLine(reloads func() int, now func() time.Time) *StatusLine {
	if now == nil {
		now = time.Now
	}
	return &StatusLine{reloads: reloads, now: now}
}

// SetSession points the status line at the current notifier session. It is
// called from the event loop whenever the notifier restarts.
func (sl *StatusLine) SetSession(s SessionStatus) {
	sl.session = s
}

// Text returns the status text.
func (sl *StatusLine) Text() string {
	text := "hot reload: off"
	if sl.session != nil {
		switch st := sl.session.State(); st {
		case hotreload.Connected:
			text = "hot reload: connected " + humanize.RelTime(sl.session.ConnectedAt(), sl.now(), "ago", "from now")
		case hotreload.Connecting:
			text = fmt.Sprintf("hot reload: reconnecting (retry delay %s)", sl.session.Delay())
		default:
			text = "hot reload: " + st.String()
		}
	}
	if sl.reloads != nil {
		if n := sl.reloads(); n > 0 {
			text += fmt.Sprintf(" · reloaded %s", humanize.Comma(int64(n)))
			if n == 1 {
				text += " time"
			} else {
				text += " times"
			}
		}
	}
	return text
}

// Draw renders the status line as a single row.
func (sl *StatusLine) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	style := vaxis.Style{Attribute: vaxis.AttrDim}
	if sl.session != nil && sl.session.State() == hotreload.Connected {
		style = vaxis.Style{Foreground: vaxis.IndexColor(2)}
	}
	label := richtext.New([]vaxis.Segment{{Text: sl.Text(), Style: style}})
	return label.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
}
